package engine

import (
	"os"
	"testing"

	"whitehill-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	logger.Configure("warn", "")
	os.Exit(m.Run())
}
