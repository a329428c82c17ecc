package version

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"whitehill-server/pkg/api"
)

// Заполняются через -ldflags "-X whitehill-server/internal/version.BuildDate=..."
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

// Protocol - версия протокола VIEW/STEER. Меняется, когда клиенту
// нужно обновиться (новые поля кадра, новые команды).
const Protocol = "whitehill/1"

// Номер сборки - сколько суток прошло с запуска мира
var buildEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrNoBuildDate  = errors.New("build date not set")
	ErrBadBuildDate = errors.New("bad build date")
)

// VersionInfo - то, что отдает /version: сборка, протокол и кодеки
// кадров, которые понимает сервер.
type VersionInfo struct {
	BuildID   int      `json:"build_id"`
	BuildDate string   `json:"build_date"`
	Commit    string   `json:"commit"`
	Branch    string   `json:"branch"`
	CI        string   `json:"ci"`
	GoVersion string   `json:"go_version"`
	Protocol  string   `json:"protocol"`
	Codecs    []string `json:"codecs"`
	Error     string   `json:"error,omitempty"`
}

// Known - удалось ли посчитать номер сборки
func (v VersionInfo) Known() bool {
	return v.Error == ""
}

func CalculateBuildID() (int, error) {
	return buildIDFor(BuildDate)
}

func buildIDFor(date string) (int, error) {
	if date == "" {
		return 0, ErrNoBuildDate
	}
	t, err := time.ParseInLocation(time.DateOnly, date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadBuildDate, date)
	}
	if t.Before(buildEpoch) {
		return 0, fmt.Errorf("%w: %s is before %s", ErrBadBuildDate, date, buildEpoch.Format(time.DateOnly))
	}
	// Обе даты в UTC, сутки всегда ровно 24 часа
	return int(t.Sub(buildEpoch) / (24 * time.Hour)), nil
}

func Info() VersionInfo {
	info := VersionInfo{
		BuildDate: BuildDate,
		Commit:    or(BuildCommit, "unknown"),
		Branch:    or(BuildBranch, "unknown"),
		CI:        or(BuildCI, "local"),
		GoVersion: runtime.Version(),
		Protocol:  Protocol,
		Codecs:    []string{api.CodecJSON, api.CodecMsgpack},
	}

	id, err := CalculateBuildID()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.BuildID = id
	return info
}

// String - строка для лога при старте сервера
func String() string {
	info := Info()
	build := "dev"
	if info.Known() {
		build = fmt.Sprintf("%d (%s)", info.BuildID, info.BuildDate)
	}
	return fmt.Sprintf("whitehill-server build %s proto %s commit[%s] branch[%s] ci[%s] %s",
		build, info.Protocol, info.Commit, info.Branch, info.CI, info.GoVersion)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
