package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
var Log *logrus.Logger

// Init инициализирует глобальный логгер.
// Эта функция должна быть вызвана один раз при старте приложения в main.go.
func Init() {
	Log = logrus.New()

	// 1. Уровень и формат из переменных окружения.
	// По умолчанию - "info" и цветной текст. Для отладки LOG_LEVEL=debug.
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	Configure(logLevel, os.Getenv("LOG_FORMAT"))

	if os.Getenv("LOG_FORMAT") == "" {
		Log.SetFormatter(textFormatter())
	}

	// 2. Пишем в стандартный вывод.
	Log.SetOutput(os.Stdout)
}

// Configure меняет уровень и формат уже созданного логгера.
// Вызывается после загрузки конфига; пустые значения ничего не меняют.
func Configure(level, format string) {
	if Log == nil {
		Log = logrus.New()
	}

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		Log.SetLevel(lvl)
	}

	// "json" - для продакшена и сбора логов.
	// "text" - для удобной разработки.
	switch strings.ToLower(format) {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		Log.SetFormatter(textFormatter())
	}
}

func textFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	}
}
