package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"whitehill-server/internal/agent"
	"whitehill-server/internal/engine"
	"whitehill-server/internal/server"
	"whitehill-server/internal/version"
	"whitehill-server/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	if err := run(); err != nil {
		logger.Log.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}
	logger.Log.Info("Done.")
}

func run() error {
	// 1. Парсинг флагов
	var (
		configPath   string
		port         string
		scenarioPath string
		profileMode  string
		seed         int64
		surface      bool
		bots         int
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config")
	flag.StringVar(&port, "port", "", "HTTP port (overrides config and WH_PORT)")
	flag.StringVar(&scenarioPath, "scenario", "", "Path to YAML scenario (empty: generate a level)")
	flag.StringVar(&profileMode, "profile", "", "Profile mode: cpu or mem")
	// По умолчанию 0 (значит сгенерировать случайно).
	flag.Int64Var(&seed, "seed", 0, "Level seed (0 for random)")
	flag.BoolVar(&surface, "surface", false, "Generate the surface level instead of a dungeon")
	flag.IntVar(&bots, "bots", -1, "Number of wandering bots (overrides config)")
	flag.Parse()

	logger.Log.Info("Starting Whitehill...")
	logger.Log.Info(version.String())

	// 2. Конфиг: файл, окружение, затем флаги
	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}
	if scenarioPath != "" {
		cfg.Scenario = scenarioPath
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if surface {
		cfg.Surface = true
	}
	if bots >= 0 {
		cfg.Bots = bots
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	switch profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		logger.Log.WithField("profile", profileMode).Warn("Unknown profile mode, profiling disabled")
	}

	logger.Log.WithFields(logrus.Fields{
		"port":      cfg.Port,
		"tick_rate": cfg.TickRate,
		"codec":     cfg.Codec,
		"scenario":  cfg.Scenario,
	}).Info("Config loaded")

	// 3. Инициализация ядра
	gameService, err := engine.NewService(cfg)
	if err != nil {
		return err
	}
	srv, err := server.New(gameService, cfg.Port)
	if err != nil {
		return err
	}

	// Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return gameService.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	if cfg.WatchScenario {
		g.Go(func() error { return gameService.WatchScenario(ctx) })
	}
	for i := 0; i < cfg.Bots; i++ {
		bot := agent.NewBot(fmt.Sprintf("bot_%d", i+1), gameService, cfg.Seed+int64(i)+1)
		g.Go(func() error { return bot.Run(ctx) })
	}

	// Остановка цикла без ошибки (сигнал) тоже гасит остальных
	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down...")
	}()
	return g.Wait()
}
