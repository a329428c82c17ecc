package engine

import (
	"context"
	"path/filepath"

	"whitehill-server/internal/scenario"
	"whitehill-server/pkg/logger"
)

// WatchScenario перезагружает сценарий при изменении файла.
// Блокирует до отмены ctx. Без сценария в конфиге ничего не делает.
func (s *GameService) WatchScenario(ctx context.Context) error {
	if s.cfg.Scenario == "" {
		return nil
	}
	target, err := filepath.Abs(s.cfg.Scenario)
	if err != nil {
		return err
	}

	w, err := scenario.NewWatcher(filepath.Dir(target))
	if err != nil {
		return err
	}
	defer w.Close()

	log := logger.Log.WithField("path", target)
	log.Info("Watching scenario")

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			if abs, err := filepath.Abs(name); err != nil || abs != target {
				continue
			}
			if err := s.ReloadScenario(target); err != nil {
				log.WithError(err).Warn("Scenario reload failed, keeping the current one")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Scenario watcher error")
		}
	}
}
