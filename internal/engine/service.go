package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"whitehill-server/internal/domain"
	"whitehill-server/internal/engine/handlers"
	"whitehill-server/internal/engine/handlers/actions"
	"whitehill-server/internal/network"
	"whitehill-server/internal/scenario"
	"whitehill-server/internal/systems"
	"whitehill-server/pkg/api"
	"whitehill-server/pkg/dungeon"
	"whitehill-server/pkg/logger"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrUnknownAction  = errors.New("unknown action")
	ErrQueueFull      = errors.New("command queue full")
)

// InternalCommand - команда клиента, привязанная к сессии
type InternalCommand struct {
	SessionID string
	Action    string
	Payload   json.RawMessage
}

// Session - подключенный клиент: его аватар и камера
type Session struct {
	ID       string
	AvatarID domain.EntityID
	Camera   handlers.Camera
}

type GameService struct {
	cfg Config

	// mu защищает World и sessions: мир однопоточный, пишет только тот,
	// кто держит замок (тик, команды, вход/выход, перезагрузка сценария).
	mu       sync.Mutex
	World    *domain.GameWorld
	sessions map[string]*Session
	props    []domain.EntityID // Объекты текущего сценария
	spawn    domain.Vec

	CommandChan chan InternalCommand
	Hub         *network.Broadcaster

	handlers map[string]handlers.HandlerFunc
	now      func() time.Time
}

// NewService строит мир из сценария (cfg.Scenario) или генерирует уровень по сиду.
func NewService(cfg Config) (*GameService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		sc    *scenario.Scenario
		spawn = domain.V(cfg.Spawn.X, cfg.Spawn.Y)
	)
	if cfg.Scenario != "" {
		loaded, err := scenario.Load(cfg.Scenario)
		if err != nil {
			return nil, err
		}
		sc = loaded
	} else {
		opts := dungeon.Options{Width: cfg.Grid.Width, Height: cfg.Grid.Height, Seed: cfg.Seed}
		level := dungeon.Generate(opts)
		if cfg.Surface {
			level = dungeon.GenerateSurface(opts)
		}
		logger.Log.WithFields(logrus.Fields{
			"seed":  level.Seed,
			"rooms": len(level.Rooms),
			"props": len(level.Scenario.Props),
		}).Info("Level generated")
		sc = level.Scenario
		spawn = level.Spawn
	}

	width, height := cfg.Grid.Width, cfg.Grid.Height
	if sc.Grid.Width > 0 {
		width = sc.Grid.Width
	}
	if sc.Grid.Height > 0 {
		height = sc.Grid.Height
	}
	world, err := domain.NewGameWorld(width, height)
	if err != nil {
		return nil, err
	}

	props, err := sc.Apply(world)
	if err != nil {
		return nil, err
	}

	s := &GameService{
		cfg:         cfg,
		World:       world,
		sessions:    make(map[string]*Session),
		props:       props,
		spawn:       spawn,
		CommandChan: make(chan InternalCommand, 256),
		Hub:         network.NewBroadcaster(),
		handlers:    make(map[string]handlers.HandlerFunc),
		now:         time.Now,
	}
	s.registerHandlers()
	return s, nil
}

func (s *GameService) registerHandlers() {
	s.handlers[api.ActionSteer] = handlers.WithPayload(api.ActionSteer, actions.HandleSteer)
	s.handlers[api.ActionLook] = handlers.WithPayload(api.ActionLook, actions.HandleLook)
	s.handlers[api.ActionFollow] = handlers.WithEmptyPayload(api.ActionFollow, actions.HandleFollow)
	s.handlers[api.ActionInit] = handlers.WithEmptyPayload(api.ActionInit, actions.HandleInit)
}

func (s *GameService) Config() Config {
	return s.cfg
}

// --- GAME LOOP ---

// Run крутит симуляцию с частотой cfg.TickRate, пока не отменят ctx.
// Ошибка структуры индекса останавливает цикл и возвращается наружу.
func (s *GameService) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.mu.Lock()
	s.World.StartClock(s.now())
	s.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{
		"tick_rate": s.cfg.TickRate,
		"grid":      fmt.Sprintf("%dx%d", s.World.Width, s.World.Height),
	}).Info("Game loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Game loop stopped")
			return nil
		case <-ticker.C:
			if err := s.Step(); err != nil {
				logger.Log.WithError(err).Error("Simulation halted")
				return err
			}
		}
	}
}

// Step - один тик: команды из очереди, движение, рассылка кадров.
func (s *GameService) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drainCommands()

	report, err := systems.AdvanceTo(s.World, s.now())
	if err != nil {
		return err
	}
	if n := report.Blocked(); n > 0 {
		logger.Log.WithFields(logrus.Fields{
			"tick":    report.Tick,
			"blocked": n,
			"moved":   len(report.Results),
		}).Trace("Movement blocked")
	}

	if report.Tick%uint64(s.cfg.BroadcastEvery) == 0 {
		s.publishAll()
	}
	return nil
}

func (s *GameService) drainCommands() {
	for {
		select {
		case cmd := <-s.CommandChan:
			s.executeCommand(cmd)
		default:
			return
		}
	}
}

// ProcessCommand принимает команду от внешнего мира (WebSocket).
// Сама команда выполнится в начале следующего тика.
func (s *GameService) ProcessCommand(sessionID string, cmd api.ClientCommand) error {
	if _, ok := s.handlers[cmd.Action]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	select {
	case s.CommandChan <- InternalCommand{SessionID: sessionID, Action: cmd.Action, Payload: cmd.Payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// executeCommand выполняет хендлер. Вызывается под s.mu.
func (s *GameService) executeCommand(cmd InternalCommand) {
	log := logger.Log.WithFields(logrus.Fields{
		"session": cmd.SessionID,
		"action":  cmd.Action,
	})

	sess, ok := s.sessions[cmd.SessionID]
	if !ok {
		log.Debug("Command from unknown session dropped")
		return
	}
	avatar := s.World.GetEntity(sess.AvatarID)
	if avatar == nil {
		log.Warn("Session has no avatar")
		return
	}

	handler := s.handlers[cmd.Action]
	result, err := handler(handlers.Context{
		World:  s.World,
		Actor:  avatar,
		Camera: &sess.Camera,
	}, cmd.Payload)
	if err != nil {
		log.WithError(err).Warn("Command rejected")
		s.Hub.SendTo(sess.ID, api.ServerMessage{
			Type:  api.MsgTypeError,
			Tick:  s.World.Clock().Tick,
			Error: err.Error(),
		})
		return
	}

	if result.Msg != "" {
		log.Debug(result.Msg)
	}
	if result.Publish {
		s.Hub.SendTo(sess.ID, s.buildSnapshot(sess))
	}
}

// --- SESSIONS ---

// Join создает аватар для новой сессии и подписывает её на кадры.
// Повторный вход с тем же ID возвращает прежний аватар.
func (s *GameService) Join(sessionID string) (domain.EntityID, <-chan api.ServerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		logger.Log.WithField("session", sessionID).Info("Session resumed")
		return sess.AvatarID, s.Hub.Register(sessionID), nil
	}

	mask, err := domain.SolidMask(s.cfg.Spawn.Width, s.cfg.Spawn.Height)
	if err != nil {
		return domain.NilEntityID, nil, err
	}
	pos := s.findFreeSpot(s.spawn, mask, s.cfg.Spawn.Layer)
	avatar, err := s.World.Spawn(domain.EntitySpec{
		Kind:       domain.EntityKindAvatar,
		DisplayKey: s.cfg.Spawn.Key,
		Pos:        pos,
		Size:       mask.Size(),
		Layer:      s.cfg.Spawn.Layer,
		Speed:      s.cfg.Spawn.Speed,
		Mask:       mask,
	})
	if err != nil {
		return domain.NilEntityID, nil, err
	}

	s.sessions[sessionID] = &Session{ID: sessionID, AvatarID: avatar.ID()}
	logger.Log.WithFields(logrus.Fields{
		"session": sessionID,
		"avatar":  avatar.ID().String(),
		"pos":     pos,
	}).Info("Session joined")
	return avatar.ID(), s.Hub.Register(sessionID), nil
}

// Leave удаляет аватар сессии и отписывает её. ch - канал, полученный
// из Join: если сессию уже перехватило новое соединение, выход старого
// ничего не трогает. nil - выйти безусловно.
func (s *GameService) Leave(sessionID string, ch <-chan api.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if ch != nil && !s.Hub.Owns(sessionID, ch) {
		return
	}
	if err := s.World.Despawn(sess.AvatarID); err != nil {
		logger.Log.WithError(err).WithField("session", sessionID).Error("Failed to despawn avatar")
	}
	delete(s.sessions, sessionID)
	s.Hub.Unregister(sessionID)
	logger.Log.WithField("session", sessionID).Info("Session left")
}

// findFreeSpot ищет ближайшее к want место, где маска ни с кем из слоя
// не пересекается. Обходит кольца вокруг want с шагом в размер маски.
func (s *GameService) findFreeSpot(want domain.Vec, mask *domain.CollisionMask, layer int) domain.Vec {
	size := mask.Size()
	limit := max(s.World.Width, s.World.Height)
	for ring := 0; ring <= limit; ring++ {
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dy)) != ring {
					continue
				}
				p := want.Add(domain.V(dx*size.X, dy*size.Y))
				if s.spotFree(p, mask, layer) {
					return p
				}
			}
		}
	}
	return want
}

func (s *GameService) spotFree(p domain.Vec, mask *domain.CollisionMask, layer int) bool {
	size := mask.Size()
	world := s.World.PixelSize()
	if p.X < 0 || p.Y < 0 || p.X+size.X > world.X || p.Y+size.Y > world.Y {
		return false
	}
	origin := p.FloorDiv(domain.BinSize)
	span := size.CeilDiv(domain.BinSize).Add(domain.V(1, 1))
	free := true
	s.World.ForEachInRect(s.World.BoundedSubgrid(origin, span), func(id domain.EntityID) {
		other := s.World.GetEntity(id)
		if !free || other == nil || other.Layer() != layer {
			return
		}
		if other.Mask().Overlaps(mask, p.Sub(other.Pos())) {
			free = false
		}
	})
	return free
}

// Sessions - число подключенных сессий
func (s *GameService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// --- SCENARIO ---

// ReloadScenario заменяет объекты сценария на объекты из файла.
// Аватары остаются на местах. При ошибке мир не меняется.
func (s *GameService) ReloadScenario(path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if (sc.Grid.Width > 0 && sc.Grid.Width != s.World.Width) || (sc.Grid.Height > 0 && sc.Grid.Height != s.World.Height) {
		logger.Log.WithField("path", path).Warn("Scenario grid size ignored on reload")
	}

	ids, err := sc.Apply(s.World)
	if err != nil {
		return err
	}
	old := len(s.props)
	for i, id := range s.props {
		err := s.World.Despawn(id)
		if errors.Is(err, domain.ErrUnknownEntity) {
			continue // уже убран из мира
		}
		if err != nil {
			// Откатываем новые пропсы, старые (кроме уже снятых) остаются
			for _, nid := range ids {
				_ = s.World.Despawn(nid)
			}
			s.props = s.props[i:]
			return fmt.Errorf("despawn old prop %s: %w", id, err)
		}
	}
	s.props = ids

	logger.Log.WithFields(logrus.Fields{
		"path":    path,
		"removed": old,
		"added":   len(ids),
	}).Info("Scenario reloaded")
	return nil
}

// --- SNAPSHOTS ---

// Snapshot строит кадр для сессии
func (s *GameService) Snapshot(sessionID string) (api.ServerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return api.ServerMessage{}, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return s.buildSnapshot(sess), nil
}

// WithWorld дает доступ к миру под замком (для отладочных ручек).
// fn не должна сохранять ссылки на сущности.
func (s *GameService) WithWorld(fn func(w *domain.GameWorld)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.World)
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
