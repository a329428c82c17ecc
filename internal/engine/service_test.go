package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"whitehill-server/internal/domain"
	"whitehill-server/pkg/api"
)

const testScenario = `
grid: {width: 50, height: 40}
props:
  - key: wall
    x: 160
    y: 0
    size: [16, 160]
`

// fakeClock - ручные часы для детерминированных тиков
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// createTestService поднимает сервис со стеной x=160..175 и спавном в (16,16)
func createTestService(t *testing.T) (*GameService, *fakeClock) {
	t.Helper()
	cfg := NewConfig()
	cfg.Scenario = writeFile(t, "level.yaml", testScenario)
	cfg.Spawn.X, cfg.Spawn.Y = 16, 16

	s, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = clock.Now
	return s, clock
}

func command(action string, payload any) api.ClientCommand {
	cmd := api.ClientCommand{Action: action}
	if payload != nil {
		cmd.Payload, _ = json.Marshal(payload)
	}
	return cmd
}

// drain возвращает последнее сообщение из канала (или пустое)
func drain(ch <-chan api.ServerMessage) (last api.ServerMessage, n int) {
	for {
		select {
		case msg := <-ch:
			last, n = msg, n+1
		default:
			return last, n
		}
	}
}

func TestNewService_FromScenario(t *testing.T) {
	s, _ := createTestService(t)
	if s.World.Len() != 1 || len(s.props) != 1 {
		t.Fatalf("world has %d entities, want the wall only", s.World.Len())
	}
}

func TestNewService_GeneratesLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Seed = 11
	s, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if s.World.Len() == 0 {
		t.Error("generated level is empty")
	}
	if s.spawn.IsZero() {
		t.Error("spawn point not taken from the generator")
	}
}

func TestJoinLeave(t *testing.T) {
	s, _ := createTestService(t)

	id, ch, err := s.Join("alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	avatar := s.World.GetEntity(id)
	if avatar == nil || avatar.DisplayKey() != "player" || id.Kind() != domain.EntityKindAvatar {
		t.Fatalf("avatar = %v", avatar)
	}
	if avatar.Pos() != domain.V(16, 16) {
		t.Errorf("avatar at %v, want spawn (16,16)", avatar.Pos())
	}

	s.Leave("alice", ch)
	if s.World.GetEntity(id) != nil || s.Sessions() != 0 {
		t.Error("avatar or session survived Leave")
	}
	if _, ok := <-ch; ok {
		t.Error("channel must be closed after Leave")
	}
}

func TestJoin_SpreadsAvatars(t *testing.T) {
	s, _ := createTestService(t)
	a, _, _ := s.Join("a")
	b, _, _ := s.Join("b")

	ea, eb := s.World.GetEntity(a), s.World.GetEntity(b)
	if ea.Mask().Overlaps(eb.Mask(), eb.Pos().Sub(ea.Pos())) {
		t.Errorf("avatars overlap: %v and %v", ea.Pos(), eb.Pos())
	}
}

func TestJoin_ResumeKeepsAvatar(t *testing.T) {
	s, _ := createTestService(t)
	first, oldCh, _ := s.Join("alice")
	again, newCh, err := s.Join("alice")
	if err != nil || again != first {
		t.Fatalf("resume: id %v (was %v), err %v", again, first, err)
	}

	// Старое соединение закрывается позже нового входа
	s.Leave("alice", oldCh)
	if s.World.GetEntity(first) == nil {
		t.Fatal("stale connection despawned the resumed avatar")
	}
	s.Leave("alice", newCh)
	if s.World.GetEntity(first) != nil {
		t.Error("avatar survived Leave of the current connection")
	}
}

func TestStep_SteerMovesAvatar(t *testing.T) {
	s, clock := createTestService(t)
	id, ch, _ := s.Join("alice")

	speed := 60.0
	if err := s.ProcessCommand("alice", command(api.ActionSteer, api.SteerPayload{Dx: 5, Speed: &speed})); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil { // Первый тик только запускает часы
		t.Fatal(err)
	}

	clock.Advance(500 * time.Millisecond)
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	avatar := s.World.GetEntity(id)
	if avatar.Direction() != domain.DirEast {
		t.Errorf("direction = %v, want east", avatar.Direction())
	}
	if avatar.Pos() != domain.V(46, 16) {
		t.Errorf("pos = %v, want (46,16)", avatar.Pos())
	}

	msg, n := drain(ch)
	if n != 2 || msg.Type != api.MsgTypeView || msg.Tick != 2 {
		t.Fatalf("got %d frames, last %+v", n, msg)
	}
	if msg.MyEntityID != uint64(id) {
		t.Errorf("myEntityId = %d, want %d", msg.MyEntityID, id)
	}
	found := false
	for _, sp := range msg.Sprites {
		if sp.ID == uint64(id) && sp.Key == "player" {
			found = true
		}
	}
	if !found {
		t.Error("own avatar missing from the frame")
	}
}

func TestStep_WallStopsAvatar(t *testing.T) {
	s, clock := createTestService(t)
	id, _, _ := s.Join("alice")

	speed := 1000.0
	_ = s.ProcessCommand("alice", command(api.ActionSteer, api.SteerPayload{Dx: 1, Speed: &speed}))
	_ = s.Step()
	clock.Advance(time.Second)
	_ = s.Step()

	// Аватар 12px, стена начинается с x=160
	if got := s.World.GetEntity(id).Pos(); got != domain.V(148, 16) {
		t.Errorf("pos = %v, want (148,16) against the wall", got)
	}
}

func TestStep_BroadcastEvery(t *testing.T) {
	s, _ := createTestService(t)
	s.cfg.BroadcastEvery = 3
	_, ch, _ := s.Join("alice")

	for i := 0; i < 6; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if _, n := drain(ch); n != 2 {
		t.Errorf("frames = %d, want 2 for 6 ticks", n)
	}
}

func TestCommand_InvalidPayloadReportsError(t *testing.T) {
	s, _ := createTestService(t)
	_, ch, _ := s.Join("alice")

	bad := -5.0
	_ = s.ProcessCommand("alice", command(api.ActionSteer, api.SteerPayload{Dx: 1, Speed: &bad}))
	s.mu.Lock()
	s.drainCommands()
	s.mu.Unlock()

	msg, n := drain(ch)
	if n != 1 || msg.Type != api.MsgTypeError || msg.Error == "" {
		t.Errorf("got %d messages, last %+v", n, msg)
	}
}

func TestProcessCommand_Rejects(t *testing.T) {
	s, _ := createTestService(t)

	if err := s.ProcessCommand("alice", command("DANCE", nil)); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}

	for i := 0; i < cap(s.CommandChan); i++ {
		_ = s.ProcessCommand("alice", command(api.ActionInit, nil))
	}
	if err := s.ProcessCommand("alice", command(api.ActionInit, nil)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
}

func TestLookAndFollow(t *testing.T) {
	s, _ := createTestService(t)
	_, ch, _ := s.Join("alice")

	_ = s.ProcessCommand("alice", command(api.ActionLook, api.PositionPayload{X: 100, Y: 50}))
	s.mu.Lock()
	s.drainCommands()
	s.mu.Unlock()

	msg, n := drain(ch)
	if n != 1 || msg.Origin != (api.Point{X: 100, Y: 50}) {
		t.Fatalf("LOOK frame: n=%d origin=%+v", n, msg.Origin)
	}

	_ = s.ProcessCommand("alice", command(api.ActionFollow, nil))
	s.mu.Lock()
	s.drainCommands()
	s.mu.Unlock()

	// Аватар у левого верхнего угла: камера прижата к краю мира
	snap, err := s.Snapshot("alice")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Origin != (api.Point{}) {
		t.Errorf("follow origin = %+v, want (0,0)", snap.Origin)
	}
	if _, err := s.Snapshot("bob"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("err = %v, want ErrUnknownSession", err)
	}
}

func TestReloadScenario(t *testing.T) {
	s, _ := createTestService(t)
	avatar, _, _ := s.Join("alice")

	next := writeFile(t, "next.yaml", `
props:
  - {key: rock, x: 300, y: 300, size: [8, 8]}
  - {key: rock, x: 340, y: 300, size: [8, 8]}
`)
	if err := s.ReloadScenario(next); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s.World.Len() != 3 || s.World.GetEntity(avatar) == nil {
		t.Fatalf("world has %d entities, want 2 rocks and the avatar", s.World.Len())
	}
	for _, e := range s.World.Entities() {
		if e.DisplayKey() == "wall" {
			t.Error("old prop survived reload")
		}
	}

	broken := writeFile(t, "broken.yaml", "props:\n  - {key: rock}\n")
	if err := s.ReloadScenario(broken); err == nil {
		t.Fatal("broken scenario accepted")
	}
	if s.World.Len() != 3 {
		t.Errorf("failed reload changed the world: %d entities", s.World.Len())
	}
}

func TestReloadScenario_OldPropAlreadyGone(t *testing.T) {
	s, _ := createTestService(t)
	if err := s.World.Despawn(s.props[0]); err != nil {
		t.Fatalf("Despawn: %v", err)
	}

	next := writeFile(t, "next.yaml", "props:\n  - {key: rock, x: 300, y: 300, size: [8, 8]}\n")
	if err := s.ReloadScenario(next); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s.World.Len() != 1 || len(s.props) != 1 {
		t.Fatalf("world has %d entities, %d tracked props, want 1 and 1", s.World.Len(), len(s.props))
	}
	if e := s.World.GetEntity(s.props[0]); e == nil || e.DisplayKey() != "rock" {
		t.Errorf("tracked prop = %v, want the new rock", e)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := createTestService(t)
	s.now = time.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	var ticks uint64
	s.WithWorld(func(w *domain.GameWorld) { ticks = w.Clock().Tick })
	if ticks == 0 {
		t.Error("no ticks while running")
	}
}

func TestWatchScenario_ReloadsOnWrite(t *testing.T) {
	s, _ := createTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.WatchScenario(ctx) }()
	time.Sleep(200 * time.Millisecond)

	body := testScenario + "  - {key: rock, x: 300, y: 300, size: [8, 8]}\n"
	if err := os.WriteFile(s.cfg.Scenario, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		n := 0
		s.WithWorld(func(w *domain.GameWorld) { n = w.Len() })
		if n == 2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("scenario not reloaded after write")
}

func TestClampCamera(t *testing.T) {
	screen := domain.V(800, 640)
	world := domain.V(1000, 700)
	tests := []struct {
		in, want domain.Vec
	}{
		{domain.V(100, 30), domain.V(100, 30)},
		{domain.V(-50, -10), domain.V(0, 0)},
		{domain.V(900, 900), domain.V(200, 60)},
	}
	for _, tt := range tests {
		if got := clampCamera(tt.in, screen, world); got != tt.want {
			t.Errorf("clampCamera(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := clampCamera(domain.V(50, 50), screen, domain.V(400, 400)); got != (domain.Vec{}) {
		t.Errorf("small world: %v, want origin", got)
	}
}
