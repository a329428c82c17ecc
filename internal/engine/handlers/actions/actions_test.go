package actions

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"whitehill-server/internal/domain"
	"whitehill-server/internal/engine/handlers"
	"whitehill-server/pkg/api"
)

func createTestContext(t *testing.T) handlers.Context {
	t.Helper()
	w, err := domain.NewGameWorld(domain.MinGridWidth, domain.MinGridHeight)
	if err != nil {
		t.Fatal(err)
	}
	mask, _ := domain.SolidMask(8, 8)
	e, err := w.Spawn(domain.EntitySpec{
		Kind: domain.EntityKindAvatar, DisplayKey: "player",
		Pos: domain.V(32, 32), Size: mask.Size(), Speed: 24, Mask: mask,
	})
	if err != nil {
		t.Fatal(err)
	}
	return handlers.Context{World: w, Actor: e, Camera: &handlers.Camera{}}
}

func TestHandleSteer(t *testing.T) {
	tests := []struct {
		name    string
		payload api.SteerPayload
		dir     domain.Direction
		speed   float64
	}{
		{"east", api.SteerPayload{Dx: 1}, domain.DirEast, 24},
		{"normalized", api.SteerPayload{Dx: -7, Dy: 3}, domain.DirSouthWest, 24},
		{"stop", api.SteerPayload{}, domain.DirNone, 24},
		{"with speed", api.SteerPayload{Dy: -1, Speed: ptr(90)}, domain.DirNorth, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := createTestContext(t)
			if _, err := HandleSteer(ctx, tt.payload); err != nil {
				t.Fatalf("steer: %v", err)
			}
			if ctx.Actor.Direction() != tt.dir || ctx.Actor.Speed() != tt.speed {
				t.Errorf("got %v @ %v, want %v @ %v", ctx.Actor.Direction(), ctx.Actor.Speed(), tt.dir, tt.speed)
			}
		})
	}
}

func TestHandleSteer_ThroughWrapperValidates(t *testing.T) {
	ctx := createTestContext(t)
	handler := handlers.WithPayload(api.ActionSteer, HandleSteer)

	negative, _ := json.Marshal(api.SteerPayload{Dx: 1, Speed: ptr(-1)})
	huge := json.RawMessage(`{"dx":1,"dy":0` + strings.Repeat(" ", handlers.MaxPayloadBytes) + `}`)

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"negative speed", negative},
		{"missing", nil},
		{"blank", json.RawMessage("  ")},
		{"malformed", json.RawMessage(`{"dx":"left"}`)},
		{"unknown field", json.RawMessage(`{"dx":1,"warp":true}`)},
		{"trailing data", json.RawMessage(`{"dx":1} {"dx":-1}`)},
		{"oversized", huge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler(ctx, tt.raw)
			if !errors.Is(err, handlers.ErrBadPayload) {
				t.Fatalf("err = %v, want ErrBadPayload", err)
			}
			if !strings.HasPrefix(err.Error(), api.ActionSteer+": ") {
				t.Errorf("err = %q, want action prefix", err)
			}
		})
	}
	if !ctx.Actor.Direction().IsZero() {
		t.Error("rejected command changed the avatar")
	}
}

func TestCameraHandlers(t *testing.T) {
	ctx := createTestContext(t)

	res, _ := HandleLook(ctx, api.PositionPayload{X: -20, Y: 400})
	if !res.Publish || !ctx.Camera.Pinned || ctx.Camera.Origin != domain.V(-20, 400) {
		t.Errorf("look: res=%+v camera=%+v", res, *ctx.Camera)
	}

	res, _ = HandleFollow(ctx)
	if !res.Publish || ctx.Camera.Pinned {
		t.Errorf("follow: res=%+v camera=%+v", res, *ctx.Camera)
	}

	if res, _ := HandleInit(ctx); !res.Publish {
		t.Error("init must request a frame")
	}
}

func ptr(v float64) *float64 { return &v }
