package domain

import (
	"errors"
	"sort"
	"testing"
)

// Helper: пустой мир минимального размера
func createTestWorld(t *testing.T) *GameWorld {
	t.Helper()
	w, err := NewGameWorld(MinGridWidth, MinGridHeight)
	if err != nil {
		t.Fatalf("NewGameWorld() error = %v", err)
	}
	return w
}

func spawnBox(t *testing.T, w *GameWorld, pos Vec, layer int) *Entity {
	t.Helper()
	mask, _ := SolidMask(16, 16)
	e, err := w.Spawn(EntitySpec{Kind: EntityKindProp, DisplayKey: "box", Pos: pos, Layer: layer, Mask: mask})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	return e
}

// snapshotBins копирует содержимое бинов в сравнимый вид
func snapshotBins(w *GameWorld) map[int][]EntityID {
	out := make(map[int][]EntityID)
	for idx, ids := range w.bins {
		if len(ids) == 0 {
			continue
		}
		cp := append([]EntityID(nil), ids...)
		sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
		out[idx] = cp
	}
	return out
}

func TestNewGameWorld_Size(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"minimum", 50, 40, false},
		{"bigger", 128, 96, false},
		{"too narrow", 49, 40, true},
		{"too short", 50, 39, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGameWorld(tt.w, tt.h)
			if tt.wantErr && !errors.Is(err, ErrInvalidGridSize) {
				t.Errorf("NewGameWorld(%d, %d) error = %v, want ErrInvalidGridSize", tt.w, tt.h, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewGameWorld(%d, %d) unexpected error = %v", tt.w, tt.h, err)
			}
		})
	}
}

func TestBoundedSubgrid(t *testing.T) {
	w := createTestWorld(t)

	tests := []struct {
		name         string
		origin, span Vec
		want         BinRect
	}{
		{"inside", V(3, 4), V(2, 2), BinRect{X: 3, Y: 4, W: 2, H: 2}},
		{"clipped left/top", V(-2, -1), V(4, 3), BinRect{X: 0, Y: 0, W: 2, H: 2}},
		{"clipped right/bottom", V(48, 39), V(5, 5), BinRect{X: 48, Y: 39, W: 2, H: 1}},
		{"viewport window", V(0, 0), V(51, 41), BinRect{X: 0, Y: 0, W: 50, H: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.BoundedSubgrid(tt.origin, tt.span); got != tt.want {
				t.Errorf("BoundedSubgrid(%v, %v) = %+v, want %+v", tt.origin, tt.span, got, tt.want)
			}
		})
	}

	for _, origin := range []Vec{V(60, 0), V(0, 45), V(-10, -10)} {
		if r := w.BoundedSubgrid(origin, V(3, 3)); !r.Empty() {
			t.Errorf("BoundedSubgrid(%v) = %+v, want empty", origin, r)
		}
	}
}

func TestGameWorld_SpawnDespawn(t *testing.T) {
	w := createTestWorld(t)

	e := spawnBox(t, w, V(8, 8), 0)

	if w.GetEntity(e.ID()) != e {
		t.Fatal("GetEntity returned wrong entity")
	}
	if e.ID().Kind() != EntityKindProp {
		t.Errorf("Kind() = %d, want prop", e.ID().Kind())
	}

	// Футпринт: floor(8/16)=0, ceil(16/16)+1=2 -> бины [0,2) x [0,2)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			if ids := w.BinAt(x, y); len(ids) != 1 || ids[0] != e.ID() {
				t.Errorf("bin (%d,%d) = %v, want [%s]", x, y, ids, e.ID())
			}
		}
	}
	if len(w.BinAt(2, 0)) != 0 {
		t.Error("entity leaked outside its footprint")
	}

	if err := w.Despawn(e.ID()); err != nil {
		t.Fatalf("Despawn() error = %v", err)
	}
	if w.GetEntity(e.ID()) != nil || w.Len() != 0 {
		t.Error("entity should be gone after Despawn")
	}
	if len(snapshotBins(w)) != 0 {
		t.Error("bins should be empty after Despawn")
	}

	if err := w.Despawn(e.ID()); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("second Despawn() error = %v, want ErrUnknownEntity", err)
	}
}

func TestGameWorld_RegisterUnregisterRestoresBins(t *testing.T) {
	w := createTestWorld(t)
	spawnBox(t, w, V(0, 0), 0)
	spawnBox(t, w, V(20, 5), 1)
	moving := spawnBox(t, w, V(10, 10), 0)

	if err := w.Unregister(moving); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	before := snapshotBins(w)

	if err := w.Register(moving); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := w.Unregister(moving); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	after := snapshotBins(w)

	if len(before) != len(after) {
		t.Fatalf("bins differ: before %v, after %v", before, after)
	}
	for idx, ids := range before {
		got := after[idx]
		if len(got) != len(ids) {
			t.Fatalf("bin %d: before %v, after %v", idx, ids, got)
		}
		for i := range ids {
			if got[i] != ids[i] {
				t.Fatalf("bin %d: before %v, after %v", idx, ids, got)
			}
		}
	}
}

func TestGameWorld_RegisterTwiceRejected(t *testing.T) {
	w := createTestWorld(t)
	e := spawnBox(t, w, V(0, 0), 0)

	if err := w.Register(e); !errors.Is(err, ErrIndexCorrupted) {
		t.Errorf("Register() on indexed entity error = %v, want ErrIndexCorrupted", err)
	}
	if ids := w.BinAt(0, 0); len(ids) != 1 {
		t.Errorf("bin (0,0) has duplicates: %v", ids)
	}
}

func TestGameWorld_UnregisterDetectsDesync(t *testing.T) {
	w := createTestWorld(t)
	e := spawnBox(t, w, V(0, 0), 0)

	// Ломаем индекс руками: бин (1,1) забыл про сущность
	idx := w.GetIndex(1, 1)
	w.bins[idx] = w.bins[idx][:0]

	if err := w.Unregister(e); !errors.Is(err, ErrIndexCorrupted) {
		t.Errorf("Unregister() error = %v, want ErrIndexCorrupted", err)
	}
}

func TestGameWorld_TeleportAndReshape(t *testing.T) {
	w := createTestWorld(t)
	e := spawnBox(t, w, V(0, 0), 0)

	if err := e.SetPos(V(100, 100)); !errors.Is(err, ErrEntityIndexed) {
		t.Errorf("SetPos() on indexed entity error = %v, want ErrEntityIndexed", err)
	}

	if err := w.Teleport(e.ID(), V(160, 160)); err != nil {
		t.Fatalf("Teleport() error = %v", err)
	}
	if len(w.BinAt(0, 0)) != 0 || len(w.BinAt(10, 10)) != 1 {
		t.Error("Teleport did not move the entity between bins")
	}

	wide, _ := SolidMask(40, 8)
	if err := w.Reshape(e.ID(), wide); err != nil {
		t.Fatalf("Reshape() error = %v", err)
	}
	if e.Size() != V(40, 8) {
		t.Errorf("Size() = %v, want (40,8)", e.Size())
	}
	// ceil(40/16)+1 = 4 бина по X
	if len(w.BinAt(13, 10)) != 1 || len(w.BinAt(14, 10)) != 0 {
		t.Error("Reshape did not reindex the new footprint")
	}
}

func TestGameWorld_SpawnRejectsMismatchedMask(t *testing.T) {
	w := createTestWorld(t)
	mask, _ := SolidMask(8, 8)

	_, err := w.Spawn(EntitySpec{Pos: V(0, 0), Size: V(16, 16), Mask: mask})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Spawn() error = %v, want ErrDimensionMismatch", err)
	}
	if w.Len() != 0 {
		t.Error("failed Spawn left an entity in the arena")
	}
}
