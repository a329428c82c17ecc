package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"whitehill-server/internal/domain"
)

const sample = `
grid: {width: 60, height: 45}
props:
  - key: tree
    x: 100
    y: 40
    layer: 1
    mask:
      - "..##.."
      - ".####."
      - "######"
  - key: cart
    x: 300
    y: 200
    speed: 12
    direction: [1, 0]
    size: [20, 10]
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sc.Grid.Width != 60 || sc.Grid.Height != 45 {
		t.Errorf("grid = %+v", sc.Grid)
	}
	if len(sc.Props) != 2 {
		t.Fatalf("props = %d, want 2", len(sc.Props))
	}

	spec, err := sc.Props[0].Spec()
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if spec.Size != domain.V(6, 3) || spec.Mask.Count() != 12 {
		t.Errorf("tree mask size=%v count=%d", spec.Size, spec.Mask.Count())
	}

	cart, _ := sc.Props[1].Spec()
	if cart.Direction != domain.DirEast || cart.Speed != 12 || cart.Mask.Count() != 200 {
		t.Errorf("cart spec = %+v", cart)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "grid: {width: 50, height: 40}\nweather: rain\n"},
		{"no mask or size", "props:\n  - key: rock\n    x: 1\n    y: 1\n"},
		{"bad direction", "props:\n  - key: rock\n    size: [2, 2]\n    direction: [2, 0]\n"},
		{"short direction", "props:\n  - key: rock\n    size: [2, 2]\n    direction: [1]\n"},
		{"empty mask row", "props:\n  - key: rock\n    mask: [\"\"]\n"},
		{"negative grid", "grid: {width: -1, height: 40}\n"},
		{"negative speed", "props:\n  - key: rock\n    size: [2, 2]\n    speed: -3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApply(t *testing.T) {
	w, err := domain.NewGameWorld(domain.MinGridWidth, domain.MinGridHeight)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	ids, err := sc.Apply(w)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(ids) != 2 || w.Len() != 2 {
		t.Fatalf("ids=%d len=%d", len(ids), w.Len())
	}
	tree := w.GetEntity(ids[0])
	if tree.DisplayKey() != "tree" || tree.Layer() != 1 || tree.Pos() != domain.V(100, 40) {
		t.Errorf("tree = %s %d %v", tree.DisplayKey(), tree.Layer(), tree.Pos())
	}
	if ids[0].Kind() != domain.EntityKindProp {
		t.Errorf("kind = %d, want prop", ids[0].Kind())
	}
}

func TestApply_RollsBackOnFailure(t *testing.T) {
	w, _ := domain.NewGameWorld(domain.MinGridWidth, domain.MinGridHeight)
	sc := &Scenario{Props: []Prop{
		{Key: "ok", X: 10, Y: 10, Size: []int{4, 4}},
		{Key: "broken", X: 10, Y: 10},
	}}

	if _, err := sc.Apply(w); !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("err = %v, want ErrInvalidScenario", err)
	}
	if w.Len() != 0 {
		t.Errorf("world keeps %d entities after failed apply", w.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error")
	}
}

func TestWatcher_ReportsYAMLChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	path := filepath.Join(dir, "level.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events:
		if got != path {
			t.Errorf("event for %s, want %s", got, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for scenario file")
	}
}

func TestIsScenarioFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.yaml": true, "b.YML": true, "c.json": false, "d": false,
	} {
		if got := IsScenarioFile(path); got != want {
			t.Errorf("IsScenarioFile(%q) = %v", path, got)
		}
	}
}
