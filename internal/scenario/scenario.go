package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"whitehill-server/internal/domain"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario - стартовая расстановка мира из YAML файла.
//
//	grid: {width: 60, height: 40}
//	props:
//	  - key: tree
//	    x: 128
//	    y: 64
//	    mask: ["..##..", ".####."]
type Scenario struct {
	Grid  Grid   `yaml:"grid"`
	Props []Prop `yaml:"props"`
}

// Grid - размер мира в бинах. Нули значат "как в конфиге".
type Grid struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Prop struct {
	Key       string   `yaml:"key"`
	X         int      `yaml:"x"`
	Y         int      `yaml:"y"`
	Layer     int      `yaml:"layer"`
	Speed     float64  `yaml:"speed"`
	Direction []int    `yaml:"direction,omitempty"`
	Mask      []string `yaml:"mask,omitempty"`
	Size      []int    `yaml:"size,omitempty"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse декодирует YAML строго: неизвестные поля - ошибка.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if sc.Grid.Width < 0 || sc.Grid.Height < 0 {
		return nil, fmt.Errorf("%w: negative grid size", ErrInvalidScenario)
	}
	for i := range sc.Props {
		if _, err := sc.Props[i].Spec(); err != nil {
			return nil, fmt.Errorf("prop #%d (%s): %w", i, sc.Props[i].Key, err)
		}
	}
	return &sc, nil
}

// Spec переводит описание в EntitySpec для GameWorld.Spawn.
func (p Prop) Spec() (domain.EntitySpec, error) {
	spec := domain.EntitySpec{
		Kind:       domain.EntityKindProp,
		DisplayKey: p.Key,
		Pos:        domain.V(p.X, p.Y),
		Layer:      p.Layer,
		Speed:      p.Speed,
	}

	if p.Speed < 0 {
		return spec, fmt.Errorf("%w: %v", domain.ErrInvalidSpeed, p.Speed)
	}

	if len(p.Direction) != 0 {
		if len(p.Direction) != 2 {
			return spec, fmt.Errorf("%w: direction needs two components", ErrInvalidScenario)
		}
		d, err := domain.NewDirection(p.Direction[0], p.Direction[1])
		if err != nil {
			return spec, err
		}
		spec.Direction = d
	}

	switch {
	case len(p.Mask) > 0:
		m, err := domain.ParseMask(p.Mask)
		if err != nil {
			return spec, err
		}
		spec.Mask = m
	case len(p.Size) == 2:
		m, err := domain.SolidMask(p.Size[0], p.Size[1])
		if err != nil {
			return spec, err
		}
		spec.Mask = m
	default:
		return spec, fmt.Errorf("%w: prop needs mask or size [w, h]", ErrInvalidScenario)
	}
	spec.Size = spec.Mask.Size()
	return spec, nil
}

// Apply спавнит все объекты сценария. При ошибке уже созданные
// объекты удаляются, мир остается как был.
func (s *Scenario) Apply(w *domain.GameWorld) ([]domain.EntityID, error) {
	ids := make([]domain.EntityID, 0, len(s.Props))
	for i, p := range s.Props {
		spec, err := p.Spec()
		if err == nil {
			var e *domain.Entity
			if e, err = w.Spawn(spec); err == nil {
				ids = append(ids, e.ID())
				continue
			}
		}
		for _, id := range ids {
			_ = w.Despawn(id)
		}
		return nil, fmt.Errorf("prop #%d (%s): %w", i, p.Key, err)
	}
	return ids, nil
}
