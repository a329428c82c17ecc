package domain

import (
	"fmt"
	"sort"
)

func (w *GameWorld) GetIndex(x, y int) int {
	return y*w.Width + x
}

// BoundedSubgrid возвращает прямоугольник бинов [origin, origin+span),
// обрезанный по границам мира. Никогда не падает: запрос целиком снаружи
// дает пустой прямоугольник.
func (w *GameWorld) BoundedSubgrid(origin, span Vec) BinRect {
	x0, y0 := max(origin.X, 0), max(origin.Y, 0)
	x1 := min(origin.X+span.X, w.Width)
	y1 := min(origin.Y+span.Y, w.Height)

	if x1 <= x0 || y1 <= y0 {
		return BinRect{X: x0, Y: y0}
	}
	return BinRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BinAt возвращает содержимое бина. Слайс принадлежит миру - не изменять.
func (w *GameWorld) BinAt(x, y int) []EntityID {
	if x < 0 || x >= w.Width || y < 0 || y >= w.Height {
		return nil
	}
	return w.bins[w.GetIndex(x, y)]
}

// ForEachInRect обходит все ID во всех бинах прямоугольника (с повторами,
// если сущность лежит в нескольких бинах). Порядок: по X, затем по Y.
func (w *GameWorld) ForEachInRect(r BinRect, fn func(id EntityID)) {
	for x := r.X; x < r.X+r.W; x++ {
		for y := r.Y; y < r.Y+r.H; y++ {
			for _, id := range w.bins[w.GetIndex(x, y)] {
				fn(id)
			}
		}
	}
}

// Footprint - бины, которые сейчас занимает сущность
func (w *GameWorld) Footprint(e *Entity) BinRect {
	return w.BoundedSubgrid(e.BinOrigin(), e.BinSpan())
}

// GetEntity ищет сущность по ID
func (w *GameWorld) GetEntity(id EntityID) *Entity {
	return w.registry[id]
}

// Len - количество сущностей в арене
func (w *GameWorld) Len() int {
	return len(w.registry)
}

// Entities возвращает все сущности, отсортированные по ID
func (w *GameWorld) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.registry))
	for _, e := range w.registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Spawn создает сущность в арене и сразу регистрирует её в бинах
func (w *GameWorld) Spawn(spec EntitySpec) (*Entity, error) {
	w.nextIndex++
	id := PackEntityID(spec.Kind, w.nextIndex)

	e, err := newEntity(id, spec)
	if err != nil {
		return nil, err
	}

	w.registry[id] = e
	if err := w.Register(e); err != nil {
		delete(w.registry, id)
		return nil, err
	}
	return e, nil
}

// Despawn снимает сущность со всех бинов и удаляет из арены
func (w *GameWorld) Despawn(id EntityID) error {
	e, ok := w.registry[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	if err := w.Unregister(e); err != nil {
		return err
	}
	delete(w.registry, id)
	return nil
}

// Teleport переносит сущность с переиндексацией
func (w *GameWorld) Teleport(id EntityID, pos Vec) error {
	e, ok := w.registry[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	if err := w.Unregister(e); err != nil {
		return err
	}
	e.pos = pos
	return w.Register(e)
}

// Reshape меняет маску (и вместе с ней размер) сущности с переиндексацией
func (w *GameWorld) Reshape(id EntityID, mask *CollisionMask) error {
	e, ok := w.registry[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	if mask == nil {
		return fmt.Errorf("%w: nil mask", ErrInvalidMask)
	}
	if err := w.Unregister(e); err != nil {
		return err
	}
	e.mask = mask
	e.size = mask.Size()
	return w.Register(e)
}

// Register добавляет сущность во все бины её футпринта
func (w *GameWorld) Register(e *Entity) error {
	if e.indexed {
		return fmt.Errorf("%w: %s is already indexed", ErrIndexCorrupted, e.id)
	}

	r := w.Footprint(e)
	for x := r.X; x < r.X+r.W; x++ {
		for y := r.Y; y < r.Y+r.H; y++ {
			idx := w.GetIndex(x, y)
			w.bins[idx] = append(w.bins[idx], e.id)
		}
	}
	e.indexed = true
	return nil
}

// Unregister удаляет сущность из всех бинов её футпринта.
// Если сущности нет в ожидаемом бине - индекс поврежден (ErrIndexCorrupted).
func (w *GameWorld) Unregister(e *Entity) error {
	if !e.indexed {
		return fmt.Errorf("%w: %s is not indexed", ErrIndexCorrupted, e.id)
	}

	r := w.Footprint(e)
	for x := r.X; x < r.X+r.W; x++ {
		for y := r.Y; y < r.Y+r.H; y++ {
			if !w.removeFromBin(w.GetIndex(x, y), e.id) {
				return fmt.Errorf("%w: %s missing from bin (%d, %d)", ErrIndexCorrupted, e.id, x, y)
			}
		}
	}
	e.indexed = false
	return nil
}

func (w *GameWorld) removeFromBin(idx int, id EntityID) bool {
	ids := w.bins[idx]
	for i, other := range ids {
		if other == id {
			// Swap with last: порядок в бине не важен
			last := len(ids) - 1
			ids[i] = ids[last]
			w.bins[idx] = ids[:last]
			return true
		}
	}
	return false
}
