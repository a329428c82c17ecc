package systems

import (
	"sort"

	"whitehill-server/internal/domain"
)

// Sprite - одна запись для рендера: кого, чем и где рисовать.
// Pos относительна левого верхнего угла вьюпорта.
type Sprite struct {
	ID         domain.EntityID
	DisplayKey string
	Pos        domain.Vec
}

// QueryViewport возвращает сущности для экрана 800x640 с углом в origin
func QueryViewport(w *domain.GameWorld, origin domain.Vec) []Sprite {
	return QueryViewportSize(w, origin, domain.V(domain.ViewportWidth, domain.ViewportHeight))
}

// QueryViewportSize - то же для произвольного размера экрана.
// Окно берется на бин шире и выше точного покрытия, так как невыровненный
// экран задевает лишний бин. Каждая сущность попадает в ответ один раз,
// порядок - слой, затем основание (Y + высота), затем ID.
func QueryViewportSize(w *domain.GameWorld, origin, size domain.Vec) []Sprite {
	binOrigin := origin.FloorDiv(domain.BinSize)
	binSpan := size.CeilDiv(domain.BinSize).Add(domain.V(1, 1))

	seen := make(map[domain.EntityID]struct{})
	var visible []*domain.Entity
	w.ForEachInRect(w.BoundedSubgrid(binOrigin, binSpan), func(id domain.EntityID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		if e := w.GetEntity(id); e != nil {
			visible = append(visible, e)
		}
	})

	sort.Slice(visible, func(i, j int) bool {
		ki, kj := visible[i].SortKey(), visible[j].SortKey()
		if ki != kj {
			return ki.Less(kj)
		}
		return visible[i].ID() < visible[j].ID()
	})

	sprites := make([]Sprite, len(visible))
	for i, e := range visible {
		sprites[i] = Sprite{
			ID:         e.ID(),
			DisplayKey: e.DisplayKey(),
			Pos:        e.Pos().Sub(origin),
		}
	}
	return sprites
}
