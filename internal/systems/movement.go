package systems

import (
	"fmt"
	"math"
	"time"

	"whitehill-server/internal/domain"
)

// BlockReason - почему сущность остановилась раньше цели
type BlockReason uint8

const (
	NotBlocked BlockReason = iota
	BlockedByBounds
	BlockedByCollision
)

func (r BlockReason) String() string {
	switch r {
	case BlockedByBounds:
		return "bounds"
	case BlockedByCollision:
		return "collision"
	}
	return "none"
}

// MovementResult - результат перемещения одной сущности за тик
type MovementResult struct {
	ID      domain.EntityID
	From    domain.Vec
	To      domain.Vec
	Steps   int         // Сколько пиксельных шагов планировалось
	Taken   int         // Сколько сделано
	Blocked BlockReason // Остановка о границу карты или препятствие
}

// TickReport - сводка одного вызова AdvanceTick
type TickReport struct {
	Tick    uint64
	Delta   float64
	Results []MovementResult
}

// Blocked - количество сущностей, остановленных до цели
func (r TickReport) Blocked() int {
	n := 0
	for _, res := range r.Results {
		if res.Blocked != NotBlocked {
			n++
		}
	}
	return n
}

// AdvanceTick сдвигает все сущности с ненулевой скоростью на dt секунд.
// Каждая сущность двигается не больше одного раза за тик, даже если
// лежит в нескольких бинах. Ошибка индекса прерывает тик, часы не идут.
func AdvanceTick(w *domain.GameWorld, dt float64) (TickReport, error) {
	return advance(w, dt, time.Time{})
}

// AdvanceTo считает dt от времени прошлого тика до now и выполняет тик.
// Самый первый вызов только запускает часы (dt = 0).
func AdvanceTo(w *domain.GameWorld, now time.Time) (TickReport, error) {
	dt := 0.0
	if last := w.Clock().LastTick; !last.IsZero() {
		dt = max(now.Sub(last).Seconds(), 0)
	}
	return advance(w, dt, now)
}

func advance(w *domain.GameWorld, dt float64, now time.Time) (TickReport, error) {
	gen := w.BeginTick()
	report := TickReport{Tick: gen, Delta: dt}

	// 1. Собираем двигающихся, обходя бины по порядку (X, затем Y)
	var movers []*domain.Entity
	var corrupt error
	all := domain.BinRect{W: w.Width, H: w.Height}
	w.ForEachInRect(all, func(id domain.EntityID) {
		e := w.GetEntity(id)
		if e == nil {
			if corrupt == nil {
				corrupt = fmt.Errorf("%w: bin references unknown entity %s", domain.ErrIndexCorrupted, id)
			}
			return
		}
		if e.IsMoving() && e.StampTick(gen) {
			movers = append(movers, e)
		}
	})
	if corrupt != nil {
		return report, fmt.Errorf("tick %d: %w", gen, corrupt)
	}

	// 2. Двигаем каждого ровно один раз
	for _, e := range movers {
		res, err := ResolveMove(w, e, dt)
		if err != nil {
			return report, fmt.Errorf("tick %d: %w", gen, err)
		}
		report.Results = append(report.Results, res)
	}

	w.CommitTick(gen, dt, now)
	return report, nil
}

// ResolveMove двигает сущность попиксельно по направлению, пока не кончатся
// шаги, не упрется в край карты или в маску другой сущности того же слоя.
// Сущность останавливается на последнем свободном пикселе.
func ResolveMove(w *domain.GameWorld, e *domain.Entity, dt float64) (MovementResult, error) {
	res := MovementResult{ID: e.ID(), From: e.Pos(), To: e.Pos()}

	// 1. Снимаем сущность с карты, чтобы она не мешала сама себе
	if err := w.Unregister(e); err != nil {
		return res, err
	}

	// 2. Сколько пикселей хотим пройти
	mapSize := w.PixelSize()
	dir := e.Direction().Vec()
	// Дальше края карты всё равно не уйти. Ограничиваем до int, иначе
	// огромная скорость переполнится при конвертации.
	limit := float64(max(mapSize.X, mapSize.Y))
	dist := int(math.Min(math.Max(math.Floor(dt*e.Speed()), 0), limit))
	delta := dir.Scale(dist)
	res.Steps = delta.Chebyshev()

	// 3. Бины, через которые может пройти рамка сущности
	sweepOrigin, sweepSpan := SweepBins(e.Pos(), e.Size(), delta)
	anchor := sweepOrigin.Scale(domain.BinSize)

	// 4-5. Карта препятствий по всей траектории (не только по стартовому футпринту)
	obstacles, err := gatherObstacles(w, e, sweepOrigin, sweepSpan, anchor)
	if err != nil {
		return res, err
	}

	// 6. Шагаем по одному пикселю, проверяя кандидата до шага
	mask := e.Mask()
	pos := e.Pos()
	for i := 0; i < res.Steps; i++ {
		next := pos.Add(dir)

		if next.X < 0 || next.Y < 0 || next.X+e.Size().X > mapSize.X || next.Y+e.Size().Y > mapSize.Y {
			res.Blocked = BlockedByBounds
			break
		}
		if obstacles.Overlaps(mask, next.Sub(anchor)) {
			res.Blocked = BlockedByCollision
			break
		}

		pos = next
		res.Taken++
	}

	if err := e.SetPos(pos); err != nil {
		return res, err
	}
	res.To = pos

	// 7. Возвращаем на карту в новой позиции
	if err := w.Register(e); err != nil {
		return res, err
	}
	return res, nil
}

// SweepBins возвращает прямоугольник бинов, покрывающий рамку сущности
// и до, и после смещения delta.
func SweepBins(pos, size, delta domain.Vec) (origin, span domain.Vec) {
	topLeft := pos.Min(pos.Add(delta))
	extent := delta.Abs().Add(size)

	origin = topLeft.FloorDiv(domain.BinSize)
	span = extent.CeilDiv(domain.BinSize).Add(domain.V(1, 1))
	return origin, span
}

// gatherObstacles накладывает маски всех сущностей того же слоя из бинов
// траектории на холст, привязанный к anchor (пиксельный угол траектории).
func gatherObstacles(w *domain.GameWorld, e *domain.Entity, origin, span, anchor domain.Vec) (*domain.CollisionMask, error) {
	canvas := domain.NewMaskCanvas(span.Scale(domain.BinSize))

	seen := make(map[domain.EntityID]struct{})
	var corrupt error
	w.ForEachInRect(w.BoundedSubgrid(origin, span), func(id domain.EntityID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}

		other := w.GetEntity(id)
		if other == nil {
			if corrupt == nil {
				corrupt = fmt.Errorf("%w: bin references unknown entity %s", domain.ErrIndexCorrupted, id)
			}
			return
		}
		if other.ID() == e.ID() || other.Layer() != e.Layer() {
			return
		}
		canvas.Stamp(other.Mask(), other.Pos().Sub(anchor))
	})
	if corrupt != nil {
		return nil, corrupt
	}

	return canvas.Freeze(), nil
}
