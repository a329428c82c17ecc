package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// EntitySpec - начальное состояние сущности для GameWorld.Spawn
type EntitySpec struct {
	Kind       EntityKind
	DisplayKey string // Ключ визуала, резолвится на клиенте ("player", "tree")
	Pos        Vec    // Левый верхний угол в пикселях
	Size       Vec    // Если нулевой - берется размер маски
	Layer      int
	Direction  Direction
	Speed      float64
	Mask       *CollisionMask
}

// Entity - любой объект на карте, который двигается, мешает двигаться
// другим или с которым можно взаимодействовать. Фон карты и интерфейс
// сущностями не являются.
//
// Сущность не хранит ссылку на мир: мир индексирует её по ID.
type Entity struct {
	id         EntityID
	displayKey string

	pos   Vec
	size  Vec
	layer int

	// Скорость в пикселях в секунду. Вектор скорости всегда вычисляется
	// из direction и speed, отдельно он не хранится.
	direction Direction
	speed     float64

	mask *CollisionMask

	indexed   bool   // Зарегистрирована в бинах
	movedTick uint64 // Номер тика, в котором сущность уже сдвинута
}

func newEntity(id EntityID, spec EntitySpec) (*Entity, error) {
	if spec.Mask == nil {
		return nil, fmt.Errorf("%w: entity %s has no mask", ErrInvalidMask, id)
	}
	size := spec.Size
	if size.IsZero() {
		size = spec.Mask.Size()
	}
	if size != spec.Mask.Size() {
		return nil, fmt.Errorf("%w: entity size %v, mask size %v", ErrDimensionMismatch, size, spec.Mask.Size())
	}

	e := &Entity{
		id:         id,
		displayKey: spec.DisplayKey,
		pos:        spec.Pos,
		size:       size,
		layer:      spec.Layer,
		mask:       spec.Mask,
	}
	if err := e.SetDirection(spec.Direction); err != nil {
		return nil, err
	}
	if err := e.SetSpeed(spec.Speed); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Entity) ID() EntityID             { return e.id }
func (e *Entity) DisplayKey() string       { return e.displayKey }
func (e *Entity) Pos() Vec                 { return e.pos }
func (e *Entity) Size() Vec                { return e.size }
func (e *Entity) Layer() int               { return e.layer }
func (e *Entity) Direction() Direction     { return e.direction }
func (e *Entity) Speed() float64           { return e.speed }
func (e *Entity) Mask() *CollisionMask     { return e.mask }
func (e *Entity) Indexed() bool            { return e.indexed }
func (e *Entity) SetDisplayKey(key string) { e.displayKey = key }
func (e *Entity) SetLayer(layer int)       { e.layer = layer }

// SetDirection меняет направление. Принимаются только единичные векторы.
func (e *Entity) SetDirection(d Direction) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDirection, d)
	}
	e.direction = d
	return nil
}

// SetSpeed меняет скорость (пикселей в секунду)
func (e *Entity) SetSpeed(speed float64) error {
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	e.speed = speed
	return nil
}

// SetPos двигает неиндексированную сущность.
// Для сущности в мире используйте GameWorld.Teleport.
func (e *Entity) SetPos(p Vec) error {
	if e.indexed {
		return fmt.Errorf("%w: %s", ErrEntityIndexed, e.id)
	}
	e.pos = p
	return nil
}

// Velocity - производная величина direction * speed, только для чтения
func (e *Entity) Velocity() (vx, vy float64) {
	return float64(e.direction.DX) * e.speed, float64(e.direction.DY) * e.speed
}

// IsMoving true, если вектор скорости ненулевой
func (e *Entity) IsMoving() bool {
	return !e.direction.IsZero() && e.speed > 0
}

// BinOrigin - первый бин футпринта
func (e *Entity) BinOrigin() Vec {
	return e.pos.FloorDiv(BinSize)
}

// BinSpan - максимальное число бинов, которое сущность может занять при
// любом пиксельном положении (+1 на дробное перекрытие)
func (e *Entity) BinSpan() Vec {
	return e.size.CeilDiv(BinSize).Add(Vec{X: 1, Y: 1})
}

// BaseY - нижняя граница сущности, "основание" для сортировки отрисовки
func (e *Entity) BaseY() int {
	return e.pos.Y + e.size.Y
}

// SortKey - ключ порядка отрисовки: слой, затем основание
func (e *Entity) SortKey() SortKey {
	return SortKey{Layer: e.layer, BaseY: e.BaseY()}
}

// StampTick помечает сущность сдвинутой в тике gen.
// Возвращает false, если в этом тике она уже двигалась.
func (e *Entity) StampTick(gen uint64) bool {
	if e.movedTick == gen {
		return false
	}
	e.movedTick = gen
	return true
}

// MarshalJSON - полный дамп для /debug/entities
func (e *Entity) MarshalJSON() ([]byte, error) {
	vx, vy := e.Velocity()
	return json.Marshal(struct {
		ID         EntityID   `json:"id"`
		DisplayKey string     `json:"displayKey"`
		Pos        Vec        `json:"pos"`
		Size       Vec        `json:"size"`
		Layer      int        `json:"layer"`
		Direction  Direction  `json:"direction"`
		Speed      float64    `json:"speed"`
		Velocity   [2]float64 `json:"velocity"`
		BinOrigin  Vec        `json:"binOrigin"`
		BinSpan    Vec        `json:"binSpan"`
		Indexed    bool       `json:"indexed"`
		MovedTick  uint64     `json:"movedTick"`
		Mask       []string   `json:"mask"`
	}{
		ID: e.id, DisplayKey: e.displayKey, Pos: e.pos, Size: e.size, Layer: e.layer,
		Direction: e.direction, Speed: e.speed, Velocity: [2]float64{vx, vy},
		BinOrigin: e.BinOrigin(), BinSpan: e.BinSpan(), Indexed: e.indexed, MovedTick: e.movedTick,
		Mask: e.mask.Rows(),
	})
}

// SortKey сравнивает сущности для алгоритма художника:
// слой по возрастанию, затем основание по возрастанию (дальние раньше)
type SortKey struct {
	Layer int
	BaseY int
}

func (k SortKey) Less(o SortKey) bool {
	if k.Layer != o.Layer {
		return k.Layer < o.Layer
	}
	return k.BaseY < o.BaseY
}
