package domain

import (
	"fmt"
	"time"
)

// GameWorld - сетка бинов фиксированного размера (BinSize x BinSize пикселей).
// Каждый бин хранит ID сущностей, чей футпринт его перекрывает.
// Мир индексирует сущности, но жизнью их не управляет: удаляет только по
// явному Despawn от владельца.
//
// Потокобезопасности нет: один писатель за раз (AdvanceTick, Register,
// Unregister), читатели не пересекаются с тиком. Сериализацию делает вызывающий.
type GameWorld struct {
	Width  int `json:"width"`  // В бинах
	Height int `json:"height"` // В бинах

	// Бины: индекс y*Width + x -> ID сущностей (без повторов, порядок не важен)
	bins [][]EntityID

	// Арена сущностей: ID -> Entity
	registry  map[EntityID]*Entity
	nextIndex uint64

	clock Clock
}

// Clock - часы симуляции
type Clock struct {
	Tick     uint64    `json:"tick"`     // Номер последнего завершенного тика
	Elapsed  float64   `json:"elapsed"`  // Сумма всех deltaTime, секунды
	LastTick time.Time `json:"lastTick"` // Стенное время последнего тика
}

// BinRect - прямоугольник бинов [X, X+W) x [Y, Y+H)
type BinRect struct {
	X, Y, W, H int
}

// Empty true, если прямоугольник не содержит ни одного бина
func (r BinRect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// NewGameWorld создает мир width x height бинов
func NewGameWorld(width, height int) (*GameWorld, error) {
	if width < MinGridWidth || height < MinGridHeight {
		return nil, fmt.Errorf("%w: %dx%d bins, minimum is %dx%d",
			ErrInvalidGridSize, width, height, MinGridWidth, MinGridHeight)
	}

	return &GameWorld{
		Width:    width,
		Height:   height,
		bins:     make([][]EntityID, width*height),
		registry: make(map[EntityID]*Entity),
	}, nil
}

// PixelSize - размер карты в пикселях
func (w *GameWorld) PixelSize() Vec {
	return Vec{X: w.Width * BinSize, Y: w.Height * BinSize}
}

// Clock возвращает копию часов симуляции
func (w *GameWorld) Clock() Clock {
	return w.clock
}

// BeginTick открывает новое поколение для пометок "уже сдвинут"
func (w *GameWorld) BeginTick() uint64 {
	return w.clock.Tick + 1
}

// CommitTick закрывает тик и продвигает часы
func (w *GameWorld) CommitTick(gen uint64, dt float64, now time.Time) {
	w.clock.Tick = gen
	w.clock.Elapsed += dt
	if !now.IsZero() {
		w.clock.LastTick = now
	}
}

// StartClock задает стенное время, от которого считается первая дельта
func (w *GameWorld) StartClock(now time.Time) {
	w.clock.LastTick = now
}
