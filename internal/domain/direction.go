package domain

import "fmt"

// Direction - одно из девяти направлений движения.
//
//	NW N NE       (-1,-1)  (0,-1)  (1,-1)
//	W  .  E  -->  (-1, 0)  (0, 0)  (1, 0)
//	SW S SE       (-1, 1)  (0, 1)  (1, 1)
type Direction struct {
	DX int `json:"dx" msgpack:"dx"`
	DY int `json:"dy" msgpack:"dy"`
}

var (
	DirNone      = Direction{0, 0}
	DirNorth     = Direction{0, -1}
	DirNorthEast = Direction{1, -1}
	DirEast      = Direction{1, 0}
	DirSouthEast = Direction{1, 1}
	DirSouth     = Direction{0, 1}
	DirSouthWest = Direction{-1, 1}
	DirWest      = Direction{-1, 0}
	DirNorthWest = Direction{-1, -1}
)

// NewDirection строго проверяет компоненты
func NewDirection(dx, dy int) (Direction, error) {
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
		return DirNone, fmt.Errorf("%w: (%d, %d)", ErrInvalidDirection, dx, dy)
	}
	return Direction{DX: dx, DY: dy}, nil
}

// NormalizeDirection оставляет от произвольного вектора только знаки компонент
func NormalizeDirection(dx, dy int) Direction {
	return Direction{DX: sign(dx), DY: sign(dy)}
}

// Vec возвращает направление как вектор единичного шага
func (d Direction) Vec() Vec {
	return Vec{X: d.DX, Y: d.DY}
}

func (d Direction) IsZero() bool {
	return d.DX == 0 && d.DY == 0
}

// Valid true, если обе компоненты в {-1, 0, 1}
func (d Direction) Valid() bool {
	return d.DX >= -1 && d.DX <= 1 && d.DY >= -1 && d.DY <= 1
}

func (d Direction) String() string {
	return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
}

func sign(a int) int {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}
