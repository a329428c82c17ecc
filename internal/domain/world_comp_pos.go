package domain

// Vec - целочисленный 2D вектор (пиксели или бины, в зависимости от контекста)
type Vec struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// V - короткий конструктор
func V(x, y int) Vec {
	return Vec{X: x, Y: y}
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale умножает обе компоненты на скаляр
func (v Vec) Scale(k int) Vec {
	return Vec{X: v.X * k, Y: v.Y * k}
}

// Min возвращает покомпонентный минимум
func (v Vec) Min(o Vec) Vec {
	return Vec{X: min(v.X, o.X), Y: min(v.Y, o.Y)}
}

// Abs возвращает покомпонентный модуль
func (v Vec) Abs() Vec {
	return Vec{X: abs(v.X), Y: abs(v.Y)}
}

// Chebyshev возвращает max(|x|, |y|) - количество попиксельных шагов
func (v Vec) Chebyshev() int {
	return max(abs(v.X), abs(v.Y))
}

// IsZero true для нулевого вектора
func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// FloorDiv делит покомпонентно с округлением вниз (корректно для отрицательных)
func (v Vec) FloorDiv(d int) Vec {
	return Vec{X: floorDiv(v.X, d), Y: floorDiv(v.Y, d)}
}

// CeilDiv делит покомпонентно с округлением вверх
func (v Vec) CeilDiv(d int) Vec {
	return Vec{X: -floorDiv(-v.X, d), Y: -floorDiv(-v.Y, d)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
