package domain

import (
	"fmt"
	"strings"
)

// CollisionMask - неизменяемая попиксельная карта занятости прямоугольника.
// Позволяет задавать коллизию точнее, чем бином или ограничивающей рамкой.
// Внутри плоский слайс, индекс = y*width + x.
type CollisionMask struct {
	size Vec
	bits []bool
}

// NewMask строит маску из строк (rows[y][x]). Данные копируются.
func NewMask(rows [][]bool) (*CollisionMask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidMask)
	}

	w, h := len(rows[0]), len(rows)
	bits := make([]bool, 0, w*h)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has length %d, expected %d", ErrInvalidMask, y, len(row), w)
		}
		bits = append(bits, row...)
	}

	return &CollisionMask{size: Vec{X: w, Y: h}, bits: bits}, nil
}

// SolidMask - полностью заполненная маска w x h
func SolidMask(w, h int) (*CollisionMask, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidMask, w, h)
	}
	bits := make([]bool, w*h)
	for i := range bits {
		bits[i] = true
	}
	return &CollisionMask{size: Vec{X: w, Y: h}, bits: bits}, nil
}

// ParseMask читает ASCII-арт: '#', 'X' и '1' - занято, всё остальное - пусто.
//
//	....
//	.##.
//	.##.
func ParseMask(lines []string) (*CollisionMask, error) {
	rows := make([][]bool, len(lines))
	for y, line := range lines {
		cells := []rune(line) // одна клетка = один символ, не байт
		row := make([]bool, len(cells))
		for x, c := range cells {
			row[x] = c == '#' || c == 'X' || c == '1'
		}
		rows[y] = row
	}
	return NewMask(rows)
}

// Size возвращает ширину (X) и высоту (Y) маски
func (m *CollisionMask) Size() Vec {
	return m.size
}

// At возвращает занятость пикселя. Вне маски - false.
func (m *CollisionMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.size.X || y >= m.size.Y {
		return false
	}
	return m.bits[y*m.size.X+x]
}

// Count - количество занятых пикселей
func (m *CollisionMask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Union возвращает новую маску - логическое ИЛИ двух масок одинакового размера
func (m *CollisionMask) Union(other *CollisionMask) (*CollisionMask, error) {
	if m.size != other.size {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrDimensionMismatch, m.size.X, m.size.Y, other.size.X, other.size.Y)
	}

	bits := make([]bool, len(m.bits))
	for i := range bits {
		bits[i] = m.bits[i] || other.bits[i]
	}
	return &CollisionMask{size: m.size, bits: bits}, nil
}

// Overlaps проверяет, есть ли пиксель, занятый в обеих масках, если other
// сдвинута на offset относительно m. Разные размеры не ошибка: проверяется
// только пересечение прямоугольников.
func (m *CollisionMask) Overlaps(other *CollisionMask, offset Vec) bool {
	x0, y0 := max(0, offset.X), max(0, offset.Y)
	x1 := min(m.size.X, offset.X+other.size.X)
	y1 := min(m.size.Y, offset.Y+other.size.Y)

	for y := y0; y < y1; y++ {
		row := m.bits[y*m.size.X : (y+1)*m.size.X]
		orow := other.bits[(y-offset.Y)*other.size.X : (y-offset.Y+1)*other.size.X]
		for x := x0; x < x1; x++ {
			if row[x] && orow[x-offset.X] {
				return true
			}
		}
	}
	return false
}

// Rows рисует маску построчно в том же формате, что понимает ParseMask
func (m *CollisionMask) Rows() []string {
	rows := make([]string, m.size.Y)
	for y := range rows {
		var sb strings.Builder
		for x := 0; x < m.size.X; x++ {
			if m.bits[y*m.size.X+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

func (m *CollisionMask) String() string {
	return strings.Join(m.Rows(), "\n")
}

// MaskCanvas - изменяемый черновик маски. Используется для сборки карты
// препятствий на время одного перемещения, затем замораживается.
type MaskCanvas struct {
	size Vec
	bits []bool
}

// NewMaskCanvas создает пустой холст заданного размера
func NewMaskCanvas(size Vec) *MaskCanvas {
	if size.X < 0 || size.Y < 0 {
		size = Vec{}
	}
	return &MaskCanvas{size: size, bits: make([]bool, size.X*size.Y)}
}

// Stamp накладывает маску в точку at (логическое ИЛИ, не сложение).
// Всё, что выходит за холст, отбрасывается.
func (c *MaskCanvas) Stamp(m *CollisionMask, at Vec) {
	x0, y0 := max(0, at.X), max(0, at.Y)
	x1 := min(c.size.X, at.X+m.size.X)
	y1 := min(c.size.Y, at.Y+m.size.Y)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.bits[(y-at.Y)*m.size.X+(x-at.X)] {
				c.bits[y*c.size.X+x] = true
			}
		}
	}
}

// Freeze отдает накопленные данные в виде неизменяемой маски.
// После вызова холст пуст и непригоден для дальнейшей записи.
func (c *MaskCanvas) Freeze() *CollisionMask {
	m := &CollisionMask{size: c.size, bits: c.bits}
	c.size, c.bits = Vec{}, nil
	return m
}
