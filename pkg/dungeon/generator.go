package dungeon

import (
	"math/rand"

	"whitehill-server/internal/domain"
	"whitehill-server/internal/scenario"
	"whitehill-server/pkg/utils"
)

// Параметры генерации по умолчанию (в бинах)
const (
	MaxRooms = 12
	MinSize  = 5
	MaxSize  = 12
)

// Options - параметры генератора. Размеры в бинах.
type Options struct {
	Width    int
	Height   int
	MaxRooms int
	Seed     int64 // 0 - случайный сид
}

// Rect - Вспомогательная структура для комнаты
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.W && r.X+r.W >= other.X &&
		r.Y <= other.Y+other.H && r.Y+r.H >= other.Y
}

// Level - результат генерации
type Level struct {
	Scenario *scenario.Scenario
	Spawn    domain.Vec // Точка появления игроков (пиксели)
	Rooms    []Rect
	Seed     int64
}

// Generate создает подземелье: комнаты, коридоры, стены-пропсы,
// бродячих слизней и лестницы. Один сид - один и тот же уровень.
func Generate(opts Options) *Level {
	if opts.Width < domain.MinGridWidth {
		opts.Width = domain.MinGridWidth
	}
	if opts.Height < domain.MinGridHeight {
		opts.Height = domain.MinGridHeight
	}
	if opts.MaxRooms <= 0 {
		opts.MaxRooms = MaxRooms
	}
	rng, seed := utils.NewRand(opts.Seed)

	// 1. Заполняем стенами
	walls := newTileMap(opts.Width, opts.Height, true)

	var rooms []Rect

	// 2. Генерируем комнаты
	for i := 0; i < opts.MaxRooms; i++ {
		w := randRange(rng, MinSize, MaxSize)
		h := randRange(rng, MinSize, MaxSize)
		x := randRange(rng, 1, opts.Width-w-1)
		y := randRange(rng, 1, opts.Height-h-1)

		newRoom := Rect{X: x, Y: y, W: w, H: h}
		failed := false

		for _, other := range rooms {
			if newRoom.Intersects(other) {
				failed = true
				break
			}
		}
		if failed {
			continue
		}

		walls.carveRoom(newRoom)
		if len(rooms) > 0 {
			// Соединяем с предыдущей комнатой
			prevX, prevY := rooms[len(rooms)-1].Center()
			currX, currY := newRoom.Center()

			if rng.Intn(2) == 0 {
				walls.carveH(prevX, currX, prevY)
				walls.carveV(prevY, currY, currX)
			} else {
				walls.carveV(prevY, currY, prevX)
				walls.carveH(prevX, currX, currY)
			}
		}
		rooms = append(rooms, newRoom)
	}

	sc := &scenario.Scenario{
		Grid:  scenario.Grid{Width: opts.Width, Height: opts.Height},
		Props: walls.wallProps(),
	}
	level := &Level{Scenario: sc, Rooms: rooms, Seed: seed}

	// 3. Спавн игрока (в центре первой комнаты) и лестница вверх там же
	if len(rooms) > 0 {
		cx, cy := rooms[0].Center()
		level.Spawn = domain.V(cx*domain.BinSize, cy*domain.BinSize)
		sc.Props = append(sc.Props, StairsUp.At(cx*domain.BinSize, cy*domain.BinSize))
	}

	// 4. Слизни во всех комнатах кроме первой
	for i := 1; i < len(rooms); i++ {
		if rng.Float32() <= 0.3 {
			continue
		}
		cx, cy := rooms[i].Center()
		tpl := Slime
		if rng.Float32() > 0.7 {
			tpl = BigSlime
		}
		p := tpl.At(cx*domain.BinSize+randRange(rng, -8, 8), cy*domain.BinSize+randRange(rng, -8, 8))
		p.Direction = []int{randRange(rng, -1, 1), randRange(rng, -1, 1)}
		sc.Props = append(sc.Props, p)
	}

	// 5. Лестница ВНИЗ (в последней комнате)
	if len(rooms) > 1 {
		lx, ly := rooms[len(rooms)-1].Center()
		sc.Props = append(sc.Props, StairsDown.At(lx*domain.BinSize, ly*domain.BinSize))
	}

	return level
}

// --- Вспомогательные функции ---

// tileMap - карта стен по бинам, [y][x]
type tileMap [][]bool

func newTileMap(w, h int, wall bool) tileMap {
	m := make(tileMap, h)
	for y := range m {
		m[y] = make([]bool, w)
		for x := range m[y] {
			m[y][x] = wall
		}
	}
	return m
}

func (m tileMap) carveRoom(room Rect) {
	for y := room.Y + 1; y < room.Y+room.H; y++ {
		for x := room.X + 1; x < room.X+room.W; x++ {
			m[y][x] = false
		}
	}
}

func (m tileMap) carveH(x1, x2, y int) {
	for x := min(x1, x2); x <= max(x1, x2); x++ {
		m[y][x] = false
	}
}

func (m tileMap) carveV(y1, y2, x int) {
	for y := min(y1, y2); y <= max(y1, y2); y++ {
		m[y][x] = false
	}
}

func (m tileMap) isWall(x, y int) bool {
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return m[y][x]
}

// visible - стена, граничащая с полом (включая диагонали).
// Глухая толща камня сущностями не становится.
func (m tileMap) visible(x, y int) bool {
	if !m.isWall(x, y) {
		return false
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			ny, nx := y+dy, x+dx
			if ny < 0 || ny >= len(m) || nx < 0 || nx >= len(m[ny]) {
				continue
			}
			if !m[ny][nx] {
				return true
			}
		}
	}
	return false
}

// wallProps склеивает горизонтальные отрезки видимых стен в пропсы,
// чтобы не плодить по сущности на каждый бин.
func (m tileMap) wallProps() []scenario.Prop {
	var props []scenario.Prop
	for y := range m {
		for x := 0; x < len(m[y]); {
			if !m.visible(x, y) {
				x++
				continue
			}
			start := x
			for x < len(m[y]) && m.visible(x, y) {
				x++
			}
			props = append(props, Wall.Run(start, y, x-start))
		}
	}
	return props
}

func randRange(rng *rand.Rand, min, max int) int {
	return rng.Intn(max-min+1) + min
}
