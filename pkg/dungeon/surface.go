package dungeon

import (
	"whitehill-server/internal/domain"
	"whitehill-server/internal/scenario"
	"whitehill-server/pkg/utils"
)

// GenerateSurface создает "домашний" уровень: открытое поле,
// обнесенное стеной, с рощами деревьев и спуском в подземелье.
func GenerateSurface(opts Options) *Level {
	if opts.Width < domain.MinGridWidth {
		opts.Width = domain.MinGridWidth
	}
	if opts.Height < domain.MinGridHeight {
		opts.Height = domain.MinGridHeight
	}
	rng, seed := utils.NewRand(opts.Seed)

	walls := newTileMap(opts.Width, opts.Height, false)
	for x := 0; x < opts.Width; x++ {
		walls[0][x] = true
		walls[opts.Height-1][x] = true
	}
	for y := 0; y < opts.Height; y++ {
		walls[y][0] = true
		walls[y][opts.Width-1] = true
	}

	center := domain.V(opts.Width/2, opts.Height/2).Scale(domain.BinSize)
	sc := &scenario.Scenario{
		Grid:  scenario.Grid{Width: opts.Width, Height: opts.Height},
		Props: walls.wallProps(),
	}
	sc.Props = append(sc.Props, StairsDown.At(center.X, center.Y))

	// Деревья вне центральной поляны
	clearing := Rect{X: opts.Width/2 - 4, Y: opts.Height/2 - 4, W: 8, H: 8}
	for i := 0; i < opts.Width*opts.Height/40; i++ {
		bx := randRange(rng, 2, opts.Width-3)
		by := randRange(rng, 2, opts.Height-3)
		if clearing.Intersects(Rect{X: bx, Y: by, W: 1, H: 1}) {
			continue
		}
		sc.Props = append(sc.Props, Tree.At(bx*domain.BinSize, by*domain.BinSize))
	}

	return &Level{
		Scenario: sc,
		Spawn:    center.Add(domain.V(domain.BinSize*2, 0)),
		Rooms:    []Rect{clearing},
		Seed:     seed,
	}
}
