package dungeon

import (
	"whitehill-server/internal/domain"
	"whitehill-server/internal/scenario"
)

// PropTemplate определяет шаблон для создания объекта сценария
type PropTemplate struct {
	Key   string
	Layer int
	Speed float64
	Size  [2]int   // Используется, если Mask пустая
	Mask  []string // ASCII маска, см. domain.ParseMask
}

// At создает описание объекта из шаблона на заданной позиции (пиксели)
func (t PropTemplate) At(x, y int) scenario.Prop {
	p := scenario.Prop{
		Key:   t.Key,
		X:     x,
		Y:     y,
		Layer: t.Layer,
		Speed: t.Speed,
	}
	if len(t.Mask) > 0 {
		p.Mask = append([]string(nil), t.Mask...)
	} else {
		p.Size = []int{t.Size[0], t.Size[1]}
	}
	return p
}

// Run создает горизонтальный отрезок длиной n бинов, начиная с бина (bx, by)
func (t PropTemplate) Run(bx, by, n int) scenario.Prop {
	p := t.At(bx*domain.BinSize, by*domain.BinSize)
	p.Mask = nil
	p.Size = []int{n * t.Size[0], t.Size[1]}
	return p
}

// --- БАЗА ДАННЫХ ОБЪЕКТОВ ---

var (
	Wall = PropTemplate{
		Key:  "wall",
		Size: [2]int{domain.BinSize, domain.BinSize},
	}

	// Лестницы лежат на полу: слой -1 ни с кем из ходящих не сталкивается
	StairsUp = PropTemplate{
		Key:   "stairs_up",
		Layer: -1,
		Size:  [2]int{domain.BinSize, domain.BinSize},
	}
	StairsDown = PropTemplate{
		Key:   "stairs_down",
		Layer: -1,
		Size:  [2]int{domain.BinSize, domain.BinSize},
	}

	Slime = PropTemplate{
		Key:   "slime",
		Speed: 10,
		Mask: []string{
			"..####..",
			".######.",
			"########",
			"########",
			".######.",
		},
	}
	BigSlime = PropTemplate{
		Key:   "slime_big",
		Speed: 6,
		Mask: []string{
			"....########....",
			"..############..",
			".##############.",
			"################",
			"################",
			"################",
			".##############.",
			"..############..",
		},
	}

	Tree = PropTemplate{
		Key:   "tree",
		Layer: 0,
		Mask: []string{
			"......####......",
			"....########....",
			"..############..",
			"..############..",
			"....########....",
			"......####......",
			"......####......",
		},
	}
)
