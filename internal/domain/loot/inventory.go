package loot

// Grid is the inventory occupancy grid; Grid[row][col] is true when the cell
// is occupied.
type Grid [][]bool

func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for i := range g {
		g[i] = make([]bool, cols)
	}
	return g
}

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// WithOccupied returns a copy of g with the given cells marked occupied.
// Cells outside the grid are ignored.
func (g Grid) WithOccupied(cells []Cell) Grid {
	out := g.Clone()
	for _, c := range cells {
		if c.Row < 0 || c.Row >= len(out) || c.Col < 0 || c.Col >= len(out[c.Row]) {
			continue
		}
		out[c.Row][c.Col] = true
	}
	return out
}

type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// CanFit reports whether a width x height block of free cells exists.
// Items without a footprint always fit.
func (g Grid) CanFit(width, height int) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	rows, cols := g.Rows(), g.Cols()
	for y := 0; y <= rows-height; y++ {
		for x := 0; x <= cols-width; x++ {
			if g.blockFree(x, y, width, height) {
				return true
			}
		}
	}
	return false
}

func (g Grid) blockFree(x, y, width, height int) bool {
	for dy := 0; dy < height; dy++ {
		row := g[y+dy]
		for dx := 0; dx < width; dx++ {
			if x+dx >= len(row) || row[x+dx] {
				return false
			}
		}
	}
	return true
}
