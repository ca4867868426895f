package lattice

import "github.com/pkg/errors"

// costGrid is a 2D byte cost grid stored as one flat row-major buffer.
type costGrid struct {
	width  int
	height int
	data   []byte
}

func newCostGrid(width, height int) *costGrid {
	return &costGrid{
		width:  width,
		height: height,
		data:   make([]byte, width*height),
	}
}

func (g *costGrid) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *costGrid) k(x, y int) int {
	return x + y*g.width
}

func (g *costGrid) at(x, y int) byte {
	return g.data[g.k(x, y)]
}

func (g *costGrid) set(x, y int, cost byte) {
	g.data[g.k(x, y)] = cost
}

// load bulk-overwrites the grid from a row-major buffer of matching size.
func (g *costGrid) load(data []byte) error {
	if len(data) != len(g.data) {
		return errors.Errorf("map data has %d cells, expected %dx%d=%d", len(data), g.width, g.height, len(g.data))
	}
	copy(g.data, data)
	return nil
}
