// Package field holds the walkability grid for one level: the procedural
// maze generator that produces it and the reachability calculator that
// turns a move budget into clickable destinations.
package field

import (
	"strings"

	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
)

// Field is a rectangular walkability grid with one entry and one exit.
// It is generated once per level and never mutated afterwards.
type Field struct {
	Cells [][]bool  `json:"cells"`
	Entry grid.Cell `json:"entry"`
	Exit  grid.Cell `json:"exit"`
}

// Size returns the grid extent
func (f *Field) Size() grid.Size {
	if len(f.Cells) == 0 {
		return grid.Size{}
	}
	return grid.Size{Rows: len(f.Cells), Cols: len(f.Cells[0])}
}

// Walkable reports whether the cell is inside the grid and not a wall
func (f *Field) Walkable(c grid.Cell) bool {
	if !f.Size().Contains(c) {
		return false
	}
	return f.Cells[c.Row][c.Col]
}

// WalkableCells returns every walkable cell in row-major order
func (f *Field) WalkableCells() []grid.Cell {
	var cells []grid.Cell
	for row := range f.Cells {
		for col, walkable := range f.Cells[row] {
			if walkable {
				cells = append(cells, grid.Cell{Row: row, Col: col})
			}
		}
	}
	return cells
}

// String renders the field for logs: '#' wall, '.' floor, 'E'/'X' entry
// and exit.
func (f *Field) String() string {
	var b strings.Builder
	for row := range f.Cells {
		for col := range f.Cells[row] {
			c := grid.Cell{Row: row, Col: col}
			switch {
			case c == f.Entry:
				b.WriteByte('E')
			case c == f.Exit:
				b.WriteByte('X')
			case f.Cells[row][col]:
				b.WriteByte('.')
			default:
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
