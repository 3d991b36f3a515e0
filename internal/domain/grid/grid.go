// Package grid provides pure geometry over (row, col) cells: neighborhoods,
// rays, rectangles and distance-based targeting. Boss skills and the
// reachability calculator are built on it.
package grid

// Cell is an integer grid position. Pure value, no identity.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Delta is a per-axis offset between cells
type Delta struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Size is the extent of a rectangular grid
type Size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Contains reports whether cell lies within the grid
func (s Size) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < s.Rows && c.Col >= 0 && c.Col < s.Cols
}

// Add returns the cell shifted by d
func (c Cell) Add(d Delta) Cell {
	return Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
}

// Neighbors8 returns the 8 surrounding cells in clockwise-from-top-left
// order. Callers index into the result: 1 is directly above, 3 is left,
// 4 is right, 6 is below. Neighbors4 and the field generator depend on
// these positions, so the order must not change.
func Neighbors8(c Cell) [8]Cell {
	return [8]Cell{
		{c.Row - 1, c.Col - 1}, // top left
		{c.Row - 1, c.Col},     // top
		{c.Row - 1, c.Col + 1}, // top right
		{c.Row, c.Col - 1},     // left
		{c.Row, c.Col + 1},     // right
		{c.Row + 1, c.Col - 1}, // bottom left
		{c.Row + 1, c.Col},     // bottom
		{c.Row + 1, c.Col + 1}, // bottom right
	}
}

// Neighbors4 returns the cardinal neighbors in the same relative order as
// Neighbors8: above, left, right, below.
func Neighbors4(c Cell) [4]Cell {
	all := Neighbors8(c)
	return [4]Cell{all[1], all[3], all[4], all[6]}
}

// DeltaToward returns the per-axis offset from one cell toward another,
// scaled to the given magnitude. An axis with zero difference yields a zero
// component rather than dividing by zero. Magnitude 0 returns the raw
// difference.
func DeltaToward(from, to Cell, magnitude int) Delta {
	dRow := to.Row - from.Row
	dCol := to.Col - from.Col
	if magnitude != 0 {
		dRow = magnitude * dRow / max(abs(dRow), 1)
		dCol = magnitude * dCol / max(abs(dCol), 1)
	}
	return Delta{Row: dRow, Col: dCol}
}

// Ray returns the cells stepping from origin along d until leaving the grid
// or collecting length cells, whichever comes first. The origin itself is
// excluded. A zero or negative length means unbounded. A zero delta yields
// an empty ray instead of looping forever.
func Ray(origin Cell, d Delta, size Size, length int) []Cell {
	if d.Row == 0 && d.Col == 0 {
		return nil
	}

	var cells []Cell
	cur := origin
	for {
		cur = cur.Add(d)
		if !size.Contains(cur) {
			break
		}
		cells = append(cells, cur)
		if length > 0 && len(cells) >= length {
			break
		}
	}

	return cells
}

// Rect returns all cells within Chebyshev distance radius of center,
// clipped to the grid. The center itself is included.
func Rect(center Cell, radius int, size Size) []Cell {
	var cells []Cell
	for row := center.Row - radius; row <= center.Row+radius; row++ {
		for col := center.Col - radius; col <= center.Col+radius; col++ {
			c := Cell{Row: row, Col: col}
			if size.Contains(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// Manhattan returns the Manhattan distance between two cells
func Manhattan(a, b Cell) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// Closest returns the index of the target cell nearest to pos by Manhattan
// distance, or -1 for an empty slice. Ties keep the first encountered, which
// downstream boss targeting relies on.
func Closest(pos Cell, targets []Cell) int {
	best := -1
	bestDist := 0
	for i, target := range targets {
		d := Manhattan(pos, target)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// Farthest returns the index of the target cell farthest from pos by
// Manhattan distance, or -1 for an empty slice. Ties keep the first
// encountered.
func Farthest(pos Cell, targets []Cell) int {
	best := -1
	bestDist := -1
	for i, target := range targets {
		d := Manhattan(pos, target)
		if d > bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
