package field

import (
	"math/rand"
	"time"

	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

const (
	// minWalkableFraction rejects degenerate tiny mazes
	minWalkableFraction = 0.35

	// maxGenerateAttempts caps the from-scratch retries before the failure
	// becomes fatal to the room
	maxGenerateAttempts = 200

	// maxCarveIterations bounds a single carving run
	maxCarveIterations = 5000

	// maxCellErrors is how many rejected corridors a lonely cell may
	// accumulate before its branch is abandoned
	maxCellErrors = 3

	// maxCorridorCollisions rejects corridors that would merge too many
	// existing passages into an open area
	maxCorridorCollisions = 2
)

// Generator carves random mazes by corridor injection. Fields it produces
// satisfy: entry and exit walkable and mutually reachable, every walkable
// cell reachable from the entry, at least 35% of the area walkable, and
// corridor-like structure (no open rooms, no isolated wall pillars).
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with its own RNG stream. A nil source
// seeds from the clock.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate produces a maze roughly w by h before the border frame is added.
// Repeated structural failures surface as a content error rather than
// looping forever.
func (g *Generator) Generate(w, h int) (*Field, error) {
	if w < 9 || h < 9 {
		return nil, apperrors.Contentf("field size %dx%d is too small to carve", w, h)
	}

	// an odd width centers the entry column, an even height keeps corridor
	// lengths aligned to the carving step
	if w%2 == 0 {
		w++
	}
	if h%2 != 0 {
		h--
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		cells, err := g.carve(w, h)
		if err != nil {
			continue
		}

		entry := grid.Cell{Row: 0, Col: w / 2}
		exit := grid.Cell{Row: h - 1, Col: w / 2}
		if !cells[entry.Row][entry.Col] || !cells[exit.Row][exit.Col] {
			continue
		}

		// walkable pockets the carving left unconnected become walls;
		// the entry must still reach the exit afterwards
		reached := flood(cells, entry)
		if !reached[exit] {
			continue
		}
		prune(cells, reached)

		if walkableFraction(cells) < minWalkableFraction {
			continue
		}

		return frame(cells, w, h), nil
	}

	return nil, apperrors.Contentf("field generation did not converge after %d attempts", maxGenerateAttempts)
}

// carve runs the corridor-injection loop on a w by h all-wall grid seeded
// with the entry and exit cells.
func (g *Generator) carve(w, h int) ([][]bool, error) {
	cells := newCells(h, w)
	cells[0][w/2] = true
	cells[h-1][w/2] = true

	entry := grid.Cell{Row: 0, Col: w / 2}
	exit := grid.Cell{Row: h - 1, Col: w / 2}
	size := grid.Size{Rows: h, Cols: w}
	errors := map[grid.Cell]int{}

	for iter := 0; ; iter++ {
		if iter > maxCarveIterations {
			return nil, apperrors.Content("carving exceeded the iteration bound")
		}

		lonely, ok := findLonely(cells, size)
		if !ok {
			return cells, nil
		}

		var corridor []grid.Cell
		if g.rng.Intn(2) == 0 {
			corridor = g.verticalCorridor(lonely, h)
		} else {
			corridor = g.horizontalCorridor(lonely, w)
		}

		scratch := cloneCells(cells)
		collisions := 0
		rejected := false
		for _, c := range corridor {
			if !size.Contains(c) {
				continue
			}
			if scratch[c.Row][c.Col] {
				collisions++
				if collisions > maxCorridorCollisions {
					rejected = true
					break
				}
			}
			scratch[c.Row][c.Col] = true
		}

		if !rejected && validateStructure(scratch, size) {
			cells = scratch
		} else {
			errors[lonely]++
		}

		if errors[lonely] > maxCellErrors {
			delete(errors, lonely)
			if lonely == entry || lonely == exit {
				// the designated openings may never be walled off;
				// the iteration bound ends a carve that cannot fix them
				continue
			}
			for _, nb := range grid.Neighbors4(lonely) {
				if size.Contains(nb) && nb != entry && nb != exit {
					cells[nb.Row][nb.Col] = false
				}
			}
			cells[lonely.Row][lonely.Col] = false
		}
	}
}

// findLonely returns the first walkable cell with fewer than two walkable
// cardinal neighbors: a dead end or isolated opening the maze can grow from.
func findLonely(cells [][]bool, size grid.Size) (grid.Cell, bool) {
	for row := range cells {
		for col, walkable := range cells[row] {
			if !walkable {
				continue
			}
			c := grid.Cell{Row: row, Col: col}
			nb := grid.Neighbors4(c)
			if countWalkable(cells, size, nb[:]) < 2 {
				return c, true
			}
		}
	}
	return grid.Cell{}, false
}

// verticalCorridor builds a straight vertical corridor through c with a
// random even-length split above and below it.
func (g *Generator) verticalCorridor(c grid.Cell, h int) []grid.Cell {
	maxLen := h / 2 / 2
	var cells []grid.Cell

	up := evenUp(g.randInt(2, maxLen))
	for i := 0; i < up; i++ {
		cells = append(cells, grid.Cell{Row: c.Row - i - 1, Col: c.Col})
	}

	down := evenUp(g.randInt(0, maxLen))
	for i := 0; i < down; i++ {
		cells = append(cells, grid.Cell{Row: c.Row + i + 1, Col: c.Col})
	}

	return cells
}

// horizontalCorridor builds a straight horizontal corridor through c with a
// random even-length split to each side. At least one side is always
// non-empty.
func (g *Generator) horizontalCorridor(c grid.Cell, w int) []grid.Cell {
	maxLen := w / 2 / 2
	var cells []grid.Cell

	left := evenUp(g.randInt(0, maxLen))
	for i := 0; i < left; i++ {
		cells = append(cells, grid.Cell{Row: c.Row, Col: c.Col - i - 1})
	}

	lo := 0
	if left == 0 {
		lo = 2
	}
	right := evenUp(g.randInt(lo, maxLen))
	for i := 0; i < right; i++ {
		cells = append(cells, grid.Cell{Row: c.Row, Col: c.Col + i + 1})
	}

	return cells
}

// validateStructure enforces the corridor-shape rules: a walkable cell with
// 4 cardinal walkable neighbors may have at most 4 walkable neighbors in
// total, with 3 at most 4, with 2 at most 6. A wall must keep at least one
// wall among its 8 neighbors. Cells beyond the boundary count as walls.
func validateStructure(cells [][]bool, size grid.Size) bool {
	for row := range cells {
		for col, walkable := range cells[row] {
			c := grid.Cell{Row: row, Col: col}
			nb8 := grid.Neighbors8(c)
			all := countWalkable(cells, size, nb8[:])
			if walkable {
				nb4 := grid.Neighbors4(c)
				cardinal := countWalkable(cells, size, nb4[:])
				switch cardinal {
				case 4, 3:
					if all > 4 {
						return false
					}
				case 2:
					if all > 6 {
						return false
					}
				}
			} else if all == 8 {
				return false
			}
		}
	}
	return true
}

// frame pads the carved grid with a solid border and opens single-cell
// passages above the entry and below the exit.
func frame(cells [][]bool, w, h int) *Field {
	framed := newCells(h+2, w+2)
	for row := range cells {
		for col, walkable := range cells[row] {
			framed[row+1][col+1] = walkable
		}
	}

	entry := grid.Cell{Row: 0, Col: w/2 + 1}
	exit := grid.Cell{Row: h + 1, Col: w/2 + 1}
	framed[entry.Row][entry.Col] = true
	framed[exit.Row][exit.Col] = true

	return &Field{Cells: framed, Entry: entry, Exit: exit}
}

// flood returns the set of walkable cells 4-connected to start
func flood(cells [][]bool, start grid.Cell) map[grid.Cell]bool {
	size := grid.Size{Rows: len(cells), Cols: len(cells[0])}
	reached := map[grid.Cell]bool{start: true}
	queue := []grid.Cell{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range grid.Neighbors4(cur) {
			if size.Contains(nb) && cells[nb.Row][nb.Col] && !reached[nb] {
				reached[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	return reached
}

func prune(cells [][]bool, reached map[grid.Cell]bool) {
	for row := range cells {
		for col := range cells[row] {
			if cells[row][col] && !reached[grid.Cell{Row: row, Col: col}] {
				cells[row][col] = false
			}
		}
	}
}

func walkableFraction(cells [][]bool) float64 {
	total, walkable := 0, 0
	for row := range cells {
		for _, w := range cells[row] {
			total++
			if w {
				walkable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(walkable) / float64(total)
}

func countWalkable(cells [][]bool, size grid.Size, cords []grid.Cell) int {
	count := 0
	for _, c := range cords {
		if size.Contains(c) && cells[c.Row][c.Col] {
			count++
		}
	}
	return count
}

func newCells(rows, cols int) [][]bool {
	cells := make([][]bool, rows)
	for i := range cells {
		cells[i] = make([]bool, cols)
	}
	return cells
}

func cloneCells(cells [][]bool) [][]bool {
	out := make([][]bool, len(cells))
	for i := range cells {
		out[i] = make([]bool, len(cells[i]))
		copy(out[i], cells[i])
	}
	return out
}

// randInt returns a uniform value in [lo, hi]
func (g *Generator) randInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

// evenUp rounds odd corridor lengths up to keep passages aligned
func evenUp(v int) int {
	if v%2 != 0 {
		return v + 1
	}
	return v
}
