package field

import (
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
)

// Ways enumerates the movement paths available from start with the given
// budget of cardinal steps. Each returned path starts at start, visits no
// cell twice, and stays on walkable cells. A path ends at a dead end, at
// the budget, or at a branch point; branch points recurse once per open
// neighbor, so the result holds one path per branch with shared prefixes.
// Callers flatten the union of all path cells into the clickable
// destination set.
//
// A budget of 0 yields the single path [start].
func Ways(f *Field, start grid.Cell, budget int) [][]grid.Cell {
	return walk(f, start, budget, nil)
}

func walk(f *Field, branch grid.Cell, budget int, prefix []grid.Cell) [][]grid.Cell {
	var ways [][]grid.Cell

	way := make([]grid.Cell, len(prefix), len(prefix)+1)
	copy(way, prefix)
	way = append(way, branch)

	open := openNeighbors(f, branch, way)

	for len(way) < budget+1 {
		switch len(open) {
		case 0:
			// dead end
			ways = append(ways, way)
			return ways
		case 1:
			way = append(way, open[0])
			open = openNeighbors(f, open[0], way)
		default:
			for _, next := range open {
				ways = append(ways, walk(f, next, budget, way)...)
			}
			ways = append(ways, way)
			return ways
		}
	}

	ways = append(ways, way)
	return ways
}

// openNeighbors returns the walkable cardinal neighbors of c not already on
// the path
func openNeighbors(f *Field, c grid.Cell, way []grid.Cell) []grid.Cell {
	var open []grid.Cell
	for _, nb := range grid.Neighbors4(c) {
		if !f.Walkable(nb) {
			continue
		}
		visited := false
		for _, seen := range way {
			if seen == nb {
				visited = true
				break
			}
		}
		if !visited {
			open = append(open, nb)
		}
	}
	return open
}

// WayCells flattens a set of paths into the distinct cells they cover,
// preserving first-seen order.
func WayCells(ways [][]grid.Cell) []grid.Cell {
	seen := map[grid.Cell]bool{}
	var cells []grid.Cell
	for _, way := range ways {
		for _, c := range way {
			if !seen[c] {
				seen[c] = true
				cells = append(cells, c)
			}
		}
	}
	return cells
}
