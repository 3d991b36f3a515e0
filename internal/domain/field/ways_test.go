package field_test

import (
	"testing"

	"github.com/dungeonofmasters/dom-server/internal/domain/field"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openField builds a fully walkable grid for path tests
func openField(rows, cols int) *field.Field {
	cells := make([][]bool, rows)
	for i := range cells {
		cells[i] = make([]bool, cols)
		for j := range cells[i] {
			cells[i][j] = true
		}
	}
	return &field.Field{Cells: cells}
}

// corridorField builds a single horizontal corridor on row 1
func corridorField(cols int) *field.Field {
	f := openField(3, cols)
	for j := 0; j < cols; j++ {
		f.Cells[0][j] = false
		f.Cells[2][j] = false
	}
	return f
}

func TestWaysZeroBudget(t *testing.T) {
	f := openField(5, 5)
	start := grid.Cell{Row: 2, Col: 2}

	ways := field.Ways(f, start, 0)

	require.Len(t, ways, 1)
	assert.Equal(t, []grid.Cell{start}, ways[0])
}

func TestWaysDeadEndStopsPath(t *testing.T) {
	f := corridorField(4)
	start := grid.Cell{Row: 1, Col: 0}

	ways := field.Ways(f, start, 10)

	// one path that runs the corridor and stops at the far wall
	require.Len(t, ways, 1)
	assert.Equal(t, []grid.Cell{
		{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3},
	}, ways[0])
}

func TestWaysBudgetLimitsLength(t *testing.T) {
	f := corridorField(10)
	start := grid.Cell{Row: 1, Col: 0}

	ways := field.Ways(f, start, 3)

	require.Len(t, ways, 1)
	assert.Len(t, ways[0], 4, "three steps plus the start cell")
}

func TestWaysOpenFieldProperties(t *testing.T) {
	f := openField(5, 5)
	start := grid.Cell{Row: 2, Col: 2}
	budget := 3

	ways := field.Ways(f, start, budget)
	require.NotEmpty(t, ways)

	for _, way := range ways {
		assert.LessOrEqual(t, len(way), budget+1, "path exceeds the budget")
		assert.Equal(t, start, way[0], "every path starts at the start cell")

		seen := map[grid.Cell]bool{}
		for i, c := range way {
			assert.False(t, seen[c], "cell revisited within one path")
			seen[c] = true
			assert.True(t, f.Walkable(c))
			if i > 0 {
				assert.Equal(t, 1, grid.Manhattan(way[i-1], c), "non-cardinal step")
			}
		}
	}

	// the straight three-step lines in all four directions must be covered
	cells := field.WayCells(ways)
	for _, target := range []grid.Cell{
		{Row: 2, Col: 0}, {Row: 2, Col: 4}, {Row: 0, Col: 2}, {Row: 4, Col: 2},
	} {
		assert.Contains(t, cells, target, "straight-line destination missing")
	}
}

func TestWaysRespectsWalls(t *testing.T) {
	f := openField(3, 3)
	for _, c := range []grid.Cell{
		{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 1},
	} {
		f.Cells[c.Row][c.Col] = false
	}
	start := grid.Cell{Row: 1, Col: 1}

	ways := field.Ways(f, start, 5)

	// boxed in: only the start cell is reachable
	require.Len(t, ways, 1)
	assert.Equal(t, []grid.Cell{start}, ways[0])
}

func TestWayCellsDeduplicates(t *testing.T) {
	ways := [][]grid.Cell{
		{{Row: 1, Col: 1}, {Row: 1, Col: 2}},
		{{Row: 1, Col: 1}, {Row: 2, Col: 1}},
	}

	cells := field.WayCells(ways)
	assert.Equal(t, []grid.Cell{
		{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1},
	}, cells)
}
