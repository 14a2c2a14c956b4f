package sheet

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gridview/internal/celltext"
	"gridview/internal/grid"
	"gridview/internal/merge"
)

// mergedRegions mirrors a sheet with one vertical merge and two horizontal
// merges that overlap at F18.
var mergedRegions = []merge.Region{
	{StartRow: 19, StartCol: 6, EndRow: 20, EndCol: 6},
	{StartRow: 18, StartCol: 5, EndRow: 18, EndCol: 6},
	{StartRow: 18, StartCol: 6, EndRow: 18, EndCol: 7},
}

func filledGrid(rows, cols, fromRow int) [][]string {
	out := make([][]string, rows)
	for r := fromRow; r <= rows; r++ {
		out[r-1] = make([]string, cols)
		for c := 1; c <= cols; c++ {
			out[r-1][c-1] = fmt.Sprintf("r%dc%d", r, c)
		}
	}
	return out
}

func TestCellsSkipsBlankRowsAndCells(t *testing.T) {
	ctx := context.Background()
	mem := grid.NewMemory([][]string{
		{"Name", "", "Score"},
		{"", "  ", ""},
		nil,
		{" ", "x"},
	})
	ix, err := New(ctx, mem, nil)
	require.NoError(t, err)

	cells, err := ix.CollectCells(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Cell{
		{Value: "Name", Row: 1, Column: 1},
		{Value: "Score", Row: 1, Column: 3},
		{Value: "x", Row: 4, Column: 2},
	}, cells)
}

func TestCellsYieldsRawValue(t *testing.T) {
	ctx := context.Background()
	ix, err := New(ctx, grid.NewMemory([][]string{{"  Padded  "}}), nil)
	require.NoError(t, err)

	cells, err := ix.CollectCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "  Padded  ", cells[0].Value)
}

func TestCellsSkipsMergedBodies(t *testing.T) {
	ctx := context.Background()
	mem := grid.NewMemory(filledGrid(20, 7, 18))
	ix, err := New(ctx, mem, mergedRegions)
	require.NoError(t, err)

	var got []string
	for cell, err := range ix.Cells(ctx) {
		require.NoError(t, err)
		got = append(got, fmt.Sprintf("%d,%d", cell.Row, cell.Column))
	}

	assert.Equal(t, []string{
		"18,1", "18,2", "18,3", "18,4", "18,5", "18,6",
		"19,1", "19,2", "19,3", "19,4", "19,5", "19,6", "19,7",
		"20,1", "20,2", "20,3", "20,4", "20,5", "20,7",
	}, got)
}

func TestCellsYieldsAnchorInsideAnotherRegion(t *testing.T) {
	ctx := context.Background()
	ix, err := New(ctx, grid.NewMemory(filledGrid(20, 7, 18)), mergedRegions)
	require.NoError(t, err)
	require.True(t, ix.Merges().IsAnchor(18, 6))
	require.True(t, ix.Merges().IsCovered(18, 6))

	found := false
	for cell, err := range ix.Cells(ctx) {
		require.NoError(t, err)
		if cell.Row == 18 && cell.Column == 6 {
			found = true
		}
		assert.False(t, cell.Row == 18 && cell.Column == 7, "G18 is covered by F18:G18")
	}
	assert.True(t, found, "F18 anchors F18:G18 and must be yielded")
}

func TestCellsIsRestartableAndStopsEarly(t *testing.T) {
	ctx := context.Background()
	ix, _ := newReportIndex(t)

	first, err := ix.CollectCells(ctx)
	require.NoError(t, err)
	second, err := ix.CollectCells(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n := 0
	for _, err := range ix.Cells(ctx) {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestCellsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"", "", " ", "a", "B", "10", "total", "  x  "}

	for trial := 0; trial < 25; trial++ {
		t.Run(fmt.Sprintf("trial_%d", trial), func(t *testing.T) {
			ctx := context.Background()
			rows := make([][]string, 1+rng.Intn(12))
			for r := range rows {
				rows[r] = make([]string, rng.Intn(8))
				for c := range rows[r] {
					rows[r][c] = words[rng.Intn(len(words))]
				}
			}

			var regions []merge.Region
			for i := rng.Intn(4); i > 0; i-- {
				sr, sc := 1+rng.Intn(10), 1+rng.Intn(6)
				regions = append(regions, merge.Region{
					StartRow: sr, StartCol: sc,
					EndRow: sr + rng.Intn(3), EndCol: sc + rng.Intn(3),
				})
			}

			ix, err := New(ctx, grid.NewMemory(rows), regions)
			require.NoError(t, err)

			seen := make(map[[2]int]bool)
			for cell, err := range ix.Cells(ctx) {
				require.NoError(t, err)
				key := [2]int{cell.Row, cell.Column}
				assert.False(t, seen[key], "duplicate position %v", key)
				seen[key] = true
				assert.NotEmpty(t, celltext.Normalize(cell.Value))
				m := ix.Merges()
				assert.False(t, m.IsCovered(cell.Row, cell.Column) && !m.IsAnchor(cell.Row, cell.Column))
			}
		})
	}
}

func TestForEachStopsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	ix, _ := newReportIndex(t)

	calls := 0
	err := ix.ForEach(ctx, func(Cell) error {
		calls++
		return errBoom
	})
	assert.Same(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestCellsPropagatesSourceError(t *testing.T) {
	ctx := context.Background()
	src := &mockSource{}
	src.On("ReadAllRows", mock.Anything).Return([][]string{{"a"}}, nil).Once()
	src.On("ReadAllRows", mock.Anything).Return(nil, errBoom)

	ix, err := New(ctx, src, nil)
	require.NoError(t, err)

	_, err = ix.CollectCells(ctx)
	assert.Same(t, errBoom, err)
}
