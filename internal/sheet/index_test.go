package sheet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gridview/internal/grid"
	"gridview/internal/merge"
)

func TestResolveNormalizesHeaderName(t *testing.T) {
	ix, _ := newReportIndex(t)

	for _, name := range []string{"score", "  SCORE ", "Score"} {
		t.Run(name, func(t *testing.T) {
			col := mustResolve(t, ix, name)
			assert.Equal(t, 2, col.Position())
			assert.Equal(t, 2, col.HeaderRow())
			assert.Equal(t, "score", col.Header())
		})
	}
}

func TestResolveMiss(t *testing.T) {
	ix, _ := newReportIndex(t)

	col, ok, err := ix.Resolve(context.Background(), "does not exist")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, col)

	col, ok, err = ix.Resolve(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, col)
}

func TestHeaderMapScansWholeGridLastWins(t *testing.T) {
	mem := grid.NewMemory([][]string{
		{"Name", "Score"},
		{"a", "1"},
		{"", "", "NAME"},
		{"", "", "z"},
	})
	ix, err := New(context.Background(), mem, nil)
	require.NoError(t, err)

	col, ok := ix.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, 3, col)

	name := mustResolve(t, ix, "Name")
	assert.Equal(t, 3, name.Position())
	assert.Equal(t, 3, name.HeaderRow())

	// Data cells are headers too.
	a := mustResolve(t, ix, "a")
	assert.Equal(t, 1, a.Position())
	assert.Equal(t, 2, a.HeaderRow())
}

func TestResolveHeaderRowMissingAfterEdit(t *testing.T) {
	ctx := context.Background()
	ix, mem := newReportIndex(t)

	// The header map is never refreshed, so renaming the header leaves a
	// stale entry whose row can no longer be found.
	require.NoError(t, mem.WriteCell(ctx, 2, 2, "Points"))

	col, ok, err := ix.Resolve(ctx, "score")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, col)

	_, ok, err = ix.Resolve(ctx, "points")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHeaders(t *testing.T) {
	mem := grid.NewMemory([][]string{{"B", "a"}, {"c"}})
	ix, err := New(context.Background(), mem, nil)
	require.NoError(t, err)

	assert.Equal(t, []Header{
		{Name: "b", Column: 1},
		{Name: "c", Column: 1},
		{Name: "a", Column: 2},
	}, ix.Headers())
}

func TestNewRejectsInvalidRegions(t *testing.T) {
	_, err := New(context.Background(), grid.NewMemory(nil), []merge.Region{{StartRow: 2, StartCol: 2, EndRow: 1, EndCol: 2}})
	assert.ErrorIs(t, err, merge.ErrInvalidRange)
}

func TestNewPropagatesSourceError(t *testing.T) {
	src := &mockSource{}
	src.On("ReadAllRows", mock.Anything).Return(nil, errBoom)

	_, err := New(context.Background(), src, nil)
	assert.Same(t, errBoom, err)
}

func TestResolvePropagatesSourceError(t *testing.T) {
	src := &mockSource{}
	src.On("ReadAllRows", mock.Anything).Return([][]string{{"Score"}}, nil).Once()
	src.On("ReadAllRows", mock.Anything).Return(nil, errBoom).Once()

	ix, err := New(context.Background(), src, nil)
	require.NoError(t, err)

	_, ok, err := ix.Resolve(context.Background(), "score")
	assert.Same(t, errBoom, err)
	assert.False(t, ok)
	src.AssertExpectations(t)
}

func TestRow(t *testing.T) {
	ctx := context.Background()
	ix, _ := newReportIndex(t)

	row, err := ix.Row(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Score", "Region"}, row)

	row, err = ix.Row(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "30", ""}, row)

	row, err = ix.Row(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", ""}, row)
}

func TestRowPropagatesSourceError(t *testing.T) {
	src := &mockSource{}
	src.On("ReadAllRows", mock.Anything).Return([][]string{{"a", "b"}}, nil)
	src.On("ColumnCount", mock.Anything).Return(2, nil)
	src.On("ReadCell", mock.Anything, 1, 1).Return("a", nil)
	src.On("ReadCell", mock.Anything, 1, 2).Return("", errBoom)

	ix, err := New(context.Background(), src, nil)
	require.NoError(t, err)

	_, err = ix.Row(context.Background(), 1)
	assert.Same(t, errBoom, err)
}
