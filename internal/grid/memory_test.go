package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReadCell(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([][]string{
		{"Name", "Score"},
		{"alice", "10"},
		{"bob"},
	})

	tests := []struct {
		name     string
		row, col int
		want     string
	}{
		{"header", 1, 2, "Score"},
		{"data", 2, 1, "alice"},
		{"short row reads empty", 3, 2, ""},
		{"past last row reads empty", 9, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ReadCell(ctx, tt.row, tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := m.ReadCell(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMemoryCounts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([][]string{{"a"}, {"b", "c", "d"}, {}})

	rows, err := m.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	cols, err := m.ColumnCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cols)
}

func TestMemoryWriteGrowsAndCommits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([][]string{{"a"}})

	require.NoError(t, m.WriteCell(ctx, 3, 2, "x"))
	assert.Equal(t, 1, m.Pending())

	got, err := m.ReadCell(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
	assert.Equal(t, [][]string{{"a"}}, m.Committed())

	require.NoError(t, m.Commit(ctx))
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 1, m.Commits())
	assert.Equal(t, [][]string{{"a"}, nil, {"", "x"}}, m.Committed())
}

func TestMemoryReloadDiscardsPending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([][]string{{"a", "b"}})

	require.NoError(t, m.WriteCell(ctx, 1, 1, "z"))
	require.NoError(t, m.Reload(ctx))

	got, err := m.ReadCell(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got)
	assert.Equal(t, 0, m.Pending())
}

func TestMemoryReadAllRowsIsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([][]string{{"a"}})

	rows, err := m.ReadAllRows(ctx)
	require.NoError(t, err)
	rows[0][0] = "mutated"

	got, err := m.ReadCell(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory(nil).ReadAllRows(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
