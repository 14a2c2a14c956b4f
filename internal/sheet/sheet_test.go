package sheet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gridview/internal/grid"
)

// mockSource is a testify mock of grid.Source.
type mockSource struct {
	mock.Mock
}

func (m *mockSource) ReadAllRows(ctx context.Context) ([][]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]string), args.Error(1)
}

func (m *mockSource) ReadCell(ctx context.Context, row, col int) (string, error) {
	args := m.Called(ctx, row, col)
	return args.String(0), args.Error(1)
}

func (m *mockSource) WriteCell(ctx context.Context, row, col int, value string) error {
	return m.Called(ctx, row, col, value).Error(0)
}

func (m *mockSource) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSource) RowCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockSource) ColumnCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func reportRows() [][]string {
	return [][]string{
		{"Quarterly Report", "", ""},
		{"Name", "Score", "Region"},
		{"alice", "10", "north"},
		{"bob", "20", "south"},
		{"Total", "30", ""},
		{"", "", ""},
		{"carol", "abc", "east"},
	}
}

func newReportIndex(t *testing.T) (*Index, *grid.Memory) {
	t.Helper()
	mem := grid.NewMemory(reportRows())
	ix, err := New(context.Background(), mem, nil)
	require.NoError(t, err)
	return ix, mem
}

func mustResolve(t *testing.T, ix *Index, name string) *Column {
	t.Helper()
	col, ok, err := ix.Resolve(context.Background(), name)
	require.NoError(t, err)
	require.True(t, ok, "header %q should resolve", name)
	return col
}

var errBoom = errors.New("backend unavailable")
