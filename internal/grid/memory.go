package grid

import (
	"context"
)

// Memory is a Source held entirely in memory. Writes apply to the working
// grid immediately and are copied to the committed snapshot on Commit.
// File-backed sources embed it as their cell cache.
type Memory struct {
	rows      [][]string
	committed [][]string
	pending   int
	commits   int
}

// NewMemory returns a Memory seeded with a copy of rows, already committed.
func NewMemory(rows [][]string) *Memory {
	return &Memory{
		rows:      CloneRows(rows),
		committed: CloneRows(rows),
	}
}

// ReadAllRows returns a copy of the working grid.
func (m *Memory) ReadAllRows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CloneRows(m.rows), nil
}

// ReadCell returns the working value at (row, col).
func (m *Memory) ReadCell(ctx context.Context, row, col int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := CheckPosition(row, col); err != nil {
		return "", err
	}
	if row > len(m.rows) || col > len(m.rows[row-1]) {
		return "", nil
	}
	return m.rows[row-1][col-1], nil
}

// WriteCell sets (row, col) in the working grid, growing it as needed.
func (m *Memory) WriteCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckPosition(row, col); err != nil {
		return err
	}
	for len(m.rows) < row {
		m.rows = append(m.rows, nil)
	}
	r := m.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	m.rows[row-1] = r
	m.pending++
	return nil
}

// Commit snapshots the working grid.
func (m *Memory) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.committed = CloneRows(m.rows)
	m.pending = 0
	m.commits++
	return nil
}

// RowCount returns the number of rows in the working grid.
func (m *Memory) RowCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(m.rows), nil
}

// ColumnCount returns the width of the widest working row.
func (m *Memory) ColumnCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return Width(m.rows), nil
}

// Reload drops uncommitted writes by restoring the committed snapshot.
func (m *Memory) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.rows = CloneRows(m.committed)
	m.pending = 0
	return nil
}

// Replace swaps both the working grid and the committed snapshot, as after
// a fresh load from a backing store.
func (m *Memory) Replace(rows [][]string) {
	m.rows = CloneRows(rows)
	m.committed = CloneRows(rows)
	m.pending = 0
}

// Committed returns a copy of the last committed grid.
func (m *Memory) Committed() [][]string {
	return CloneRows(m.committed)
}

// Pending returns the number of writes since the last commit.
func (m *Memory) Pending() int {
	return m.pending
}

// Commits returns how many times Commit succeeded.
func (m *Memory) Commits() int {
	return m.commits
}
