package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gridview/internal/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenReadsRaggedRows(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "\xEF\xBB\xBFName,Score\nalice,10\nbob\n")

	src, err := Open(ctx, path)
	require.NoError(t, err)

	rows, err := src.ReadAllRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Score"}, {"alice", "10"}, {"bob"}}, rows)

	v, err := src.ReadCell(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Name", v)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestOpenMalformedFile(t *testing.T) {
	path := writeFile(t, "a,b\"c\"\n")
	_, err := Open(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestCommitRewritesFile(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "Name;Score\nalice;10\n")

	src, err := Open(ctx, path, WithComma(';'))
	require.NoError(t, err)

	require.NoError(t, src.WriteCell(ctx, 2, 2, "11"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name;Score\nalice;10\n", string(data))

	require.NoError(t, src.Commit(ctx))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name;Score\nalice;11\n", string(data))
	assert.Equal(t, 1, src.Commits())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestCommitWithBOM(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "a\n")

	src, err := Open(ctx, path, WithBOM())
	require.NoError(t, err)
	require.NoError(t, src.Commit(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFa\n", string(data))
}

func TestCommitKeepsBOMAndFileMode(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "\xEF\xBB\xBFName,Score\nalice,10\n")
	require.NoError(t, os.Chmod(path, 0o640))

	src, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, src.WriteCell(ctx, 2, 2, "12"))
	require.NoError(t, src.Commit(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFName,Score\nalice,12\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestCommitWithoutBOMStaysPlain(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "a\n")

	src, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, src.Commit(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))
}

func TestReloadDiscardsPendingWrites(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "a,b\n")

	src, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, src.WriteCell(ctx, 1, 1, "z"))

	require.NoError(t, os.WriteFile(path, []byte("x,y\n"), 0644))
	require.NoError(t, src.Reload(ctx))

	rows, err := src.ReadAllRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x", "y"}}, rows)
	assert.Equal(t, path, src.Path())
}
