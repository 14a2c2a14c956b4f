package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBinding is returned when a fixed set of headers cannot be bound.
var ErrInvalidBinding = errors.New("invalid header binding")

// Columns maps the names passed to Bind to their resolved columns.
type Columns map[string]*Column

// Bind resolves a known set of header names up front. It fails with
// ErrInvalidBinding naming every header that did not resolve.
func (ix *Index) Bind(ctx context.Context, names ...string) (Columns, error) {
	cols := make(Columns, len(names))
	var missing []string
	for _, name := range names {
		if _, done := cols[name]; done {
			continue
		}
		col, ok, err := ix.Resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = col
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: headers not found: %s", ErrInvalidBinding, strings.Join(missing, ", "))
	}
	return cols, nil
}
