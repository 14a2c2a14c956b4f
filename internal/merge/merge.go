// Package merge keeps the merged-cell regions of a grid and answers the two
// questions the rest of the system asks about them: is a cell the anchor of
// a region, and is a cell hidden inside one.
//
// All coordinates are 1-based and inclusive, matching spreadsheet
// convention. A Registry is immutable once built.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidRange is returned when a region or range reference is malformed.
var ErrInvalidRange = errors.New("invalid merged range")

// Region is a rectangular block of merged cells. Its anchor is
// (StartRow, StartCol).
type Region struct {
	StartRow int `json:"start_row" yaml:"start_row"`
	StartCol int `json:"start_col" yaml:"start_col"`
	EndRow   int `json:"end_row" yaml:"end_row"`
	EndCol   int `json:"end_col" yaml:"end_col"`
}

// Validate checks that the region is 1-based and not inverted.
func (r Region) Validate() error {
	if r.StartRow < 1 || r.StartCol < 1 {
		return fmt.Errorf("%w: %s starts before row/column 1", ErrInvalidRange, r)
	}
	if r.StartRow > r.EndRow || r.StartCol > r.EndCol {
		return fmt.Errorf("%w: %s ends before it starts", ErrInvalidRange, r)
	}
	return nil
}

// Contains reports whether (row, col) lies inside the region, anchor included.
func (r Region) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

// IsAnchor reports whether (row, col) is the region's top-left cell.
func (r Region) IsAnchor(row, col int) bool {
	return row == r.StartRow && col == r.StartCol
}

// String renders the region in A1 notation, e.g. "E18:F18".
func (r Region) String() string {
	start, err := excelize.CoordinatesToCellName(r.StartCol, r.StartRow)
	if err != nil {
		return fmt.Sprintf("R%dC%d:R%dC%d", r.StartRow, r.StartCol, r.EndRow, r.EndCol)
	}
	end, err := excelize.CoordinatesToCellName(r.EndCol, r.EndRow)
	if err != nil {
		return fmt.Sprintf("R%dC%d:R%dC%d", r.StartRow, r.StartCol, r.EndRow, r.EndCol)
	}
	return start + ":" + end
}

// ParseRange parses an A1 range such as "F19:F20". A single cell reference
// ("B2") yields a degenerate one-cell region.
func ParseRange(ref string) (Region, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Region{}, fmt.Errorf("%w: empty reference", ErrInvalidRange)
	}
	startRef, endRef, found := strings.Cut(ref, ":")
	if !found {
		endRef = startRef
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(strings.TrimSpace(startRef))
	if err != nil {
		return Region{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, ref, err)
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(strings.TrimSpace(endRef))
	if err != nil {
		return Region{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, ref, err)
	}

	r := Region{StartRow: startRow, StartCol: startCol, EndRow: endRow, EndCol: endCol}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

// ParseRanges parses each reference with ParseRange, stopping at the first error.
func ParseRanges(refs []string) ([]Region, error) {
	regions := make([]Region, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		r, err := ParseRange(ref)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// Registry answers anchor and coverage questions over a fixed set of regions.
// Regions may overlap; every region is checked independently.
type Registry struct {
	regions []Region
}

// NewRegistry copies regions into a new Registry after validating each.
func NewRegistry(regions ...Region) (*Registry, error) {
	for _, r := range regions {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return &Registry{regions: append([]Region(nil), regions...)}, nil
}

// Regions returns a copy of the registered regions in registration order.
func (g *Registry) Regions() []Region {
	if g == nil {
		return nil
	}
	return append([]Region(nil), g.regions...)
}

// Len returns the number of registered regions.
func (g *Registry) Len() int {
	if g == nil {
		return 0
	}
	return len(g.regions)
}

// IsAnchor reports whether some region starts at (row, col).
func (g *Registry) IsAnchor(row, col int) bool {
	if g == nil {
		return false
	}
	for _, r := range g.regions {
		if r.IsAnchor(row, col) {
			return true
		}
	}
	return false
}

// IsCovered reports whether (row, col) lies in the non-anchor part of any
// region. A cell that anchors one region but sits inside the body of
// another is covered.
func (g *Registry) IsCovered(row, col int) bool {
	if g == nil {
		return false
	}
	for _, r := range g.regions {
		if r.Contains(row, col) && !r.IsAnchor(row, col) {
			return true
		}
	}
	return false
}
