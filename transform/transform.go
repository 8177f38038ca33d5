// Package transform implements strand-aware coordinate transforms of
// regions: extend and flank.
package transform

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/regions/parallel"
	"github.com/grailbio/regions/region"
)

// StrandColumn is the column consulted when a transform uses strand.
const StrandColumn = "STRAND"

// Direction selects which side(s) of a region extend grows.
type Direction uint8

const (
	// Forward grows the 3' side: End on the plus strand, Start on the minus
	// strand.
	Forward Direction = iota
	// Backward grows the 5' side: Start on the plus strand, End on the minus
	// strand.
	Backward
	// Both grows both sides.
	Both
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "FORWARD"
	case Backward:
		return "BACKWARD"
	case Both:
		return "BOTH"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection parses "forward", "backward" or "both", in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "FORWARD":
		return Forward, nil
	case "BACKWARD":
		return Backward, nil
	case "BOTH":
		return Both, nil
	}
	return Forward, errors.E(errors.Invalid, fmt.Sprintf("unknown direction %q", s))
}

// Strand is a region's orientation.
type Strand uint8

const (
	Plus Strand = iota
	Minus
)

func (s Strand) String() string {
	if s == Minus {
		return "-"
	}
	return "+"
}

// ParseStrand maps "-" to Minus and anything else to Plus.
func ParseStrand(s string) Strand {
	if s == "-" {
		return Minus
	}
	return Plus
}

// ColumnResolver resolves a dataset column by name.  cache.Columns is the
// usual implementation.
type ColumnResolver interface {
	Resolve(dataset region.DatasetID, column string) (region.Column, error)
}

// Engine applies transforms.  The resolver is consulted only when a transform
// uses strand.
type Engine struct {
	resolver ColumnResolver
	exec     *parallel.Executor
}

// New returns an Engine.  resolver may be nil if strand is never used.
func New(resolver ColumnResolver, exec *parallel.Executor) *Engine {
	return &Engine{resolver: resolver, exec: exec}
}

// strand returns the strand of r, or Plus if useStrand is false.  A failed
// column lookup is reported as errors.Invalid.
func (e *Engine) strand(r region.Region, useStrand bool) (Strand, error) {
	if !useStrand {
		return Plus, nil
	}
	if e.resolver == nil {
		return Plus, errors.E(errors.Invalid, "no column resolver for strand lookup")
	}
	col, err := e.resolver.Resolve(r.Dataset, StrandColumn)
	if err != nil {
		return Plus, errors.E(errors.Invalid, err, fmt.Sprintf("dataset %d", r.Dataset))
	}
	v, _ := r.Field(col)
	return ParseStrand(v), nil
}

// shift returns p+delta saturated to [0, PosTypeMax].
func shift(p region.PosType, delta int64) region.PosType {
	v := int64(p) + delta
	switch {
	case v < 0:
		return 0
	case v > region.PosTypeMax:
		return region.PosTypeMax
	}
	return region.PosType(v)
}

// bounds orders a and b.
func bounds(a, b region.PosType) (region.PosType, region.PosType) {
	if a > b {
		return b, a
	}
	return a, b
}

// Extend returns a clone of r grown by length bases in direction dir.  With
// useStrand, Forward and Backward are swapped for minus-strand regions.
// Coordinates saturate at 0; a negative length that inverts the region yields
// the swapped bounds.
func (e *Engine) Extend(r region.Region, length int64, dir Direction, useStrand bool) (region.Region, error) {
	s, err := e.strand(r, useStrand)
	if err != nil {
		return region.Region{}, err
	}
	if s == Minus {
		switch dir {
		case Forward:
			dir = Backward
		case Backward:
			dir = Forward
		}
	}
	a, b := r.Start, r.End
	switch dir {
	case Forward:
		b = shift(b, length)
	case Backward:
		a = shift(a, -length)
	case Both:
		a = shift(a, -length)
		b = shift(b, length)
	default:
		return region.Region{}, errors.E(errors.Invalid, fmt.Sprintf("unknown direction %v", dir))
	}
	a, b = bounds(a, b)
	return r.WithBounds(a, b), nil
}

// Flank returns a clone of r replaced by a window of length bases placed
// startOffset bases from r.  On the plus strand a non-negative offset places
// the window after End, a negative one places it ending |startOffset| bases
// before Start.  With useStrand, minus-strand regions are mirrored.
// Coordinates saturate at 0.
func (e *Engine) Flank(r region.Region, startOffset, length int64, useStrand bool) (region.Region, error) {
	s, err := e.strand(r, useStrand)
	if err != nil {
		return region.Region{}, err
	}
	var a, b region.PosType
	switch {
	case s == Plus && startOffset >= 0:
		a = shift(r.End, startOffset)
		b = shift(a, length)
	case s == Plus:
		b = shift(r.Start, startOffset)
		a = shift(b, -length)
	case startOffset >= 0:
		b = shift(r.Start, -startOffset)
		a = shift(b, -length)
	default:
		a = shift(r.End, -startOffset)
		b = shift(a, length)
	}
	a, b = bounds(a, b)
	return r.WithBounds(a, b), nil
}

// apply runs fn over every region of list, one chromosome per unit of work.
// The first error aborts the whole result.
func (e *Engine) apply(list region.List, fn func(region.Region) (region.Region, error)) (region.List, error) {
	idx := list.Index()
	return e.exec.Collect(list.Names(), func(name string) (region.Regions, error) {
		in := idx[name]
		out := make(region.Regions, len(in))
		for i, r := range in {
			var err error
			if out[i], err = fn(r); err != nil {
				return nil, errors.E(err, name)
			}
		}
		return out, nil
	})
}

// ExtendList applies Extend to every region of list.  Output regions keep
// their input order, which may no longer be sorted.
func (e *Engine) ExtendList(list region.List, length int64, dir Direction, useStrand bool) (region.List, error) {
	return e.apply(list, func(r region.Region) (region.Region, error) {
		return e.Extend(r, length, dir, useStrand)
	})
}

// FlankList applies Flank to every region of list.  Output regions keep their
// input order, which may no longer be sorted.
func (e *Engine) FlankList(list region.List, startOffset, length int64, useStrand bool) (region.List, error) {
	return e.apply(list, func(r region.Region) (region.Region, error) {
		return e.Flank(r, startOffset, length, useStrand)
	})
}
