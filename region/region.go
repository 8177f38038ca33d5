package region

import (
	"fmt"
	"math"
)

// PosType is the coordinate type.  Coordinates are unsigned, 0-based.
type PosType uint32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxUint32

// DatasetID identifies the dataset (experiment, annotation) a region came
// from.
type DatasetID uint32

// NoDataset is the reserved DatasetID of regions that do not come from any
// dataset, e.g. segments synthesized by disjoin.
const NoDataset = DatasetID(0)

// Region is the half-open interval [Start, End) on one chromosome.  The
// chromosome itself is implied by the enclosing Chromosome.
type Region struct {
	Start   PosType
	End     PosType
	Dataset DatasetID
	// Payload is nil for a plain interval.
	Payload Payload
}

// New returns a plain region.
func New(start, end PosType, dataset DatasetID) Region {
	return Region{Start: start, End: end, Dataset: dataset}
}

// Len returns End - Start, or 0 for an inverted region.
func (r Region) Len() PosType {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Valid reports whether End > Start.
func (r Region) Valid() bool { return r.End > r.Start }

// Less reports whether r precedes o in (Start, End) order.
func (r Region) Less(o Region) bool {
	if r.Start != o.Start {
		return r.Start < o.Start
	}
	return r.End < o.End
}

// HasStats reports whether r carries an aggregate payload.
func (r Region) HasStats() bool {
	_, ok := r.Payload.(*Stats)
	return ok
}

// Clone returns a deep copy of r.
func (r Region) Clone() Region {
	c := r
	if r.Payload != nil {
		c.Payload = r.Payload.clone()
	}
	return c
}

// WithBounds returns a clone of r with Start and End replaced.
func (r Region) WithBounds(start, end PosType) Region {
	c := r.Clone()
	c.Start, c.End = start, end
	return c
}

// Field returns the value of col for r.  Columns payloads are addressed by
// col.Pos, Attributes payloads by col.Name.  It returns false if r has no
// such field.
func (r Region) Field(col Column) (string, bool) {
	switch p := r.Payload.(type) {
	case Columns:
		if col.Pos < 0 || col.Pos >= len(p) {
			return "", false
		}
		return p[col.Pos].String(), true
	case Attributes:
		v, ok := p[col.Name]
		return v, ok
	case *Signal:
		if col.Type == Double {
			return fmt.Sprint(p.Value), true
		}
	}
	return "", false
}

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d)#%d", r.Start, r.End, r.Dataset)
}
