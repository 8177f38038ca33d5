package interval

import (
	"fmt"
	"strings"

	"github.com/grailbio/regions/region"
)

// AmountType selects how an overlap/distance amount is interpreted.
type AmountType uint8

const (
	// BP interprets the amount as an absolute number of base pairs.
	BP AmountType = iota
	// Percent interprets the amount as a percentage of each region's own
	// length.
	Percent
)

func (t AmountType) String() string {
	switch t {
	case BP:
		return "bp"
	case Percent:
		return "%"
	}
	return fmt.Sprintf("AmountType(%d)", uint8(t))
}

// ParseAmountType parses "bp" or "%" (also "percent"/"percentage").
func ParseAmountType(s string) (AmountType, error) {
	switch strings.ToLower(s) {
	case "bp", "":
		return BP, nil
	case "%", "percent", "percentage":
		return Percent, nil
	}
	return BP, fmt.Errorf("interval.ParseAmountType: unknown amount type %q", s)
}

// Distance returns b.Start - a.End.  It is meaningful when a precedes b and
// they do not overlap; with the arguments swapped it is negative.
func Distance(a, b region.Region) int64 {
	return int64(b.Start) - int64(a.End)
}

// OverlapAmount returns a.End - b.Start.  It is meaningful only when a and b
// overlap.
func OverlapAmount(a, b region.Region) int64 {
	return int64(a.End) - int64(b.Start)
}

// Overlaps reports whether a and b share at least one base.  Touching
// intervals ([0,5) and [5,10)) do not overlap.
func Overlaps(a, b region.Region) bool {
	return a.Start < b.End && a.End > b.Start
}

// ThresholdLength converts amount into a base-pair threshold for r.  For BP
// it is amount itself; for Percent it is ceil(len(r) * amount / 100).  Each
// region computes its own threshold from its own length.
func ThresholdLength(r region.Region, amount int64, t AmountType) int64 {
	if t != Percent {
		return amount
	}
	p := int64(r.Len()) * amount
	if p <= 0 {
		// Truncation toward zero is already the ceiling for negatives.
		return p / 100
	}
	return (p + 99) / 100
}
