package region

import (
	"strconv"
)

// Kind enumerates the payload variants a Region may carry.
type Kind uint8

const (
	// KindPlain is a region without payload.
	KindPlain Kind = iota
	// KindColumns is ordered tabular fields, addressed by position.
	KindColumns
	// KindSignal is a single numeric value.
	KindSignal
	// KindAttributes is a free-form named-attribute map, e.g. a gene or an
	// annotation record.
	KindAttributes
	// KindStats is an aggregate over other regions.
	KindStats
)

var kindNames = [...]string{"plain", "columns", "signal", "attributes", "stats"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Payload is implemented by the payload variants of this package only.
type Payload interface {
	Kind() Kind
	clone() Payload
}

// KindOf returns the payload kind of r.
func KindOf(r Region) Kind {
	if r.Payload == nil {
		return KindPlain
	}
	return r.Payload.Kind()
}

// Field is one tabular value.  Exactly one of Str and Num is meaningful,
// selected by IsNum.
type Field struct {
	Str   string
	Num   float64
	IsNum bool
}

// StringField returns a string-valued Field.
func StringField(s string) Field { return Field{Str: s} }

// NumField returns a numeric Field.
func NumField(v float64) Field { return Field{Num: v, IsNum: true} }

func (f Field) String() string {
	if f.IsNum {
		return strconv.FormatFloat(f.Num, 'g', -1, 64)
	}
	return f.Str
}

// Columns is a multi-column tabular payload.  Position 0 is the first column
// after the coordinate columns.
type Columns []Field

// Kind implements Payload.
func (Columns) Kind() Kind { return KindColumns }

func (c Columns) clone() Payload {
	n := make(Columns, len(c))
	copy(n, c)
	return n
}

// Signal is a single numeric value attached to a region.
type Signal struct {
	Value float64
}

// Kind implements Payload.
func (*Signal) Kind() Kind { return KindSignal }

func (s *Signal) clone() Payload {
	n := *s
	return &n
}

// Attributes is a named-attribute map, as found in GTF/GFF annotation.
type Attributes map[string]string

// Kind implements Payload.
func (Attributes) Kind() Kind { return KindAttributes }

func (a Attributes) clone() Payload {
	n := make(Attributes, len(a))
	for k, v := range a {
		n[k] = v
	}
	return n
}

// Stats is the aggregate of a set of values over a region.
type Stats struct {
	Min, Max float64
	Mean     float64
	Var, SD  float64
	Median   float64
	Count    uint64
}

// Kind implements Payload.
func (*Stats) Kind() Kind { return KindStats }

func (s *Stats) clone() Payload {
	n := *s
	return &n
}

// ColumnType is the declared type of a dataset column.
type ColumnType uint8

const (
	String ColumnType = iota
	Integer
	Double
	Category
	Range
	Calculated
)

var columnTypeNames = [...]string{"string", "integer", "double", "category", "range", "calculated"}

func (t ColumnType) String() string {
	if int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return "ColumnType(" + strconv.Itoa(int(t)) + ")"
}

// Column describes one column of a dataset.  Pos is the index into a
// Columns payload.
type Column struct {
	Name string
	Pos  int
	Type ColumnType
}
