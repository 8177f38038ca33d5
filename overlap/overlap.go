// Package overlap implements intersection, overlap filtering and overlap
// counting between two region lists with a single forward merge per
// chromosome.
package overlap

import (
	"github.com/grailbio/regions/interval"
	"github.com/grailbio/regions/parallel"
	"github.com/grailbio/regions/region"
)

// Opts configures an overlap query.
type Opts struct {
	// RequireOverlap selects data regions that overlap a filter region by at
	// least the threshold.  When false, it selects data regions that lie at
	// least the threshold away from the filter region they are paired with.
	RequireOverlap bool
	// Amount is the threshold, interpreted per AmountType.
	Amount int64
	// AmountType is either interval.BP or interval.Percent.  Percent
	// thresholds are computed from each region's own length.
	AmountType interval.AmountType
}

// IntersectOpts selects data regions that overlap a filter region by at least
// one base.
var IntersectOpts = Opts{RequireOverlap: true, Amount: 0, AmountType: interval.BP}

// DefaultOpts is IntersectOpts.
var DefaultOpts = IntersectOpts

// sweep merges data against filter, both sorted by (Start, End), and calls
// emit(i) for every data[i] that satisfies opts.  Each data region is paired
// with at most one filter region, so emit is called at most once per index,
// in increasing order.
func sweep(data, filter region.Regions, opts Opts, emit func(i int)) {
	pos := 0
	for _, f := range filter {
		minFilterLen := interval.ThresholdLength(f, opts.Amount, opts.AmountType)

		// Data regions entirely before f.
		for pos < len(data) && data[pos].End <= f.Start {
			if !opts.RequireOverlap {
				d := data[pos]
				dist := interval.Distance(d, f)
				if dist >= minFilterLen && dist >= interval.ThresholdLength(d, opts.Amount, opts.AmountType) {
					emit(pos)
				}
			}
			pos++
		}

		// Candidate window.
		for pos < len(data) && f.End >= data[pos].Start {
			d := data[pos]
			minDataLen := interval.ThresholdLength(d, opts.Amount, opts.AmountType)
			if interval.Overlaps(f, d) {
				if opts.RequireOverlap {
					one := interval.OverlapAmount(f, d)
					two := interval.OverlapAmount(d, f)
					if (one >= minFilterLen || two >= minFilterLen) && (one >= minDataLen || two >= minDataLen) {
						emit(pos)
					}
				}
			} else if opts.RequireOverlap {
				if d.Start >= f.End {
					// d touches f's end.  It, and everything after it, can still
					// overlap a later filter region, so d stays unconsumed
					// instead of advancing pos as the plain merge would.
					break
				}
			} else {
				fd, df := interval.Distance(f, d), interval.Distance(d, f)
				if fd >= minFilterLen && fd >= minDataLen && df >= minFilterLen && df >= minDataLen {
					emit(pos)
				}
			}
			pos++
		}
	}
	if opts.RequireOverlap || len(filter) == 0 {
		return
	}
	// Data regions after the last filter region are measured against its
	// threshold only.
	last := filter[len(filter)-1]
	minFilterLen := interval.ThresholdLength(last, opts.Amount, opts.AmountType)
	for ; pos < len(data); pos++ {
		if interval.Distance(last, data[pos]) >= minFilterLen {
			emit(pos)
		}
	}
}

// CountRegions counts the data regions of one chromosome selected by opts.
// Both sequences must be sorted.
func CountRegions(data, filter region.Regions, opts Opts) uint64 {
	if len(data) == 0 {
		return 0
	}
	if len(filter) == 0 {
		if opts.RequireOverlap {
			return 0
		}
		return uint64(len(data))
	}
	var n uint64
	sweep(data, filter, opts, func(int) { n++ })
	return n
}

// FilterRegions returns the data regions of one chromosome selected by opts,
// in input order.  Both sequences must be sorted.  The result shares payloads
// with data.
func FilterRegions(data, filter region.Regions, opts Opts) region.Regions {
	if len(data) == 0 {
		return nil
	}
	if len(filter) == 0 {
		if opts.RequireOverlap {
			return nil
		}
		return data
	}
	var out region.Regions
	sweep(data, filter, opts, func(i int) { out = append(out, data[i]) })
	return out
}

// Engine runs overlap queries over whole region lists, one chromosome per
// unit of work.
type Engine struct {
	exec *parallel.Executor
}

// New returns an Engine that dispatches work on exec.
func New(exec *parallel.Executor) *Engine {
	return &Engine{exec: exec}
}

// plan splits the chromosome union of data and filter into the chromosomes
// that need a sweep and the chromosomes whose data side is selected whole.
// Chromosomes that contribute nothing are dropped.
func plan(data, filter region.List, opts Opts) (work, whole []string) {
	dataIdx, filterIdx := data.Index(), filter.Index()
	for _, name := range region.ChromosomeUnion(data, filter) {
		switch {
		case len(dataIdx[name]) == 0:
		case len(filterIdx[name]) > 0:
			work = append(work, name)
		case !opts.RequireOverlap:
			whole = append(whole, name)
		}
	}
	return
}

// Count returns the number of data regions selected by opts, summed over
// all chromosomes.
func (e *Engine) Count(data, filter region.List, opts Opts) (uint64, error) {
	work, whole := plan(data, filter, opts)
	dataIdx, filterIdx := data.Index(), filter.Index()
	var n uint64
	for _, name := range whole {
		n += uint64(len(dataIdx[name]))
	}
	sum, err := e.exec.Sum(work, func(name string) (uint64, error) {
		return CountRegions(dataIdx[name], filterIdx[name], opts), nil
	})
	if err != nil {
		return 0, err
	}
	return n + sum, nil
}

// IntersectCount is Count with IntersectOpts.
func (e *Engine) IntersectCount(data, filter region.List) (uint64, error) {
	return e.Count(data, filter, IntersectOpts)
}

// Filter returns the data regions selected by opts.  Chromosome order in the
// result is unspecified; region order within a chromosome follows data.
func (e *Engine) Filter(data, filter region.List, opts Opts) (region.List, error) {
	work, whole := plan(data, filter, opts)
	dataIdx, filterIdx := data.Index(), filter.Index()
	list, err := e.exec.Collect(work, func(name string) (region.Regions, error) {
		return FilterRegions(dataIdx[name], filterIdx[name], opts), nil
	})
	if err != nil {
		return nil, err
	}
	for _, name := range whole {
		list = append(list, region.Chromosome{Name: name, Regions: dataIdx[name]})
	}
	return list, nil
}

// Intersect returns the data regions that overlap at least one filter
// region.
func (e *Engine) Intersect(data, filter region.List) (region.List, error) {
	return e.Filter(data, filter, IntersectOpts)
}
