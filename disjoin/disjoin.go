// Package disjoin partitions overlapping regions into disjoint segments that
// cover exactly the same bases.
package disjoin

import (
	"github.com/biogo/store/llrb"
	"github.com/grailbio/regions/parallel"
	"github.com/grailbio/regions/region"
)

// active is an input region whose span contains the sweep position.  Items
// order by end, then by input index so that equal ends stay distinct in the
// tree.
type active struct {
	end region.PosType
	idx int
}

// Compare implements llrb.Comparable.
func (a active) Compare(c llrb.Comparable) int {
	b := c.(active)
	switch {
	case a.end < b.end:
		return -1
	case a.end > b.end:
		return 1
	}
	return a.idx - b.idx
}

// Regions partitions one chromosome's sorted regions.  The output is sorted,
// its segments do not overlap, and their union equals the union of the
// input.  A segment covered by a single input region is a clone of that
// region trimmed to the segment.  A segment covered by two or more input
// regions is synthetic: it carries region.NoDataset and no payload.  Invalid
// (empty or inverted) input regions are ignored.
func Regions(rs region.Regions) region.Regions {
	rs = validOnly(rs)
	var (
		out  region.Regions
		open llrb.Tree
		cur  region.PosType
		i    int
	)
	for i < len(rs) || open.Len() > 0 {
		if open.Len() == 0 {
			cur = rs[i].Start
		}
		for i < len(rs) && rs[i].Start <= cur {
			open.Insert(active{end: rs[i].End, idx: i})
			i++
		}
		first := open.Min().(active)
		next := first.end
		if i < len(rs) && rs[i].Start < next {
			next = rs[i].Start
		}
		if open.Len() == 1 {
			out = append(out, rs[first.idx].WithBounds(cur, next))
		} else {
			out = append(out, region.New(cur, next, region.NoDataset))
		}
		cur = next
		for open.Len() > 0 && open.Min().(active).end <= cur {
			open.DeleteMin()
		}
	}
	return out
}

// validOnly returns rs without its empty or inverted regions.  It returns
// rs itself when there are none.
func validOnly(rs region.Regions) region.Regions {
	for i, r := range rs {
		if r.Valid() {
			continue
		}
		out := append(region.Regions(nil), rs[:i]...)
		for _, r := range rs[i+1:] {
			if r.Valid() {
				out = append(out, r)
			}
		}
		return out
	}
	return rs
}

// List disjoins every chromosome of list, one chromosome per unit of work on
// exec.
func List(exec *parallel.Executor, list region.List) (region.List, error) {
	idx := list.Index()
	return exec.Collect(list.Names(), func(name string) (region.Regions, error) {
		return Regions(idx[name]), nil
	})
}
