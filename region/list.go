package region

import (
	"sort"

	"github.com/grailbio/base/errors"
)

// Regions is one chromosome's regions, sorted by (Start, End).
type Regions []Region

// IsSorted reports whether rs satisfies the (Start, End) ordering.
func (rs Regions) IsSorted() bool {
	for i := 1; i < len(rs); i++ {
		if rs[i].Less(rs[i-1]) {
			return false
		}
	}
	return true
}

// Sort sorts rs in place by (Start, End).  It is meant for producers; the
// algorithms in this module never sort.
func (rs Regions) Sort() {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Less(rs[j]) })
}

// Chromosome pairs a chromosome name with its regions.
type Chromosome struct {
	Name    string
	Regions Regions
}

// List is a collection of per-chromosome region sequences, with at most one
// entry per chromosome name.  A missing chromosome means "no regions on that
// chromosome".  Order across chromosomes carries no meaning.
type List []Chromosome

// Get returns the regions of the named chromosome, or nil.
func (l List) Get(name string) Regions {
	for i := range l {
		if l[i].Name == name {
			return l[i].Regions
		}
	}
	return nil
}

// Index returns a name-keyed view of l.
func (l List) Index() map[string]Regions {
	m := make(map[string]Regions, len(l))
	for _, c := range l {
		m[c.Name] = c.Regions
	}
	return m
}

// Names returns the chromosome names of l in list order.
func (l List) Names() []string {
	names := make([]string, len(l))
	for i, c := range l {
		names[i] = c.Name
	}
	return names
}

// Len returns the total number of regions in l.
func (l List) Len() int {
	n := 0
	for _, c := range l {
		n += len(c.Regions)
	}
	return n
}

// Sorted returns a copy of l with chromosomes ordered by name.  Region
// sequences are shared, not copied.
func (l List) Sorted() List {
	c := make(List, len(l))
	copy(c, l)
	sort.Slice(c, func(i, j int) bool { return c[i].Name < c[j].Name })
	return c
}

// Validate checks the invariants the algorithms rely on: unique chromosome
// names, End > Start for every region, and (Start, End) ordering.  Violations
// are reported as errors.Precondition.
func (l List) Validate() error {
	seen := make(map[string]bool, len(l))
	for _, c := range l {
		if seen[c.Name] {
			return errors.E(errors.Precondition, "duplicate chromosome", c.Name)
		}
		seen[c.Name] = true
		for i, r := range c.Regions {
			if !r.Valid() {
				return errors.E(errors.Precondition, "invalid region", c.Name, r.String())
			}
			if i > 0 && r.Less(c.Regions[i-1]) {
				return errors.E(errors.Precondition, "unsorted regions on", c.Name, r.String())
			}
		}
	}
	return nil
}

// ChromosomeUnion returns the sorted union of the chromosome names appearing
// in lists, without duplicates.
func ChromosomeUnion(lists ...List) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, l := range lists {
		for _, c := range l {
			if _, ok := seen[c.Name]; ok {
				continue
			}
			seen[c.Name] = struct{}{}
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// MergeRegions merges two sorted sequences into one sorted sequence.  On
// ties, regions of a come first.
func MergeRegions(a, b Regions) Regions {
	out := make(Regions, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Less(a[i]) {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// MergeLists merges a and b chromosome by chromosome, keeping each
// chromosome's regions sorted.
func MergeLists(a, b List) List {
	ai, bi := a.Index(), b.Index()
	names := ChromosomeUnion(a, b)
	out := make(List, 0, len(names))
	for _, name := range names {
		out = append(out, Chromosome{Name: name, Regions: MergeRegions(ai[name], bi[name])})
	}
	return out
}
