package overlap

import (
	"math/rand"
	"testing"

	"github.com/biogo/store/interval"
	ginterval "github.com/grailbio/regions/interval"
	"github.com/grailbio/regions/parallel"
	"github.com/grailbio/regions/region"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func regions(dataset region.DatasetID, bounds ...region.PosType) region.Regions {
	rs := make(region.Regions, 0, len(bounds)/2)
	for i := 0; i+1 < len(bounds); i += 2 {
		rs = append(rs, region.New(bounds[i], bounds[i+1], dataset))
	}
	return rs
}

func TestScenarios(t *testing.T) {
	e := New(parallel.New(2))
	tests := []struct {
		name         string
		data, filter region.List
		opts         Opts
		want         uint64
	}{
		{
			"intersect",
			region.List{{Name: "chr1", Regions: regions(1, 100, 200, 300, 400)}},
			region.List{{Name: "chr1", Regions: regions(2, 150, 250)}},
			Opts{RequireOverlap: true, Amount: 0, AmountType: ginterval.BP},
			1,
		},
		{
			"distance clears threshold",
			region.List{{Name: "chr1", Regions: regions(1, 100, 200)}},
			region.List{{Name: "chr1", Regions: regions(2, 210, 260)}},
			Opts{RequireOverlap: false, Amount: 10, AmountType: ginterval.BP},
			1,
		},
		{
			"distance below threshold",
			region.List{{Name: "chr1", Regions: regions(1, 100, 200)}},
			region.List{{Name: "chr1", Regions: regions(2, 210, 260)}},
			Opts{RequireOverlap: false, Amount: 11, AmountType: ginterval.BP},
			0,
		},
		{
			"trailing data against last filter",
			region.List{{Name: "chr1", Regions: regions(1, 500, 600)}},
			region.List{{Name: "chr1", Regions: regions(2, 100, 200)}},
			Opts{RequireOverlap: false, Amount: 50, AmountType: ginterval.BP},
			1,
		},
		{
			"distance percent, data before filter",
			// The filter threshold is 10; the data threshold is 100.
			region.List{{Name: "chr1", Regions: regions(1, 0, 100)}},
			region.List{{Name: "chr1", Regions: regions(2, 300, 310)}},
			Opts{RequireOverlap: false, Amount: 100, AmountType: ginterval.Percent},
			1,
		},
		{
			"distance percent, data threshold not met",
			// The filter threshold is 25; the data threshold 250 exceeds the
			// distance of 200.
			region.List{{Name: "chr1", Regions: regions(1, 0, 100)}},
			region.List{{Name: "chr1", Regions: regions(2, 300, 310)}},
			Opts{RequireOverlap: false, Amount: 250, AmountType: ginterval.Percent},
			0,
		},
		{
			"distance percent, trailing data uses last filter threshold",
			// The last filter threshold is 50 and the distance is 100.  The
			// data region's own threshold (500) does not apply.
			region.List{{Name: "chr1", Regions: regions(1, 200, 1200)}},
			region.List{{Name: "chr1", Regions: regions(2, 0, 100)}},
			Opts{RequireOverlap: false, Amount: 50, AmountType: ginterval.Percent},
			1,
		},
		{
			"distance percent, trailing data too close",
			region.List{{Name: "chr1", Regions: regions(1, 140, 1140)}},
			region.List{{Name: "chr1", Regions: regions(2, 0, 100)}},
			Opts{RequireOverlap: false, Amount: 50, AmountType: ginterval.Percent},
			0,
		},
		{
			"distance percent, touching filter end",
			region.List{{Name: "chr1", Regions: regions(1, 160, 170)}},
			region.List{{Name: "chr1", Regions: regions(2, 150, 160)}},
			Opts{RequireOverlap: false, Amount: 0, AmountType: ginterval.Percent},
			0,
		},
		{
			"overlap percent of own length",
			// The two overlap measurements are 150 and 50; both regions are
			// 100bp long, so both thresholds are 60.
			region.List{{Name: "chr1", Regions: regions(1, 100, 200)}},
			region.List{{Name: "chr1", Regions: regions(2, 150, 250)}},
			Opts{RequireOverlap: true, Amount: 60, AmountType: ginterval.Percent},
			1,
		},
		{
			"overlap percent too large",
			region.List{{Name: "chr1", Regions: regions(1, 100, 200)}},
			region.List{{Name: "chr1", Regions: regions(2, 150, 250)}},
			Opts{RequireOverlap: true, Amount: 151, AmountType: ginterval.Percent},
			0,
		},
		{
			"filter missing, overlap required",
			region.List{{Name: "chr1", Regions: regions(1, 1, 2, 3, 4)}},
			region.List{{Name: "chr2", Regions: regions(2, 1, 2)}},
			IntersectOpts,
			0,
		},
		{
			"filter missing, overlap not required",
			region.List{{Name: "chr1", Regions: regions(1, 1, 2, 3, 4)}},
			region.List{{Name: "chr2", Regions: regions(2, 1, 2)}},
			Opts{RequireOverlap: false},
			2,
		},
		{
			"data missing",
			region.List{},
			region.List{{Name: "chr1", Regions: regions(2, 1, 2)}},
			Opts{RequireOverlap: false},
			0,
		},
		{
			"touching region overlaps the next filter",
			region.List{{Name: "chr1", Regions: regions(1, 150, 200)}},
			region.List{{Name: "chr1", Regions: regions(2, 100, 150, 160, 170)}},
			IntersectOpts,
			1,
		},
	}
	for _, tt := range tests {
		got, err := e.Count(tt.data, tt.filter, tt.opts)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, tt.name)

		filtered, err := e.Filter(tt.data, tt.filter, tt.opts)
		assert.NoError(t, err)
		expect.EQ(t, uint64(filtered.Len()), tt.want, tt.name)
	}
}

func TestIntersectKeepsOrderAndPayload(t *testing.T) {
	e := New(parallel.New(0))
	data := region.List{
		{Name: "chr1", Regions: region.Regions{
			{Start: 10, End: 20, Dataset: 1, Payload: &region.Signal{Value: 1}},
			{Start: 15, End: 40, Dataset: 1, Payload: &region.Signal{Value: 2}},
			{Start: 50, End: 60, Dataset: 1, Payload: &region.Signal{Value: 3}},
		}},
		{Name: "chr2", Regions: regions(1, 5, 6)},
	}
	filter := region.List{{Name: "chr1", Regions: regions(2, 18, 30)}}
	got, err := e.Intersect(data, filter)
	assert.NoError(t, err)
	expect.EQ(t, got.Names(), []string{"chr1"})
	chr1 := got.Get("chr1")
	expect.EQ(t, len(chr1), 2)
	expect.EQ(t, chr1[0].Payload.(*region.Signal).Value, 1.0)
	expect.EQ(t, chr1[1].Payload.(*region.Signal).Value, 2.0)
}

type treeInterval struct {
	start, end int
	id         uintptr
}

func (i treeInterval) Overlap(b interval.IntRange) bool { return i.end > b.Start && i.start < b.End }
func (i treeInterval) ID() uintptr                      { return i.id }
func (i treeInterval) Range() interval.IntRange         { return interval.IntRange{Start: i.start, End: i.end} }

func randomRegions(r *rand.Rand, n int, span, maxLen int) region.Regions {
	rs := make(region.Regions, n)
	for i := range rs {
		start := r.Intn(span)
		rs[i] = region.New(region.PosType(start), region.PosType(start+1+r.Intn(maxLen)), 1)
	}
	rs.Sort()
	return rs
}

// TestIntersectMatchesIntervalTree checks the sweep against an interval-tree
// lookup of every data region.
func TestIntersectMatchesIntervalTree(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		data := randomRegions(rnd, 1+rnd.Intn(50), 1000, 60)
		filter := randomRegions(rnd, 1+rnd.Intn(50), 1000, 60)

		tree := &interval.IntTree{}
		for i, f := range filter {
			assert.NoError(t, tree.Insert(treeInterval{int(f.Start), int(f.End), uintptr(i)}, true))
		}
		tree.AdjustRanges()
		var want region.Regions
		for _, d := range data {
			if len(tree.Get(treeInterval{start: int(d.Start), end: int(d.End)})) > 0 {
				want = append(want, d)
			}
		}
		got := FilterRegions(data, filter, IntersectOpts)
		expect.EQ(t, got, want, "iteration %d", iter)
		expect.EQ(t, CountRegions(data, filter, IntersectOpts), uint64(len(want)))
	}
}

func TestIntersectCountEquivalence(t *testing.T) {
	e := New(parallel.New(3))
	rnd := rand.New(rand.NewSource(2))
	for iter := 0; iter < 20; iter++ {
		var data, filter region.List
		for _, name := range []string{"chr1", "chr2", "chr3"} {
			data = append(data, region.Chromosome{Name: name, Regions: randomRegions(rnd, rnd.Intn(30), 2000, 100)})
			if rnd.Intn(3) > 0 {
				filter = append(filter, region.Chromosome{Name: name, Regions: randomRegions(rnd, rnd.Intn(30), 2000, 100)})
			}
		}
		a, err := e.IntersectCount(data, filter)
		assert.NoError(t, err)
		b, err := e.Count(data, filter, Opts{RequireOverlap: true, Amount: 0, AmountType: ginterval.BP})
		assert.NoError(t, err)
		expect.EQ(t, a, b)
		list, err := e.Intersect(data, filter)
		assert.NoError(t, err)
		expect.EQ(t, uint64(list.Len()), a)
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for iter := 0; iter < 50; iter++ {
		data := randomRegions(rnd, 40, 5000, 200)
		filter := randomRegions(rnd, 40, 5000, 200)
		for _, require := range []bool{true, false} {
			prev := CountRegions(data, filter, Opts{RequireOverlap: require, Amount: 0})
			for amount := int64(1); amount < 300; amount += 7 {
				n := CountRegions(data, filter, Opts{RequireOverlap: require, Amount: amount})
				expect.LE(t, n, prev, "require=%v amount=%d", require, amount)
				prev = n
			}
		}
	}
}
