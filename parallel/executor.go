// Package parallel runs one unit of work per chromosome on a bounded pool
// and joins them.
package parallel

import (
	"runtime"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/regions/region"
)

// Executor dispatches per-chromosome work onto at most Parallelism
// concurrent goroutines.  An Executor is stateless and may be shared.
type Executor struct {
	parallelism int
}

// New returns an Executor running at most parallelism units at once.
// parallelism <= 0 means runtime.NumCPU().
func New(parallelism int) *Executor {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Executor{parallelism: parallelism}
}

// Parallelism returns the concurrency limit of e.
func (e *Executor) Parallelism() int { return e.parallelism }

// Each calls fn(i, names[i]) for every name, and blocks until all calls
// finish.  It returns the first error.  A failing call does not cancel calls
// already running.  There is no ordering guarantee across names.
func (e *Executor) Each(names []string, fn func(i int, name string) error) error {
	switch len(names) {
	case 0:
		return nil
	case 1:
		return fn(0, names[0])
	}
	log.Debug.Printf("parallel: %d chromosome(s), parallelism %d", len(names), e.parallelism)
	return traverse.Limit(e.parallelism).Each(len(names), func(i int) error {
		return fn(i, names[i])
	})
}

// Sum runs count on every name and returns the sum of the results.  On error
// the partial sums are discarded.
func (e *Executor) Sum(names []string, count func(name string) (uint64, error)) (uint64, error) {
	parts := make([]uint64, len(names))
	err := e.Each(names, func(i int, name string) (err error) {
		parts[i], err = count(name)
		return
	})
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, n := range parts {
		total += n
	}
	return total, nil
}

// Collect runs fn on every name and assembles the results into a
// region.List, one entry per name with a nonempty result.  Entries follow the
// order of names.  On error the partial results are discarded.
func (e *Executor) Collect(names []string, fn func(name string) (region.Regions, error)) (region.List, error) {
	parts := make([]region.Regions, len(names))
	err := e.Each(names, func(i int, name string) (err error) {
		parts[i], err = fn(name)
		return
	})
	if err != nil {
		return nil, err
	}
	list := make(region.List, 0, len(names))
	for i, rs := range parts {
		if len(rs) > 0 {
			list = append(list, region.Chromosome{Name: names[i], Regions: rs})
		}
	}
	return list, nil
}
