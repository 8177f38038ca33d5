package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/regions/region"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestMemo(t *testing.T) {
	var calls int
	m := NewMemo(2, func(k int) (string, error) {
		calls++
		if k < 0 {
			return "", fmt.Errorf("negative key %d", k)
		}
		return fmt.Sprint(k * 10), nil
	})
	v, err := m.Get(1)
	assert.NoError(t, err)
	expect.EQ(t, v, "10")
	v, err = m.Get(1)
	assert.NoError(t, err)
	expect.EQ(t, v, "10")
	expect.EQ(t, calls, 1)

	// Errors are not stored.
	_, err = m.Get(-1)
	expect.True(t, err != nil)
	_, err = m.Get(-1)
	expect.True(t, err != nil)
	expect.EQ(t, calls, 3)
	expect.EQ(t, m.Len(), 1)

	// 1 is the least recently used entry when 3 is added.
	_, _ = m.Get(2)
	_, _ = m.Get(3)
	expect.EQ(t, m.Len(), 2)
	_, ok := m.Lookup(1)
	expect.False(t, ok)
	_, ok = m.Lookup(3)
	expect.True(t, ok)

	m.Clear()
	expect.EQ(t, m.Len(), 0)
	calls = 0
	_, _ = m.Get(3)
	expect.EQ(t, calls, 1)
}

func TestMemoMinimumCapacity(t *testing.T) {
	m := NewMemo(0, func(k int) (int, error) { return k, nil })
	_, _ = m.Get(1)
	_, _ = m.Get(2)
	expect.EQ(t, m.Len(), 1)
}

// countingCatalog counts calls to Columns.
type countingCatalog struct {
	*StaticCatalog
	columnCalls int
}

func (c *countingCatalog) Columns(id region.DatasetID) ([]region.Column, error) {
	c.columnCalls++
	return c.StaticCatalog.Columns(id)
}

func TestColumns(t *testing.T) {
	cat := &countingCatalog{StaticCatalog: NewStaticCatalog()}
	cat.Add(Metadata{ID: 1, Name: "genes", Format: "CHROMOSOME,START,END,NAME,SCORE,STRAND"},
		[]region.Column{
			{Name: "NAME", Pos: 0, Type: region.String},
			{Name: "SCORE", Pos: 1, Type: region.Double},
			{Name: "STRAND", Pos: 2, Type: region.String},
		})
	c := NewColumns(cat, 16)

	md, err := c.Metadata(1)
	assert.NoError(t, err)
	expect.EQ(t, md.Name, "genes")

	col, err := c.Resolve(1, "STRAND")
	assert.NoError(t, err)
	expect.EQ(t, col, region.Column{Name: "STRAND", Pos: 2, Type: region.String})
	typ, err := c.Type(1, "SCORE")
	assert.NoError(t, err)
	expect.EQ(t, typ, region.Double)
	pos, err := c.Position(1, "SCORE")
	assert.NoError(t, err)
	expect.EQ(t, pos, 1)
	cols, err := c.List(1)
	assert.NoError(t, err)
	expect.EQ(t, len(cols), 3)
	expect.EQ(t, cat.columnCalls, 1)

	_, err = c.Resolve(1, "PHASE")
	expect.True(t, errors.Is(errors.NotExist, err), "%v", err)
	_, err = c.Resolve(2, "STRAND")
	expect.True(t, errors.Is(errors.NotExist, err), "%v", err)
	_, err = c.Metadata(2)
	expect.True(t, errors.Is(errors.NotExist, err), "%v", err)

	c.Clear()
	_, err = c.Resolve(1, "STRAND")
	assert.NoError(t, err)
	expect.EQ(t, cat.columnCalls, 2)
	expect.EQ(t, cat.IDs(), []region.DatasetID{1})
}

func TestQueryKey(t *testing.T) {
	a := NewQueryKey("alice", "SELECT genes")
	expect.EQ(t, a, NewQueryKey("alice", "SELECT genes"))
	expect.True(t, a != NewQueryKey("bob", "SELECT genes"))
	expect.True(t, a != NewQueryKey("alice", "SELECT exons"))
	expect.EQ(t, a.String(), "alice/"+a.Query)
}

func TestQueryCacheSingleFlight(t *testing.T) {
	var (
		loads   int32
		release = make(chan struct{})
	)
	result := region.List{{Name: "chr1", Regions: region.Regions{region.New(1, 2, 1)}}}
	c := NewQueryCache(8, func(k QueryKey) (region.List, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return result, nil
	})
	key := NewQueryKey("u", "q")

	const n = 16
	var wg sync.WaitGroup
	results := make([]region.List, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list, err := c.Get(key)
			expect.NoError(t, err)
			results[i] = list
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	expect.EQ(t, atomic.LoadInt32(&loads), int32(1))
	for _, list := range results {
		expect.EQ(t, list, result)
	}
	expect.EQ(t, c.Len(), 1)
}

func TestQueryCacheDistinctKeys(t *testing.T) {
	var loads int32
	c := NewQueryCache(8, func(k QueryKey) (region.List, error) {
		atomic.AddInt32(&loads, 1)
		return region.List{{Name: k.User}}, nil
	})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprint("user", i)
			list, err := c.Get(NewQueryKey(user, "q"))
			expect.NoError(t, err)
			expect.EQ(t, list.Names(), []string{user})
		}(i)
	}
	wg.Wait()
	expect.EQ(t, atomic.LoadInt32(&loads), int32(4))
}

func TestQueryCacheErrorsAndInvalidate(t *testing.T) {
	var loads int
	c := NewQueryCache(8, func(k QueryKey) (region.List, error) {
		loads++
		return nil, errors.E(errors.Invalid, "bad query")
	})
	key := NewQueryKey("u", "broken")
	_, err := c.Get(key)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = c.Get(key)
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.EQ(t, loads, 1)

	c.Invalidate()
	expect.EQ(t, c.Len(), 0)
	_, err = c.Get(key)
	expect.True(t, err != nil)
	expect.EQ(t, loads, 2)
}

func TestQueryCacheLoaderPanic(t *testing.T) {
	var loads int32
	c := NewQueryCache(8, func(k QueryKey) (region.List, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			panic("loader failed")
		}
		return region.List{{Name: "chr1"}}, nil
	})
	key := NewQueryKey("u", "q")
	func() {
		defer func() { expect.True(t, recover() != nil) }()
		_, _ = c.Get(key)
	}()

	// The key left the waiting set, so the next caller computes it again.
	done := make(chan region.List)
	go func() {
		list, err := c.Get(key)
		expect.NoError(t, err)
		done <- list
	}()
	select {
	case list := <-done:
		expect.EQ(t, list.Names(), []string{"chr1"})
	case <-time.After(10 * time.Second):
		t.Fatal("Get blocked after a loader panic")
	}
	expect.EQ(t, atomic.LoadInt32(&loads), int32(2))
}
