package cache

import (
	"fmt"
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/log"
	"github.com/grailbio/regions/region"
)

// QueryKey identifies a cached query result.
type QueryKey struct {
	User  string
	Query string
}

// NewQueryKey returns the key of a query identified by its text.
func NewQueryKey(user, text string) QueryKey {
	return QueryKey{User: user, Query: fmt.Sprintf("q%016x", seahash.Sum64([]byte(text)))}
}

func (k QueryKey) String() string { return k.User + "/" + k.Query }

// outcome is a stored load result.  Failures are stored too, so a failing
// query is not recomputed until Invalidate.
type outcome struct {
	list region.List
	err  error
}

// QueryCache memoizes query results with at most one concurrent computation
// per key.  Callers that miss while the key is being computed wait for that
// computation and then observe its outcome.  Returned lists are shared and
// must not be modified.
type QueryCache struct {
	memo *Memo[QueryKey, outcome]

	mu      sync.Mutex
	cond    *sync.Cond
	waiting map[QueryKey]struct{}
}

// NewQueryCache returns a QueryCache of at most capacity results, computed by
// load.
func NewQueryCache(capacity int, load func(QueryKey) (region.List, error)) *QueryCache {
	c := &QueryCache{
		memo: NewMemo(capacity, func(k QueryKey) (outcome, error) {
			list, err := load(k)
			return outcome{list, err}, nil
		}),
		waiting: make(map[QueryKey]struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Get returns the result of query k, computing it if it is not cached.
func (c *QueryCache) Get(k QueryKey) (region.List, error) {
	c.mu.Lock()
	for {
		if _, busy := c.waiting[k]; !busy {
			break
		}
		c.cond.Wait()
	}
	if o, ok := c.memo.Lookup(k); ok {
		c.mu.Unlock()
		return o.list, o.err
	}
	c.waiting[k] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiting, k)
		c.cond.Broadcast()
		c.mu.Unlock()
	}()

	log.Debug.Printf("cache: computing query %v", k)
	o, _ := c.memo.Get(k)
	return o.list, o.err
}

// Len returns the number of cached results.
func (c *QueryCache) Len() int { return c.memo.Len() }

// Invalidate drops every cached result.  Computations in flight still store
// their outcome when they finish.
func (c *QueryCache) Invalidate() {
	log.Debug.Printf("cache: invalidating %d query results", c.memo.Len())
	c.memo.Clear()
}
