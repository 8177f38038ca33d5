package cache

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/regions/region"
)

// Metadata describes a dataset.
type Metadata struct {
	ID     region.DatasetID
	Name   string
	Genome string
	Format string
}

// Catalog is the source of dataset metadata and column definitions, usually
// backed by the metadata store.
type Catalog interface {
	Dataset(id region.DatasetID) (Metadata, error)
	Columns(id region.DatasetID) ([]region.Column, error)
}

type columnKey struct {
	dataset region.DatasetID
	name    string
}

// Columns memoizes Catalog lookups: dataset metadata, per-dataset column
// lists, and per-(dataset, column) positions and types.  It implements
// transform.ColumnResolver.
type Columns struct {
	metadata  *Memo[region.DatasetID, Metadata]
	columns   *Memo[region.DatasetID, []region.Column]
	positions *Memo[columnKey, int]
	types     *Memo[columnKey, region.ColumnType]
}

// NewColumns returns a Columns with capacity entries per cache.
func NewColumns(catalog Catalog, capacity int) *Columns {
	c := &Columns{
		metadata: NewMemo(capacity, catalog.Dataset),
		columns:  NewMemo(capacity, catalog.Columns),
	}
	c.positions = NewMemo(capacity, func(k columnKey) (int, error) {
		col, err := c.find(k)
		return col.Pos, err
	})
	c.types = NewMemo(capacity, func(k columnKey) (region.ColumnType, error) {
		col, err := c.find(k)
		return col.Type, err
	})
	return c
}

func (c *Columns) find(k columnKey) (region.Column, error) {
	cols, err := c.columns.Get(k.dataset)
	if err != nil {
		return region.Column{}, err
	}
	for _, col := range cols {
		if col.Name == k.name {
			return col, nil
		}
	}
	return region.Column{}, errors.E(errors.NotExist,
		fmt.Sprintf("column %q not found in dataset %d", k.name, k.dataset))
}

// Metadata returns the metadata of dataset id.
func (c *Columns) Metadata(id region.DatasetID) (Metadata, error) {
	return c.metadata.Get(id)
}

// List returns the columns of dataset id.  The result must not be modified.
func (c *Columns) List(id region.DatasetID) ([]region.Column, error) {
	return c.columns.Get(id)
}

// Position returns the position of the named column in dataset id.
func (c *Columns) Position(id region.DatasetID, name string) (int, error) {
	return c.positions.Get(columnKey{id, name})
}

// Type returns the type of the named column in dataset id.
func (c *Columns) Type(id region.DatasetID, name string) (region.ColumnType, error) {
	return c.types.Get(columnKey{id, name})
}

// Resolve implements transform.ColumnResolver.
func (c *Columns) Resolve(id region.DatasetID, name string) (region.Column, error) {
	pos, err := c.Position(id, name)
	if err != nil {
		return region.Column{}, err
	}
	typ, err := c.Type(id, name)
	if err != nil {
		return region.Column{}, err
	}
	return region.Column{Name: name, Pos: pos, Type: typ}, nil
}

// Clear empties every cache.  Call it when datasets or their columns change.
func (c *Columns) Clear() {
	log.Debug.Printf("cache: clearing column caches")
	c.metadata.Clear()
	c.columns.Clear()
	c.positions.Clear()
	c.types.Clear()
}

// StaticCatalog is an in-memory Catalog.  It is safe for concurrent reads
// once populated.
type StaticCatalog struct {
	datasets map[region.DatasetID]Metadata
	columns  map[region.DatasetID][]region.Column
}

// NewStaticCatalog returns an empty StaticCatalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		datasets: make(map[region.DatasetID]Metadata),
		columns:  make(map[region.DatasetID][]region.Column),
	}
}

// Add registers a dataset and its columns.
func (s *StaticCatalog) Add(md Metadata, cols []region.Column) {
	s.datasets[md.ID] = md
	s.columns[md.ID] = cols
}

// IDs returns the registered dataset ids in increasing order.
func (s *StaticCatalog) IDs() []region.DatasetID {
	ids := make([]region.DatasetID, 0, len(s.datasets))
	for id := range s.datasets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dataset implements Catalog.
func (s *StaticCatalog) Dataset(id region.DatasetID) (Metadata, error) {
	md, ok := s.datasets[id]
	if !ok {
		return Metadata{}, errors.E(errors.NotExist, fmt.Sprintf("dataset %d", id))
	}
	return md, nil
}

// Columns implements Catalog.
func (s *StaticCatalog) Columns(id region.DatasetID) ([]region.Column, error) {
	cols, ok := s.columns[id]
	if !ok {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("dataset %d", id))
	}
	return cols, nil
}
