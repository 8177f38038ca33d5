// Package chromset describes the chromosomes of a genome: their names in
// genome order and their sizes.  A Set is read from a SAM/BAM header, a UCSC
// chrom.sizes file or a FASTA index (.fai).
package chromset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/regions/region"
)

// Entry is one chromosome.
type Entry struct {
	Name string
	Size region.PosType
}

// Set is an immutable, ordered set of chromosomes.
type Set struct {
	entries []Entry
	index   map[string]int
}

// maxSuggestDistance bounds the edit distance of a suggested name.
const maxSuggestDistance = 3

// New returns a Set of entries, kept in the given order.  Duplicate names are
// an error.
func New(entries []Entry) (*Set, error) {
	s := &Set{
		entries: append([]Entry(nil), entries...),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range s.entries {
		if _, ok := s.index[e.Name]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate chromosome %q", e.Name))
		}
		s.index[e.Name] = i
	}
	return s, nil
}

// FromSAMHeader returns the reference sequences of h.
func FromSAMHeader(h *sam.Header) (*Set, error) {
	refs := h.Refs()
	entries := make([]Entry, len(refs))
	for i, ref := range refs {
		entries[i] = Entry{Name: ref.Name(), Size: region.PosType(ref.Len())}
	}
	return New(entries)
}

// ParseSizes reads "name<TAB>size" lines.  Further columns, as in a FASTA
// index, are ignored, as are blank lines and lines starting with '#'.
func ParseSizes(r io.Reader) (*Set, error) {
	var (
		entries []Entry
		scanner = bufio.NewScanner(r)
		lineno  int
	)
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: expected name and size, got %q", lineno, line))
		}
		size, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("line %d", lineno))
		}
		entries = append(entries, Entry{Name: fields[0], Size: region.PosType(size)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(entries)
}

// ReadSizes reads a chrom.sizes or .fai file.
func ReadSizes(ctx context.Context, path string) (s *Set, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if s, err = ParseSizes(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, path)
	}
	log.Debug.Printf("chromset: read %d chromosomes from %s", s.Len(), path)
	return s, nil
}

// ReadBAMHeader returns the reference sequences of the BAM file at path.  Only
// the header is read.
func ReadBAMHeader(ctx context.Context, path string) (s *Set, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return nil, errors.E(err, path)
	}
	defer r.Close() // nolint: errcheck
	return FromSAMHeader(r.Header())
}

// Len returns the number of chromosomes.
func (s *Set) Len() int { return len(s.entries) }

// Names returns the chromosome names in genome order.
func (s *Set) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Contains reports whether name is in the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Size returns the size of the named chromosome.  An unknown name yields an
// errors.NotExist error that suggests the closest known name.
func (s *Set) Size(name string) (region.PosType, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, s.notFound(name)
	}
	return s.entries[i].Size, nil
}

func (s *Set) notFound(name string) error {
	msg := fmt.Sprintf("chromosome %q not found", name)
	if best := s.suggest(name); best != "" {
		msg += fmt.Sprintf("; did you mean %q?", best)
	}
	return errors.E(errors.NotExist, msg)
}

func (s *Set) suggest(name string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, e := range s.entries {
		if d := matchr.Levenshtein(name, e.Name); d < bestDist {
			best, bestDist = e.Name, d
		}
	}
	return best
}

// Tiles returns consecutive tiles of the given size covering each named
// chromosome, or every chromosome if names is empty.  The last tile of a
// chromosome is truncated at its end.  Tiles carry no dataset.
func (s *Set) Tiles(size region.PosType, names []string) (region.List, error) {
	if size == 0 {
		return nil, errors.E(errors.Invalid, "tile size must be positive")
	}
	if len(names) == 0 {
		names = s.Names()
	}
	var list region.List
	for _, name := range names {
		chromSize, err := s.Size(name)
		if err != nil {
			return nil, err
		}
		var rs region.Regions
		for start := uint64(0); start < uint64(chromSize); start += uint64(size) {
			end := start + uint64(size)
			if end > uint64(chromSize) {
				end = uint64(chromSize)
			}
			rs = append(rs, region.New(region.PosType(start), region.PosType(end), region.NoDataset))
		}
		if len(rs) > 0 {
			list = append(list, region.Chromosome{Name: name, Regions: rs})
		}
	}
	return list, nil
}
