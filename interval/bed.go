package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/regions/region"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// maxBEDTokens bounds the number of columns read from one BED line.
const maxBEDTokens = 16

// BEDColumns is the column schema of the optional BED6 columns that follow
// chrom/start/end.  Positions index the region.Columns payload built by
// ReadBED.
var BEDColumns = []region.Column{
	{Name: "NAME", Pos: 0, Type: region.String},
	{Name: "SCORE", Pos: 1, Type: region.Double},
	{Name: "STRAND", Pos: 2, Type: region.String},
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// BEDOpts defines behavior of this package's BED-loading function(s).
type BEDOpts struct {
	// Dataset is assigned to every region read.
	Dataset region.DatasetID
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
	// CoordinatesOnly drops all columns after the third.
	CoordinatesOnly bool
}

// DefaultBEDOpts reads zero-based BED with payload columns, assigning dataset
// 1.
var DefaultBEDOpts = BEDOpts{Dataset: 1}

func isHeaderLine(line []byte) bool {
	return bytes.HasPrefix(line, []byte("#")) ||
		bytes.HasPrefix(line, []byte("track")) ||
		bytes.HasPrefix(line, []byte("browser"))
}

func bedPayload(tokens [][]byte) region.Payload {
	cols := make(region.Columns, len(tokens))
	for i, tok := range tokens {
		if i < len(BEDColumns) && BEDColumns[i].Type == region.Double {
			if v, err := strconv.ParseFloat(gunsafe.BytesToString(tok), 64); err == nil {
				cols[i] = region.NumField(v)
				continue
			}
		}
		cols[i] = region.StringField(string(tok))
	}
	return cols
}

func scanBED(scanner *bufio.Scanner, opts BEDOpts) (list region.List, err error) {
	var startSubtract int
	if opts.OneBasedInput {
		startSubtract++
	}
	var tokens [maxBEDTokens][]byte

	lineIdx := 0
	nRegion := 0
	seen := make(map[string]bool)
	cur := -1
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isHeaderLine(curLine) {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken < 3 {
			if nToken == 0 {
				continue
			}
			err = fmt.Errorf("interval.scanBED: line %d has fewer tokens than expected", lineIdx)
			return
		}
		var parsedStart int
		if parsedStart, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			err = errors.Wrapf(err, "interval.scanBED: line %d", lineIdx)
			return
		}
		parsedStart -= startSubtract
		if parsedStart < 0 {
			err = fmt.Errorf("interval.scanBED: negative start coordinate %s on line %d", tokens[1], lineIdx)
			return
		}
		var parsedEnd int
		if parsedEnd, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			err = errors.Wrapf(err, "interval.scanBED: line %d", lineIdx)
			return
		}
		if parsedEnd < parsedStart || parsedEnd > region.PosTypeMax {
			err = fmt.Errorf("interval.scanBED: invalid coordinate pair on line %d", lineIdx)
			return
		}
		if cur < 0 || list[cur].Name != gunsafe.BytesToString(tokens[0]) {
			// Copy the name: tokens[0] points into a buffer the scanner reuses.
			name := string(tokens[0])
			if seen[name] {
				err = fmt.Errorf("interval.scanBED: unsorted input (split chromosome %v)", name)
				return
			}
			seen[name] = true
			list = append(list, region.Chromosome{Name: name})
			cur = len(list) - 1
		}
		if parsedEnd == parsedStart {
			continue
		}
		r := region.New(region.PosType(parsedStart), region.PosType(parsedEnd), opts.Dataset)
		if !opts.CoordinatesOnly && nToken > 3 {
			r.Payload = bedPayload(tokens[3:nToken])
		}
		rs := list[cur].Regions
		if n := len(rs); n > 0 && r.Less(rs[n-1]) {
			err = fmt.Errorf("interval.scanBED: unsorted input on line %d", lineIdx)
			return
		}
		list[cur].Regions = append(rs, r)
		nRegion++
	}
	if err = scanner.Err(); err != nil {
		return
	}
	log.Debug.Printf("BED loaded, %d region(s) on %d chromosome(s).", nRegion, len(list))
	return
}

// ReadBED loads a BED stream that is sorted by chromosome, then by (start,
// end).  Empty intervals are dropped; each chromosome's regions keep the
// input order.
func ReadBED(reader io.Reader, opts BEDOpts) (region.List, error) {
	// Scanner does not handle very long lines unless we specify an adequate
	// buffer size in advance.
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	return scanBED(scanner, opts)
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Gzipped input is detected from the path suffix.
func ReadBEDFromPath(ctx context.Context, path string, opts BEDOpts) (list region.List, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	if list, err = ReadBED(reader, opts); err != nil {
		err = errors.Wrap(err, path)
	}
	return
}

// WriteBED writes list as BED, chromosomes in list order.  Columns payloads
// are written as extra columns; other payloads are omitted.
func WriteBED(w io.Writer, list region.List) error {
	out := tsv.NewWriter(w)
	for _, c := range list {
		for _, r := range c.Regions {
			out.WriteString(c.Name)
			out.WriteUint32(uint32(r.Start))
			out.WriteUint32(uint32(r.End))
			if cols, ok := r.Payload.(region.Columns); ok {
				for _, f := range cols {
					out.WriteString(f.String())
				}
			}
			if err := out.EndLine(); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  region.PosType
	End     region.PosType
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax) is returned if there is no positional restriction.
func ParseRegionString(s string) (result Entry, err error) {
	if len(s) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(s, ':')
	if colonPos == -1 {
		result.ChrName = s
		result.Start0 = 0
		result.End = region.PosTypeMax
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = s[0:colonPos]
	rangeStr := strings.Replace(s[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 uint64
		if pos1, err = strconv.ParseUint(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 == 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = region.PosType(pos1 - 1)
		result.End = region.PosType(pos1)
		return
	}
	var start1, end0 uint64
	if start1, err = strconv.ParseUint(rangeStr[:dashPos], 10, 32); err != nil {
		return
	}
	if start1 == 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
		return
	}
	if end0, err = strconv.ParseUint(rangeStr[dashPos+1:], 10, 32); err != nil {
		return
	}
	if end0 < start1 {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = region.PosType(start1 - 1)
	result.End = region.PosType(end0)
	return
}

// ParseRegionList parses a space- or semicolon-separated list of region strings
// into a region.List owned by dataset.  Regions are sorted per chromosome.
func ParseRegionList(s string, dataset region.DatasetID) (region.List, error) {
	var list region.List
	index := make(map[string]int)
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ';' }) {
		e, err := ParseRegionString(field)
		if err != nil {
			return nil, err
		}
		i, ok := index[e.ChrName]
		if !ok {
			i = len(list)
			index[e.ChrName] = i
			list = append(list, region.Chromosome{Name: e.ChrName})
		}
		list[i].Regions = append(list[i].Regions, region.New(e.Start0, e.End, dataset))
	}
	for _, c := range list {
		c.Regions.Sort()
	}
	return list, nil
}
