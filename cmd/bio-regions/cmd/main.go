package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/regions/cache"
	"github.com/grailbio/regions/chromset"
	"github.com/grailbio/regions/disjoin"
	"github.com/grailbio/regions/interval"
	"github.com/grailbio/regions/overlap"
	"github.com/grailbio/regions/parallel"
	"github.com/grailbio/regions/region"
	"github.com/grailbio/regions/transform"
	"v.io/x/lib/cmdline"
)

// columnCacheSize bounds each column cache of a session.
const columnCacheSize = 256

// session holds the state shared by one command invocation: the executor and
// the catalog of loaded BED datasets.
type session struct {
	exec    *parallel.Executor
	catalog *cache.StaticCatalog
	columns *cache.Columns
}

func newSession(parallelism int) *session {
	catalog := cache.NewStaticCatalog()
	return &session{
		exec:    parallel.New(parallelism),
		catalog: catalog,
		columns: cache.NewColumns(catalog, columnCacheSize),
	}
}

// load reads BED files in parallel.  The i'th path becomes dataset i+1.
func (s *session) load(ctx context.Context, paths []string) ([]region.List, error) {
	lists := make([]region.List, len(paths))
	err := traverse.Limit(s.exec.Parallelism()).Each(len(paths), func(i int) error {
		opts := interval.DefaultBEDOpts
		opts.Dataset = region.DatasetID(i + 1)
		var err error
		lists[i], err = interval.ReadBEDFromPath(ctx, paths[i], opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i, path := range paths {
		s.catalog.Add(cache.Metadata{
			ID:     region.DatasetID(i + 1),
			Name:   path,
			Format: "CHROMOSOME,START,END,NAME,SCORE,STRAND",
		}, interval.BEDColumns)
	}
	return lists, nil
}

type overlapFlags struct {
	requireOverlap *bool
	amount         *int64
	amountType     *string
}

func addOverlapFlags(cmd *cmdline.Command) overlapFlags {
	return overlapFlags{
		requireOverlap: cmd.Flags.Bool("overlap", overlap.DefaultOpts.RequireOverlap,
			"Keep data regions that overlap a filter region. If false, keep regions that do not."),
		amount: cmd.Flags.Int64("amount", overlap.DefaultOpts.Amount,
			"Minimum overlap, or minimum distance with -overlap=false. 0 means any."),
		amountType: cmd.Flags.String("amount-type", overlap.DefaultOpts.AmountType.String(),
			`Unit of -amount: "bp" or "%" of each region's length`),
	}
}

func addRegionsFlag(cmd *cmdline.Command) *string {
	return cmd.Flags.String("regions", "", `Filter regions given inline instead of a second BED file,
e.g. "chr1:1,000-2,000 chr2:500-900". Coordinates are 1-based and closed.`)
}

func (f overlapFlags) opts() (overlap.Opts, error) {
	t, err := interval.ParseAmountType(*f.amountType)
	if err != nil {
		return overlap.Opts{}, err
	}
	if *f.amount < 0 {
		return overlap.Opts{}, fmt.Errorf("-amount must be non-negative, got %d", *f.amount)
	}
	return overlap.Opts{RequireOverlap: *f.requireOverlap, Amount: *f.amount, AmountType: t}, nil
}

// inputs returns the data and filter lists named by argv, or by argv and
// inline regions.
func inputs(ctx context.Context, s *session, name, regions string, argv []string) (data, filter region.List, err error) {
	want := 2
	if regions != "" {
		want = 1
	}
	if len(argv) != want {
		return nil, nil, fmt.Errorf("%s takes %d BED path(s), but got %v", name, want, argv)
	}
	lists, err := s.load(ctx, argv)
	if err != nil {
		return nil, nil, err
	}
	if regions == "" {
		return lists[0], lists[1], nil
	}
	filter, err = interval.ParseRegionList(regions, region.DatasetID(len(argv)+1))
	return lists[0], filter, err
}

func newCmdIntersect() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "intersect",
		Short:    "Print data regions that overlap a filter region",
		ArgsName: "data.bed filter.bed",
	}
	parallelism := addParallelismFlag(cmd)
	regions := addRegionsFlag(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := vcontext.Background()
		s := newSession(*parallelism)
		data, filter, err := inputs(ctx, s, "intersect", *regions, argv)
		if err != nil {
			return err
		}
		out, err := overlap.New(s.exec).Intersect(data, filter)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, out)
	})
	return cmd
}

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "filter",
		Short:    "Print data regions by overlap with, or distance from, filter regions",
		ArgsName: "data.bed filter.bed",
	}
	parallelism := addParallelismFlag(cmd)
	flags := addOverlapFlags(cmd)
	regions := addRegionsFlag(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		opts, err := flags.opts()
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		s := newSession(*parallelism)
		data, filter, err := inputs(ctx, s, "filter", *regions, argv)
		if err != nil {
			return err
		}
		out, err := overlap.New(s.exec).Filter(data, filter, opts)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, out)
	})
	return cmd
}

func newCmdCount() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "count",
		Short:    "Print the number of data regions that filter would print",
		ArgsName: "data.bed filter.bed",
	}
	parallelism := addParallelismFlag(cmd)
	flags := addOverlapFlags(cmd)
	regions := addRegionsFlag(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		opts, err := flags.opts()
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		s := newSession(*parallelism)
		data, filter, err := inputs(ctx, s, "count", *regions, argv)
		if err != nil {
			return err
		}
		n, err := overlap.New(s.exec).Count(data, filter, opts)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.Stdout, n)
		return err
	})
	return cmd
}

func newCmdDisjoin() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "disjoin",
		Short:    "Partition the regions of one or more BED files into disjoint segments",
		ArgsName: "a.bed [b.bed...]",
	}
	parallelism := addParallelismFlag(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("disjoin takes one or more BED paths")
		}
		s := newSession(*parallelism)
		merged, err := s.merged(vcontext.Background(), argv)
		if err != nil {
			return err
		}
		out, err := disjoin.List(s.exec, merged)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, out)
	})
	return cmd
}

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge",
		Short:    "Merge BED files into one sorted region list",
		ArgsName: "a.bed [b.bed...]",
	}
	parallelism := addParallelismFlag(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("merge takes one or more BED paths")
		}
		s := newSession(*parallelism)
		merged, err := s.merged(vcontext.Background(), argv)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, merged)
	})
	return cmd
}

// merged loads paths and merges them into one list.
func (s *session) merged(ctx context.Context, paths []string) (region.List, error) {
	lists, err := s.load(ctx, paths)
	if err != nil {
		return nil, err
	}
	var merged region.List
	for _, l := range lists {
		merged = region.MergeLists(merged, l)
	}
	return merged, nil
}

type transformFlags struct {
	length    *int64
	useStrand *bool
}

func addTransformFlags(cmd *cmdline.Command) transformFlags {
	return transformFlags{
		length:    cmd.Flags.Int64("length", 0, "Number of bases. May be negative."),
		useStrand: cmd.Flags.Bool("use-strand", false, "Mirror the transform for regions whose STRAND column is '-'"),
	}
}

// transformInput loads the single BED file a transform command takes.
func transformInput(s *session, name string, argv []string) (region.List, error) {
	if len(argv) != 1 {
		return nil, fmt.Errorf("%s takes one BED path, but got %v", name, argv)
	}
	lists, err := s.load(vcontext.Background(), argv)
	if err != nil {
		return nil, err
	}
	return lists[0], nil
}

func newCmdExtend() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "extend",
		Short:    "Grow every region by -length bases",
		ArgsName: "in.bed",
	}
	parallelism := addParallelismFlag(cmd)
	flags := addTransformFlags(cmd)
	direction := cmd.Flags.String("direction", "both", `Side(s) to grow: "forward", "backward" or "both"`)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		dir, err := transform.ParseDirection(*direction)
		if err != nil {
			return err
		}
		s := newSession(*parallelism)
		in, err := transformInput(s, "extend", argv)
		if err != nil {
			return err
		}
		out, err := transform.New(s.columns, s.exec).ExtendList(in, *flags.length, dir, *flags.useStrand)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, out)
	})
	return cmd
}

func newCmdFlank() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "flank",
		Short:    "Replace every region by a window of -length bases placed -offset bases away",
		ArgsName: "in.bed",
	}
	parallelism := addParallelismFlag(cmd)
	flags := addTransformFlags(cmd)
	offset := cmd.Flags.Int64("offset", 0, "Distance of the window from the region. Negative values place it before the region.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		s := newSession(*parallelism)
		in, err := transformInput(s, "flank", argv)
		if err != nil {
			return err
		}
		out, err := transform.New(s.columns, s.exec).FlankList(in, *offset, *flags.length, *flags.useStrand)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, out)
	})
	return cmd
}

func newCmdTiles() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "tiles",
		Short: "Print fixed-size tiles covering a genome",
	}
	size := cmd.Flags.Uint("size", 100000, "Tile size in bases")
	genome := cmd.Flags.String("genome", "", "chrom.sizes, FASTA index (.fai) or BAM file describing the genome")
	chroms := cmd.Flags.String("chromosomes", "", "Comma-separated chromosomes to tile. By default, all of them.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("tiles takes no arguments, but got %v", argv)
		}
		if *genome == "" {
			return fmt.Errorf("-genome is required")
		}
		set, err := readGenome(vcontext.Background(), *genome)
		if err != nil {
			return err
		}
		var names []string
		if *chroms != "" {
			names = strings.Split(*chroms, ",")
		}
		out, err := set.Tiles(region.PosType(*size), names)
		if err != nil {
			return err
		}
		return interval.WriteBED(env.Stdout, out)
	})
	return cmd
}

func readGenome(ctx context.Context, path string) (*chromset.Set, error) {
	if strings.HasSuffix(path, ".bam") {
		return chromset.ReadBAMHeader(ctx, path)
	}
	return chromset.ReadSizes(ctx, path)
}

func addParallelismFlag(cmd *cmdline.Command) *int {
	return cmd.Flags.Int("parallelism", 0, "Maximum number of chromosomes processed at once. 0 means the number of CPUs.")
}

func newRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-regions",
		Short:    "Interval operations on genomic region sets",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdIntersect(),
			newCmdFilter(),
			newCmdCount(),
			newCmdDisjoin(),
			newCmdMerge(),
			newCmdExtend(),
			newCmdFlank(),
			newCmdTiles(),
		},
	}
}

// run parses args against the command tree and runs the selected command
// with its output on stdout.
func run(stdout, stderr io.Writer, args []string) error {
	env := cmdline.EnvFromOS()
	env.Stdout, env.Stderr = stdout, stderr
	return cmdline.ParseAndRun(newRoot(), env, args)
}

// Run is the entry point of bio-regions.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newRoot())
}
