// Package pipeline runs one isolated assembly: reads -> contigs ->
// scaffolds, each collection mapped on the reference and summarised.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pga/config"
	"pga/constructdbg"
	"pga/fastx"
	"pga/mapping"
	"pga/param"
	"pga/preprocess"
	"pga/scaffold"
	"pga/stats"
)

// run directory layout
const (
	ContigsDir    = "contigs"
	ScaffoldsDir  = "scaffolds"
	StatisticsDir = "statistics"
	LogsDir       = "logs"
	MappingDir    = "mapping"
	GraphDir      = "graph"

	LogFn   = "run.log"
	GraphFn = "dbg.dot"
)

// Inputs are loaded once and shared read-only by every run of a sweep.
type Inputs struct {
	Run, Chain   string
	RefName      string
	Reference    string
	PSMs         []preprocess.PSM
	Contaminants []fastx.Record
	Proteases    []string
}

// LoadInputs reads the PSM table, the reference and the contaminants named
// by cfg. The reference is normalized; a missing PSM table is an error.
func LoadInputs(cfg config.CfgInfo) (*Inputs, error) {
	in := &Inputs{Run: cfg.Run, Chain: cfg.Chain, RefName: cfg.Run, Proteases: cfg.Proteases}
	if cfg.PSMFile == "" {
		return nil, fmt.Errorf("[LoadInputs] no PSM file set")
	}
	fp, err := fastx.Open(cfg.PSMFile)
	if err != nil {
		return nil, fmt.Errorf("[LoadInputs] %w", err)
	}
	in.PSMs, err = preprocess.ReadPSMs(fp)
	fp.Close()
	if err != nil {
		return nil, fmt.Errorf("[LoadInputs] %s: %w", cfg.PSMFile, err)
	}

	in.Reference = cfg.Reference
	if in.Reference == "" && cfg.ReferenceFile != "" {
		recs, err := fastx.ReadFastaFile(cfg.ReferenceFile)
		if err != nil {
			return nil, fmt.Errorf("[LoadInputs] reference: %w", err)
		}
		if len(recs) > 0 {
			in.Reference, in.RefName = recs[0].Seq, recs[0].ID
		}
	}
	in.Reference = preprocess.NormalizeSequence(in.Reference)
	if in.RefName == "" {
		in.RefName = "reference"
	}

	if cfg.ContaminantsFile != "" {
		in.Contaminants, err = fastx.ReadFastaFile(cfg.ContaminantsFile)
		if err != nil {
			return nil, fmt.Errorf("[LoadInputs] contaminants: %w", err)
		}
	}
	return in, nil
}

// Reads returns the cleaned reads above the confidence cutoff conf.
func (in *Inputs) Reads(conf float64) []string {
	return preprocess.PrepareReads(in.PSMs, preprocess.Options{
		Run:          in.Run,
		Conf:         conf,
		Proteases:    in.Proteases,
		Contaminants: in.Contaminants,
	})
}

// ProteaseTally counts the PSMs above conf per protease, as "name:n"
// pairs sorted by name.
func (in *Inputs) ProteaseTally(conf float64) string {
	psms := preprocess.FilterConfidence(preprocess.CleanPSMs(in.PSMs, in.Proteases), conf)
	counts := preprocess.ProteaseCounts(psms)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, counts[name])
	}
	return strings.Join(parts, " ")
}

// Result holds everything one run produced.
type Result struct {
	Params        param.Params
	Dir           string
	Graph         *constructdbg.DBG
	Contigs       []string
	Scaffolds     []string
	ContigHits    []mapping.AlignmentRecord
	ScaffoldHits  []mapping.AlignmentRecord
	ContigStats   stats.AssemblyStatistics
	ScaffoldStats stats.AssemblyStatistics
}

// MapAndSummarise maps seqs on reference and computes their statistics.
func MapAndSummarise(seqs []string, reference string, p param.Params) ([]mapping.AlignmentRecord, stats.AssemblyStatistics, error) {
	hits, err := mapping.MapSequences(seqs, reference, p.MaxMismatches, p.MinIdentity)
	if err != nil {
		return nil, stats.AssemblyStatistics{}, err
	}
	return hits, stats.ComputeAssemblyStatistics(hits, reference, p), nil
}

// Assemble runs every stage in memory, strictly one after the other.
func Assemble(reads []string, reference string, p param.Params, lg *log.Logger) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("[Assemble] %w", err)
	}
	res := &Result{Params: p}
	t0 := time.Now()
	var err error
	res.Contigs, res.Graph, err = constructdbg.ContigsFromReads(reads, p.KmerSize, p.SizeThreshold)
	if err != nil {
		return nil, fmt.Errorf("[Assemble] contigs: %w", err)
	}
	lg.Printf("[Assemble] %d reads, %d nodes, %d edges, %d contigs, used %v\n",
		len(reads), len(res.Graph.NodesArr), len(res.Graph.EdgesArr), len(res.Contigs), time.Since(t0))

	res.ContigHits, res.ContigStats, err = MapAndSummarise(res.Contigs, reference, p)
	if err != nil {
		return nil, fmt.Errorf("[Assemble] map contigs: %w", err)
	}

	t1 := time.Now()
	res.Scaffolds, err = scaffold.CreateScaffolds(res.Contigs, p.MinOverlap, p.SizeThreshold)
	if err != nil {
		return nil, fmt.Errorf("[Assemble] scaffolds: %w", err)
	}
	lg.Printf("[Assemble] %d scaffolds, used %v\n", len(res.Scaffolds), time.Since(t1))

	res.ScaffoldHits, res.ScaffoldStats, err = MapAndSummarise(res.Scaffolds, reference, p)
	if err != nil {
		return nil, fmt.Errorf("[Assemble] map scaffolds: %w", err)
	}
	lg.Printf("[Assemble] mapped %d/%d contigs, %d/%d scaffolds\n",
		len(res.ContigHits), len(res.Contigs), len(res.ScaffoldHits), len(res.Scaffolds))
	return res, nil
}

// NewRunLogger logs to dir/run.log and to console, prefixed with name.
// The returned function closes the file.
func NewRunLogger(dir, name string, console io.Writer) (*log.Logger, func() error, error) {
	fp, err := os.OpenFile(filepath.Join(dir, LogFn), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("[NewRunLogger] %w", err)
	}
	if console == nil {
		console = io.Discard
	}
	lg := log.New(io.MultiWriter(fp, console), "["+name+"] ", log.LstdFlags)
	return lg, fp.Close, nil
}

// Options select where and what a run writes.
type Options struct {
	OutDir   string
	SAM      bool
	Graph    bool
	Compress bool
	// Console also receives the run log; nil discards it.
	Console io.Writer
}

// RunDir is <out>/<run><chain>/<param dir>.
func RunDir(in *Inputs, p param.Params, opt Options) string {
	return filepath.Join(opt.OutDir, in.Run+in.Chain, p.DirName())
}

func makeRunDirs(dir string, opt Options) error {
	subs := []string{ContigsDir, ScaffoldsDir, StatisticsDir, LogsDir}
	if opt.SAM {
		subs = append(subs, MappingDir)
	}
	if opt.Graph {
		subs = append(subs, GraphDir)
	}
	for _, s := range subs {
		if err := os.MkdirAll(filepath.Join(dir, s), 0755); err != nil {
			return err
		}
	}
	return nil
}

func seqsFn(dir, kind string, in *Inputs, p param.Params, opt Options) string {
	fn := fmt.Sprintf("%s_%s_%s_%s.fasta", param.AssMethod, kind, param.FormatFloat(p.Conf), in.Run)
	if opt.Compress {
		fn += fastx.ZstSuffix
	}
	return filepath.Join(dir, kind+"s", fn)
}

// Run assembles the reads of in at p and writes every output below
// RunDir. Runs with different parameters never share a file.
func Run(in *Inputs, p param.Params, opt Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("[Run] %w", err)
	}
	dir := RunDir(in, p, opt)
	if err := makeRunDirs(dir, opt); err != nil {
		return nil, fmt.Errorf("[Run] %w", err)
	}
	lg, closeLog, err := NewRunLogger(filepath.Join(dir, LogsDir), p.DirName(), opt.Console)
	if err != nil {
		return nil, fmt.Errorf("[Run] %w", err)
	}
	defer closeLog()

	lg.Printf("[Run] run id %s, parameters %v\n", p.RunID(), p)
	if len(in.Proteases) > 0 {
		lg.Printf("[Run] PSMs per protease: %s\n", in.ProteaseTally(p.Conf))
	}
	reads := in.Reads(p.Conf)
	res, err := Assemble(reads, in.Reference, p, lg)
	if err != nil {
		lg.Printf("[Run] failed: %v\n", err)
		return nil, err
	}
	res.Dir = dir
	if err := writeOutputs(res, in, opt, lg); err != nil {
		lg.Printf("[Run] failed: %v\n", err)
		return nil, err
	}
	lg.Printf("[Run] done, contigs N50 %s coverage %.4f, scaffolds N50 %s coverage %.4f\n",
		fmtIntp(res.ContigStats.N50), res.ContigStats.Coverage, fmtIntp(res.ScaffoldStats.N50), res.ScaffoldStats.Coverage)
	return res, nil
}

func fmtIntp(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(*v)
}

func writeOutputs(res *Result, in *Inputs, opt Options, lg *log.Logger) error {
	p := res.Params
	sets := []struct {
		kind string
		seqs []string
		hits []mapping.AlignmentRecord
		st   stats.AssemblyStatistics
	}{
		{"contig", res.Contigs, res.ContigHits, res.ContigStats},
		{"scaffold", res.Scaffolds, res.ScaffoldHits, res.ScaffoldStats},
	}
	for _, s := range sets {
		fn := seqsFn(res.Dir, s.kind, in, p, opt)
		if err := fastx.WriteSeqsFile(fn, s.kind, s.seqs); err != nil {
			return fmt.Errorf("[writeOutputs] %w", err)
		}
		statFn := filepath.Join(res.Dir, StatisticsDir, s.kind+"s_stats.json")
		if err := stats.WriteStatistics(statFn, s.st); err != nil {
			return fmt.Errorf("[writeOutputs] %w", err)
		}
		if opt.SAM && in.Reference != "" {
			samFn := filepath.Join(res.Dir, MappingDir, s.kind+"s.sam")
			if err := writeSAMFile(samFn, in, s.hits, s.kind); err != nil {
				return fmt.Errorf("[writeOutputs] %w", err)
			}
		}
		lg.Printf("[writeOutputs] %d %ss written to %s\n", len(s.seqs), s.kind, fn)
	}
	if opt.Graph {
		fn := filepath.Join(res.Dir, GraphDir, GraphFn)
		if err := writeGraphFile(fn, res.Graph); err != nil {
			return fmt.Errorf("[writeOutputs] %w", err)
		}
	}
	return nil
}

func writeSAMFile(fn string, in *Inputs, hits []mapping.AlignmentRecord, prefix string) (err error) {
	fp, err := fastx.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return mapping.WriteSAM(fp, in.RefName, in.Reference, hits, prefix)
}

func writeGraphFile(fn string, g *constructdbg.DBG) (err error) {
	fp, err := fastx.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return constructdbg.GraphvizDBG(g, fp)
}
