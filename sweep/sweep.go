// Package sweep runs the pipeline over every combination of a parameter
// grid on a bounded pool of workers. A failing combination is logged and
// counted; it never stops the others.
package sweep

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"pga/fastx"
	"pga/param"
	"pga/pipeline"
	"pga/stats"
)

// Runner executes one combination.
type Runner func(p param.Params) (*pipeline.Result, error)

type Task struct {
	Iter   int
	Params param.Params
}

// Outcome is the result-or-error of one Task. Only the statistics of a
// successful run are kept.
type Outcome struct {
	Task
	Dir           string
	ContigStats   *stats.AssemblyStatistics
	ScaffoldStats *stats.AssemblyStatistics
	Err           error
	Elapsed       time.Duration
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

func runTask(run Runner, t Task) (o Outcome) {
	o.Task = t
	t0 := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("panic: %v", r)
			o.Dir, o.ContigStats, o.ScaffoldStats = "", nil, nil
		}
		o.Elapsed = time.Since(t0)
	}()
	res, err := run(t.Params)
	if err != nil {
		o.Err = err
		return o
	}
	if res == nil {
		o.Err = fmt.Errorf("no result")
		return o
	}
	o.Dir = res.Dir
	cs, ss := res.ContigStats, res.ScaffoldStats
	o.ContigStats, o.ScaffoldStats = &cs, &ss
	return o
}

// Run executes every combination on at most workers goroutines and returns
// the outcomes in combination order. Iterations are numbered from 1. When
// progress is not nil a progress bar is drawn on it.
func Run(combs []param.Params, workers int, run Runner, lg *log.Logger, progress io.Writer) []Outcome {
	if workers < 1 {
		workers = 1
	}
	if workers > len(combs) {
		workers = len(combs)
	}
	outs := make([]Outcome, len(combs))
	if len(combs) == 0 {
		return outs
	}
	var bar *pb.ProgressBar
	if progress != nil {
		bar = pb.New(len(combs)).SetWriter(progress).Start()
	}

	tasks := make(chan Task, workers)
	done := make(chan Outcome, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for t := range tasks {
				lg.Printf("[ITER %d] Starting run %s with parameters: %v\n", t.Iter, t.Params.RunID(), t.Params)
				o := runTask(run, t)
				if o.OK() {
					lg.Printf("[ITER %d] Completed successfully in %v.\n", t.Iter, o.Elapsed)
				} else {
					lg.Printf("[ITER %d] Failed run %s with parameters %v: %v\n", t.Iter, t.Params.RunID(), t.Params, o.Err)
				}
				done <- o
			}
		}()
	}
	go func() {
		for i, p := range combs {
			tasks <- Task{Iter: i + 1, Params: p}
		}
		close(tasks)
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	for o := range done {
		outs[o.Iter-1] = o
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return outs
}

// Summary counts the outcomes of a sweep.
type Summary struct {
	Total     int
	Succeeded int
	Failed    []Task
}

func Summarize(outs []Outcome) Summary {
	s := Summary{Total: len(outs)}
	for _, o := range outs {
		if o.OK() {
			s.Succeeded++
		} else {
			s.Failed = append(s.Failed, o.Task)
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d of %d combinations succeeded", s.Succeeded, s.Total)
}

type summaryRow struct {
	Iter      int                       `json:"iter"`
	RunID     string                    `json:"run_id"`
	Params    param.Params              `json:"params"`
	Dir       string                    `json:"dir,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Contigs   *stats.AssemblyStatistics `json:"contigs,omitempty"`
	Scaffolds *stats.AssemblyStatistics `json:"scaffolds,omitempty"`
}

// WriteSummary writes one row per outcome as a JSON array.
func WriteSummary(w io.Writer, outs []Outcome) error {
	rows := make([]summaryRow, len(outs))
	for i, o := range outs {
		rows[i] = summaryRow{
			Iter:      o.Iter,
			RunID:     o.Params.RunID(),
			Params:    o.Params,
			Dir:       o.Dir,
			Contigs:   o.ContigStats,
			Scaffolds: o.ScaffoldStats,
		}
		if o.Err != nil {
			rows[i].Error = o.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(rows)
}

// WriteSummaryFile is WriteSummary into fn.
func WriteSummaryFile(fn string, outs []Outcome) (err error) {
	fp, err := fastx.Create(fn)
	if err != nil {
		return fmt.Errorf("[WriteSummaryFile] %w", err)
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteSummary(fp, outs)
}
