package sweep

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jwaldrip/odin/cli"

	"pga/config"
	"pga/param"
	"pga/pipeline"
	"pga/utils"
)

const (
	LogFn     = "grid_search.log"
	SummaryFn = "sweep_summary.json"
)

type optionsSweep struct {
	utils.ArgsOpt
	Cfg config.CfgInfo
}

func checkArgs(c cli.Command) (opt optionsSweep, suc bool) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[checkArgs] check global Arguments error, opt: %v\n", gOpt)
	}
	opt.ArgsOpt = gOpt
	cfg, err := config.Load(gOpt)
	if err != nil {
		log.Fatalf("[checkArgs] %v\n", err)
	}
	cfg.SAM = cfg.SAM || c.Flag("SAM").Get().(bool)
	cfg.Graph = cfg.Graph || c.Flag("Graph").Get().(bool)
	cfg.Compress = cfg.Compress || c.Flag("Compress").Get().(bool)
	opt.Cfg = cfg
	return opt, true
}

// Sweep is the 'sweep' command: every combination of the configured grid.
func Sweep(c cli.Command) {
	opt, suc := checkArgs(c)
	if !suc {
		log.Fatalf("[Sweep] check Arguments error, opt: %v\n", opt)
	}
	stop, err := utils.StartCPUProfile(opt.Cpuprofile)
	if err != nil {
		log.Fatalf("[Sweep] %v\n", err)
	}
	defer stop()

	cfg := opt.Cfg
	in, err := pipeline.LoadInputs(cfg)
	if err != nil {
		log.Fatalf("[Sweep] %v\n", err)
	}
	logDir := filepath.Join(cfg.RunDir(), pipeline.LogsDir)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("[Sweep] %v\n", err)
	}
	fp, err := os.OpenFile(filepath.Join(logDir, LogFn), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("[Sweep] %v\n", err)
	}
	defer fp.Close()
	lg := log.New(io.MultiWriter(fp, os.Stderr), "", log.LstdFlags)

	combs := cfg.Grid.Combinations()
	lg.Printf("Starting hyperparameter optimization with %d combinations on %d workers.\n", len(combs), cfg.Workers)
	ropt := pipeline.Options{OutDir: cfg.OutDir, SAM: cfg.SAM, Graph: cfg.Graph, Compress: cfg.Compress}
	outs := Run(combs, cfg.Workers, func(p param.Params) (*pipeline.Result, error) {
		return pipeline.Run(in, p, ropt)
	}, lg, os.Stderr)

	sum := Summarize(outs)
	lg.Printf("Hyperparameter optimization completed: %v.\n", sum)
	summaryFn := filepath.Join(cfg.RunDir(), SummaryFn)
	if err := WriteSummaryFile(summaryFn, outs); err != nil {
		lg.Printf("[Sweep] %v\n", err)
	}
	fmt.Printf("[Sweep] %v, summary in %s\n", sum, summaryFn)
}
