package pipeline

import (
	"fmt"
	"log"
	"os"

	"github.com/jwaldrip/odin/cli"

	"pga/config"
	"pga/fastx"
	"pga/param"
	"pga/preprocess"
	"pga/stats"
	"pga/utils"
)

type optionsAsm struct {
	utils.ArgsOpt
	Cfg    config.CfgInfo
	Params param.Params
}

func paramsFromFlags(c cli.Command) (p param.Params) {
	p.AssMethod = param.AssMethod
	p.KmerSize = c.Flag("K").Get().(int)
	p.MinOverlap = c.Flag("MinOverlap").Get().(int)
	p.MaxMismatches = c.Flag("MaxMismatches").Get().(int)
	p.MinIdentity = c.Flag("MinIdentity").Get().(float64)
	p.SizeThreshold = c.Flag("SizeThreshold").Get().(int)
	p.Conf = c.Flag("Conf").Get().(float64)
	return p
}

func checkArgsAsm(c cli.Command) (opt optionsAsm, suc bool) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[checkArgsAsm] check global Arguments error, opt: %v\n", gOpt)
	}
	opt.ArgsOpt = gOpt
	cfg, err := config.Load(gOpt)
	if err != nil {
		log.Fatalf("[checkArgsAsm] %v\n", err)
	}
	if v := c.Flag("Run").String(); v != "" {
		cfg.Run = v
	}
	if v := c.Flag("PSM").String(); v != "" {
		cfg.PSMFile = v
	}
	if v := c.Flag("Ref").String(); v != "" {
		cfg.ReferenceFile, cfg.Reference = v, ""
	}
	if v := c.Flag("Contam").String(); v != "" {
		cfg.ContaminantsFile = v
	}
	cfg.SAM = cfg.SAM || c.Flag("SAM").Get().(bool)
	cfg.Graph = cfg.Graph || c.Flag("Graph").Get().(bool)
	cfg.Compress = cfg.Compress || c.Flag("Compress").Get().(bool)
	opt.Cfg = cfg

	opt.Params = paramsFromFlags(c)
	if err := opt.Params.Validate(); err != nil {
		log.Fatalf("[checkArgsAsm] %v\n", err)
	}
	return opt, true
}

// Asm is the 'asm' command: one run with the parameters given as flags.
func Asm(c cli.Command) {
	opt, suc := checkArgsAsm(c)
	if !suc {
		log.Fatalf("[Asm] check Arguments error, opt: %v\n", opt)
	}
	stop, err := utils.StartCPUProfile(opt.Cpuprofile)
	if err != nil {
		log.Fatalf("[Asm] %v\n", err)
	}
	defer stop()

	in, err := LoadInputs(opt.Cfg)
	if err != nil {
		log.Fatalf("[Asm] %v\n", err)
	}
	log.Printf("[Asm] %d PSMs, reference %s length %d\n", len(in.PSMs), in.RefName, len(in.Reference))
	res, err := Run(in, opt.Params, Options{
		OutDir:   opt.Cfg.OutDir,
		SAM:      opt.Cfg.SAM,
		Graph:    opt.Cfg.Graph,
		Compress: opt.Cfg.Compress,
		Console:  os.Stderr,
	})
	if err != nil {
		log.Fatalf("[Asm] %v\n", err)
	}
	fmt.Printf("[Asm] outputs in %s\n", res.Dir)
}

type optionsMapStat struct {
	utils.ArgsOpt
	Input     string
	Reference string
	Output    string
	Params    param.Params
}

func checkArgsMapStat(c cli.Command) (opt optionsMapStat, suc bool) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[checkArgsMapStat] check global Arguments error, opt: %v\n", gOpt)
	}
	opt.ArgsOpt = gOpt
	opt.Input = c.Flag("Input").String()
	if opt.Input == "" {
		log.Fatalf("[checkArgsMapStat] args 'Input' not set\n")
	}
	opt.Reference = c.Flag("Ref").String()
	if opt.Reference == "" {
		log.Fatalf("[checkArgsMapStat] args 'Ref' not set\n")
	}
	opt.Output = c.Flag("Output").String()
	if opt.Output == "" {
		opt.Output = opt.Input + "_stats.json"
	}
	opt.Params.AssMethod = c.Flag("Method").String()
	opt.Params.MaxMismatches = c.Flag("MaxMismatches").Get().(int)
	opt.Params.MinIdentity = c.Flag("MinIdentity").Get().(float64)
	if opt.Params.MaxMismatches < 0 || opt.Params.MinIdentity < 0 || opt.Params.MinIdentity > 1 {
		log.Fatalf("[checkArgsMapStat] MaxMismatches %d and MinIdentity %v out of range\n",
			opt.Params.MaxMismatches, opt.Params.MinIdentity)
	}
	return opt, true
}

// MapStatFile maps the sequences of the FASTA file input on the first
// record of refFn and writes the statistics to output.
func MapStatFile(input, refFn, output string, p param.Params) error {
	recs, err := fastx.ReadFastaFile(input)
	if err != nil {
		return fmt.Errorf("[MapStatFile] %w", err)
	}
	refs, err := fastx.ReadFastaFile(refFn)
	if err != nil {
		return fmt.Errorf("[MapStatFile] %w", err)
	}
	var reference string
	if len(refs) > 0 {
		reference = preprocess.NormalizeSequence(refs[0].Seq)
	}
	seqs := fastx.Seqs(recs)
	for i, s := range seqs {
		seqs[i] = preprocess.NormalizeSequence(s)
	}
	_, st, err := MapAndSummarise(seqs, reference, p)
	if err != nil {
		return fmt.Errorf("[MapStatFile] %w", err)
	}
	return stats.WriteStatistics(output, st)
}

// MapStat is the 'mapstat' command: statistics for an existing assembly.
func MapStat(c cli.Command) {
	opt, suc := checkArgsMapStat(c)
	if !suc {
		log.Fatalf("[MapStat] check Arguments error, opt: %v\n", opt)
	}
	if err := MapStatFile(opt.Input, opt.Reference, opt.Output, opt.Params); err != nil {
		log.Fatalf("[MapStat] %v\n", err)
	}
	fmt.Printf("[MapStat] statistics written to %s\n", opt.Output)
}
