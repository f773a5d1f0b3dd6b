package main

import (
	"github.com/jwaldrip/odin/cli"

	"pga/config"
	"pga/param"
	"pga/pipeline"
	"pga/sweep"
)

var app = cli.New("1.0.0", "Protein Graph Assembler: de Bruijn graph assembly of de novo peptides", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", config.DefaultCfgFn, "configure file (yaml|toml|json)")
	app.DefineStringFlag("cpuprofile", "", "write cpu profile to file")
	app.DefineStringFlag("p", "", "output directory, overrides 'out_dir' of the configure file")
	app.DefineIntFlag("t", 0, "number of concurrent sweep runs, overrides 'workers' of the configure file")

	def := param.DefaultGrid()
	asm := app.DefineSubCommand("asm", "assemble contigs and scaffolds with one parameter set", pipeline.Asm)
	{
		asm.DefineIntFlag("K", def.KmerSize[1], "kmer length")
		asm.DefineIntFlag("MinOverlap", def.MinOverlap[0], "min suffix/prefix overlap for scaffold merging")
		asm.DefineIntFlag("MaxMismatches", def.MaxMismatches[1], "max mismatches allowed when mapping to the reference")
		asm.DefineFloat64Flag("MinIdentity", def.MinIdentity[2], "min identity[0~1] when mapping to the reference")
		asm.DefineIntFlag("SizeThreshold", def.SizeThreshold[0], "keep sequences strictly longer than this")
		asm.DefineFloat64Flag("Conf", def.Conf[2], "keep PSMs with confidence strictly above this")
		asm.DefineStringFlag("Run", "", "run name, overrides 'run'")
		asm.DefineStringFlag("PSM", "", "PSM csv file, overrides 'psm_file'")
		asm.DefineStringFlag("Ref", "", "reference fasta file, overrides 'reference_file'")
		asm.DefineStringFlag("Contam", "", "contaminants fasta file, overrides 'contaminants_file'")
		asm.DefineBoolFlag("Graph", false, "output dot graph file")
		asm.DefineBoolFlag("SAM", false, "output alignments as SAM")
		asm.DefineBoolFlag("Compress", false, "zstd compress the fasta outputs")
	}
	sw := app.DefineSubCommand("sweep", "run every parameter combination of the configured grid", sweep.Sweep)
	{
		sw.DefineBoolFlag("Graph", false, "output dot graph file per run")
		sw.DefineBoolFlag("SAM", false, "output alignments as SAM per run")
		sw.DefineBoolFlag("Compress", false, "zstd compress the fasta outputs")
	}
	mapstat := app.DefineSubCommand("mapstat", "map an existing assembly to the reference and compute its statistics", pipeline.MapStat)
	{
		mapstat.DefineStringFlag("Input", "", "assembled sequences fasta file")
		mapstat.DefineStringFlag("Ref", "", "reference fasta file")
		mapstat.DefineStringFlag("Output", "", "statistics json file[Input_stats.json]")
		mapstat.DefineStringFlag("Method", param.AssMethod, "assembly method recorded in the statistics")
		mapstat.DefineIntFlag("MaxMismatches", def.MaxMismatches[1], "max mismatches allowed when mapping to the reference")
		mapstat.DefineFloat64Flag("MinIdentity", def.MinIdentity[2], "min identity[0~1] when mapping to the reference")
	}
}

func main() {
	app.Start()
}
