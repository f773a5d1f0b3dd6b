package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pga/param"
	"pga/utils"
)

func writeCfg(t *testing.T, name, body string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.OutDir != DefaultOutDir || cfg.Workers != DefaultWorkers {
		t.Errorf("Default() = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Grid, param.DefaultGrid()) {
		t.Errorf("Default().Grid = %+v, want %+v", cfg.Grid, param.DefaultGrid())
	}
}

func TestParseCfg(t *testing.T) {
	fn := writeCfg(t, "pga.yaml", `
run: bsa
chain: heavy
psm_file: input/bsa.csv
reference_file: fasta/bsa.fasta
contaminants_file: fasta/contaminants.fasta
proteases: [Trypsin, GluC]
out_dir: out
sam: true
workers: 8
grid:
  kmer_size: [5]
  conf: [0.9, 1]
`)
	cfg, err := ParseCfg(fn)
	if err != nil {
		t.Fatal(err)
	}
	def := param.DefaultGrid()
	want := CfgInfo{
		Run:              "bsa",
		Chain:            "heavy",
		PSMFile:          "input/bsa.csv",
		ReferenceFile:    "fasta/bsa.fasta",
		ContaminantsFile: "fasta/contaminants.fasta",
		Proteases:        []string{"Trypsin", "GluC"},
		OutDir:           "out",
		SAM:              true,
		Workers:          8,
		Grid: param.Grid{
			KmerSize:      []int{5},
			MinOverlap:    def.MinOverlap,
			SizeThreshold: def.SizeThreshold,
			MaxMismatches: def.MaxMismatches,
			MinIdentity:   def.MinIdentity,
			Conf:          []float64{0.9, 1},
		},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("ParseCfg() = %+v\nwant %+v", cfg, want)
	}
	if got := cfg.RunDir(); got != filepath.Join("out", "bsaheavy") {
		t.Errorf("RunDir() = %q", got)
	}
}

func TestParseCfgErrors(t *testing.T) {
	tests := []struct {
		name, file, body string
	}{
		{"zero workers", "a.yaml", "workers: 0\n"},
		{"empty grid dimension", "b.yaml", "grid:\n  min_overlap: []\n"},
		{"malformed", "c.json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCfg(writeCfg(t, tt.file, tt.body)); err == nil {
				t.Error("ParseCfg() returned no error")
			}
		})
	}

	_, err := ParseCfg(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(utils.ArgsOpt{Prefix: "results", NumCPU: 3})
	if err != nil {
		t.Fatalf("Load() without %s: %v", DefaultCfgFn, err)
	}
	if cfg.OutDir != "results" || cfg.Workers != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	fn := writeCfg(t, "run.toml", "run = \"ma1\"\nworkers = 16\n")
	cfg, err = Load(utils.ArgsOpt{CfgFn: fn})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Run != "ma1" || cfg.Workers != 16 || cfg.OutDir != DefaultOutDir {
		t.Errorf("Load(%s) = %+v", fn, cfg)
	}

	if _, err := Load(utils.ArgsOpt{CfgFn: filepath.Join(t.TempDir(), "other.yaml")}); err == nil {
		t.Error("Load() ignored a missing explicit config file")
	}
}
