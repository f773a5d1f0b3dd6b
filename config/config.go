// Package config loads the run description and sweep grid that are
// unmarshalled from Viper. Command line flags fill in or override the
// single-run parameters (see pipeline and sweep).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"pga/param"
	"pga/utils"
)

const (
	DefaultOutDir  = "outputs"
	DefaultWorkers = 64
)

// CfgInfo is the root-level settings struct.
type CfgInfo struct {
	// run name, also the name of the PSM table and the output folder
	Run   string `mapstructure:"run"`
	Chain string `mapstructure:"chain"`

	// CSV of de novo predictions
	PSMFile string `mapstructure:"psm_file"`

	// the target protein, inline or as the first record of a FASTA file
	Reference     string `mapstructure:"reference"`
	ReferenceFile string `mapstructure:"reference_file"`

	ContaminantsFile string   `mapstructure:"contaminants_file"`
	Proteases        []string `mapstructure:"proteases"`

	OutDir string `mapstructure:"out_dir"`

	// optional outputs
	SAM      bool `mapstructure:"sam"`
	Graph    bool `mapstructure:"graph"`
	Compress bool `mapstructure:"compress"`

	// sweep worker pool size
	Workers int `mapstructure:"workers"`

	Grid param.Grid `mapstructure:"grid"`
}

// RunDir is <out_dir>/<run><chain>.
func (c CfgInfo) RunDir() string {
	return filepath.Join(c.OutDir, c.Run+c.Chain)
}

func setDefaults(v *viper.Viper) {
	g := param.DefaultGrid()
	v.SetDefault("out_dir", DefaultOutDir)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("grid.kmer_size", g.KmerSize)
	v.SetDefault("grid.min_overlap", g.MinOverlap)
	v.SetDefault("grid.size_threshold", g.SizeThreshold)
	v.SetDefault("grid.max_mismatches", g.MaxMismatches)
	v.SetDefault("grid.min_identity", g.MinIdentity)
	v.SetDefault("grid.conf", g.Conf)
}

// Default is the configuration used when no file is given.
func Default() CfgInfo {
	v := viper.New()
	setDefaults(v)
	var cfg CfgInfo
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("[Default] defaults do not decode: %v", err))
	}
	return cfg
}

// ParseCfg reads fn (yaml, toml or json by extension). Keys that are not
// set keep the values of Default.
func ParseCfg(fn string) (cfg CfgInfo, err error) {
	if _, err = os.Stat(fn); err != nil {
		return cfg, fmt.Errorf("[ParseCfg] %w", err)
	}
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(fn)
	if err = v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("[ParseCfg] read %s: %w", fn, err)
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("[ParseCfg] decode %s: %w", fn, err)
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("[ParseCfg] %s: workers %d must be >= 1", fn, cfg.Workers)
	}
	if cfg.Grid.Size() == 0 {
		return cfg, fmt.Errorf("[ParseCfg] %s: grid has an empty dimension", fn)
	}
	return cfg, nil
}

// DefaultCfgFn is the config file looked up when -C is not given.
const DefaultCfgFn = "pga.yaml"

// Load reads opt.CfgFn and applies the global command line overrides. A
// missing DefaultCfgFn is not an error; Default is used instead.
func Load(opt utils.ArgsOpt) (cfg CfgInfo, err error) {
	fn := opt.CfgFn
	if fn == "" {
		fn = DefaultCfgFn
	}
	cfg, err = ParseCfg(fn)
	if err != nil {
		if fn != DefaultCfgFn || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
		cfg = Default()
	}
	if opt.Prefix != "" {
		cfg.OutDir = opt.Prefix
	}
	if opt.NumCPU > 0 {
		cfg.Workers = opt.NumCPU
	}
	return cfg, nil
}
