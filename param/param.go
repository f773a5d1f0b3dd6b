// Package param holds the scalar parameter tuple that is owned by one
// pipeline run, and the grid that expands into many such tuples for a sweep.
package param

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
)

// AssMethod is the only assembly method pga implements.
const AssMethod = "dbg"

var ErrInvalidParam = errors.New("invalid parameter")

// Params is threaded explicitly into every stage of a run. The json tags
// and field order are the provenance block of the statistics report.
type Params struct {
	AssMethod     string  `json:"ass_method" mapstructure:"ass_method"`
	Conf          float64 `json:"conf" mapstructure:"conf"`
	KmerSize      int     `json:"kmer_size" mapstructure:"kmer_size"`
	MinOverlap    int     `json:"min_overlap" mapstructure:"min_overlap"`
	MinIdentity   float64 `json:"min_identity" mapstructure:"min_identity"`
	MaxMismatches int     `json:"max_mismatches" mapstructure:"max_mismatches"`
	SizeThreshold int     `json:"size_threshold" mapstructure:"size_threshold"`
}

// Validate rejects out-of-range values before any computation starts.
func (p Params) Validate() error {
	switch {
	case p.KmerSize <= 0:
		return fmt.Errorf("%w: kmer_size %d must be > 0", ErrInvalidParam, p.KmerSize)
	case p.MinOverlap <= 0:
		return fmt.Errorf("%w: min_overlap %d must be > 0", ErrInvalidParam, p.MinOverlap)
	case p.MaxMismatches < 0:
		return fmt.Errorf("%w: max_mismatches %d must be >= 0", ErrInvalidParam, p.MaxMismatches)
	case !(p.MinIdentity >= 0 && p.MinIdentity <= 1):
		return fmt.Errorf("%w: min_identity %v must be in [0,1]", ErrInvalidParam, p.MinIdentity)
	case p.SizeThreshold < 0:
		return fmt.Errorf("%w: size_threshold %d must be >= 0", ErrInvalidParam, p.SizeThreshold)
	case !(p.Conf >= 0 && p.Conf <= 1):
		return fmt.Errorf("%w: conf %v must be in [0,1]", ErrInvalidParam, p.Conf)
	}
	return nil
}

// String renders the tuple the way sweep log lines show it.
func (p Params) String() string {
	return fmt.Sprintf("{'kmer_size': %d, 'min_overlap': %d, 'size_threshold': %d, 'max_mismatches': %d, 'min_identity': %s, 'conf': %s}",
		p.KmerSize, p.MinOverlap, p.SizeThreshold, p.MaxMismatches, FormatFloat(p.MinIdentity), FormatFloat(p.Conf))
}

// DirName is the per-run output directory name. Distinct tuples never share
// a directory, which is what lets concurrent runs skip any locking.
func (p Params) DirName() string {
	method := p.AssMethod
	if method == "" {
		method = AssMethod
	}
	return fmt.Sprintf("comb_%s_c%s_ks%d_ts%d_mo%d_mi%s_mm%d", method, FormatFloat(p.Conf),
		p.KmerSize, p.SizeThreshold, p.MinOverlap, FormatFloat(p.MinIdentity), p.MaxMismatches)
}

// RunID is a stable fingerprint of the tuple.
func (p Params) RunID() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(p.DirName()))
}

// FormatFloat prints the shortest representation, always keeping a decimal
// point for integral values (1 -> "1.0").
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Grid lists the values tried for every parameter of a sweep.
type Grid struct {
	KmerSize      []int     `mapstructure:"kmer_size"`
	MinOverlap    []int     `mapstructure:"min_overlap"`
	SizeThreshold []int     `mapstructure:"size_threshold"`
	MaxMismatches []int     `mapstructure:"max_mismatches"`
	MinIdentity   []float64 `mapstructure:"min_identity"`
	Conf          []float64 `mapstructure:"conf"`
}

func DefaultGrid() Grid {
	return Grid{
		KmerSize:      []int{6, 7},
		MinOverlap:    []int{3, 4},
		SizeThreshold: []int{0, 5, 10},
		MaxMismatches: []int{8, 10, 12, 14},
		MinIdentity:   []float64{0.6, 0.7, 0.8, 0.9},
		Conf:          []float64{0.86, 0.88, 0.90, 0.92},
	}
}

// Size is the number of combinations the grid expands to.
func (g Grid) Size() int {
	return len(g.KmerSize) * len(g.MinOverlap) * len(g.SizeThreshold) *
		len(g.MaxMismatches) * len(g.MinIdentity) * len(g.Conf)
}

// Combinations returns the cartesian product in lexicographic order over
// kmer_size, min_overlap, size_threshold, max_mismatches, min_identity, conf:
// the last dimension varies fastest.
func (g Grid) Combinations() []Params {
	combs := make([]Params, 0, g.Size())
	for _, ks := range g.KmerSize {
		for _, mo := range g.MinOverlap {
			for _, ts := range g.SizeThreshold {
				for _, mm := range g.MaxMismatches {
					for _, mi := range g.MinIdentity {
						for _, c := range g.Conf {
							combs = append(combs, Params{
								AssMethod:     AssMethod,
								Conf:          c,
								KmerSize:      ks,
								MinOverlap:    mo,
								MinIdentity:   mi,
								MaxMismatches: mm,
								SizeThreshold: ts,
							})
						}
					}
				}
			}
		}
	}
	return combs
}
