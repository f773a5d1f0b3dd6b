package utils

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sort"

	"github.com/jwaldrip/odin/cli"
)

type ArgsOpt struct {
	Prefix     string
	NumCPU     int
	CfgFn      string
	Cpuprofile string
}

// return global arguments and check if successed. An empty 'p' or a zero
// 't' leaves the value of the config file in place.
func CheckGlobalArgs(c cli.Command) (opt ArgsOpt, succ bool) {
	opt.Prefix = c.Flag("p").String()
	opt.CfgFn = c.Flag("C").String()
	opt.Cpuprofile = c.Flag("cpuprofile").String()

	var ok bool
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 't': %v set error\n", c.Flag("t").String())
	}
	if opt.NumCPU < 0 {
		log.Fatalf("[CheckGlobalArgs] args 't': %d must be >= 0\n", opt.NumCPU)
	}
	return opt, true
}

// StartCPUProfile starts profiling into fn when fn is set. The returned
// function stops it and is always safe to call.
func StartCPUProfile(fn string) (stop func(), err error) {
	if fn == "" {
		return func() {}, nil
	}
	fp, err := os.Create(fn)
	if err != nil {
		return nil, fmt.Errorf("[StartCPUProfile] create %s: %w", fn, err)
	}
	if err := pprof.StartCPUProfile(fp); err != nil {
		fp.Close()
		return nil, fmt.Errorf("[StartCPUProfile] %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		fp.Close()
	}, nil
}

// DedupSeqs collapses identical sequences, keeping the first occurrence.
func DedupSeqs(seqs []string) []string {
	seen := make(map[string]struct{}, len(seqs))
	uniq := make([]string, 0, len(seqs))
	for _, s := range seqs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}
	return uniq
}

// FilterSeqsByLen keeps sequences strictly longer than minLen.
func FilterSeqsByLen(seqs []string, minLen int) []string {
	kept := make([]string, 0, len(seqs))
	for _, s := range seqs {
		if len(s) > minLen {
			kept = append(kept, s)
		}
	}
	return kept
}

// SortSeqsByLen orders by descending length; equal lengths keep input order.
func SortSeqsByLen(seqs []string) {
	sort.SliceStable(seqs, func(i, j int) bool {
		return len(seqs[i]) > len(seqs[j])
	})
}

// RefineSeqs is the post-processing shared by contigs and scaffolds:
// dedup, then size filter, then descending length order.
func RefineSeqs(seqs []string, sizeThreshold int) []string {
	refined := FilterSeqsByLen(DedupSeqs(seqs), sizeThreshold)
	SortSeqsByLen(refined)
	return refined
}
