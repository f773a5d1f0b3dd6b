// Package stats aggregates mapped alignment records into the assembly
// quality report written for every contig and scaffold collection.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pga/fastx"
	"pga/mapping"
	"pga/param"
)

// AssemblyStatistics is a flat report. The run parameters come first; the
// pointer fields are null when there are no records.
type AssemblyStatistics struct {
	param.Params
	ReferenceStart  int      `json:"reference_start"`
	ReferenceEnd    int      `json:"reference_end"`
	TotalSequences  int      `json:"total_sequences"`
	AverageLength   *float64 `json:"average_length"`
	MinLength       *int     `json:"min_length"`
	MaxLength       *int     `json:"max_length"`
	Coverage        float64  `json:"coverage"`
	MeanIdentity    *float64 `json:"mean_identity"`
	MedianIdentity  *float64 `json:"median_identity"`
	PerfectMatches  int      `json:"perfect_matches"`
	TotalMismatches int      `json:"total_mismatches"`
	N50             *int     `json:"N50"`
	N90             *int     `json:"N90"`
}

// ComputeAssemblyStatistics builds the report for recs mapped on reference.
//
// ReferenceEnd is len(reference)+1 and serves as the coverage denominator;
// every record covers the 0-based positions [Start-1, End). Both follow the
// historical report format so older results stay comparable.
func ComputeAssemblyStatistics(recs []mapping.AlignmentRecord, reference string, p param.Params) AssemblyStatistics {
	st := AssemblyStatistics{Params: p}
	if st.AssMethod == "" {
		st.AssMethod = param.AssMethod
	}
	st.ReferenceStart = 0
	st.ReferenceEnd = len(reference) + 1
	st.TotalSequences = len(recs)

	covered := make(map[int]struct{})
	mismatched := make(map[int]struct{})
	lengths := make([]int, len(recs))
	flens := make([]float64, len(recs))
	idents := make([]float64, len(recs))
	for i, r := range recs {
		lengths[i] = r.Len()
		flens[i] = float64(r.Len())
		idents[i] = r.IdentityScore
		for pos := r.Start - 1; pos < r.End; pos++ {
			covered[pos] = struct{}{}
		}
		if r.Mismatches() == 0 {
			st.PerfectMatches++
		}
		for _, pos := range r.MismatchPositions {
			mismatched[pos] = struct{}{}
		}
	}
	st.Coverage = float64(len(covered)) / float64(st.ReferenceEnd)
	st.TotalMismatches = len(mismatched)

	if len(recs) == 0 {
		return st
	}
	avg := stat.Mean(flens, nil)
	minLen, maxLen := int(floats.Min(flens)), int(floats.Max(flens))
	meanID := stat.Mean(idents, nil)
	medianID := Median(idents)
	st.AverageLength = &avg
	st.MinLength = &minLen
	st.MaxLength = &maxLen
	st.MeanIdentity = &meanID
	st.MedianIdentity = &medianID
	st.N50 = NX(lengths, 0.5)
	st.N90 = NX(lengths, 0.9)
	return st
}

// Median of x, averaging the two middle values for even lengths. x is not
// modified. The median of no values is 0.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	s := make([]float64, n)
	copy(s, x)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// NX returns the length at which the cumulative sum of lengths, taken in
// descending order, first reaches frac of the total. It is nil for no
// lengths.
func NX(lengths []int, frac float64) *int {
	if len(lengths) == 0 {
		return nil
	}
	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	total := 0
	for _, l := range sorted {
		total += l
	}
	cum := 0
	for _, l := range sorted {
		cum += l
		if float64(cum) >= float64(total)*frac {
			v := l
			return &v
		}
	}
	return nil
}

// Encode writes st as JSON indented by four spaces.
func (st AssemblyStatistics) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(st)
}

// WriteStatistics stores st in fn. A .zst suffix compresses the file.
func WriteStatistics(fn string, st AssemblyStatistics) (err error) {
	fp, err := fastx.Create(fn)
	if err != nil {
		return fmt.Errorf("[WriteStatistics] %w", err)
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("[WriteStatistics] close %s: %w", fn, cerr)
		}
	}()
	if err = st.Encode(fp); err != nil {
		return fmt.Errorf("[WriteStatistics] encode %s: %w", fn, err)
	}
	return nil
}
