package stats

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pga/fastx"
	"pga/mapping"
	"pga/param"
)

func rec(start, end int, ident float64, mm ...int) mapping.AlignmentRecord {
	if mm == nil {
		mm = []int{}
	}
	return mapping.AlignmentRecord{Start: start, End: end, IdentityScore: ident, MismatchPositions: mm}
}

func intp(v int) *int { return &v }

func TestNX(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
		frac    float64
		want    *int
	}{
		{"N50 of 10,5", []int{5, 10}, 0.5, intp(10)},
		{"N90 of 10,5", []int{10, 5}, 0.9, intp(5)},
		{"single", []int{7}, 0.9, intp(7)},
		{"equal lengths", []int{4, 4, 4, 4}, 0.5, intp(4)},
		{"empty", nil, 0.5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NX(tt.lengths, tt.frac); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NX() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		x    []float64
		want float64
	}{
		{[]float64{0.9, 0.5, 1}, 0.9},
		{[]float64{1, 0.5}, 0.75},
		{[]float64{0.8}, 0.8},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := Median(tt.x); got != tt.want {
			t.Errorf("Median(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestComputeAssemblyStatistics(t *testing.T) {
	p := param.Params{AssMethod: param.AssMethod, Conf: 0.9, KmerSize: 3, MinOverlap: 2, MinIdentity: 0.8, MaxMismatches: 1}
	reference := "ABCDEFGHIJKLMNOPQRST"
	recs := []mapping.AlignmentRecord{
		rec(0, 9, 0.9, 3),
		rec(10, 14, 1),
		rec(5, 9, 0.8, 3),
	}
	st := ComputeAssemblyStatistics(recs, reference, p)

	if st.Params != p {
		t.Errorf("Params = %+v, want %+v", st.Params, p)
	}
	if st.ReferenceStart != 0 || st.ReferenceEnd != 21 {
		t.Errorf("reference bounds = [%d, %d]", st.ReferenceStart, st.ReferenceEnd)
	}
	if st.TotalSequences != 3 {
		t.Errorf("TotalSequences = %d", st.TotalSequences)
	}
	// positions -1..13, union of [-1,9), [9,14), [4,9)
	if want := 15.0 / 21.0; st.Coverage != want {
		t.Errorf("Coverage = %v, want %v", st.Coverage, want)
	}
	if *st.MinLength != 5 || *st.MaxLength != 10 {
		t.Errorf("length range = [%d, %d]", *st.MinLength, *st.MaxLength)
	}
	if want := 20.0 / 3.0; *st.AverageLength != want {
		t.Errorf("AverageLength = %v, want %v", *st.AverageLength, want)
	}
	if *st.MedianIdentity != 0.9 {
		t.Errorf("MedianIdentity = %v", *st.MedianIdentity)
	}
	if st.PerfectMatches != 1 || st.PerfectMatches > st.TotalSequences {
		t.Errorf("PerfectMatches = %d", st.PerfectMatches)
	}
	if st.TotalMismatches != 1 {
		t.Errorf("TotalMismatches = %d, want distinct positions only", st.TotalMismatches)
	}
	if *st.N50 != 10 || *st.N90 != 5 || *st.N50 < *st.N90 {
		t.Errorf("N50/N90 = %d/%d", *st.N50, *st.N90)
	}
}

func TestComputeAssemblyStatisticsEmpty(t *testing.T) {
	st := ComputeAssemblyStatistics(nil, "ABCDEFGH", param.Params{KmerSize: 3})
	if st.TotalSequences != 0 || st.Coverage != 0 || st.PerfectMatches != 0 || st.TotalMismatches != 0 {
		t.Errorf("unexpected aggregates: %+v", st)
	}
	if st.AverageLength != nil || st.MinLength != nil || st.MaxLength != nil ||
		st.MeanIdentity != nil || st.MedianIdentity != nil || st.N50 != nil || st.N90 != nil {
		t.Errorf("expected null aggregates: %+v", st)
	}
	if st.AssMethod != param.AssMethod {
		t.Errorf("AssMethod = %q", st.AssMethod)
	}

	var buf bytes.Buffer
	if err := st.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"N50": null`, `"average_length": null`, `"reference_end": 9`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("JSON missing %s:\n%s", want, buf.String())
		}
	}
}

func TestEncodeFieldOrder(t *testing.T) {
	st := ComputeAssemblyStatistics([]mapping.AlignmentRecord{rec(0, 4, 1)}, "ABCDE", param.Params{KmerSize: 3})
	var buf bytes.Buffer
	if err := st.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "{\n    \"ass_method\": \"dbg\",\n    \"conf\": 0,") {
		t.Errorf("report does not start with the run parameters:\n%s", out)
	}
	keys := []string{"size_threshold", "reference_start", "total_sequences", "coverage", "N50", "N90"}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, `"`+k+`"`)
		if i <= last {
			t.Errorf("key %s out of order:\n%s", k, out)
		}
		last = i
	}
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 20 {
		t.Errorf("report has %d keys, want 20", len(m))
	}
}

func TestWriteStatistics(t *testing.T) {
	st := ComputeAssemblyStatistics([]mapping.AlignmentRecord{rec(2, 6, 0.8, 4)}, "ABCDEFGH", param.Params{KmerSize: 4, MinIdentity: 0.8})
	for _, name := range []string{"contigs_stats.json", "contigs_stats.json.zst"} {
		fn := filepath.Join(t.TempDir(), name)
		if err := WriteStatistics(fn, st); err != nil {
			t.Fatal(err)
		}
		fp, err := fastx.Open(fn)
		if err != nil {
			t.Fatal(err)
		}
		var got AssemblyStatistics
		err = json.NewDecoder(fp).Decode(&got)
		fp.Close()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !reflect.DeepEqual(got, st) {
			t.Errorf("%s: read back %+v, want %+v", name, got, st)
		}
	}
}
