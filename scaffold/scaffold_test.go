package scaffold

import (
	"errors"
	"reflect"
	"testing"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name       string
		a, b       string
		minOverlap int
		want       int
	}{
		{"simple", "ABCDEF", "DEFGHI", 3, 3},
		{"below minimum", "ABCDEF", "EFGHI", 3, 0},
		{"longest wins", "ABABAB", "ABABXX", 2, 4},
		{"contained suffix", "ABCDEF", "DEF", 2, 3},
		{"no overlap", "AAAA", "CCCC", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.a, tt.b, tt.minOverlap); got != tt.want {
				t.Errorf("Overlap(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCreateScaffolds(t *testing.T) {
	type args struct {
		contigs       []string
		minOverlap    int
		sizeThreshold int
	}
	tests := []struct {
		name string
		args args
		want []string
	}{
		{
			"transitive merge of three contigs",
			args{[]string{"ABCDEF", "DEFGHI", "GHIJKL"}, 3, 0},
			[]string{"ABCDEFGHIJKL"},
		},
		{
			"order in pool does not block chaining",
			args{[]string{"GHIJKL", "DEFGHI", "ABCDEF"}, 3, 0},
			[]string{"ABCDEFGHIJKL"},
		},
		{
			"longest overlap first",
			args{[]string{"XXABCD", "ABCDYY", "CDZZ"}, 2, 0},
			[]string{"XXABCDYY", "CDZZ"},
		},
		{
			"nothing to merge",
			args{[]string{"AAAA", "CCCCC"}, 2, 0},
			[]string{"CCCCC", "AAAA"},
		},
		{
			"size threshold applies after merging",
			args{[]string{"ABCD", "CDEF", "KLM"}, 2, 3},
			[]string{"ABCDEF"},
		},
		{
			"empty",
			args{nil, 3, 0},
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateScaffolds(tt.args.contigs, tt.args.minOverlap, tt.args.sizeThreshold)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CreateScaffolds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateScaffoldsIdempotent(t *testing.T) {
	contigs := []string{"MKWVTF", "VTFISL", "SLLLLF", "QQQQ", "ABQQQ", "LLFSSA", "RGVF"}
	first, err := CreateScaffolds(contigs, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := CreateScaffolds(first, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rerun = %v, first = %v", second, first)
	}
}

func TestCreateScaffoldsRejectsOverlap(t *testing.T) {
	for _, m := range []int{0, -1} {
		if _, err := CreateScaffolds([]string{"ABC"}, m, 0); !errors.Is(err, ErrMinOverlap) {
			t.Errorf("CreateScaffolds(minOverlap=%d) error = %v, want ErrMinOverlap", m, err)
		}
	}
}
