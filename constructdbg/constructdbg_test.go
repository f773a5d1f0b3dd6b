package constructdbg

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"pga/kmer"
)

func mustDBG(t *testing.T, reads []string, k int) *DBG {
	t.Helper()
	kmers, err := kmer.GetKmers(reads, k)
	if err != nil {
		t.Fatal(err)
	}
	g, err := ConstructDBG(kmers, k)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestConstructDBG(t *testing.T) {
	g := mustDBG(t, []string{"ABCDE", "CDEFG"}, 3)

	var nodes []string
	for _, nd := range g.NodesArr {
		nodes = append(nodes, nd.Seq)
	}
	if want := []string{"AB", "BC", "CD", "DE", "EF", "FG"}; !reflect.DeepEqual(nodes, want) {
		t.Errorf("nodes = %v, want %v", nodes, want)
	}
	if len(g.EdgesArr) != 5 {
		t.Fatalf("len(EdgesArr) = %d, want 5", len(g.EdgesArr))
	}
	e, ok := g.GetEdge("CDE")
	if !ok || e.Freq != 2 {
		t.Errorf("edge CDE = %v, want Freq 2", e)
	}
	for _, e := range g.EdgesArr {
		if g.NodesArr[e.StartNID].Seq != e.Ks[:2] || g.NodesArr[e.EndNID].Seq != e.Ks[1:] {
			t.Errorf("edge %v does not join its prefix and suffix nodes", e.String())
		}
	}
}

func TestConstructDBGRejects(t *testing.T) {
	if _, err := ConstructDBG([]string{"ABC"}, 0); !errors.Is(err, kmer.ErrKmerSize) {
		t.Errorf("ConstructDBG(k=0) error = %v, want ErrKmerSize", err)
	}
	if _, err := ConstructDBG([]string{"ABC", "AB"}, 3); !errors.Is(err, ErrKmerLen) {
		t.Errorf("ConstructDBG(mixed lengths) error = %v, want ErrKmerLen", err)
	}
}

func TestSelfLoopDegree(t *testing.T) {
	// AAA joins AA to itself
	g := mustDBG(t, []string{"AAAB"}, 3)
	nd, ok := g.GetNode("AA")
	if !ok {
		t.Fatal("node AA missing")
	}
	if len(nd.EdgeIDIncoming) != 1 || len(nd.EdgeIDOutcoming) != 2 {
		t.Errorf("AA in/out = %d/%d, want 1/2", len(nd.EdgeIDIncoming), len(nd.EdgeIDOutcoming))
	}
	if nd.IsLinear() {
		t.Errorf("AA should be a branch point")
	}
}

func TestAssembleContigs(t *testing.T) {
	type args struct {
		reads []string
		k     int
	}
	tests := []struct {
		name string
		args args
		want []string
	}{
		{
			"two overlapping reads",
			args{[]string{"ABCDE", "CDEFG"}, 3},
			[]string{"ABCDEFG"},
		},
		{
			"single read is recovered",
			args{[]string{"MKWVTFISLL"}, 4},
			[]string{"MKWVTFISLL"},
		},
		{
			"branch point stops extension",
			args{[]string{"ABCDE", "ABCXY"}, 3},
			[]string{"ABC", "BCDE", "BCXY"},
		},
		{
			"isolated cycle",
			args{[]string{"ABCAB"}, 3},
			[]string{"ABCAB"},
		},
		{
			"duplicate reads",
			args{[]string{"PEPTIDE", "PEPTIDE"}, 4},
			[]string{"PEPTIDE"},
		},
		{
			"no kmers",
			args{[]string{"AB"}, 3},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustDBG(t, tt.args.reads, tt.args.k)
			if got := AssembleContigs(g, StopAtBranch{}); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AssembleContigs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssembleContigsIsRepeatable(t *testing.T) {
	g := mustDBG(t, []string{"ABCDE", "ABCXY", "KLMNK"}, 3)
	first := AssembleContigs(g, nil)
	second := AssembleContigs(g, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second walk = %v, first = %v", second, first)
	}
}

// firstOut always takes the first outgoing edge at a branch point.
type firstOut struct{}

func (firstOut) Next(g *DBG, nd *DBGNode) (uint32, bool) {
	if len(nd.EdgeIDOutcoming) == 0 {
		return 0, false
	}
	return nd.EdgeIDOutcoming[0], true
}

func TestBranchPolicy(t *testing.T) {
	g := mustDBG(t, []string{"ABCDE", "ABCXY"}, 3)
	got := AssembleContigs(g, firstOut{})
	want := []string{"ABCDE", "BCXY"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AssembleContigs(firstOut) = %v, want %v", got, want)
	}
}

func TestContigsFromReads(t *testing.T) {
	reads := []string{"ABCDE", "ABCXY", "KLMNOPQ"}
	for _, k := range []int{2, 3, 4} {
		contigs, _, err := ContigsFromReads(reads, k, 0)
		if err != nil {
			t.Fatal(err)
		}
		for i, c := range contigs {
			if len(c) < k {
				t.Errorf("k=%d contig %q shorter than k", k, c)
			}
			if i > 0 && len(contigs[i-1]) < len(c) {
				t.Errorf("k=%d contigs not sorted by length: %v", k, contigs)
			}
		}
	}
	contigs, _, err := ContigsFromReads(reads, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"KLMNOPQ"}; !reflect.DeepEqual(contigs, want) {
		t.Errorf("ContigsFromReads(threshold 4) = %v, want %v", contigs, want)
	}
}

func TestGraphvizDBG(t *testing.T) {
	g := mustDBG(t, []string{"ABCDE", "CDEFG"}, 3)
	var buf bytes.Buffer
	if err := GraphvizDBG(g, &buf); err != nil {
		t.Fatal(err)
	}
	dot := buf.String()
	for _, want := range []string{"digraph", `"CDE x2"`, `"AB"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %s:\n%s", want, dot)
		}
	}
}
