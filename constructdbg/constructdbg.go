// Package constructdbg builds the de Bruijn graph of a peptide k-mer pool and
// walks its unambiguous paths into contigs.
package constructdbg

import (
	"errors"
	"fmt"
	"strings"

	"pga/kmer"
	"pga/utils"
)

const (
	processFlag uint8 = 1
)

var ErrKmerLen = errors.New("kmer length mismatch")

// DBGNode is a (k-1)-gram. Edge ID slices hold distinct k-mer edges, so
// their lengths are the in- and out-degree.
type DBGNode struct {
	ID              uint32
	Seq             string
	EdgeIDIncoming  []uint32
	EdgeIDOutcoming []uint32
	Flag            uint8
}

func (n *DBGNode) String() string {
	return fmt.Sprintf("ID:%d Seq:%s EdgeIncoming:%v EdgeOutcoming:%v", n.ID, n.Seq, n.EdgeIDIncoming, n.EdgeIDOutcoming)
}

func (n *DBGNode) GetProcessFlag() uint8 {
	return n.Flag & processFlag
}

func (n *DBGNode) SetProcessFlag() {
	n.Flag |= processFlag
}

func (n *DBGNode) ResetProcessFlag() {
	n.Flag &^= processFlag
}

// IsLinear reports in-degree == out-degree == 1.
func (n *DBGNode) IsLinear() bool {
	return len(n.EdgeIDIncoming) == 1 && len(n.EdgeIDOutcoming) == 1
}

// DBGEdge is a distinct k-mer; Freq is its multiplicity in the pool.
type DBGEdge struct {
	ID       uint32
	StartNID uint32
	EndNID   uint32
	Ks       string
	Freq     int
	Flag     uint8
}

func (e *DBGEdge) String() string {
	return fmt.Sprintf("eID:%d StartNID:%d EndNID:%d Ks:%s Freq:%d", e.ID, e.StartNID, e.EndNID, e.Ks, e.Freq)
}

func (e *DBGEdge) GetProcessFlag() uint8 {
	return e.Flag & processFlag
}

func (e *DBGEdge) SetProcessFlag() {
	e.Flag |= processFlag
}

func (e *DBGEdge) ResetProcessFlag() {
	e.Flag &^= processFlag
}

// DBG keeps nodes and edges in first-seen order; IDs are slice indices.
type DBG struct {
	Kmerlen  int
	NodesArr []DBGNode
	EdgesArr []DBGEdge
	nodeMap  map[string]uint32
	edgeMap  map[string]uint32
}

func NewDBG(kmerlen int) *DBG {
	return &DBG{
		Kmerlen: kmerlen,
		nodeMap: make(map[string]uint32),
		edgeMap: make(map[string]uint32),
	}
}

// ConstructDBG inserts every k-mer of the pool in a single pass.
func ConstructDBG(kmers []string, kmerlen int) (*DBG, error) {
	if kmerlen <= 0 {
		return nil, fmt.Errorf("[ConstructDBG] %w, got %d", kmer.ErrKmerSize, kmerlen)
	}
	g := NewDBG(kmerlen)
	for _, ks := range kmers {
		if err := g.AddKmer(ks); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *DBG) getOrAddNode(seq string) uint32 {
	if id, ok := g.nodeMap[seq]; ok {
		return id
	}
	id := uint32(len(g.NodesArr))
	g.NodesArr = append(g.NodesArr, DBGNode{ID: id, Seq: seq})
	g.nodeMap[seq] = id
	return id
}

// AddKmer adds the edge prefix(ks) -> suffix(ks), or bumps its frequency.
func (g *DBG) AddKmer(ks string) error {
	if len(ks) != g.Kmerlen {
		return fmt.Errorf("[AddKmer] %w: %q has length %d, graph kmer length %d", ErrKmerLen, ks, len(ks), g.Kmerlen)
	}
	if eID, ok := g.edgeMap[ks]; ok {
		g.EdgesArr[eID].Freq++
		return nil
	}
	start := g.getOrAddNode(ks[:g.Kmerlen-1])
	end := g.getOrAddNode(ks[1:])
	eID := uint32(len(g.EdgesArr))
	g.EdgesArr = append(g.EdgesArr, DBGEdge{ID: eID, StartNID: start, EndNID: end, Ks: ks, Freq: 1})
	g.edgeMap[ks] = eID
	g.NodesArr[start].EdgeIDOutcoming = append(g.NodesArr[start].EdgeIDOutcoming, eID)
	g.NodesArr[end].EdgeIDIncoming = append(g.NodesArr[end].EdgeIDIncoming, eID)
	return nil
}

func (g *DBG) GetNode(seq string) (*DBGNode, bool) {
	id, ok := g.nodeMap[seq]
	if !ok {
		return nil, false
	}
	return &g.NodesArr[id], true
}

func (g *DBG) GetEdge(ks string) (*DBGEdge, bool) {
	id, ok := g.edgeMap[ks]
	if !ok {
		return nil, false
	}
	return &g.EdgesArr[id], true
}

// BranchPolicy decides how a walk proceeds once it reaches a node that is not
// linear. Returning ok == false ends the contig at that node.
type BranchPolicy interface {
	Next(g *DBG, nd *DBGNode) (eID uint32, ok bool)
}

// StopAtBranch leaves every ambiguity unresolved.
type StopAtBranch struct{}

func (StopAtBranch) Next(g *DBG, nd *DBGNode) (uint32, bool) {
	return 0, false
}

func (g *DBG) resetFlags() {
	for i := range g.NodesArr {
		g.NodesArr[i].ResetProcessFlag()
	}
	for i := range g.EdgesArr {
		g.EdgesArr[i].ResetProcessFlag()
	}
}

// walk renders the path that starts with edge eID: the start node's
// (k-1)-gram, then one residue per edge.
func (g *DBG) walk(eID uint32, policy BranchPolicy) string {
	e := &g.EdgesArr[eID]
	e.SetProcessFlag()
	var sb strings.Builder
	sb.WriteString(e.Ks)
	for {
		nd := &g.NodesArr[e.EndNID]
		if nd.GetProcessFlag() > 0 {
			break
		}
		var next uint32
		if nd.IsLinear() {
			next = nd.EdgeIDOutcoming[0]
		} else if id, ok := policy.Next(g, nd); ok {
			next = id
		} else {
			break
		}
		if g.EdgesArr[next].GetProcessFlag() > 0 {
			break
		}
		nd.SetProcessFlag()
		e = &g.EdgesArr[next]
		e.SetProcessFlag()
		sb.WriteByte(e.Ks[len(e.Ks)-1])
	}
	return sb.String()
}

// AssembleContigs emits one contig per maximal unambiguous path, then one
// per isolated cycle of linear nodes. Order follows node and edge insertion.
func AssembleContigs(g *DBG, policy BranchPolicy) []string {
	if policy == nil {
		policy = StopAtBranch{}
	}
	g.resetFlags()
	var contigs []string
	for i := range g.NodesArr {
		nd := &g.NodesArr[i]
		if nd.IsLinear() {
			continue
		}
		for _, eID := range nd.EdgeIDOutcoming {
			if g.EdgesArr[eID].GetProcessFlag() > 0 {
				continue
			}
			contigs = append(contigs, g.walk(eID, policy))
		}
	}
	for i := range g.NodesArr {
		nd := &g.NodesArr[i]
		if !nd.IsLinear() || nd.GetProcessFlag() > 0 {
			continue
		}
		nd.SetProcessFlag()
		contigs = append(contigs, g.walk(nd.EdgeIDOutcoming[0], policy))
	}
	return contigs
}

// ContigsFromReads runs k-mer extraction, graph construction and contig
// assembly, then dedups, filters by sizeThreshold and sorts by length.
func ContigsFromReads(reads []string, kmerlen, sizeThreshold int) ([]string, *DBG, error) {
	kmers, err := kmer.GetKmers(reads, kmerlen)
	if err != nil {
		return nil, nil, err
	}
	g, err := ConstructDBG(kmers, kmerlen)
	if err != nil {
		return nil, nil, err
	}
	contigs := AssembleContigs(g, StopAtBranch{})
	return utils.RefineSeqs(contigs, sizeThreshold), g, nil
}
