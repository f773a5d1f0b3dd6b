package constructdbg

import (
	"fmt"
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// GraphvizDBG writes g as a DOT digraph. Linear nodes are green, branch
// points red; edges carry their k-mer and multiplicity.
func GraphvizDBG(g *DBG, w io.Writer) error {
	gv := gographviz.NewGraph()
	if err := gv.SetName("G"); err != nil {
		return fmt.Errorf("[GraphvizDBG] %w", err)
	}
	if err := gv.SetDir(true); err != nil {
		return fmt.Errorf("[GraphvizDBG] %w", err)
	}
	if err := gv.SetStrict(false); err != nil {
		return fmt.Errorf("[GraphvizDBG] %w", err)
	}
	for i := range g.NodesArr {
		nd := &g.NodesArr[i]
		attr := make(map[string]string)
		attr["shape"] = "box"
		if nd.IsLinear() {
			attr["color"] = "Green"
		} else {
			attr["color"] = "Red"
		}
		attr["label"] = strconv.Quote(nd.Seq)
		if err := gv.AddNode("G", strconv.Itoa(int(nd.ID)), attr); err != nil {
			return fmt.Errorf("[GraphvizDBG] add node %d: %w", nd.ID, err)
		}
	}
	for i := range g.EdgesArr {
		e := &g.EdgesArr[i]
		attr := make(map[string]string)
		attr["color"] = "Blue"
		attr["label"] = strconv.Quote(e.Ks + " x" + strconv.Itoa(e.Freq))
		if err := gv.AddEdge(strconv.Itoa(int(e.StartNID)), strconv.Itoa(int(e.EndNID)), true, attr); err != nil {
			return fmt.Errorf("[GraphvizDBG] add edge %d: %w", e.ID, err)
		}
	}
	_, err := io.WriteString(w, gv.String())
	return err
}
