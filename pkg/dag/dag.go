package dag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperr "github.com/matzehuels/antpack/pkg/errors"
)

var (
	// ErrNonConsecutiveRows is returned by [Graph.Validate] when an edge
	// connects nodes that are not in adjacent rows (From.Row+1 != To.Row).
	ErrNonConsecutiveRows = errors.New("edges must connect consecutive rows")

	// ErrDegreeMismatch is returned by [Graph.Validate] when a node's out-degree
	// differs from the layering contract (bins for start and interior layers,
	// 1 for the last item layer, 0 for end).
	ErrDegreeMismatch = errors.New("node out-degree does not match layering")

	// ErrEdgeIndex is returned by [Graph.Validate] when edge identifiers are not
	// dense and contiguous per source node.
	ErrEdgeIndex = errors.New("edge identifiers are not dense")

	// ErrUnknownLabel is wrapped by [Graph.Parse] when a label does not name a
	// node of the graph.
	ErrUnknownLabel = errors.New("unknown node label")
)

// NodeID addresses a node in a [Graph]'s arena.
//
// The encoding is fixed: [Start] is 0, the node for item i placed in bin b is
// 1+i*bins+b, and the end node is items*bins+1. Decoding only needs the bin
// count, see [Locate].
type NodeID int

// EdgeID is a dense edge index in [0, Graph.EdgeCount()). Edges leaving the
// same node have consecutive identifiers, in the same order as the node's
// children.
type EdgeID int

// Start is the unique start node of every construction graph.
const Start NodeID = 0

// NodeKind distinguishes the sentinel nodes from item-at-bin nodes.
type NodeKind int

const (
	// NodeKindStart is the unique source node (row 0).
	NodeKindStart NodeKind = iota
	// NodeKindItem is an item-at-bin decision node.
	NodeKindItem
	// NodeKindEnd is the unique sink node (last row).
	NodeKindEnd
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindStart:
		return "start"
	case NodeKindItem:
		return "item"
	case NodeKindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Node is a decoded view of a NodeID. Item and Bin are -1 for the sentinels.
type Node struct {
	ID   NodeID
	Kind NodeKind
	Row  int // 0 for start, i+1 for item i, items+1 for end
	Item int
	Bin  int
}

// Edge is a directed edge between nodes in consecutive rows.
type Edge struct {
	ID   EdgeID
	From NodeID
	To   NodeID
}

// Path is an ordered node sequence from [Start] to the end node with exactly
// one node per item row in between.
type Path []NodeID

// Graph is the layered construction graph of a bin-assignment problem with a
// fixed number of items and bins. Row 0 holds the start node, row i+1 holds
// the bins choices for item i, and the final row holds the end node.
// Adjacent rows are fully connected.
//
// The graph stores no adjacency lists: children and edge identifiers are
// computed from the arena encoding, so it is immutable and safe to share
// between goroutines once built.
type Graph struct {
	items int
	bins  int
}

// Build creates the construction graph for itemCount items and binCount bins.
// Both must be at least 1; otherwise an INVALID_INPUT error is returned and no
// graph is built.
func Build(itemCount, binCount int) (*Graph, error) {
	if itemCount < 1 {
		return nil, apperr.InvalidInput("item count must be >= 1, got %d", itemCount)
	}
	if binCount < 1 {
		return nil, apperr.InvalidInput("bin count must be >= 1, got %d", binCount)
	}
	return &Graph{items: itemCount, bins: binCount}, nil
}

// Items returns the number of item rows.
func (g *Graph) Items() int { return g.items }

// Bins returns the number of bins, which is also the fan-out of every
// non-final row.
func (g *Graph) Bins() int { return g.bins }

// NodeCount returns items*bins + 2.
func (g *Graph) NodeCount() int { return g.items*g.bins + 2 }

// EdgeCount returns the number of edges: bins from start, bins² between each
// pair of adjacent item rows, and bins into end.
func (g *Graph) EdgeCount() int { return 2*g.bins + (g.items-1)*g.bins*g.bins }

// RowCount returns items + 2.
func (g *Graph) RowCount() int { return g.items + 2 }

// PathLen returns the number of nodes in every complete path.
func (g *Graph) PathLen() int { return g.items + 2 }

// Start returns the start node.
func (g *Graph) Start() NodeID { return Start }

// End returns the end node.
func (g *Graph) End() NodeID { return EndFor(g.items, g.bins) }

// EndFor returns the end node of a graph with the given dimensions without
// building it.
func EndFor(items, bins int) NodeID { return NodeID(items*bins + 1) }

// ItemNode returns the node for placing item in bin. It panics on
// out-of-range arguments, which always indicate a programming error.
func (g *Graph) ItemNode(item, bin int) NodeID {
	if item < 0 || item >= g.items || bin < 0 || bin >= g.bins {
		panic(fmt.Sprintf("dag: item node (%d, %d) out of range for %dx%d graph", item, bin, g.items, g.bins))
	}
	return NodeID(1 + item*g.bins + bin)
}

// Locate decodes an interior node into its item and bin indexes for a graph
// with the given bin count. ok is false for [Start] and negative IDs; the end
// node decodes to item == items, which callers must reject themselves.
func Locate(id NodeID, bins int) (item, bin int, ok bool) {
	if id < 1 || bins < 1 {
		return -1, -1, false
	}
	k := int(id) - 1
	return k / bins, k % bins, true
}

// Contains reports whether id addresses a node of g.
func (g *Graph) Contains(id NodeID) bool {
	return id >= 0 && int(id) < g.NodeCount()
}

// Node decodes id. It returns false if id is not a node of g.
func (g *Graph) Node(id NodeID) (Node, bool) {
	switch {
	case !g.Contains(id):
		return Node{}, false
	case id == Start:
		return Node{ID: id, Kind: NodeKindStart, Row: 0, Item: -1, Bin: -1}, true
	case id == g.End():
		return Node{ID: id, Kind: NodeKindEnd, Row: g.items + 1, Item: -1, Bin: -1}, true
	}
	item, bin, _ := Locate(id, g.bins)
	return Node{ID: id, Kind: NodeKindItem, Row: item + 1, Item: item, Bin: bin}, true
}

// Children returns the children of id as a contiguous range
// [first, first+n). n is 0 for the end node and for unknown IDs.
// Children are always in ascending NodeID order, i.e. ascending bin order.
func (g *Graph) Children(id NodeID) (first NodeID, n int) {
	switch {
	case !g.Contains(id) || id == g.End():
		return 0, 0
	case id == Start:
		return 1, g.bins
	}
	item, _, _ := Locate(id, g.bins)
	if item == g.items-1 {
		return g.End(), 1
	}
	return NodeID(1 + (item+1)*g.bins), g.bins
}

// OutEdges returns the edges leaving id as a contiguous identifier range
// [first, first+n), aligned with [Graph.Children]: the k-th edge leads to the
// k-th child.
func (g *Graph) OutEdges(id NodeID) (first EdgeID, n int) {
	switch {
	case !g.Contains(id) || id == g.End():
		return 0, 0
	case id == Start:
		return 0, g.bins
	}
	item, bin, _ := Locate(id, g.bins)
	base := g.bins + item*g.bins*g.bins
	if item == g.items-1 {
		return EdgeID(base + bin), 1
	}
	return EdgeID(base + bin*g.bins), g.bins
}

// OutDegree returns the number of children of id.
func (g *Graph) OutDegree(id NodeID) int {
	_, n := g.Children(id)
	return n
}

// EdgeID returns the identifier of the edge from→to, or false if g has no
// such edge.
func (g *Graph) EdgeID(from, to NodeID) (EdgeID, bool) {
	first, n := g.Children(from)
	if n == 0 || to < first || to >= first+NodeID(n) {
		return 0, false
	}
	e, _ := g.OutEdges(from)
	return e + EdgeID(to-first), true
}

// Edges returns every edge in identifier order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for id := NodeID(0); int(id) < g.NodeCount(); id++ {
		child, n := g.Children(id)
		e, _ := g.OutEdges(id)
		for k := range n {
			edges = append(edges, Edge{ID: e + EdgeID(k), From: id, To: child + NodeID(k)})
		}
	}
	return edges
}

// Validate checks the layering contract and returns nil if it holds:
//
//  1. Every edge connects consecutive rows, which also makes the graph acyclic
//  2. Start and interior rows fan out to bins nodes, the last item row to 1,
//     and end to none
//  3. Edge identifiers are dense, start at 0 and are contiguous per node
//
// Build always produces a valid graph; Validate exists for tests and for
// graphs decoded from external data.
func (g *Graph) Validate() error {
	next := EdgeID(0)
	for id := NodeID(0); int(id) < g.NodeCount(); id++ {
		src, _ := g.Node(id)
		child, n := g.Children(id)
		e, en := g.OutEdges(id)

		want := g.bins
		switch {
		case src.Kind == NodeKindEnd:
			want = 0
		case src.Kind == NodeKindItem && src.Item == g.items-1:
			want = 1
		}
		if n != want || en != n {
			return fmt.Errorf("%w: %s has %d children, want %d", ErrDegreeMismatch, g.Label(id), n, want)
		}
		if n > 0 && e != next {
			return fmt.Errorf("%w: %s starts at edge %d, want %d", ErrEdgeIndex, g.Label(id), e, next)
		}
		next += EdgeID(en)

		for k := range n {
			dst, ok := g.Node(child + NodeID(k))
			if !ok || dst.Row != src.Row+1 {
				return ErrNonConsecutiveRows
			}
		}
	}
	if int(next) != g.EdgeCount() {
		return fmt.Errorf("%w: %d edges enumerated, want %d", ErrEdgeIndex, next, g.EdgeCount())
	}
	return nil
}

// ValidatePath checks that p starts at start, ends at end, has one node per
// row, and that consecutive nodes are joined by edges. Violations are
// INVALID_INPUT errors naming the first offending position.
func (g *Graph) ValidatePath(p Path) error {
	if len(p) == 0 {
		return apperr.InvalidInput("path is empty")
	}
	if len(p) != g.PathLen() {
		return apperr.InvalidInput("path has %d nodes, want %d", len(p), g.PathLen())
	}
	if p[0] != Start {
		return apperr.InvalidInput("path must begin at the start node, got %s", g.Label(p[0]))
	}
	if p[len(p)-1] != g.End() {
		return apperr.InvalidInput("path must finish at the end node, got %s", g.Label(p[len(p)-1]))
	}
	for i := 1; i < len(p); i++ {
		if _, ok := g.EdgeID(p[i-1], p[i]); !ok {
			return apperr.InvalidInput("path position %d: no edge %s -> %s", i, g.Label(p[i-1]), g.Label(p[i]))
		}
	}
	return nil
}

// PathEdges returns the edge identifiers along p. p must be valid.
func (g *Graph) PathEdges(p Path) []EdgeID {
	ids := make([]EdgeID, 0, len(p))
	for i := 1; i < len(p); i++ {
		e, ok := g.EdgeID(p[i-1], p[i])
		if !ok {
			panic(fmt.Sprintf("dag: path position %d is not an edge", i))
		}
		ids = append(ids, e)
	}
	return ids
}

// Label returns the textual node name: "s" for start, "e" for end and
// "i<item>b<bin>" for item nodes. Unknown IDs render as "?<id>".
func (g *Graph) Label(id NodeID) string {
	n, ok := g.Node(id)
	if !ok {
		return "?" + strconv.Itoa(int(id))
	}
	switch n.Kind {
	case NodeKindStart:
		return "s"
	case NodeKindEnd:
		return "e"
	default:
		return "i" + strconv.Itoa(n.Item) + "b" + strconv.Itoa(n.Bin)
	}
}

// Labels returns the label of every node in p.
func (g *Graph) Labels(p Path) []string {
	out := make([]string, len(p))
	for i, id := range p {
		out[i] = g.Label(id)
	}
	return out
}

// Parse is the inverse of [Graph.Label].
func (g *Graph) Parse(label string) (NodeID, error) {
	switch label {
	case "s":
		return Start, nil
	case "e":
		return g.End(), nil
	}
	rest, ok := strings.CutPrefix(label, "i")
	if !ok {
		return 0, apperr.Wrap(apperr.ErrCodeInvalidInput, ErrUnknownLabel, "parse %q", label)
	}
	itemStr, binStr, ok := strings.Cut(rest, "b")
	if !ok {
		return 0, apperr.Wrap(apperr.ErrCodeInvalidInput, ErrUnknownLabel, "parse %q", label)
	}
	item, err1 := strconv.Atoi(itemStr)
	bin, err2 := strconv.Atoi(binStr)
	if err1 != nil || err2 != nil || item < 0 || item >= g.items || bin < 0 || bin >= g.bins {
		return 0, apperr.Wrap(apperr.ErrCodeInvalidInput, ErrUnknownLabel, "parse %q", label)
	}
	return g.ItemNode(item, bin), nil
}

// ParsePath parses labels into a path and validates it.
func (g *Graph) ParsePath(labels []string) (Path, error) {
	p := make(Path, len(labels))
	for i, l := range labels {
		id, err := g.Parse(strings.TrimSpace(l))
		if err != nil {
			return nil, err
		}
		p[i] = id
	}
	if err := g.ValidatePath(p); err != nil {
		return nil, err
	}
	return p, nil
}

// PathFromBins builds the path that places item i into bins[i].
func (g *Graph) PathFromBins(assignment []int) (Path, error) {
	if len(assignment) != g.items {
		return nil, apperr.InvalidInput("assignment has %d entries, want %d", len(assignment), g.items)
	}
	p := make(Path, 0, g.PathLen())
	p = append(p, Start)
	for i, b := range assignment {
		if b < 0 || b >= g.bins {
			return nil, apperr.InvalidInput("item %d: bin %d out of range [0,%d)", i, b, g.bins)
		}
		p = append(p, g.ItemNode(i, b))
	}
	return append(p, g.End()), nil
}
