package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/antpack/pkg/dag"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Highlight is drawn in bold. It must be a path of the graph or nil.
	Highlight dag.Path

	// Items, when set, adds each item's weight to its node labels.
	Items []packing.Item

	// PathOnly omits edges that are not on Highlight.
	PathOnly bool
}

const (
	highlightFill = "gold"
	highlightEdge = "firebrick"
)

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *dag.Graph, opts Options) string {
	onPath := make(map[dag.NodeID]bool, len(opts.Highlight))
	for _, id := range opts.Highlight {
		onPath[id] = true
	}
	pathEdge := make(map[[2]dag.NodeID]bool, len(opts.Highlight))
	for i := 1; i < len(opts.Highlight); i++ {
		pathEdge[[2]dag.NodeID{opts.Highlight[i-1], opts.Highlight[i]}] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [color=grey60, arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	writeNode(&buf, g, dag.Start, opts, onPath)
	for item := range g.Items() {
		buf.WriteString("  { rank=same;")
		for bin := range g.Bins() {
			fmt.Fprintf(&buf, " %q;", g.Label(g.ItemNode(item, bin)))
		}
		buf.WriteString(" }\n")
		for bin := range g.Bins() {
			writeNode(&buf, g, g.ItemNode(item, bin), opts, onPath)
		}
	}
	writeNode(&buf, g, g.End(), opts, onPath)

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		highlighted := pathEdge[[2]dag.NodeID{e.From, e.To}]
		if opts.PathOnly && !highlighted {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q", g.Label(e.From), g.Label(e.To))
		if highlighted {
			fmt.Fprintf(&buf, " [color=%s, penwidth=3]", highlightEdge)
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, g *dag.Graph, id dag.NodeID, opts Options, onPath map[dag.NodeID]bool) {
	attrs := []string{fmt.Sprintf("label=%q", label(g, id, opts.Items))}
	if onPath[id] {
		attrs = append(attrs, "fillcolor="+highlightFill, "penwidth=2")
	}
	fmt.Fprintf(buf, "  %q [%s];\n", g.Label(id), strings.Join(attrs, ", "))
}

func label(g *dag.Graph, id dag.NodeID, items []packing.Item) string {
	n, _ := g.Node(id)
	switch n.Kind {
	case dag.NodeKindStart:
		return "start"
	case dag.NodeKindEnd:
		return "end"
	}
	l := fmt.Sprintf("item %d → bin %d", n.Item, n.Bin)
	if n.Item < len(items) {
		l += "\nw=" + strconv.Itoa(items[n.Item].Weight)
	}
	return l
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// viewBox-based one so the SVG scales with its container.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// Render produces the diagram in the requested format.
func Render(ctx context.Context, g *dag.Graph, opts Options, format render.Format) ([]byte, error) {
	dot := ToDOT(g, opts)
	if format == render.FormatDOT {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case render.FormatSVG:
		return svg, nil
	case render.FormatPDF:
		return render.ToPDF(ctx, svg)
	case render.FormatPNG:
		return render.ToPNG(ctx, svg, 2.0)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
