// Package nodelink renders construction graphs as node-link diagrams.
//
// # Overview
//
// Each row of the construction graph becomes one rank: the start node on
// top, one rank per item with a box per bin, and the end node at the bottom.
// A highlighted path (usually the best path of a run) is drawn in bold so
// the chosen assignment can be read off the picture.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Highlight: res.Path, Items: items})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Size
//
// A graph of n items and b bins has (n-1)*b*b + 2*b edges. Diagrams stay
// readable up to a few hundred edges; for larger problems, set
// Options.PathOnly to keep every node but draw only the highlighted edges.
//
// # Dependencies
//
// SVG is produced in-process by [github.com/goccy/go-graphviz]. PDF and PNG
// conversion requires librsvg (rsvg-convert).
package nodelink
