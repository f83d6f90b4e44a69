// Package render converts rendered graphs between output formats.
//
// The [nodelink] subpackage draws construction graphs as Graphviz node-link
// diagrams and produces SVG in-process. [ToPDF] and [ToPNG] convert that SVG
// with the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// # Formats
//
// [ParseFormat] maps user-facing names ("dot", "svg", "pdf", "png") to
// [Format] values.
//
// [nodelink]: github.com/matzehuels/antpack/pkg/render/nodelink
package render
