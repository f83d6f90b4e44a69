// Package io provides JSON import and export of solved results.
//
// # JSON Format
//
// A result document records the problem, the settings that produced the
// result and the best assignment found:
//
//	{
//	  "problem": {"name": "demo", "bins": 2, "items": [1, 2, 3, 4]},
//	  "config": {"batch_size": 100, "evaluation_budget": 10000,
//	             "evaporation_rate": 0.5, "seed": 42, "reseed": "batch"},
//	  "fitness_function": "spread",
//	  "fitness": 0,
//	  "path": ["s", "i0b0", "i1b1", "i2b1", "i3b0", "e"],
//	  "bins": [[1, 4], [2, 3]],
//	  "bin_weights": [5, 5],
//	  "evaluations": 10000,
//	  "batches": 100,
//	  "improvements": [{"evaluation": 1, "fitness": 4}, ...]
//	}
//
// Path labels use the construction-graph notation: "s" for the start node,
// "i<item>b<bin>" for placing an item in a bin, and "e" for the end node.
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode a document; [Document.Restore] rebuilds
// the problem and result and checks that the path, bins and weights agree.
//
// # Export
//
// [FromResult] builds a document, and [WriteJSON] or [ExportJSON] write it.
// The output contains no timestamps, so the same run always produces the
// same bytes.
package io
