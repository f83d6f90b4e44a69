// Package pkg provides the libraries behind antpack, an ant colony optimizer
// for balanced bin packing.
//
// # Overview
//
// antpack assigns weighted items to a fixed number of bins so that bin
// weights are as even as possible. The search walks a layered construction
// graph: one row of nodes per item, one node per bin in each row. A path
// from start to end picks a bin for every item. Ants sample paths in
// proportion to the pheromone on each edge, good paths are reinforced and
// all pheromone evaporates between batches.
//
// The pkg directory is organized into these areas:
//
//  1. Engine: [dag], [packing], [pheromone], [aco] and [rng]
//  2. Problems and results: [problem] and [io]
//  3. Infrastructure: [cache], [metrics], [observability] and [errors]
//  4. Orchestration and output: [pipeline] and [render]
//
// # Architecture
//
//	problem file (TOML, YAML, JSON) or inline weights
//	         ↓
//	    [problem] package (decode, validate, generate items)
//	         ↓
//	    [dag] package (construction graph)
//	         ↓
//	    [aco] package (sample, score, reinforce, evaporate)
//	         ↓
//	    [io] package (result JSON)  +  [render] package (DOT/SVG/PDF/PNG)
//
// [pipeline] ties the steps together, runs repeated solves and caches
// results in [cache].
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/antpack/pkg/aco"
//	    "github.com/matzehuels/antpack/pkg/dag"
//	    "github.com/matzehuels/antpack/pkg/packing"
//	    "github.com/matzehuels/antpack/pkg/rng"
//	)
//
//	items := packing.Items(10, 20, 30, 15)
//	g, _ := dag.Build(len(items), 3)
//
//	opt, _ := aco.New(aco.DefaultConfig(), aco.WithSource(rng.New(42)))
//	res, _ := opt.Run(context.Background(), g, items, 3, packing.Spread{})
//
//	fmt.Println(res.Fitness, packing.BinWeights(res.Bins))
//
// # Observability
//
// The optimizer and caches report through the hook interfaces in
// [observability]. [metrics] implements them with Prometheus collectors;
// without registration every hook is a no-op.
//
// # Testing
//
//	go test ./...                                          # All tests
//	go test ./pkg/aco/...                                  # Specific package
//	ANTPACK_TEST_REDIS_URL=redis://localhost:6379/15 go test ./pkg/cache/
//
// [dag]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/dag
// [packing]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/packing
// [pheromone]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/pheromone
// [aco]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/aco
// [rng]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/rng
// [problem]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/problem
// [io]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/cache
// [metrics]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/metrics
// [observability]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/antpack/pkg/render
package pkg
