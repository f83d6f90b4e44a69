// Package aco implements the ant colony search over a bin-packing
// construction graph.
//
// A run repeats four steps per batch until the evaluation budget is spent:
//
//  1. Seed: the pheromone table is filled with random values in (0, 1]
//     (every batch by default, or once per run with [ReseedOnce]).
//  2. Sample: [Sampler] walks BatchSize paths from start to end, picking
//     each child with probability proportional to its edge pheromone.
//  3. Score: each path is converted to bins, evaluated, compared against
//     the best so far, and reinforced with 100/fitness.
//  4. Evaporate: every intensity is multiplied by the evaporation rate.
//
// The last batch always completes, so a run evaluates
// ceil(budget/batch)*batch paths.
//
// All randomness comes from an injected [rng.Source]. Given the same graph,
// items, evaluator, configuration and seed, a run is bit-for-bit
// reproducible.
//
// # Usage
//
//	g, _ := dag.Build(len(items), 3)
//	opt, err := aco.New(aco.DefaultConfig(), aco.WithSource(rng.New(42)))
//	if err != nil {
//	    return err
//	}
//	res, err := opt.Run(ctx, g, items, 3, packing.Spread{})
package aco
