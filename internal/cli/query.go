package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"transit_router/pkg/graph"
	"transit_router/pkg/routing"
	"transit_router/pkg/tnr"
)

type queryOpts struct {
	graph   string
	source  uint32
	target  uint32
	k       int
	workers int
	compare bool
}

func newQueryCmd() *cobra.Command {
	var opts queryOpts

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Answer a single distance query",
		Example: `  tnr query --graph sg.bin --source 12 --target 40411
  tnr query --graph sg.bin --source 12 --target 40411 -k 500 --compare`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.graph, "graph", "g", "graph.bin", "path to binary graph file")
	cmd.Flags().Uint32VarP(&opts.source, "source", "s", 0, "source node index")
	cmd.Flags().Uint32VarP(&opts.target, "target", "t", 0, "target node index")
	cmd.Flags().IntVarP(&opts.k, "transit-nodes", "k", 1000, "number of transit nodes")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "preprocessing workers (0 = one)")
	cmd.Flags().BoolVar(&opts.compare, "compare", false, "also run plain Dijkstra and report both timings")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runQuery(cmd *cobra.Command, opts queryOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	chg, err := graph.ReadBinary(opts.graph)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	oracle := routing.NewCHOracle(chg)
	step := newProgress(logger)
	idx, err := tnr.Preprocess(ctx, chg, oracle, tnr.Options{
		K:       opts.k,
		Workers: opts.workers,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	step.done("Preprocessed")

	engine := tnr.NewEngine(idx, oracle)
	start := time.Now()
	res, err := engine.Query(ctx, opts.source, opts.target)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(out, "distance: %s\n", res.Distance)
	fmt.Fprintf(out, "method:   %s\n", res.Method)
	fmt.Fprintf(out, "time:     %s\n", elapsed)

	if !opts.compare {
		return nil
	}

	baseline := routing.NewDijkstraOracle(chg.Base())
	start = time.Now()
	d, err := baseline.Distance(ctx, opts.source, opts.target)
	if err != nil {
		return fmt.Errorf("dijkstra: %w", err)
	}
	fmt.Fprintf(out, "dijkstra: %s (%s)\n", d, time.Since(start))
	if !sameDistance(d, res.Distance) {
		logger.Warn("Distances differ", "tnr", res.Distance, "dijkstra", d)
	}
	return nil
}

// sameDistance compares with a relative tolerance; summation order differs
// between the two searches.
func sameDistance(a, b tnr.Distance) bool {
	av, aok := a.Value()
	bv, bok := b.Value()
	if aok != bok {
		return false
	}
	return math.Abs(av-bv) <= 1e-9*math.Max(1, math.Max(av, bv))
}
