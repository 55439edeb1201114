package tnr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Options configures Preprocess.
type Options struct {
	// K is the number of transit nodes. It is clamped to the node count.
	K int
	// Workers is the number of goroutines used for access-node searches and
	// table rows. Values below 1 mean one. Results do not depend on it.
	Workers int
	// SymmetricTable computes each unordered transit pair once.
	SymmetricTable bool
	// OracleTimeout bounds every oracle call. Zero means no deadline.
	OracleTimeout time.Duration
	// Logger receives progress messages. Defaults to log.Default().
	Logger *log.Logger
	// ProgressEvery logs progress after this many access searches.
	// Zero disables progress logging.
	ProgressEvery int
}

// chunkSize is the number of consecutive sources handed to a worker at once.
const chunkSize = 256

// Preprocess builds the transit set, the transit distance table and the
// per-node access data. It fails only if the oracle fails or ctx is done.
func Preprocess(ctx context.Context, g Graph, oracle Oracle, opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	n := g.NodeCount()
	start := time.Now()

	if opts.K > n {
		logger.Debug("transit node count exceeds graph size; selecting all nodes", "k", opts.K, "nodes", n)
	}
	nodes := SelectTransitNodes(g, opts.K)
	set, err := NewTransitSet(n, nodes)
	if err != nil {
		return nil, fmt.Errorf("transit set: %w", err)
	}
	logger.Info("Selected transit nodes", "k", set.Len(), "nodes", n)

	table, err := BuildTable(ctx, set, oracle, TableOptions{
		Workers:       opts.Workers,
		Symmetric:     opts.SymmetricTable,
		OracleTimeout: opts.OracleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transit table: %w", err)
	}
	logger.Info("Built transit distance table", "entries", set.Len()*set.Len(), "elapsed", time.Since(start).Round(time.Millisecond))

	idx := &Index{
		numNodes: n,
		transit:  set,
		table:    table,
		access:   make([][]AccessNode, n),
		spaces:   make([]SearchSpace, n),
	}

	var done atomic.Int64
	searches := sync.Pool{New: func() any { return newAccessSearch(n) }}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(max(opts.Workers, 1))

	for lo := 0; lo < n; lo += chunkSize {
		hi := min(lo+chunkSize, n)
		grp.Go(func() error {
			// Each chunk writes only idx.access[lo:hi] and idx.spaces[lo:hi].
			as := searches.Get().(*accessSearch)
			defer searches.Put(as)
			for u := lo; u < hi; u++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				idx.access[u], idx.spaces[u] = as.run(g, set, uint32(u))
			}
			total := done.Add(int64(hi - lo))
			if opts.ProgressEvery > 0 && total/int64(opts.ProgressEvery) != (total-int64(hi-lo))/int64(opts.ProgressEvery) {
				logger.Infof("Access nodes computed for %d/%d nodes", total, n)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("access nodes: %w", err)
	}

	st := idx.Stats()
	logger.Info("Preprocessing complete",
		"transit", st.TransitNodes,
		"avg_access", fmt.Sprintf("%.2f", st.AvgAccessNodes),
		"avg_search_space", fmt.Sprintf("%.1f", st.AvgSearchSpace),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return idx, nil
}
