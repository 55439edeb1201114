package tnr

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Table holds the distances between all pairs of transit nodes.
type Table struct {
	set  *TransitSet
	dist []Distance // row-major, Len()×Len()
}

// TableOptions configures BuildTable.
type TableOptions struct {
	// Workers is the number of rows computed concurrently. Values below 1
	// mean one.
	Workers int
	// Symmetric computes each unordered pair once and mirrors it. Only
	// valid for symmetric oracles.
	Symmetric bool
	// OracleTimeout bounds every oracle call. Zero means no deadline.
	OracleTimeout time.Duration
}

// BuildTable fills the transit distance table with one oracle call per
// ordered pair of distinct transit nodes (one per unordered pair when
// Symmetric is set). The diagonal is zero.
func BuildTable(ctx context.Context, set *TransitSet, oracle Oracle, opts TableOptions) (*Table, error) {
	k := set.Len()
	t := &Table{set: set, dist: make([]Distance, k*k)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for i := range k {
		g.Go(func() error {
			// Row i owns dist[i*k+j] for every j it visits, and the mirrored
			// cells dist[j*k+i] for j > i in symmetric mode.
			u := set.nodes[i]
			t.dist[i*k+i] = Finite(0)
			start := 0
			if opts.Symmetric {
				start = i + 1
			}
			for j := start; j < k; j++ {
				if j == i {
					continue
				}
				d, err := callOracle(ctx, oracle, opts.OracleTimeout, u, set.nodes[j])
				if err != nil {
					return fmt.Errorf("transit distance %d→%d: %w", u, set.nodes[j], err)
				}
				t.dist[i*k+j] = d
				if opts.Symmetric {
					t.dist[j*k+i] = d
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// callOracle runs one oracle query under an optional deadline.
func callOracle(ctx context.Context, oracle Oracle, timeout time.Duration, u, v uint32) (Distance, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Unreachable, err
	}
	return oracle.Distance(ctx, u, v)
}

// Len returns the number of transit nodes covered by the table.
func (t *Table) Len() int { return t.set.Len() }

// Get returns the distance between transit nodes u and v. ok is false if
// either node is not a transit node.
func (t *Table) Get(u, v uint32) (d Distance, ok bool) {
	i, okU := t.set.Slot(u)
	j, okV := t.set.Slot(v)
	if !okU || !okV {
		return Unreachable, false
	}
	return t.at(i, j), true
}

// at returns the distance between the transit nodes in slots i and j.
func (t *Table) at(i, j int) Distance {
	return t.dist[i*t.set.Len()+j]
}
