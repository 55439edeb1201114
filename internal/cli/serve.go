package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"transit_router/pkg/api"
	"transit_router/pkg/cache"
	"transit_router/pkg/config"
	"transit_router/pkg/graph"
	"transit_router/pkg/routing"
	"transit_router/pkg/tnr"
)

type serveOpts struct {
	config string
	graph  string
	addr   string
	k      int
}

func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preprocess transit nodes and serve distance queries over HTTP",
		Example: `  tnr serve --graph sg.bin
  tnr serve --config tnr.yaml -k 2000 --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVarP(&opts.graph, "graph", "g", "", "path to binary graph file (overrides config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().IntVarP(&opts.k, "transit-nodes", "k", 0, "number of transit nodes (overrides config)")

	return cmd
}

// loadServeConfig reads the config file, if any, and applies flags that were
// set explicitly on the command line.
func loadServeConfig(cmd *cobra.Command, opts serveOpts) (config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("graph") {
		cfg.Graph = opts.graph
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if flags.Changed("transit-nodes") {
		cfg.TNR.TransitNodes = opts.k
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	step := newProgress(logger)
	chg, err := graph.ReadBinary(cfg.Graph)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	step.done(fmt.Sprintf("Loaded %d nodes, %d shortcuts", chg.NumNodes, chg.NumShortcuts()))

	oracle := routing.NewCHOracle(chg)

	step = newProgress(logger)
	idx, err := tnr.Preprocess(ctx, chg, oracle, tnr.Options{
		K:              cfg.TNR.TransitNodes,
		Workers:        cfg.TNR.Workers,
		SymmetricTable: cfg.TNR.SymmetricTable,
		OracleTimeout:  cfg.TNR.OracleTimeout,
		Logger:         logger,
		ProgressEvery:  100_000,
	})
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	step.done("Transit node preprocessing complete")

	stats := idx.Stats()
	logger.Info("Index ready",
		"transit", stats.TransitNodes,
		"avg_access", fmt.Sprintf("%.1f", stats.AvgAccessNodes),
		"avg_space", fmt.Sprintf("%.1f", stats.AvgSearchSpace))

	engine := tnr.NewEngine(idx, oracle, tnr.WithQueryTimeout(cfg.Server.QueryTimeout))
	metrics := api.NewMetrics()

	opts := []api.Option{api.WithMetrics(metrics), api.WithLogger(logger)}

	snapper, err := routing.NewSnapperFromCH(chg)
	switch {
	case err == nil:
		opts = append(opts, api.WithSnapper(snapper))
		logger.Info("Coordinate snapping enabled", "nodes", snapper.Len())
	case errors.Is(err, routing.ErrNoCoordinates):
		logger.Warn("Graph has no coordinates; only node-ID queries are accepted")
	default:
		return err
	}

	c, err := openCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	if c != nil {
		defer c.Close()
		opts = append(opts, api.WithCache(c))
	}

	handlers := api.NewHandlers(engine, api.StatsResponse{
		NumNodes:     chg.NumNodes,
		NumEdges:     len(chg.OrigHead) / 2,
		NumShortcuts: chg.NumShortcuts(),
		Index:        stats,
	}, opts...)

	srv := api.NewServer(cfg.Server, handlers, metrics, logger)
	return api.ListenAndServe(ctx, srv, logger)
}

// openCache returns nil when caching is disabled.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *log.Logger) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		c, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Using redis cache", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
		return c, nil
	}
	if cfg.Size > 0 {
		logger.Info("Using in-memory cache", "size", cfg.Size, "ttl", cfg.TTL)
		return cache.NewMemory(cfg.Size, cfg.TTL), nil
	}
	return nil, nil
}
