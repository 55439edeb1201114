package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"transit_router/pkg/ch"
	"transit_router/pkg/graph"
	osmparser "transit_router/pkg/osm"
)

type contractOpts struct {
	input         string
	output        string
	bbox          string
	metric        string
	ordering      string
	offline       bool
	allComponents bool
}

func newContractCmd() *cobra.Command {
	var opts contractOpts

	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Build a contraction hierarchy from an OSM PBF extract",
		Example: `  tnr contract --input singapore.osm.pbf --output sg.bin
  tnr contract --input malaysia.osm.pbf --bbox 2.75,101.2,3.5,102.0 --metric time
  tnr contract --input singapore.osm.pbf --ordering edges_removed --offline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContract(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "path to .osm.pbf file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "graph.bin", "output binary graph path")
	cmd.Flags().StringVar(&opts.bbox, "bbox", "", "bounding box filter: minLat,minLng,maxLat,maxLng")
	cmd.Flags().StringVar(&opts.metric, "metric", string(osmparser.Distance), "edge weight: distance (meters) or time (seconds)")
	cmd.Flags().StringVar(&opts.ordering, "ordering", string(ch.EdgeDifference), "contraction order: edge_difference, shortcuts_added or edges_removed")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "fix the contraction order up front instead of updating it lazily")
	cmd.Flags().BoolVar(&opts.allComponents, "all-components", false, "keep every connected component instead of the largest")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runContract(cmd *cobra.Command, opts contractOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	total := newProgress(logger)

	criterion, err := ch.ParseCriterion(opts.ordering)
	if err != nil {
		return err
	}

	parseOpts := osmparser.ParseOptions{Metric: osmparser.Metric(opts.metric)}
	if opts.bbox != "" {
		bbox, err := osmparser.ParseBBox(opts.bbox)
		if err != nil {
			return err
		}
		parseOpts.BBox = bbox
		logger.Info("Using bounding box filter", "lat", [2]float64{bbox.MinLat, bbox.MaxLat}, "lng", [2]float64{bbox.MinLng, bbox.MaxLng})
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	step := newProgress(logger)
	parsed, err := osmparser.Parse(ctx, f, parseOpts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", opts.input, err)
	}
	step.done(fmt.Sprintf("Parsed %d edges, %d nodes", len(parsed.Edges), len(parsed.NodeLat)))

	g := graph.Build(parsed)
	logger.Info("Graph built", "nodes", g.NumNodes, "arcs", g.NumEdges)

	if !opts.allComponents && g.NumNodes > 0 {
		nodes := graph.LargestComponent(g)
		logger.Info("Largest component", "nodes", len(nodes), "share", fmt.Sprintf("%.1f%%", float64(len(nodes))/float64(g.NumNodes)*100))
		g = graph.FilterToComponent(g, nodes)
	}

	step = newProgress(logger)
	chg := ch.Contract(g, ch.Options{Criterion: criterion, Offline: opts.offline})
	step.done(fmt.Sprintf("Contracted %d nodes, %d upward arcs", chg.NumNodes, len(chg.UpHead)))

	if err := graph.WriteBinary(opts.output, chg); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	if info, err := os.Stat(opts.output); err == nil {
		logger.Info("Wrote graph", "path", opts.output, "size", fmt.Sprintf("%.1f MB", float64(info.Size())/(1024*1024)))
	}
	total.done("Done")
	return nil
}
