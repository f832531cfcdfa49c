package main

import (
	"fmt"
	"os"
	"time"

	"github.com/1F47E/geo-distance/pkg/loader"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/1F47E/geo-distance/pkg/rtree"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <features-file>",
	Short: "Build an R-Tree index from a feature file and save it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		features, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}

		start := time.Now()
		index := newIndex()
		if err := index.IndexFeatures(features); err != nil {
			return fmt.Errorf("failed to index features: %w", err)
		}
		indexTime := time.Since(start)

		if err := index.SaveToFile(indexFile); err != nil {
			return fmt.Errorf("failed to save index: %w", err)
		}

		lines := fmt.Sprintf("%s %d features in %v\n%s %s",
			render(dimStyle, "Indexed"), index.Count(), indexTime,
			render(dimStyle, "Saved to"), indexFile)
		if info, err := os.Stat(indexFile); err == nil {
			lines += fmt.Sprintf(" (%.2f KB)", float64(info.Size())/1024)
		}
		fmt.Println(renderBox(lines))
		return nil
	},
}

var (
	nearestLat    float64
	nearestLon    float64
	nearestK      int
	nearestRadius float64
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Find the features nearest to a point in a saved index",
	Long: `Loads the index saved by "geodist index" and lists the k nearest features
to --lat/--lon, or every feature within --radius meters when a radius is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		index := newIndex()
		if err := index.LoadFromFile(indexFile); err != nil {
			return fmt.Errorf("failed to load index: %w", err)
		}
		logger.Debug("index loaded", "file", indexFile, "features", index.Count())

		center := models.Point{Lat: nearestLat, Lon: nearestLon}
		if cmd.Flags().Changed("radius") {
			results, err := index.QueryRadius(center, nearestRadius)
			if err != nil {
				return err
			}
			fmt.Println(render(titleStyle, fmt.Sprintf("%d features within %.0f m", len(results), nearestRadius)))
			for i, f := range results {
				fmt.Printf("%d. %s %s\n", i+1, render(subtitleStyle, f.ID), render(dimStyle, f.Kind().String()))
			}
			return nil
		}

		centroids := useCentroids(cmd)
		results := index.NearestNeighbors(center, nearestK, centroids)
		fmt.Println(render(titleStyle, fmt.Sprintf("%d nearest features (%s)", len(results), modeName(centroids))))
		for i, n := range results {
			fmt.Printf("%d. %s %s %s\n", i+1,
				render(subtitleStyle, n.Feature.ID),
				render(dimStyle, n.Feature.Kind().String()),
				render(statStyle, fmt.Sprintf("%.2f m", n.Distance)))
		}
		return nil
	},
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "Query latitude")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "Query longitude")
	nearestCmd.Flags().IntVarP(&nearestK, "neighbors", "k", 10, "Number of nearest features")
	nearestCmd.Flags().Float64VarP(&nearestRadius, "radius", "r", 0, "List every feature within this many meters instead")
	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lon")
}

func newIndex() *rtree.FeatureIndex {
	return rtree.NewFeatureIndexWithWorkers(cfg.Index.Partitions).WithLogger(logger)
}
