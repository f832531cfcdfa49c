package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/1F47E/geo-distance/pkg/config"
	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/loader"
	"github.com/1F47E/geo-distance/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	indexFile  string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geodist",
	Short: "Distances and bearings between map features",
	Long: `Computes flat-degree distances and bearings between markers, linestrings,
polygons, rectangles and circles loaded from GeoJSON or YAML feature files,
and builds R-Tree indexes for nearest feature lookups.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default geodist.yaml in . or ./configs)")
	rootCmd.PersistentFlags().StringVarP(&indexFile, "file", "f", "", "Index file path (overrides index.file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(distanceCmd, bearingCmd, matrixCmd, indexCmd, nearestCmd, benchCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render(errorStyle, "Error: "+err.Error()))
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger = logging.Setup(os.Stderr, level, cfg.Log.Format)

	if indexFile == "" {
		indexFile = cfg.Index.File
	}
	logger.Debug("config loaded", "index_file", indexFile, "partitions", cfg.Index.Partitions)
	return nil
}

// useCentroids resolves the --centroids flag against query.use_centroids
func useCentroids(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("centroids") {
		v, _ := cmd.Flags().GetBool("centroids")
		return v
	}
	return cfg.Query.UseCentroids
}

// loadPair loads a feature file and looks up two features by id
func loadPair(path, idA, idB string) (*feature.Feature, *feature.Feature, error) {
	features, err := loader.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	byID := loader.ByID(features)

	a, ok := byID[idA]
	if !ok {
		return nil, nil, fmt.Errorf("feature %q not found in %s", idA, path)
	}
	b, ok := byID[idB]
	if !ok {
		return nil, nil, fmt.Errorf("feature %q not found in %s", idB, path)
	}
	return a, b, nil
}

func modeName(centroids bool) string {
	if centroids {
		return "centroid"
	}
	return "boundary"
}

var distanceCmd = &cobra.Command{
	Use:   "distance <features-file> <id-a> <id-b>",
	Short: "Distance in meters between two features",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := loadPair(args[0], args[1], args[2])
		if err != nil {
			return err
		}

		centroids := useCentroids(cmd)
		d := feature.DistanceBetween(a, b, centroids)
		logger.Debug("distance", "a", a.ID, "b", b.ID, "kind_a", a.Kind(), "kind_b", b.Kind(), "mode", modeName(centroids))

		fmt.Printf("%s %s %s: %s\n",
			render(subtitleStyle, a.ID), render(dimStyle, "→"), render(subtitleStyle, b.ID),
			render(statStyle, fmt.Sprintf("%.2f m", d)))
		return nil
	},
}

var bearingCmd = &cobra.Command{
	Use:   "bearing <features-file> <id-a> <id-b>",
	Short: "Bearing in degrees from one feature to another",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := loadPair(args[0], args[1], args[2])
		if err != nil {
			return err
		}

		centroids := useCentroids(cmd)
		bearing := feature.BearingBetween(a, b, centroids)
		logger.Debug("bearing", "a", a.ID, "b", b.ID, "mode", modeName(centroids))

		fmt.Printf("%s %s %s: %s\n",
			render(subtitleStyle, a.ID), render(dimStyle, "→"), render(subtitleStyle, b.ID),
			render(statStyle, fmt.Sprintf("%.2f°", bearing)))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{distanceCmd, bearingCmd, matrixCmd, nearestCmd, benchCmd} {
		cmd.Flags().Bool("centroids", false, "Measure between centroids instead of nearest points")
	}
}
