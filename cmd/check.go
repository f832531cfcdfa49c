package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/loader"
	"github.com/1F47E/geo-distance/pkg/postgis"
	"github.com/spf13/cobra"
)

var (
	checkTolerance float64
	checkTimeout   time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check <features-file>",
	Short: "Compare boundary distances against PostGIS",
	Long: `Loads the features into the configured PostGIS database and compares every
pairwise boundary distance with the database's planar ST_Distance, scaled to
meters the same way the engine does.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		features, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		store, err := postgis.NewFeatureStore(ctx, cfg.PostGIS.Options(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.InitSchema(ctx); err != nil {
			return err
		}
		if err := store.BulkInsertFeatures(ctx, features); err != nil {
			return err
		}
		if err := store.CreateSpatialIndex(ctx); err != nil {
			return err
		}

		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderBox(formatStoreStats(stats)))

		mismatches, pairs := 0, 0
		for i := 0; i < len(features); i++ {
			for j := i + 1; j < len(features); j++ {
				a, b := features[i], features[j]
				reference, err := store.ReferenceDistance(ctx, a.ID, b.ID)
				if err != nil {
					return err
				}
				engine := feature.DistanceBetween(a, b, false)
				pairs++

				if !withinTolerance(engine, reference, checkTolerance) {
					mismatches++
					fmt.Printf("%s %s ↔ %s: engine %.3f m, postgis %.3f m\n",
						render(errorStyle, "MISMATCH"), a.ID, b.ID, engine, reference)
				} else {
					logger.Debug("pair matches", "a", a.ID, "b", b.ID, "distance", engine)
				}
			}
		}

		if mismatches > 0 {
			return fmt.Errorf("%d of %d pairs differ by more than %g m", mismatches, pairs, checkTolerance)
		}
		fmt.Println(render(successStyle, fmt.Sprintf("All %d pairs match PostGIS within %g m", pairs, checkTolerance)))
		return nil
	},
}

func init() {
	checkCmd.Flags().Float64Var(&checkTolerance, "tolerance", 0.01, "Allowed difference in meters")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Minute, "Overall database timeout")
}

func formatStoreStats(stats postgis.StoreStats) string {
	return fmt.Sprintf("%s\n\nRows:       %s\nTable size: %s\nIndex size: %s\nDatabase:   %s",
		render(titleStyle, "PostGIS Reference"),
		render(statStyle, fmt.Sprintf("%d", stats.RowCount)),
		stats.TableSize, stats.IndexSize, stats.DatabaseSize)
}

// withinTolerance compares with an absolute floor and a relative term for long distances
func withinTolerance(engine, reference, tolerance float64) bool {
	return math.Abs(engine-reference) <= tolerance+1e-9*math.Abs(reference)
}
