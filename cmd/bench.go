package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/loader"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/1F47E/geo-distance/pkg/rtree"
	"github.com/spf13/cobra"
)

// BenchmarkResult summarizes one benchmark run
type BenchmarkResult struct {
	QueryType     string
	TotalQueries  int64
	TotalDuration time.Duration
	QueriesPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	P50Duration   time.Duration
	P99Duration   time.Duration
	Checksum      float64
}

var (
	benchType    string
	benchWorkers int
	benchQueries int
	benchK       int
	benchSeed    int64
)

var benchCmd = &cobra.Command{
	Use:   "bench <features-file>",
	Short: "Run concurrent distance, bearing or nearest queries over a feature file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		features, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}
		if len(features) == 0 {
			return fmt.Errorf("%s has no features", args[0])
		}

		workers := cfg.Bench.Workers
		if cmd.Flags().Changed("workers") {
			workers = benchWorkers
		}
		queries := cfg.Bench.Queries
		if cmd.Flags().Changed("queries") {
			queries = benchQueries
		}
		if workers <= 0 {
			return fmt.Errorf("workers must be positive, got %d", workers)
		}
		if queries <= 0 {
			return fmt.Errorf("queries must be positive, got %d", queries)
		}
		centroids := useCentroids(cmd)

		var index *rtree.FeatureIndex
		if benchType == "nearest" || benchType == "mixed" {
			index = newIndex()
			if err := index.IndexFeatures(features); err != nil {
				return fmt.Errorf("failed to index features: %w", err)
			}
		}

		query, err := benchQuery(benchType, features, index, centroids)
		if err != nil {
			return err
		}

		logger.Info("running benchmark", "type", benchType, "queries", queries, "workers", workers, "features", len(features))
		result := runBenchmark(benchType, queries, workers, benchSeed, query)
		printBenchmark(result, workers)
		return nil
	},
}

func init() {
	benchCmd.Flags().StringVarP(&benchType, "type", "t", "distance", "Query type: distance, bearing, nearest, mixed")
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines (overrides bench.workers)")
	benchCmd.Flags().IntVarP(&benchQueries, "queries", "q", 1000, "Number of queries to run (overrides bench.queries)")
	benchCmd.Flags().IntVarP(&benchK, "neighbors", "k", 10, "Number of nearest features for nearest queries")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", time.Now().UnixNano(), "Random seed")
}

// benchQuery returns the operation a worker runs once per query. It returns a
// value folded into the checksum so the work cannot be skipped.
func benchQuery(kind string, features []*feature.Feature, index *rtree.FeatureIndex, centroids bool) (func(r *rand.Rand) float64, error) {
	pick := func(r *rand.Rand) *feature.Feature {
		return features[r.Intn(len(features))]
	}

	distance := func(r *rand.Rand) float64 {
		return feature.DistanceBetween(pick(r), pick(r), centroids)
	}
	bearing := func(r *rand.Rand) float64 {
		return feature.BearingBetween(pick(r), pick(r), centroids)
	}
	nearest := func(r *rand.Rand) float64 {
		// Query around a random feature so results are never empty
		c := feature.Centroid(pick(r))
		center := models.Point{Lat: c.Lat + r.Float64() - 0.5, Lon: c.Lon + r.Float64() - 0.5}
		results := index.NearestNeighbors(center, benchK, centroids)
		if len(results) == 0 {
			return 0
		}
		return results[len(results)-1].Distance
	}

	switch strings.ToLower(kind) {
	case "distance":
		return distance, nil
	case "bearing":
		return bearing, nil
	case "nearest":
		return nearest, nil
	case "mixed":
		ops := []func(*rand.Rand) float64{distance, bearing, nearest}
		return func(r *rand.Rand) float64 {
			return ops[r.Intn(len(ops))](r)
		}, nil
	}
	return nil, fmt.Errorf("unknown query type: %s", kind)
}

// runBenchmark feeds queries to a pool of workers and collects per-query timings
func runBenchmark(kind string, numQueries, workers int, seed int64, query func(*rand.Rand) float64) BenchmarkResult {
	if workers < 1 {
		workers = 1
	}
	if numQueries < 0 {
		numQueries = 0
	}

	var (
		queryCount atomic.Int64
		mu         sync.Mutex
		durations  = make([]time.Duration, 0, numQueries)
		checksum   float64
	)

	startTime := time.Now()

	// Worker pool
	queryCh := make(chan int, numQueries)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(workerID)))

			local := make([]time.Duration, 0, numQueries/workers+1)
			localSum := 0.0
			for range queryCh {
				queryStart := time.Now()
				localSum += query(r)
				local = append(local, time.Since(queryStart))
				queryCount.Add(1)
			}

			mu.Lock()
			durations = append(durations, local...)
			checksum += localSum
			mu.Unlock()
		}(w)
	}

	// Send queries
	for i := 0; i < numQueries; i++ {
		queryCh <- i
	}
	close(queryCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	result := BenchmarkResult{
		QueryType:     kind,
		TotalQueries:  queryCount.Load(),
		TotalDuration: totalDuration,
		Checksum:      checksum,
	}
	if len(durations) == 0 {
		return result
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	result.QueriesPerSec = float64(result.TotalQueries) / totalDuration.Seconds()
	result.MinDuration = durations[0]
	result.MaxDuration = durations[len(durations)-1]
	result.P50Duration = durations[len(durations)/2]
	result.P99Duration = durations[len(durations)*99/100]
	return result
}

func printBenchmark(result BenchmarkResult, workers int) {
	fmt.Println(render(titleStyle, "Benchmark Results"))
	rows := [][2]string{
		{"Query Type", result.QueryType},
		{"Total Queries", fmt.Sprintf("%d", result.TotalQueries)},
		{"Total Duration", result.TotalDuration.String()},
		{"Queries/Second", fmt.Sprintf("%.0f", result.QueriesPerSec)},
		{"Min Duration", result.MinDuration.String()},
		{"P50 Duration", result.P50Duration.String()},
		{"P99 Duration", result.P99Duration.String()},
		{"Max Duration", result.MaxDuration.String()},
		{"Workers Used", fmt.Sprintf("%d", workers)},
		{"CPU Cores", fmt.Sprintf("%d", runtime.NumCPU())},
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = fmt.Sprintf("%-16s %s", row[0]+":", render(statStyle, row[1]))
	}
	fmt.Println(renderBox(strings.Join(lines, "\n")))
}
