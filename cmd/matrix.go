package main

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/loader"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var matrixWorkers int

var matrixCmd = &cobra.Command{
	Use:   "matrix <features-file>",
	Short: "All-pairs distance table for a feature file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		features, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}

		centroids := useCentroids(cmd)
		start := time.Now()
		matrix := distanceMatrix(features, centroids, matrixWorkers)
		logger.Debug("matrix computed", "features", len(features), "mode", modeName(centroids), "elapsed", time.Since(start))

		fmt.Println(renderMatrix(features, matrix))
		return nil
	},
}

func init() {
	matrixCmd.Flags().IntVarP(&matrixWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
}

// distanceMatrix computes every pairwise distance with a pool of workers,
// one row per job. Only the upper triangle is computed and mirrored.
func distanceMatrix(features []*feature.Feature, centroids bool, workers int) [][]float64 {
	n := len(features)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	if workers < 1 {
		workers = 1
	}

	rows := make(chan int, n)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range rows {
				for j := i + 1; j < n; j++ {
					matrix[i][j] = feature.DistanceBetween(features[i], features[j], centroids)
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		rows <- i
	}
	close(rows)
	wg.Wait()

	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			matrix[i][j] = matrix[j][i]
		}
	}
	return matrix
}

func renderMatrix(features []*feature.Feature, matrix [][]float64) string {
	headers := make([]string, 0, len(features)+1)
	headers = append(headers, "")
	for _, f := range features {
		headers = append(headers, f.ID)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)

	for i, f := range features {
		row := make([]string, 0, len(features)+1)
		row = append(row, f.ID)
		for _, d := range matrix[i] {
			row = append(row, fmt.Sprintf("%.1f", d))
		}
		t.Row(row...)
	}

	if !plain {
		t.BorderStyle(dimStyle).StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return subtitleStyle
			}
			return lipgloss.NewStyle()
		})
	}
	return t.String()
}
