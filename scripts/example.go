package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/1F47E/geo-distance/pkg/rtree"
)

func main() {
	// A few San Francisco features of every kind
	ferry := feature.NewMarker("ferry-building", 37.7955, -122.3937)

	market, err := feature.NewLineString("market-st", []models.Point{
		{Lat: 37.7955, Lon: -122.3937},
		{Lat: 37.7840, Lon: -122.4075},
		{Lat: 37.7680, Lon: -122.4290},
	})
	if err != nil {
		log.Fatal(err)
	}

	park, err := feature.NewPolygon("golden-gate-park", []models.Point{
		{Lat: 37.7745, Lon: -122.5110},
		{Lat: 37.7745, Lon: -122.4540},
		{Lat: 37.7655, Lon: -122.4540},
		{Lat: 37.7655, Lon: -122.5110},
	})
	if err != nil {
		log.Fatal(err)
	}

	downtown, err := feature.NewRectangle("downtown", 37.7990, 37.7850, -122.3950, -122.4100)
	if err != nil {
		log.Fatal(err)
	}

	zoo, err := feature.NewCircle("zoo", models.Point{Lat: 37.7330, Lon: -122.5030}, 400)
	if err != nil {
		log.Fatal(err)
	}

	features := []*feature.Feature{ferry, market, park, downtown, zoo}

	// Example 1: boundary and centroid distances
	fmt.Println("=== Distances from the Ferry Building ===")
	for _, f := range features[1:] {
		fmt.Printf("  - %-17s %-10s boundary %8.1f m, centroid %8.1f m\n",
			f.ID, f.Kind(),
			feature.DistanceBetween(ferry, f, false),
			feature.DistanceBetween(ferry, f, true))
	}

	// Example 2: bearings
	fmt.Println("\n=== Bearings from Golden Gate Park ===")
	for _, f := range []*feature.Feature{ferry, downtown, zoo} {
		fmt.Printf("  - %-17s %6.1f° to nearest point, %6.1f° to centroid\n",
			f.ID,
			feature.BearingBetween(park, f, false),
			feature.BearingBetween(park, f, true))
	}

	// Example 3: a missing feature has no answer
	fmt.Printf("\nDistance to a missing feature: %.0f\n", feature.DistanceBetween(ferry, nil, false))

	// Example 4: index the features and look around Market Street
	index := rtree.NewFeatureIndexWithWorkers(2)
	if err := index.IndexFeatures(features); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nIndexed %d features\n", index.Count())

	fmt.Println("\n=== 3 Nearest Features to Civic Center ===")
	civic := models.Point{Lat: 37.7793, Lon: -122.4193}
	for i, n := range index.NearestNeighbors(civic, 3, false) {
		fmt.Printf("  %d. %s: %.1f m away\n", i+1, n.Feature.ID, n.Distance)
	}

	fmt.Println("\n=== Features within 2 km of Civic Center ===")
	results, err := index.QueryRadius(civic, 2000)
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range results {
		fmt.Printf("  - %s\n", f.ID)
	}

	// Save and load the index
	fmt.Println("\n=== Saving Index ===")
	path := filepath.Join(os.TempDir(), "sf_features.gob")
	if err := index.SaveToFile(path); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Index saved to %s\n", path)

	loaded := rtree.NewFeatureIndex()
	if err := loaded.LoadFromFile(path); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded index with %d features\n", loaded.Count())
}
