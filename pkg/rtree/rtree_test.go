package rtree

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/geo"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const D = geo.MetersPerDegree

func pt(lat, lon float64) models.Point {
	return models.Point{Lat: lat, Lon: lon}
}

func sampleFeatures(t testing.TB) []*feature.Feature {
	line, err := feature.NewLineString("road", []models.Point{pt(37.7749, -122.4194), pt(37.70, -122.50)})
	require.NoError(t, err)
	park, err := feature.NewPolygon("park", []models.Point{
		pt(37.77, -122.51), pt(37.77, -122.45), pt(37.76, -122.45), pt(37.76, -122.51),
	})
	require.NoError(t, err)
	box, err := feature.NewRectangle("box", 34.2, 33.9, -118.1, -118.4)
	require.NoError(t, err)
	zone, err := feature.NewCircle("zone", pt(40.7128, -74.0060), 5000)
	require.NoError(t, err)

	return []*feature.Feature{
		feature.NewMarker("SF", 37.7749, -122.4194),
		feature.NewMarker("Oakland", 37.8044, -122.2712),
		feature.NewMarker("San Jose", 37.3382, -121.8863),
		feature.NewMarker("CHI", 41.8781, -87.6298),
		line, park, box, zone,
	}
}

func randomFeatures(t testing.TB, n int, seed int64) []*feature.Feature {
	r := rand.New(rand.NewSource(seed))
	features := make([]*feature.Feature, n)
	for i := range features {
		lat := r.Float64()*20 + 30
		lon := r.Float64()*40 - 120
		id := fmt.Sprintf("feature_%d", i)

		var (
			f   *feature.Feature
			err error
		)
		switch i % 5 {
		case 0:
			f = feature.NewMarker(id, lat, lon)
		case 1:
			f, err = feature.NewLineString(id, []models.Point{pt(lat, lon), pt(lat+r.Float64(), lon+r.Float64())})
		case 2:
			s := r.Float64()*0.5 + 0.01
			f, err = feature.NewPolygon(id, []models.Point{pt(lat, lon), pt(lat, lon+s), pt(lat+s, lon)})
		case 3:
			f, err = feature.NewRectangle(id, lat+r.Float64(), lat, lon+r.Float64(), lon)
		case 4:
			f, err = feature.NewCircle(id, pt(lat, lon), r.Float64()*20000)
		}
		require.NoError(t, err)
		features[i] = f
	}
	return features
}

func ids(features []*feature.Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = f.ID
	}
	sort.Strings(out)
	return out
}

func TestNewFeatureIndex(t *testing.T) {
	index := NewFeatureIndex()
	assert.NotNil(t, index)
	assert.NotEmpty(t, index.partitions)
	assert.Equal(t, int64(0), index.Count())

	index = NewFeatureIndexWithWorkers(0)
	assert.NotEmpty(t, index.partitions)
}

func TestIndexFeatures(t *testing.T) {
	index := NewFeatureIndexWithWorkers(4)

	features := append(sampleFeatures(t), nil, &feature.Feature{ID: "empty"})
	err := index.IndexFeatures(features)
	assert.NoError(t, err)
	assert.Equal(t, int64(8), index.Count()) // nil and empty features are skipped

	// Counts accumulate across calls
	require.NoError(t, index.IndexFeatures([]*feature.Feature{feature.NewMarker("extra", 0, 0)}))
	assert.Equal(t, int64(9), index.Count())
	assert.Len(t, index.Features(), 9)
}

func TestQueryBox(t *testing.T) {
	index := NewFeatureIndexWithWorkers(4)
	require.NoError(t, index.IndexFeatures(sampleFeatures(t)))

	testCases := []struct {
		name     string
		box      models.Rectangle
		expected []string
	}{
		{
			"california",
			models.Rectangle{North: 42, South: 32, East: -114, West: -125},
			[]string{"Oakland", "SF", "San Jose", "box", "park", "road"},
		},
		{
			// Overlaps the road's envelope but not the road itself
			"corner of the road envelope",
			models.Rectangle{North: 37.774, South: 37.772, East: -122.49, West: -122.50},
			nil,
		},
		{
			"inside the park",
			models.Rectangle{North: 37.765, South: 37.764, East: -122.48, West: -122.49},
			[]string{"park"},
		},
		{
			"touching the circle",
			models.Rectangle{North: 40.8, South: 40.7, East: -74.0, West: -74.05},
			[]string{"zone"},
		},
		{
			"swapped east and west",
			models.Rectangle{North: 42, South: 41, East: -88, West: -87},
			[]string{"CHI"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := index.QueryBox(tc.box)
			assert.NoError(t, err)
			if tc.expected == nil {
				assert.Empty(t, results)
				return
			}
			assert.Equal(t, tc.expected, ids(results))
		})
	}
}

func TestQueryRadius(t *testing.T) {
	index := NewFeatureIndexWithWorkers(4)
	require.NoError(t, index.IndexFeatures(sampleFeatures(t)))

	// Flat-degree distances from SF: park ~0.031 deg, Oakland ~0.151 deg, San Jose ~0.689 deg.
	// The road starts at SF.
	sf := pt(37.7749, -122.4194)

	testCases := []struct {
		name     string
		radius   float64
		expected []string
	}{
		{"on top", 0, []string{"SF", "road"}},
		{"park edge", 0.05 * D, []string{"SF", "park", "road"}},
		{"oakland", 0.2 * D, []string{"Oakland", "SF", "park", "road"}},
		{"san jose", 0.8 * D, []string{"Oakland", "SF", "San Jose", "park", "road"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := index.QueryRadius(sf, tc.radius)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, ids(results))
		})
	}

	_, err := index.QueryRadius(sf, -1)
	assert.Error(t, err)
}

func TestNearestNeighbors(t *testing.T) {
	index := NewFeatureIndexWithWorkers(4)
	require.NoError(t, index.IndexFeatures(sampleFeatures(t)))

	results := index.NearestNeighbors(pt(37.7749, -122.4194), 3, false)
	require.Len(t, results, 3)
	// SF itself and the road starting there are at zero distance
	assert.Equal(t, 0.0, results[0].Distance)
	assert.Equal(t, 0.0, results[1].Distance)
	assert.ElementsMatch(t, []string{"SF", "road"}, []string{results[0].Feature.ID, results[1].Feature.ID})
	assert.Equal(t, "park", results[2].Feature.ID)

	assert.Nil(t, index.NearestNeighbors(pt(0, 0), 0, false))
	assert.Len(t, index.NearestNeighbors(pt(0, 0), 100, false), 8)
}

func TestNearestNeighborsMatchesBruteForce(t *testing.T) {
	features := randomFeatures(t, 2000, 3)
	index := NewFeatureIndexWithWorkers(6)
	require.NoError(t, index.IndexFeatures(features))

	r := rand.New(rand.NewSource(5))
	for q := 0; q < 20; q++ {
		center := pt(r.Float64()*20+30, r.Float64()*40-120)
		query := feature.New("q", center)

		for _, useCentroids := range []bool{false, true} {
			expected := make([]float64, len(features))
			for i, f := range features {
				expected[i] = feature.DistanceBetween(query, f, useCentroids)
			}
			sort.Float64s(expected)

			results := index.NearestNeighbors(center, 10, useCentroids)
			require.Len(t, results, 10)
			for i, n := range results {
				assert.InDelta(t, expected[i], n.Distance, 1e-6, "rank %d centroids=%v", i, useCentroids)
			}
		}
	}
}

func TestPersistence(t *testing.T) {
	// Create and populate index
	index1 := NewFeatureIndex()
	require.NoError(t, index1.IndexFeatures(randomFeatures(t, 100, 1)))

	tempFile := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, index1.SaveToFile(tempFile))

	// Load into new index
	index2 := NewFeatureIndexWithWorkers(3)
	require.NoError(t, index2.IndexFeatures(sampleFeatures(t)))
	require.NoError(t, index2.LoadFromFile(tempFile))

	assert.Equal(t, index1.Count(), index2.Count())
	assert.Equal(t, ids(index1.Features()), ids(index2.Features()))

	box := models.Rectangle{North: 40, South: 30, East: -110, West: -120}
	results1, err := index1.QueryBox(box)
	require.NoError(t, err)
	results2, err := index2.QueryBox(box)
	require.NoError(t, err)
	assert.Equal(t, ids(results1), ids(results2))

	assert.Error(t, index2.LoadFromFile(filepath.Join(t.TempDir(), "missing.gob")))
}

func TestClear(t *testing.T) {
	index := NewFeatureIndexWithWorkers(2)
	require.NoError(t, index.IndexFeatures(sampleFeatures(t)))
	index.Clear()

	assert.Equal(t, int64(0), index.Count())
	assert.Empty(t, index.Features())
	assert.Empty(t, index.NearestNeighbors(pt(0, 0), 3, false))
}

func TestConcurrentQueries(t *testing.T) {
	index := NewFeatureIndex()
	require.NoError(t, index.IndexFeatures(randomFeatures(t, 5000, 9)))

	// Run concurrent queries
	done := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func(seed int64) {
			defer func() { done <- true }()
			r := rand.New(rand.NewSource(seed))

			switch r.Intn(3) {
			case 0:
				lat, lon := r.Float64()*10+30, r.Float64()*10-120
				box := models.Rectangle{North: lat + r.Float64()*10, South: lat, East: lon + r.Float64()*10, West: lon}
				_, err := index.QueryBox(box)
				assert.NoError(t, err)

			case 1:
				center := pt(r.Float64()*20+30, r.Float64()*40-120)
				_, err := index.QueryRadius(center, r.Float64()*100000+10000)
				assert.NoError(t, err)

			case 2:
				center := pt(r.Float64()*20+30, r.Float64()*40-120)
				results := index.NearestNeighbors(center, r.Intn(50)+1, r.Intn(2) == 0)
				assert.NotEmpty(t, results)
			}
		}(int64(i))
	}

	for i := 0; i < 100; i++ {
		<-done
	}
}

func TestEnvelopeDistance(t *testing.T) {
	env := models.Rectangle{North: 1, South: -1, East: 1, West: -1}
	assert.Equal(t, 0.0, envelopeDistance(pt(0, 0), env))
	assert.InDelta(t, D, envelopeDistance(pt(0, 2), env), 1e-6)
	assert.InDelta(t, 5*D, envelopeDistance(pt(4, 5), env), 1e-6)
}

// Benchmarks
func BenchmarkIndexFeatures(b *testing.B) {
	sizes := []int{1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("%d_features", size), func(b *testing.B) {
			features := randomFeatures(b, size, 1)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				index := NewFeatureIndex()
				_ = index.IndexFeatures(features)
			}
		})
	}
}

func BenchmarkQueryRadius(b *testing.B) {
	index := NewFeatureIndex()
	_ = index.IndexFeatures(randomFeatures(b, 50000, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = index.QueryRadius(pt(37.5, -112.5), 50000)
	}
}

func BenchmarkNearestNeighbors(b *testing.B) {
	index := NewFeatureIndex()
	_ = index.IndexFeatures(randomFeatures(b, 50000, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = index.NearestNeighbors(pt(37.5, -112.5), 10, false)
	}
}
