// Package rtree indexes map features by their bounding rectangles in
// longitude-partitioned R-Trees. The trees only narrow the candidates;
// every answer is confirmed with the feature distance engine.
package rtree

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/geo"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 1e-7 // degrees of padding so points and flat lines have a non-empty rect
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialFeature wraps a feature to implement rtreego.Spatial
type spatialFeature struct {
	*feature.Feature
	rect     rtreego.Rect
	envelope models.Rectangle // padded, matches rect
}

func (sf *spatialFeature) Bounds() rtreego.Rect {
	return sf.rect
}

// Neighbor is a feature together with its distance from a query point in meters
type Neighbor struct {
	Feature  *feature.Feature
	Distance float64
}

// FeatureIndex is a thread-safe R-Tree index of features
type FeatureIndex struct {
	// Partitioned trees for parallel query execution
	partitions    []*rtreego.Rtree
	numPartitions int
	mu            sync.RWMutex
	itemCount     atomic.Int64

	// Union of the envelopes stored in each partition, used to route queries.
	// A feature is stored by the longitude of its envelope center but may
	// extend past the partition's band.
	extents   []models.Rectangle
	populated []bool

	logger *slog.Logger
}

// NewFeatureIndex creates an index with one partition per CPU
func NewFeatureIndex() *FeatureIndex {
	return NewFeatureIndexWithWorkers(runtime.NumCPU())
}

// NewFeatureIndexWithWorkers creates an index with the given partition count
func NewFeatureIndexWithWorkers(numPartitions int) *FeatureIndex {
	if numPartitions <= 0 {
		numPartitions = runtime.NumCPU()
	}

	g := &FeatureIndex{
		partitions:    make([]*rtreego.Rtree, numPartitions),
		numPartitions: numPartitions,
		extents:       make([]models.Rectangle, numPartitions),
		populated:     make([]bool, numPartitions),
		logger:        slog.Default(),
	}
	for i := range g.partitions {
		g.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
	}
	return g
}

// WithLogger sets the logger used for index maintenance messages
func (g *FeatureIndex) WithLogger(logger *slog.Logger) *FeatureIndex {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// IndexFeatures adds features to the index. Nil features and features
// without geometry are skipped.
func (g *FeatureIndex) IndexFeatures(features []*feature.Feature) error {
	if len(features) == 0 {
		return nil
	}

	// Group features by partition
	partitioned := make([][]*spatialFeature, g.numPartitions)
	lonRange := 360.0 / float64(g.numPartitions)
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}

		sf, err := newSpatialFeature(f)
		if err != nil {
			return err
		}

		centerLon := (sf.envelope.East + sf.envelope.West) / 2
		idx := int((centerLon + 180.0) / lonRange)
		if idx >= g.numPartitions {
			idx = g.numPartitions - 1
		}
		if idx < 0 {
			idx = 0
		}
		partitioned[idx] = append(partitioned[idx], sf)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var wg sync.WaitGroup
	var inserted atomic.Int64
	for i, items := range partitioned {
		if len(items) == 0 {
			continue
		}

		for _, item := range items {
			if g.populated[i] {
				g.extents[i] = g.extents[i].Extend(item.envelope)
			} else {
				g.extents[i] = item.envelope
				g.populated[i] = true
			}
		}

		wg.Add(1)
		go func(idx int, items []*spatialFeature) {
			defer wg.Done()

			// Each partition can be updated independently
			for _, item := range items {
				g.partitions[idx].Insert(item)
			}
			inserted.Add(int64(len(items)))
		}(i, items)
	}

	wg.Wait()
	g.itemCount.Add(inserted.Load())
	g.logger.Debug("indexed features", "inserted", inserted.Load(), "total", g.itemCount.Load())
	return nil
}

// QueryBox returns every feature that touches or overlaps the box
func (g *FeatureIndex) QueryBox(box models.Rectangle) ([]*feature.Feature, error) {
	rect, padded, err := toRect(geo.Envelope(box))
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}
	query := feature.New("query-box", box)

	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.search(rect, padded, func(f *feature.Feature) bool {
		return feature.DistanceBetween(query, f, false) == 0
	}), nil
}

// QueryRadius returns every feature whose nearest point lies within radiusMeters of center
func (g *FeatureIndex) QueryRadius(center models.Point, radiusMeters float64) ([]*feature.Feature, error) {
	if radiusMeters < 0 || math.IsNaN(radiusMeters) {
		return nil, fmt.Errorf("invalid radius search: radius %f", radiusMeters)
	}

	deg := geo.MetersToDegrees(radiusMeters)
	rect, padded, err := toRect(models.Rectangle{
		North: center.Lat + deg,
		South: center.Lat - deg,
		East:  center.Lon + deg,
		West:  center.Lon - deg,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}
	query := feature.New("query-point", center)

	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.search(rect, padded, func(f *feature.Feature) bool {
		return feature.DistanceBetween(query, f, false) <= radiusMeters
	}), nil
}

// search runs an intersect query on every relevant partition in parallel
// and keeps the candidates accepted by keep
func (g *FeatureIndex) search(rect rtreego.Rect, box models.Rectangle, keep func(*feature.Feature) bool) []*feature.Feature {
	relevant := g.getRelevantPartitions(box)
	resultsChan := make(chan []*feature.Feature, len(relevant))

	for _, partitionIdx := range relevant {
		go func(idx int) {
			results := g.partitions[idx].SearchIntersect(rect)

			matches := make([]*feature.Feature, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialFeature)
				if !ok || item.Feature == nil {
					continue
				}
				if keep(item.Feature) {
					matches = append(matches, item.Feature)
				}
			}
			resultsChan <- matches
		}(partitionIdx)
	}

	// Merge results from all partitions
	var all []*feature.Feature
	for range relevant {
		all = append(all, <-resultsChan...)
	}
	return all
}

// NearestNeighbors returns the k features closest to center, nearest first.
// Distances are boundary distances, or centroid distances with useCentroids.
// The result is exact: envelope distance is a lower bound for both modes.
func (g *FeatureIndex) NearestNeighbors(center models.Point, k int, useCentroids bool) []Neighbor {
	if k <= 0 {
		return nil
	}
	query := feature.New("query-point", center)

	g.mu.RLock()
	defer g.mu.RUnlock()

	// Search all partitions in parallel
	resultsChan := make(chan []Neighbor, g.numPartitions)
	for i := 0; i < g.numPartitions; i++ {
		go func(idx int) {
			resultsChan <- g.nearestInPartition(idx, query, k, useCentroids)
		}(i)
	}

	var all []Neighbor
	for i := 0; i < g.numPartitions; i++ {
		all = append(all, <-resultsChan...)
	}

	sortNeighbors(all)
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// nearestInPartition asks the tree for a growing number of candidates until
// the k-th best exact distance is no larger than the envelope distance of the
// farthest candidate fetched. Nothing left in the tree can beat it then.
func (g *FeatureIndex) nearestInPartition(idx int, query *feature.Feature, k int, useCentroids bool) []Neighbor {
	tree := g.partitions[idx]
	size := tree.Size()
	if size == 0 {
		return nil
	}

	center := query.Geometry.(models.Point)
	queryPoint := rtreego.Point{center.Lat, center.Lon}
	want := 2 * k

	for {
		if want > size {
			want = size
		}

		results := tree.NearestNeighbors(want, queryPoint)
		neighbors := make([]Neighbor, 0, len(results))
		frontier := 0.0
		for _, result := range results {
			item, ok := result.(*spatialFeature)
			if !ok || item.Feature == nil {
				continue
			}
			neighbors = append(neighbors, Neighbor{
				Feature:  item.Feature,
				Distance: feature.DistanceBetween(query, item.Feature, useCentroids),
			})
			frontier = math.Max(frontier, envelopeDistance(center, item.envelope))
		}

		sortNeighbors(neighbors)
		if want == size || (len(neighbors) >= k && neighbors[k-1].Distance <= frontier) {
			if len(neighbors) > k {
				neighbors = neighbors[:k]
			}
			return neighbors
		}
		want *= 2
	}
}

// Count returns the number of indexed features
func (g *FeatureIndex) Count() int64 {
	return g.itemCount.Load()
}

// Clear removes all features from the index
func (g *FeatureIndex) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < g.numPartitions; i++ {
		g.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
		g.extents[i] = models.Rectangle{}
		g.populated[i] = false
	}
	g.itemCount.Store(0)
}

// getRelevantPartitions returns the indices of populated partitions whose extent intersects box
func (g *FeatureIndex) getRelevantPartitions(box models.Rectangle) []int {
	var relevant []int
	for i, extent := range g.extents {
		if g.populated[i] && extent.Intersects(box) {
			relevant = append(relevant, i)
		}
	}
	return relevant
}

func newSpatialFeature(f *feature.Feature) (*spatialFeature, error) {
	rect, padded, err := toRect(feature.Envelope(f))
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", f.ID, err)
	}
	return &spatialFeature{Feature: f, rect: rect, envelope: padded}, nil
}

// toRect pads an envelope by tolerance and converts it to a (lat, lon) rtreego rect
func toRect(env models.Rectangle) (rtreego.Rect, models.Rectangle, error) {
	padded := models.Rectangle{
		North: env.North + tolerance,
		South: env.South - tolerance,
		East:  env.East + tolerance,
		West:  env.West - tolerance,
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{padded.South, padded.West},
		[]float64{padded.North - padded.South, padded.East - padded.West},
	)
	if err != nil {
		return rtreego.Rect{}, models.Rectangle{}, err
	}
	return rect, padded, nil
}

// envelopeDistance is the distance in meters from p to the nearest point of env
func envelopeDistance(p models.Point, env models.Rectangle) float64 {
	dLat := math.Max(0, math.Max(env.South-p.Lat, p.Lat-env.North))
	dLon := math.Max(0, math.Max(env.West-p.Lon, p.Lon-env.East))
	return geo.DegreesToMeters(math.Hypot(dLat, dLon))
}

func sortNeighbors(neighbors []Neighbor) {
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
}
