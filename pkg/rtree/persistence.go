package rtree

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/models"
)

func init() {
	// Feature.Geometry is an interface; gob needs the concrete kinds
	gob.Register(models.Point{})
	gob.Register(models.LineString{})
	gob.Register(models.MultiPolygon{})
	gob.Register(models.Rectangle{})
	gob.Register(models.Circle{})
}

// IndexData represents the serializable form of the feature index
type IndexData struct {
	Features []*feature.Feature `json:"features"`
	Count    int64              `json:"count"`
}

// Features returns every indexed feature in no particular order
func (g *FeatureIndex) Features() []*feature.Feature {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var all []*feature.Feature
	for i, tree := range g.partitions {
		if !g.populated[i] {
			continue
		}
		// rtreego has no iterator; the partition extent covers every item in it
		rect, _, err := toRect(g.extents[i])
		if err != nil {
			continue
		}
		for _, result := range tree.SearchIntersect(rect) {
			if item, ok := result.(*spatialFeature); ok {
				all = append(all, item.Feature)
			}
		}
	}
	return all
}

// SaveToFile saves the indexed features to a binary file
func (g *FeatureIndex) SaveToFile(filename string) error {
	data := IndexData{
		Features: g.Features(),
		Count:    g.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	g.logger.Debug("saved index", "file", filename, "features", len(data.Features))
	return nil
}

// LoadFromFile replaces the index contents with the features stored in a file
func (g *FeatureIndex) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	// Clear existing index and rebuild
	g.Clear()
	if err := g.IndexFeatures(data.Features); err != nil {
		return fmt.Errorf("failed to index features: %w", err)
	}

	g.logger.Debug("loaded index", "file", filename, "features", g.Count())
	return nil
}
