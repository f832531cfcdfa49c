// Package loader reads feature files: GeoJSON feature collections and YAML
// feature sets.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/1F47E/geo-distance/pkg/feature"
)

// ErrDuplicateID is returned when two features in a file share an id
var ErrDuplicateID = errors.New("duplicate feature id")

// LoadFile reads features from path. The format follows the extension:
// .geojson and .json are GeoJSON, .yaml and .yml are YAML feature sets.
func LoadFile(path string) ([]*feature.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var features []*feature.Feature
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		features, err = ParseGeoJSON(data)
	case ".yaml", ".yml":
		features, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported feature file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := checkUniqueIDs(features); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return features, nil
}

// ByID indexes features by id
func ByID(features []*feature.Feature) map[string]*feature.Feature {
	out := make(map[string]*feature.Feature, len(features))
	for _, f := range features {
		out[f.ID] = f
	}
	return out
}

func checkUniqueIDs(features []*feature.Feature) error {
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if _, ok := seen[f.ID]; ok {
			return fmt.Errorf("%s: %w", f.ID, ErrDuplicateID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}
