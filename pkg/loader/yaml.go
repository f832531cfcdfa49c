package loader

import (
	"fmt"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/twpayne/go-polyline"
	"gopkg.in/yaml.v3"
)

// featureSet is the YAML layout of a feature file. Each entry sets exactly
// one of the geometry keys.
type featureSet struct {
	Features []featureSpec `yaml:"features"`
}

type featureSpec struct {
	ID        string            `yaml:"id"`
	Marker    *models.Point     `yaml:"marker"`
	Line      []models.Point    `yaml:"line"`
	Polyline  string            `yaml:"polyline"`
	Polygons  []polygonSpec     `yaml:"polygons"`
	Rectangle *models.Rectangle `yaml:"rectangle"`
	Circle    *models.Circle    `yaml:"circle"`
}

type polygonSpec struct {
	Exterior []models.Point   `yaml:"exterior"`
	Holes    [][]models.Point `yaml:"holes"`
}

// ParseYAML decodes a YAML feature set
func ParseYAML(data []byte) ([]*feature.Feature, error) {
	var set featureSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}

	features := make([]*feature.Feature, 0, len(set.Features))
	for i, entry := range set.Features {
		if entry.ID == "" {
			entry.ID = fmt.Sprintf("feature_%d", i)
		}
		f, err := entry.build()
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

func (s featureSpec) build() (*feature.Feature, error) {
	set := 0
	for _, present := range []bool{
		s.Marker != nil, s.Line != nil, s.Polyline != "",
		s.Polygons != nil, s.Rectangle != nil, s.Circle != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("feature %s: %d geometries given, need exactly one", s.ID, set)
	}

	switch {
	case s.Marker != nil:
		return feature.NewMarker(s.ID, s.Marker.Lat, s.Marker.Lon), nil

	case s.Line != nil:
		return feature.NewLineString(s.ID, s.Line)

	case s.Polyline != "":
		points, err := DecodePolyline(s.Polyline)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", s.ID, err)
		}
		return feature.NewLineString(s.ID, points)

	case s.Polygons != nil:
		exteriors := make([][]models.Point, len(s.Polygons))
		holes := make([][][]models.Point, len(s.Polygons))
		for i, p := range s.Polygons {
			exteriors[i] = p.Exterior
			holes[i] = p.Holes
		}
		return feature.NewMultiPolygon(s.ID, exteriors, holes)

	case s.Rectangle != nil:
		r := s.Rectangle
		return feature.NewRectangle(s.ID, r.North, r.South, r.East, r.West)

	default:
		return feature.NewCircle(s.ID, s.Circle.Center, s.Circle.Radius)
	}
}

// DecodePolyline decodes a Google encoded polyline into points
func DecodePolyline(encoded string) ([]models.Point, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("failed to decode polyline: %d trailing bytes", len(rest))
	}

	points := make([]models.Point, len(coords))
	for i, c := range coords {
		points[i] = models.Point{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}
