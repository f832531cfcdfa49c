// Package feature wraps geometries into map features and answers distance and
// bearing queries between any two of them.
package feature

import (
	"fmt"

	"github.com/1F47E/geo-distance/pkg/geo"
	"github.com/1F47E/geo-distance/pkg/models"
)

// NoAnswer is returned by distance and bearing queries when a feature is missing
const NoAnswer = -1.0

// Feature is a single map feature owning one geometry. The engine never
// modifies it.
type Feature struct {
	ID       string          `json:"id"`
	Geometry models.Geometry `json:"geometry"`
}

// Kind returns the kind of the wrapped geometry
func (f *Feature) Kind() models.Kind {
	return f.Geometry.Kind()
}

// New wraps an already validated geometry
func New(id string, g models.Geometry) *Feature {
	return &Feature{ID: id, Geometry: g}
}

// NewMarker creates a point feature
func NewMarker(id string, lat, lon float64) *Feature {
	return New(id, models.Point{Lat: lat, Lon: lon})
}

// NewLineString creates an open polyline feature
func NewLineString(id string, points []models.Point) (*Feature, error) {
	line, err := models.NewLineString(points)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", id, err)
	}
	return New(id, line), nil
}

// NewPolygon creates a single polygon feature with optional holes
func NewPolygon(id string, exterior []models.Point, holes ...[]models.Point) (*Feature, error) {
	p, err := models.NewPolygon(exterior, holes...)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", id, err)
	}
	return New(id, models.MultiPolygon{p}), nil
}

// NewMultiPolygon creates a multipolygon feature; holes are indexed per polygon
func NewMultiPolygon(id string, exteriors [][]models.Point, holes [][][]models.Point) (*Feature, error) {
	mp, err := models.NewMultiPolygon(exteriors, holes)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", id, err)
	}
	return New(id, mp), nil
}

// NewRectangle creates an axis-aligned rectangle feature
func NewRectangle(id string, north, south, east, west float64) (*Feature, error) {
	r, err := models.NewRectangle(north, south, east, west)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", id, err)
	}
	return New(id, r), nil
}

// NewCircle creates a circle feature with a radius in meters
func NewCircle(id string, center models.Point, radiusMeters float64) (*Feature, error) {
	c, err := models.NewCircle(center, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", id, err)
	}
	return New(id, c), nil
}

// Centroid returns the representative center of the feature
func Centroid(f *Feature) models.Point {
	return geo.Centroid(f.Geometry)
}

// Envelope returns the bounding rectangle of the feature
func Envelope(f *Feature) models.Rectangle {
	return geo.Envelope(f.Geometry)
}
