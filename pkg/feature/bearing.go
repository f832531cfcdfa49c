package feature

import (
	"github.com/1F47E/geo-distance/pkg/geo"
	"github.com/1F47E/geo-distance/pkg/models"
)

// BearingBetween returns the compass bearing in degrees [0, 360) from a to b.
//
// The origin is always the centroid of a. The target is the centroid of b
// when useCentroids is set, otherwise the point of b nearest to that origin.
// An origin inside b yields 0. Returns NoAnswer if either feature is nil.
func BearingBetween(a, b *Feature, useCentroids bool) float64 {
	if a == nil || b == nil || a.Geometry == nil || b.Geometry == nil {
		return NoAnswer
	}
	from := Centroid(a)
	var to models.Point
	if useCentroids {
		to = Centroid(b)
	} else {
		to = NearestPoint(b, from)
	}
	return geo.Bearing(from, to)
}

// NearestPoint returns the point of f closest to p
func NearestPoint(f *Feature, p models.Point) models.Point {
	return geo.ClosestPoint(f.Geometry, p)
}
