package feature

import (
	"fmt"
	"math"

	"github.com/1F47E/geo-distance/pkg/geo"
	"github.com/1F47E/geo-distance/pkg/models"
)

// DistanceBetween returns the distance in meters between two features.
//
// With useCentroids the distance is taken between the two centroids. Otherwise
// it is the gap between the nearest points of the two geometries, zero when
// they touch, overlap or contain one another. Polygons, rectangles and circles
// count as filled areas. Returns NoAnswer if either feature is nil.
//
// The result does not depend on argument order.
func DistanceBetween(a, b *Feature, useCentroids bool) float64 {
	if a == nil || b == nil || a.Geometry == nil || b.Geometry == nil {
		return NoAnswer
	}
	if useCentroids {
		return geo.PointToPoint(Centroid(a), Centroid(b))
	}
	return boundaryDistance(a.Geometry, b.Geometry)
}

// boundaryDistance dispatches on the kind pair. Pairs are put in kind order
// first, so only the upper triangle of the table is spelled out.
func boundaryDistance(a, b models.Geometry) float64 {
	if a.Kind() > b.Kind() {
		a, b = b, a
	}

	switch a := a.(type) {
	case models.Point:
		switch b := b.(type) {
		case models.Point:
			return geo.PointToPoint(a, b)
		case models.LineString:
			return geo.PointToEdges(a, b.Segments())
		case models.MultiPolygon:
			return pointToPolygons(a, b)
		case models.Rectangle:
			return pointToPolygons(a, rectanglePolygons(b))
		case models.Circle:
			return circleGap(a, b)
		}

	case models.LineString:
		switch b := b.(type) {
		case models.LineString:
			return geo.EdgesDistance(a.Segments(), b.Segments())
		case models.MultiPolygon:
			return lineToPolygons(a, b)
		case models.Rectangle:
			return lineToPolygons(a, rectanglePolygons(b))
		case models.Circle:
			return circleGap(a, b)
		}

	case models.MultiPolygon:
		switch b := b.(type) {
		case models.MultiPolygon:
			return polygonsToPolygons(a, b)
		case models.Rectangle:
			return polygonsToPolygons(a, rectanglePolygons(b))
		case models.Circle:
			return circleGap(a, b)
		}

	case models.Rectangle:
		switch b := b.(type) {
		case models.Rectangle:
			return polygonsToPolygons(rectanglePolygons(a), rectanglePolygons(b))
		case models.Circle:
			return circleGap(a, b)
		}

	case models.Circle:
		if b, ok := b.(models.Circle); ok {
			return circlesGap(a, b)
		}
	}

	panic(fmt.Sprintf("feature: no distance rule for %T and %T", a, b))
}

// circleGap measures g against the circle center, then removes the radius
func circleGap(g models.Geometry, c models.Circle) float64 {
	return math.Max(0, boundaryDistance(g, c.Center)-c.Radius)
}

// circlesGap subtracts both radii at once; the result is exact under argument swap
func circlesGap(a, b models.Circle) float64 {
	return math.Max(0, geo.PointToPoint(a.Center, b.Center)-(a.Radius+b.Radius))
}

func rectanglePolygons(r models.Rectangle) models.MultiPolygon {
	return models.MultiPolygon{r.Polygon()}
}

func pointToPolygons(p models.Point, mp models.MultiPolygon) float64 {
	best := math.Inf(1)
	for _, polygon := range mp {
		if geo.PointInPolygon(p, polygon) {
			return 0
		}
		best = math.Min(best, geo.PointToEdges(p, geo.PolygonEdges(polygon)))
	}
	return best
}

func lineToPolygons(l models.LineString, mp models.MultiPolygon) float64 {
	segments := l.Segments()
	best := math.Inf(1)
	for _, polygon := range mp {
		for _, p := range l.Points {
			if geo.PointInPolygon(p, polygon) {
				return 0
			}
		}
		d := geo.EdgesDistance(segments, geo.PolygonEdges(polygon))
		if d == 0 {
			return 0
		}
		best = math.Min(best, d)
	}
	return best
}

func polygonsToPolygons(a, b models.MultiPolygon) float64 {
	best := math.Inf(1)
	for _, p := range a {
		for _, q := range b {
			d := polygonToPolygon(p, q)
			if d == 0 {
				return 0
			}
			best = math.Min(best, d)
		}
	}
	return best
}

// polygonToPolygon compares exteriors only when neither polygon has holes.
// With holes, one polygon may sit inside the other's hole, so containment is
// tested hole-aware and hole edges join the edge search.
func polygonToPolygon(p, q models.Polygon) float64 {
	if len(p.Holes) == 0 && len(q.Holes) == 0 {
		return geo.RingToRing(p.Exterior, q.Exterior)
	}
	if geo.PointInPolygon(p.Exterior.Points[0], q) || geo.PointInPolygon(q.Exterior.Points[0], p) {
		return 0
	}
	return geo.EdgesDistance(geo.PolygonEdges(p), geo.PolygonEdges(q))
}
