package geo

import (
	"math"

	"github.com/1F47E/geo-distance/pkg/models"
)

// PointToPoint returns the planar distance between two points in meters
func PointToPoint(a, b models.Point) float64 {
	return DegreesToMeters(math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon))
}

// ClosestPointOnSegment projects p onto seg, clamped to the segment ends
func ClosestPointOnSegment(p models.Point, seg models.Segment) models.Point {
	dLat := seg.To.Lat - seg.From.Lat
	dLon := seg.To.Lon - seg.From.Lon
	lenSq := dLat*dLat + dLon*dLon
	if lenSq == 0 {
		return seg.From
	}

	t := ((p.Lat-seg.From.Lat)*dLat + (p.Lon-seg.From.Lon)*dLon) / lenSq
	t = math.Max(0, math.Min(1, t))

	return models.Point{
		Lat: seg.From.Lat + t*dLat,
		Lon: seg.From.Lon + t*dLon,
	}
}

// PointToSegment returns the distance in meters from p to the nearest point of seg
func PointToSegment(p models.Point, seg models.Segment) float64 {
	return PointToPoint(p, ClosestPointOnSegment(p, seg))
}

// SegmentToSegment returns zero for intersecting segments, otherwise the
// smallest endpoint-to-segment distance
func SegmentToSegment(s1, s2 models.Segment) float64 {
	if SegmentsIntersect(s1, s2) {
		return 0
	}
	return min(
		PointToSegment(s1.From, s2),
		PointToSegment(s1.To, s2),
		PointToSegment(s2.From, s1),
		PointToSegment(s2.To, s1),
	)
}

// SegmentsIntersect reports whether two closed segments share at least one point
func SegmentsIntersect(s1, s2 models.Segment) bool {
	o1 := orientation(s1.From, s1.To, s2.From)
	o2 := orientation(s1.From, s1.To, s2.To)
	o3 := orientation(s2.From, s2.To, s1.From)
	o4 := orientation(s2.From, s2.To, s1.To)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear cases
	switch {
	case o1 == 0 && onSegment(s2.From, s1):
		return true
	case o2 == 0 && onSegment(s2.To, s1):
		return true
	case o3 == 0 && onSegment(s1.From, s2):
		return true
	case o4 == 0 && onSegment(s1.To, s2):
		return true
	}
	return false
}

// orientation returns 1 for a counter-clockwise turn a->b->c, -1 for clockwise and 0 for collinear
func orientation(a, b, c models.Point) int {
	cross := (b.Lon-a.Lon)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lon-a.Lon)
	switch {
	case cross > 0:
		return 1
	case cross < 0:
		return -1
	}
	return 0
}

// onSegment assumes p is collinear with seg
func onSegment(p models.Point, seg models.Segment) bool {
	return p.Lat >= math.Min(seg.From.Lat, seg.To.Lat) && p.Lat <= math.Max(seg.From.Lat, seg.To.Lat) &&
		p.Lon >= math.Min(seg.From.Lon, seg.To.Lon) && p.Lon <= math.Max(seg.From.Lon, seg.To.Lon)
}

// PointInRing is an even-odd ray casting test. Points exactly on an edge may
// land on either side.
func PointInRing(p models.Point, ring models.Ring) bool {
	inside := false
	pts := ring.Points
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLon := a.Lon + (p.Lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
			if p.Lon < crossLon {
				inside = !inside
			}
		}
	}
	return inside
}

// PointInPolygon reports whether p is inside the exterior ring and outside every hole
func PointInPolygon(p models.Point, polygon models.Polygon) bool {
	if !PointInRing(p, polygon.Exterior) {
		return false
	}
	for _, hole := range polygon.Holes {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// RingToRing returns zero when either ring contains the other or their edges
// cross, otherwise the smallest edge-to-edge distance. Cost is O(|r1|*|r2|).
func RingToRing(r1, r2 models.Ring) float64 {
	if PointInRing(r1.Points[0], r2) || PointInRing(r2.Points[0], r1) {
		return 0
	}
	return EdgesDistance(r1.Edges(), r2.Edges())
}

// EdgesDistance returns the smallest SegmentToSegment over every pair,
// stopping early once the sets touch
func EdgesDistance(a, b []models.Segment) float64 {
	best := math.Inf(1)
	for _, s1 := range a {
		for _, s2 := range b {
			d := SegmentToSegment(s1, s2)
			if d == 0 {
				return 0
			}
			best = math.Min(best, d)
		}
	}
	return best
}

// PointToEdges returns the smallest PointToSegment over edges
func PointToEdges(p models.Point, edges []models.Segment) float64 {
	best := math.Inf(1)
	for _, e := range edges {
		best = math.Min(best, PointToSegment(p, e))
	}
	return best
}

// PolygonEdges returns the edges of the exterior and every hole
func PolygonEdges(polygon models.Polygon) []models.Segment {
	var edges []models.Segment
	for _, ring := range polygon.Rings() {
		edges = append(edges, ring.Edges()...)
	}
	return edges
}
