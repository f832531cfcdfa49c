package geo

import (
	"fmt"
	"math"

	"github.com/1F47E/geo-distance/pkg/models"
)

// Centroid returns the representative center of a geometry:
//   - marker: the point itself
//   - linestring: the point halfway along its length
//   - polygon: shoelace centroid of the exterior rings, area weighted across
//     a multipolygon (holes are not subtracted)
//   - rectangle: the middle of its bounds
//   - circle: its center
func Centroid(g models.Geometry) models.Point {
	switch g := g.(type) {
	case models.Point:
		return g
	case models.LineString:
		return lineMidpoint(g)
	case models.MultiPolygon:
		return multiPolygonCentroid(g)
	case models.Rectangle:
		return models.Point{Lat: (g.North + g.South) / 2, Lon: (g.East + g.West) / 2}
	case models.Circle:
		return g.Center
	}
	panic(fmt.Sprintf("geo: unsupported geometry %T", g))
}

func lineMidpoint(l models.LineString) models.Point {
	segs := l.Segments()
	lengths := make([]float64, len(segs))
	total := 0.0
	for i, s := range segs {
		lengths[i] = math.Hypot(s.To.Lat-s.From.Lat, s.To.Lon-s.From.Lon)
		total += lengths[i]
	}
	if total == 0 {
		return l.Points[0]
	}

	half := total / 2
	walked := 0.0
	for i, s := range segs {
		if lengths[i] > 0 && walked+lengths[i] >= half {
			t := (half - walked) / lengths[i]
			return models.Point{
				Lat: s.From.Lat + t*(s.To.Lat-s.From.Lat),
				Lon: s.From.Lon + t*(s.To.Lon-s.From.Lon),
			}
		}
		walked += lengths[i]
	}
	return l.Points[len(l.Points)-1]
}

func multiPolygonCentroid(mp models.MultiPolygon) models.Point {
	var lat, lon, totalArea float64
	centroids := make([]models.Point, len(mp))
	for i, p := range mp {
		c, area := RingCentroid(p.Exterior)
		centroids[i] = c
		lat += c.Lat * area
		lon += c.Lon * area
		totalArea += area
	}
	if totalArea > 0 {
		return models.Point{Lat: lat / totalArea, Lon: lon / totalArea}
	}
	return meanPoint(centroids)
}

// RingCentroid returns the shoelace centroid of a ring and its unsigned area in
// square degrees. Zero-area rings fall back to the mean of their vertices.
func RingCentroid(ring models.Ring) (models.Point, float64) {
	pts := ring.Points
	// Shift to the first vertex to keep the cross products small
	origin := pts[0]
	var twiceArea, cx, cy float64
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		ax, ay := a.Lon-origin.Lon, a.Lat-origin.Lat
		bx, by := b.Lon-origin.Lon, b.Lat-origin.Lat
		cross := ax*by - bx*ay
		twiceArea += cross
		cx += (ax + bx) * cross
		cy += (ay + by) * cross
	}
	if twiceArea == 0 {
		return meanPoint(pts), 0
	}
	return models.Point{
		Lat: origin.Lat + cy/(3*twiceArea),
		Lon: origin.Lon + cx/(3*twiceArea),
	}, math.Abs(twiceArea) / 2
}

func meanPoint(pts []models.Point) models.Point {
	var lat, lon float64
	for _, p := range pts {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(pts))
	return models.Point{Lat: lat / n, Lon: lon / n}
}
