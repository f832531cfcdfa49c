package geo

import (
	"fmt"
	"math"

	"github.com/1F47E/geo-distance/pkg/models"
)

// ClosestPoint returns the point of g nearest to p. Areas (polygons,
// rectangles, circles) return p itself when they contain it.
func ClosestPoint(g models.Geometry, p models.Point) models.Point {
	switch g := g.(type) {
	case models.Point:
		return g
	case models.LineString:
		return closestOnEdges(p, g.Segments())
	case models.MultiPolygon:
		return closestOnMultiPolygon(g, p)
	case models.Rectangle:
		return closestOnMultiPolygon(models.MultiPolygon{g.Polygon()}, p)
	case models.Circle:
		return closestOnCircle(g, p)
	}
	panic(fmt.Sprintf("geo: unsupported geometry %T", g))
}

func closestOnMultiPolygon(mp models.MultiPolygon, p models.Point) models.Point {
	var edges []models.Segment
	for _, polygon := range mp {
		if PointInPolygon(p, polygon) {
			return p
		}
		edges = append(edges, PolygonEdges(polygon)...)
	}
	return closestOnEdges(p, edges)
}

func closestOnEdges(p models.Point, edges []models.Segment) models.Point {
	best := math.Inf(1)
	var closest models.Point
	for _, e := range edges {
		c := ClosestPointOnSegment(p, e)
		if d := math.Hypot(c.Lat-p.Lat, c.Lon-p.Lon); d < best {
			best = d
			closest = c
		}
	}
	return closest
}

func closestOnCircle(c models.Circle, p models.Point) models.Point {
	d := PointToPoint(c.Center, p)
	if d <= c.Radius {
		return p
	}
	scale := c.Radius / d
	return models.Point{
		Lat: c.Center.Lat + (p.Lat-c.Center.Lat)*scale,
		Lon: c.Center.Lon + (p.Lon-c.Center.Lon)*scale,
	}
}

// Envelope returns the bounding rectangle of g. Circles are padded by their
// radius converted to degrees.
func Envelope(g models.Geometry) models.Rectangle {
	switch g := g.(type) {
	case models.Point:
		return models.Rectangle{North: g.Lat, South: g.Lat, East: g.Lon, West: g.Lon}
	case models.LineString:
		return pointsEnvelope(g.Points)
	case models.MultiPolygon:
		env := pointsEnvelope(g[0].Exterior.Points)
		for _, polygon := range g[1:] {
			env = env.Extend(pointsEnvelope(polygon.Exterior.Points))
		}
		return env
	case models.Rectangle:
		// East and west are plain bounds and may come in either order
		return pointsEnvelope(g.Polygon().Exterior.Points)
	case models.Circle:
		r := MetersToDegrees(g.Radius)
		return models.Rectangle{
			North: g.Center.Lat + r,
			South: g.Center.Lat - r,
			East:  g.Center.Lon + r,
			West:  g.Center.Lon - r,
		}
	}
	panic(fmt.Sprintf("geo: unsupported geometry %T", g))
}

func pointsEnvelope(pts []models.Point) models.Rectangle {
	env := models.Rectangle{North: pts[0].Lat, South: pts[0].Lat, East: pts[0].Lon, West: pts[0].Lon}
	for _, p := range pts[1:] {
		env.North = math.Max(env.North, p.Lat)
		env.South = math.Min(env.South, p.Lat)
		env.East = math.Max(env.East, p.Lon)
		env.West = math.Min(env.West, p.Lon)
	}
	return env
}
