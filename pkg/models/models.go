// Package models holds the geometry shapes the distance engine operates on.
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewPoints is returned when a ring or linestring is built from too few distinct points
	ErrTooFewPoints = errors.New("too few points")
	// ErrNegativeRadius is returned for circles with a radius below zero
	ErrNegativeRadius = errors.New("negative radius")
	// ErrInvertedBounds is returned for rectangles whose north edge is below the south edge
	ErrInvertedBounds = errors.New("north is below south")
	// ErrHoleCount is returned when the hole list does not line up with the polygon list
	ErrHoleCount = errors.New("hole list does not match polygon list")
)

// Kind identifies one of the five geometry kinds a feature can hold.
// The order is used to canonicalize kind pairs.
type Kind int

const (
	KindMarker Kind = iota + 1
	KindLineString
	KindPolygon
	KindRectangle
	KindCircle
)

func (k Kind) String() string {
	switch k {
	case KindMarker:
		return "marker"
	case KindLineString:
		return "linestring"
	case KindPolygon:
		return "polygon"
	case KindRectangle:
		return "rectangle"
	case KindCircle:
		return "circle"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Geometry is implemented by Point, LineString, MultiPolygon, Rectangle and Circle
type Geometry interface {
	Kind() Kind
}

// Point represents a geographic location in decimal degrees
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

func (Point) Kind() Kind { return KindMarker }

// Segment is an ordered pair of points
type Segment struct {
	From Point
	To   Point
}

// Ring is a closed loop of points. The closing edge from the last point
// back to the first is implicit.
type Ring struct {
	Points []Point
}

// NewRing validates and builds a ring. A trailing copy of the first point is dropped.
func NewRing(points []Point) (Ring, error) {
	pts := make([]Point, len(points))
	copy(pts, points)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if n := distinctCount(pts); n < 3 {
		return Ring{}, fmt.Errorf("ring has %d distinct points, need 3: %w", n, ErrTooFewPoints)
	}
	return Ring{Points: pts}, nil
}

// Edges returns every edge of the ring including the closing one
func (r Ring) Edges() []Segment {
	n := len(r.Points)
	edges := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, Segment{From: r.Points[i], To: r.Points[(i+1)%n]})
	}
	return edges
}

// Polygon is an exterior ring plus the holes cut out of it
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

// NewPolygon validates the exterior and every hole ring
func NewPolygon(exterior []Point, holes ...[]Point) (Polygon, error) {
	ext, err := NewRing(exterior)
	if err != nil {
		return Polygon{}, fmt.Errorf("exterior: %w", err)
	}
	p := Polygon{Exterior: ext}
	for i, h := range holes {
		ring, err := NewRing(h)
		if err != nil {
			return Polygon{}, fmt.Errorf("hole %d: %w", i, err)
		}
		p.Holes = append(p.Holes, ring)
	}
	return p, nil
}

// Rings returns the exterior followed by the holes
func (p Polygon) Rings() []Ring {
	rings := make([]Ring, 0, 1+len(p.Holes))
	rings = append(rings, p.Exterior)
	return append(rings, p.Holes...)
}

// MultiPolygon is the polygon geometry kind. A single polygon is a
// MultiPolygon of length one.
type MultiPolygon []Polygon

func (MultiPolygon) Kind() Kind { return KindPolygon }

// NewMultiPolygon builds polygons from parallel exterior and hole lists.
// holes may be nil; otherwise it must have one entry per exterior, and an
// empty entry means that polygon has no holes.
func NewMultiPolygon(exteriors [][]Point, holes [][][]Point) (MultiPolygon, error) {
	if len(exteriors) == 0 {
		return nil, fmt.Errorf("multipolygon has no polygons: %w", ErrTooFewPoints)
	}
	if holes != nil && len(holes) != len(exteriors) {
		return nil, fmt.Errorf("%d hole lists for %d polygons: %w", len(holes), len(exteriors), ErrHoleCount)
	}
	mp := make(MultiPolygon, 0, len(exteriors))
	for i, ext := range exteriors {
		var h [][]Point
		if holes != nil {
			h = holes[i]
		}
		p, err := NewPolygon(ext, h...)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		mp = append(mp, p)
	}
	return mp, nil
}

// LineString is an open polyline of at least two points
type LineString struct {
	Points []Point
}

func (LineString) Kind() Kind { return KindLineString }

// NewLineString validates and builds a linestring
func NewLineString(points []Point) (LineString, error) {
	if len(points) < 2 {
		return LineString{}, fmt.Errorf("linestring has %d points, need 2: %w", len(points), ErrTooFewPoints)
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	return LineString{Points: pts}, nil
}

// Segments returns the consecutive segments of the linestring
func (l LineString) Segments() []Segment {
	segs := make([]Segment, 0, len(l.Points)-1)
	for i := 0; i+1 < len(l.Points); i++ {
		segs = append(segs, Segment{From: l.Points[i], To: l.Points[i+1]})
	}
	return segs
}

// Rectangle is an axis-aligned box in degrees. East and west are plain
// bounds; boxes crossing the antimeridian are not supported.
type Rectangle struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

func (Rectangle) Kind() Kind { return KindRectangle }

// NewRectangle validates and builds a rectangle
func NewRectangle(north, south, east, west float64) (Rectangle, error) {
	if north < south {
		return Rectangle{}, fmt.Errorf("north %f, south %f: %w", north, south, ErrInvertedBounds)
	}
	return Rectangle{North: north, South: south, East: east, West: west}, nil
}

// Polygon materializes the rectangle as a four-corner polygon
func (r Rectangle) Polygon() Polygon {
	return Polygon{Exterior: Ring{Points: []Point{
		{Lat: r.North, Lon: r.West},
		{Lat: r.North, Lon: r.East},
		{Lat: r.South, Lon: r.East},
		{Lat: r.South, Lon: r.West},
	}}}
}

// Intersects reports whether two rectangles share any area or edge
func (r Rectangle) Intersects(o Rectangle) bool {
	return r.South <= o.North && r.North >= o.South &&
		r.West <= o.East && r.East >= o.West
}

// Extend grows the rectangle to cover o
func (r Rectangle) Extend(o Rectangle) Rectangle {
	return Rectangle{
		North: max(r.North, o.North),
		South: min(r.South, o.South),
		East:  max(r.East, o.East),
		West:  min(r.West, o.West),
	}
}

// Circle is a center point and a radius in meters
type Circle struct {
	Center Point   `json:"center" yaml:"center"`
	Radius float64 `json:"radius_m" yaml:"radius_m"`
}

func (Circle) Kind() Kind { return KindCircle }

// NewCircle validates and builds a circle
func NewCircle(center Point, radiusMeters float64) (Circle, error) {
	if radiusMeters < 0 {
		return Circle{}, fmt.Errorf("radius %f: %w", radiusMeters, ErrNegativeRadius)
	}
	return Circle{Center: center, Radius: radiusMeters}, nil
}

func distinctCount(points []Point) int {
	seen := make(map[Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}
