package postgis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1F47E/geo-distance/pkg/models"
)

// EncodeWKT renders a geometry as Well-Known Text in (lon lat) axis order.
// Rings are closed explicitly. A circle is stored as its center point, the
// radius goes in its own column.
func EncodeWKT(g models.Geometry) (string, error) {
	var b strings.Builder

	switch g := g.(type) {
	case models.Point:
		b.WriteString("POINT(")
		writeCoord(&b, g)
		b.WriteString(")")
	case models.LineString:
		b.WriteString("LINESTRING")
		writeCoords(&b, g.Points, false)
	case models.MultiPolygon:
		if len(g) == 0 {
			return "", fmt.Errorf("empty multipolygon")
		}
		b.WriteString("MULTIPOLYGON(")
		for i, polygon := range g {
			if i > 0 {
				b.WriteString(",")
			}
			writePolygon(&b, polygon)
		}
		b.WriteString(")")
	case models.Rectangle:
		b.WriteString("POLYGON")
		writePolygon(&b, g.Polygon())
	case models.Circle:
		b.WriteString("POINT(")
		writeCoord(&b, g.Center)
		b.WriteString(")")
	default:
		return "", fmt.Errorf("unsupported geometry %T", g)
	}

	return b.String(), nil
}

// radiusOf returns the radius column value for a geometry
func radiusOf(g models.Geometry) float64 {
	if c, ok := g.(models.Circle); ok {
		return c.Radius
	}
	return 0
}

func writePolygon(b *strings.Builder, polygon models.Polygon) {
	b.WriteString("(")
	for i, ring := range polygon.Rings() {
		if i > 0 {
			b.WriteString(",")
		}
		writeCoords(b, ring.Points, true)
	}
	b.WriteString(")")
}

func writeCoords(b *strings.Builder, pts []models.Point, closed bool) {
	b.WriteString("(")
	for i, p := range pts {
		if i > 0 {
			b.WriteString(",")
		}
		writeCoord(b, p)
	}
	if closed && len(pts) > 0 {
		b.WriteString(",")
		writeCoord(b, pts[0])
	}
	b.WriteString(")")
}

func writeCoord(b *strings.Builder, p models.Point) {
	b.WriteString(strconv.FormatFloat(p.Lon, 'f', -1, 64))
	b.WriteString(" ")
	b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
}
