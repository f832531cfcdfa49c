package loader

import (
	"fmt"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON properties that select the two area kinds GeoJSON has no type for
const (
	propRadius = "radius_m"
	propShape  = "shape"
	propID     = "id"
	propName   = "name"

	shapeRectangle = "rectangle"
)

// ParseGeoJSON decodes a FeatureCollection. A Point with a radius_m property
// becomes a circle and a Polygon with shape "rectangle" becomes a rectangle
// spanning the polygon's bounds.
func ParseGeoJSON(data []byte) ([]*feature.Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode geojson: %w", err)
	}

	features := make([]*feature.Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		f, err := fromGeoJSON(gf, i)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

func fromGeoJSON(gf *geojson.Feature, index int) (*feature.Feature, error) {
	id := featureID(gf, index)

	switch g := gf.Geometry.(type) {
	case orb.Point:
		if radius, ok := gf.Properties[propRadius]; ok {
			r, ok := radius.(float64)
			if !ok {
				return nil, fmt.Errorf("feature %s: %s is not a number", id, propRadius)
			}
			return feature.NewCircle(id, toPoint(g), r)
		}
		return feature.NewMarker(id, g.Lat(), g.Lon()), nil

	case orb.LineString:
		return feature.NewLineString(id, toPoints(g))

	case orb.Polygon:
		if stringProperty(gf, propShape) == shapeRectangle {
			b := g.Bound()
			return feature.NewRectangle(id, b.Top(), b.Bottom(), b.Right(), b.Left())
		}
		exterior, holes := polygonRings(g)
		return feature.NewMultiPolygon(id, [][]models.Point{exterior}, [][][]models.Point{holes})

	case orb.MultiPolygon:
		exteriors := make([][]models.Point, len(g))
		holes := make([][][]models.Point, len(g))
		for i, polygon := range g {
			exteriors[i], holes[i] = polygonRings(polygon)
		}
		return feature.NewMultiPolygon(id, exteriors, holes)

	case nil:
		return nil, fmt.Errorf("feature %s: missing geometry", id)
	}

	return nil, fmt.Errorf("feature %s: unsupported geometry %s", id, gf.Geometry.GeoJSONType())
}

// featureID prefers the GeoJSON id, then the id or name property
func featureID(gf *geojson.Feature, index int) string {
	if gf.ID != nil {
		return fmt.Sprint(gf.ID)
	}
	for _, key := range []string{propID, propName} {
		if v := stringProperty(gf, key); v != "" {
			return v
		}
	}
	return fmt.Sprintf("feature_%d", index)
}

func stringProperty(gf *geojson.Feature, key string) string {
	s, _ := gf.Properties[key].(string)
	return s
}

func polygonRings(polygon orb.Polygon) ([]models.Point, [][]models.Point) {
	if len(polygon) == 0 {
		return nil, nil
	}
	holes := make([][]models.Point, 0, len(polygon)-1)
	for _, ring := range polygon[1:] {
		holes = append(holes, toPoints(ring))
	}
	return toPoints(polygon[0]), holes
}

func toPoint(p orb.Point) models.Point {
	return models.Point{Lat: p.Lat(), Lon: p.Lon()}
}

func toPoints[T ~[]orb.Point](pts T) []models.Point {
	out := make([]models.Point, len(pts))
	for i, p := range pts {
		out[i] = toPoint(p)
	}
	return out
}
