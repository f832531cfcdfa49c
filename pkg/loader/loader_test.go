package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

func encodePolyline(points []models.Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "SF", "geometry": {"type": "Point", "coordinates": [-122.4194, 37.7749]}, "properties": {}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-74.006, 40.7128]}, "properties": {"name": "zone", "radius_m": 5000}},
    {"type": "Feature", "id": 7, "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1], [2, 0]]}, "properties": {}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [
      [[0, 0], [4, 0], [4, 4], [0, 4], [0, 0]],
      [[1, 1], [2, 1], [2, 2], [1, 2], [1, 1]]
    ]}, "properties": {"id": "donut"}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [
      [[-118.4, 33.9], [-118.1, 33.9], [-118.1, 34.2], [-118.4, 34.2], [-118.4, 33.9]]
    ]}, "properties": {"shape": "rectangle"}},
    {"type": "Feature", "id": "islands", "geometry": {"type": "MultiPolygon", "coordinates": [
      [[[0, 0], [1, 0], [0, 1], [0, 0]]],
      [[[5, 5], [6, 5], [5, 6], [5, 5]]]
    ]}, "properties": {}}
  ]
}`

const sampleYAML = `
features:
  - id: SF
    marker: {lat: 37.7749, lon: -122.4194}
  - id: road
    line:
      - {lat: 0, lon: 0}
      - {lat: 1, lon: 1}
  - id: route
    polyline: "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"
  - id: park
    polygons:
      - exterior: [{lat: 0, lon: 0}, {lat: 0, lon: 4}, {lat: 4, lon: 4}, {lat: 4, lon: 0}]
        holes:
          - [{lat: 1, lon: 1}, {lat: 1, lon: 2}, {lat: 2, lon: 2}, {lat: 2, lon: 1}]
      - exterior: [{lat: 10, lon: 10}, {lat: 10, lon: 11}, {lat: 11, lon: 10}]
  - id: box
    rectangle: {north: 34.2, south: 33.9, east: -118.1, west: -118.4}
  - circle: {center: {lat: 40.7128, lon: -74.006}, radius_m: 5000}
`

func TestParseGeoJSON(t *testing.T) {
	features, err := ParseGeoJSON([]byte(sampleGeoJSON))
	require.NoError(t, err)
	require.Len(t, features, 6)

	assert.Equal(t, "SF", features[0].ID)
	assert.Equal(t, models.Point{Lat: 37.7749, Lon: -122.4194}, features[0].Geometry)

	assert.Equal(t, "zone", features[1].ID)
	assert.Equal(t, models.Circle{Center: models.Point{Lat: 40.7128, Lon: -74.006}, Radius: 5000}, features[1].Geometry)

	assert.Equal(t, "7", features[2].ID)
	assert.Equal(t, models.KindLineString, features[2].Kind())

	assert.Equal(t, "donut", features[3].ID)
	donut := features[3].Geometry.(models.MultiPolygon)
	require.Len(t, donut, 1)
	assert.Len(t, donut[0].Exterior.Points, 4) // closing point dropped
	assert.Len(t, donut[0].Holes, 1)

	assert.Equal(t, "feature_4", features[4].ID)
	assert.Equal(t, models.Rectangle{North: 34.2, South: 33.9, East: -118.1, West: -118.4}, features[4].Geometry)

	islands := features[5].Geometry.(models.MultiPolygon)
	assert.Len(t, islands, 2)
}

func TestParseGeoJSONErrors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{
			"multipoint",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[0, 0], [1, 1]]}, "properties": {}}
			]}`,
		},
		{
			"short linestring",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0]]}, "properties": {}}
			]}`,
		},
		{
			"negative radius",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"radius_m": -5}}
			]}`,
		},
		{
			"radius is text",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"radius_m": "far"}}
			]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGeoJSON([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestParseYAML(t *testing.T) {
	features, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, features, 6)

	kinds := make([]models.Kind, len(features))
	for i, f := range features {
		kinds[i] = f.Kind()
	}
	assert.Equal(t, []models.Kind{
		models.KindMarker,
		models.KindLineString,
		models.KindLineString,
		models.KindPolygon,
		models.KindRectangle,
		models.KindCircle,
	}, kinds)

	route := features[2].Geometry.(models.LineString)
	require.Len(t, route.Points, 3)
	assert.InDelta(t, 38.5, route.Points[0].Lat, 1e-9)
	assert.InDelta(t, -120.2, route.Points[0].Lon, 1e-9)
	assert.InDelta(t, 43.252, route.Points[2].Lat, 1e-9)
	assert.InDelta(t, -126.453, route.Points[2].Lon, 1e-9)

	park := features[3].Geometry.(models.MultiPolygon)
	require.Len(t, park, 2)
	assert.Len(t, park[0].Holes, 1)
	assert.Empty(t, park[1].Holes)

	assert.Equal(t, "feature_5", features[5].ID)
}

func TestParseYAMLErrors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"bad yaml", "features: [\n"},
		{"no geometry", "features:\n  - id: a\n"},
		{"two geometries", "features:\n  - id: a\n    marker: {lat: 0, lon: 0}\n    circle: {center: {lat: 0, lon: 0}, radius_m: 1}\n"},
		{"inverted rectangle", "features:\n  - rectangle: {north: 1, south: 2, east: 1, west: 0}\n"},
		{"bad polyline", "features:\n  - polyline: \"_p~iF~\"\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []models.Point{{Lat: 38.5, Lon: -120.2}, {Lat: 40.7, Lon: -120.95}, {Lat: 43.252, Lon: -126.453}}
	encoded := encodePolyline(points)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	for i := range points {
		assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-9)
		assert.InDelta(t, points[i].Lon, decoded[i].Lon, 1e-9)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	features, err := LoadFile(write("shapes.geojson", sampleGeoJSON))
	require.NoError(t, err)
	assert.Len(t, features, 6)

	features, err = LoadFile(write("shapes.YML", sampleYAML))
	require.NoError(t, err)
	byID := ByID(features)
	assert.Contains(t, byID, "park")
	assert.Equal(t, 0.0, feature.DistanceBetween(byID["SF"], byID["SF"], false))

	_, err = LoadFile(write("shapes.kml", "<kml/>"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(write("dupes.yaml", "features:\n  - id: a\n    marker: {lat: 0, lon: 0}\n  - id: a\n    marker: {lat: 1, lon: 1}\n"))
	assert.ErrorIs(t, err, ErrDuplicateID)
}
