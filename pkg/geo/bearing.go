package geo

import (
	"math"

	"github.com/1F47E/geo-distance/pkg/models"
)

// Bearing returns the flat-degree compass direction from one point to another,
// clockwise from north in [0, 360). Identical points give 0.
func Bearing(from, to models.Point) float64 {
	θ := math.Atan2(to.Lon-from.Lon, to.Lat-from.Lat)
	return wrap360(θ * 180 / math.Pi)
}

func wrap360(degrees float64) float64 {
	b := math.Mod(degrees, 360)
	if b < 0 {
		b += 360
	}
	// -tiny + 360 rounds up to 360
	if b >= 360 {
		b = 0
	}
	return b
}
