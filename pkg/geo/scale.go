// Package geo implements the flat-degree geometry kernel: scale conversion,
// pairwise primitive distances, containment, centroids and bearings.
//
// Coordinates are treated as planar: one degree of longitude has the same
// length as one degree of latitude everywhere. No cos(lat) correction is applied.
package geo

// MetersPerDegree is the length of one degree at the equator (WGS84 semi-major axis),
// used for both axes.
const MetersPerDegree = 111319.49079327357

// DegreesToMeters converts a displacement in degrees to meters
func DegreesToMeters(deltaDegrees float64) float64 {
	return deltaDegrees * MetersPerDegree
}

// MetersToDegrees converts a displacement in meters to degrees
func MetersToDegrees(deltaMeters float64) float64 {
	return deltaMeters / MetersPerDegree
}
