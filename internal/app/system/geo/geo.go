// Package geo provides great-circle distance math for reporting how far a
// donor is from a request's target point. Radius filtering itself happens in
// MongoDB via the 2dsphere $near query; this package only computes the
// distance figure attached to matches and nearby-donor listings.
package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// (longitude, latitude) points.
func HaversineKm(lng1, lat1, lng2, lat2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
