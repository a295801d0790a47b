// internal/domain/models/geo.go
package models

// GeoPoint is a GeoJSON Point, stored as [longitude, latitude] so Mongo's
// 2dsphere indexes and $near queries work on it directly.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
}

// NewGeoPoint builds a GeoJSON point from a longitude/latitude pair.
func NewGeoPoint(lng, lat float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Valid reports whether p is a well-formed point with in-range coordinates.
// Safe on a nil receiver.
func (p *GeoPoint) Valid() bool {
	if p == nil || p.Type != "Point" || len(p.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// Lng returns the longitude. Callers must check Valid first.
func (p *GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Lat returns the latitude. Callers must check Valid first.
func (p *GeoPoint) Lat() float64 { return p.Coordinates[1] }
