package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lng1, lat1, lng2, lat2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lng1: -73.9857, lat1: 40.7488,
			lng2: -73.9857, lat2: 40.7488,
			want: 0, tolerance: 0.001,
		},
		{
			name: "empire state to times square",
			lng1: -73.9857, lat1: 40.7484,
			lng2: -73.9855, lat2: 40.7580,
			want: 1.07, tolerance: 0.05,
		},
		{
			name: "london to paris",
			lng1: -0.1278, lat1: 51.5074,
			lng2: 2.3522, lat2: 48.8566,
			want: 343.5, tolerance: 2.0,
		},
		{
			name: "across the antimeridian",
			lng1: 179.9, lat1: 0,
			lng2: -179.9, lat2: 0,
			want: 22.24, tolerance: 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lng1, tt.lat1, tt.lng2, tt.lat2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
			if got < 0 {
				t.Errorf("HaversineKm = %v, want non-negative", got)
			}
		})
	}
}
