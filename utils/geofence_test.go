package utils

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func squareArea() *ServiceArea {
	// unit square: lng 77..78, lat 12..13
	poly := orb.Polygon{{
		{77, 12}, {78, 12}, {78, 13}, {77, 13}, {77, 12},
	}}
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(poly))
	return NewServiceArea(fc)
}

func TestServiceAreaContains(t *testing.T) {
	area := squareArea()
	tests := []struct {
		name     string
		lat, lng float64
		inside   bool
	}{
		{"center", 12.5, 77.5, true},
		{"north of boundary", 13.5, 77.5, false},
		{"west of boundary", 12.5, 76.5, false},
		{"far away", -33.8, 151.2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := area.Contains(tt.lat, tt.lng); got != tt.inside {
				t.Errorf("Contains(%v, %v) = %v, expected %v", tt.lat, tt.lng, got, tt.inside)
			}
		})
	}
}

func TestServiceAreaNil(t *testing.T) {
	var area *ServiceArea
	if area.Contains(12.5, 77.5) {
		t.Error("nil service area must contain nothing")
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		lat, lng float64
		valid    bool
	}{
		{12.9, 77.6, true},
		{91, 0, false},
		{-91, 0, false},
		{0, 181, false},
		{0, -181, false},
		{90, 180, true},
	}
	for _, tt := range tests {
		if got := ValidCoordinate(tt.lat, tt.lng); got != tt.valid {
			t.Errorf("ValidCoordinate(%v, %v) = %v, expected %v", tt.lat, tt.lng, got, tt.valid)
		}
	}
}
