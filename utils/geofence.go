package utils

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ServiceArea is the discom supply territory loaded from a GeoJSON
// boundary file. Submissions captured outside it are stored but flagged.
type ServiceArea struct {
	fc *geojson.FeatureCollection
}

// LoadServiceArea reads a GeoJSON FeatureCollection of polygon boundaries.
func LoadServiceArea(path string) (*ServiceArea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service area file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse service area geojson: %w", err)
	}
	return &ServiceArea{fc: fc}, nil
}

// NewServiceArea wraps an already-parsed feature collection.
func NewServiceArea(fc *geojson.FeatureCollection) *ServiceArea {
	return &ServiceArea{fc: fc}
}

// Contains reports whether the point falls inside any boundary polygon.
func (a *ServiceArea) Contains(lat, lng float64) bool {
	if a == nil || a.fc == nil {
		return false
	}
	pt := orb.Point{lng, lat}
	for _, f := range a.fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, pt) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, pt) {
				return true
			}
		}
	}
	return false
}

// ValidCoordinate checks the lat/lng ranges before any containment test.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
