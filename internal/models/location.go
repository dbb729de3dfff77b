package models

import "math"

// LatLng is a WGS 84 position as the map surface and the marker backend exchange it.
type LatLng struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// IsFinite reports whether both coordinates are real numbers.
func (p LatLng) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsAt returns the degenerate box containing only p.
func BoundsAt(p LatLng) Bounds {
	return Bounds{South: p.Lat, West: p.Lng, North: p.Lat, East: p.Lng}
}

// Extend grows b so that it contains p.
func (b Bounds) Extend(p LatLng) Bounds {
	return b.Union(BoundsAt(p))
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		South: min(b.South, o.South),
		West:  min(b.West, o.West),
		North: max(b.North, o.North),
		East:  max(b.East, o.East),
	}
}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East
}
