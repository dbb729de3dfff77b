package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatLng_IsFinite(t *testing.T) {
	assert.True(t, LatLng{Lat: 50, Lng: 19}.IsFinite())
	assert.True(t, LatLng{}.IsFinite())
	assert.False(t, LatLng{Lat: math.NaN(), Lng: 19}.IsFinite())
	assert.False(t, LatLng{Lat: 50, Lng: math.Inf(-1)}.IsFinite())
}
