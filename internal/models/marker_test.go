package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarker_IsDraft(t *testing.T) {
	assert.True(t, Marker{Title: "new"}.IsDraft())
	assert.False(t, Marker{ID: 7}.IsDraft())
}

func TestMarker_Apply(t *testing.T) {
	m := Marker{ID: 7, Title: "Castle", Description: "old", Position: LatLng{Lat: 1, Lng: 2}, OwnerID: 42}

	got := m.Apply(MarkerFields{Title: "Keep", Description: "new", Position: LatLng{Lat: 50, Lng: 19}})

	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, int64(42), got.OwnerID)
	assert.Equal(t, "Keep", got.Title)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, LatLng{Lat: 50, Lng: 19}, got.Position)
	assert.Equal(t, "Castle", m.Title, "Apply must not mutate the receiver")
}

func TestMarkerRecord_DecodesBackendShape(t *testing.T) {
	body := `[{"id":7,"lat":50.0,"lng":19.0,"title":"Castle","description":"Wawel","user_id":42}]`

	var records []MarkerRecord
	require.NoError(t, json.Unmarshal([]byte(body), &records))
	require.Len(t, records, 1)

	m := records[0].Marker()
	assert.Equal(t, Marker{
		ID:          7,
		Title:       "Castle",
		Description: "Wawel",
		Position:    LatLng{Lat: 50, Lng: 19},
		OwnerID:     42,
	}, m)
}

func TestPayloadFor_DraftOmitsID(t *testing.T) {
	data, err := json.Marshal(PayloadFor(Marker{Title: "Castle", Position: LatLng{Lat: 50, Lng: 19}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Castle","description":"","lat":50,"lng":19}`, string(data))

	data, err = json.Marshal(PayloadFor(Marker{ID: 7, Title: "Castle"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"title":"Castle","description":"","lat":0,"lng":0}`, string(data))
}

func TestBounds(t *testing.T) {
	b := BoundsAt(LatLng{Lat: 50, Lng: 19})
	b = b.Extend(LatLng{Lat: 52, Lng: 13})

	assert.Equal(t, Bounds{South: 50, West: 13, North: 52, East: 19}, b)
	assert.True(t, b.Contains(LatLng{Lat: 51, Lng: 15}))
	assert.False(t, b.Contains(LatLng{Lat: 49, Lng: 15}))

	u := b.Union(Bounds{South: 40, West: 20, North: 41, East: 21})
	assert.Equal(t, Bounds{South: 40, West: 13, North: 52, East: 21}, u)
}
