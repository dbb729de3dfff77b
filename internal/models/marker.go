package models

// Marker is a user-owned annotation on the map.
// A zero ID marks a draft that the backend has not persisted yet.
type Marker struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    LatLng `json:"position"`
	OwnerID     int64  `json:"owner_id"`
}

// IsDraft reports whether the marker still lacks a backend-assigned id.
func (m Marker) IsDraft() bool {
	return m.ID == 0
}

// MarkerFields is the full replacement set sent on edit.
type MarkerFields struct {
	Title       string
	Description string
	Position    LatLng
}

// Apply overwrites the editable fields of m.
func (m Marker) Apply(f MarkerFields) Marker {
	m.Title = f.Title
	m.Description = f.Description
	m.Position = f.Position
	return m
}

// MarkerRecord is one element of the /get_markers response.
type MarkerRecord struct {
	ID          int64   `bson:"_id" json:"id"`
	Lat         float64 `bson:"lat" json:"lat"`
	Lng         float64 `bson:"lng" json:"lng"`
	Title       string  `bson:"title" json:"title"`
	Description string  `bson:"description" json:"description"`
	UserID      int64   `bson:"user_id" json:"user_id"`
}

// Marker converts the wire record into the client model.
func (r MarkerRecord) Marker() Marker {
	return Marker{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Position:    LatLng{Lat: r.Lat, Lng: r.Lng},
		OwnerID:     r.UserID,
	}
}

// MarkerPayload is the body of /add_marker and /edit_marker/{id}.
type MarkerPayload struct {
	ID          int64   `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// PayloadFor builds the request body for m.
func PayloadFor(m Marker) MarkerPayload {
	return MarkerPayload{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Lat:         m.Position.Lat,
		Lng:         m.Position.Lng,
	}
}

// Result is the envelope every mutating backend endpoint answers with.
type Result struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	UserID  int64  `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}
