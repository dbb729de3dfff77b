// Package overlay abstracts the map widget: the rest of the client only ever
// adds, updates and removes overlays through a Surface.
package overlay

import (
	"github.com/ukydev/monument-map/internal/models"
)

// Kind tells which layer an overlay belongs to.
type Kind int

const (
	KindUser Kind = iota
	KindHeritage
	KindPlace
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindHeritage:
		return "heritage"
	case KindPlace:
		return "place"
	default:
		return "unknown"
	}
}

const (
	// UserIcon is the green dot used for user markers.
	UserIcon = "http://maps.google.com/mapfiles/ms/icons/green-dot.png"

	DefaultTitle       = "New monument"
	DefaultDescription = "Monument description"
)

// Overlay is one rendered marker plus the content of its info popup.
type Overlay struct {
	Kind        Kind
	MarkerID    int64
	Title       string
	Description string
	Position    models.LatLng
	Link        string
	Icon        string
	Draggable   bool
	// Editable shows the edit/delete buttons in the popup.
	Editable bool
}

// Surface is the map widget. Handles are opaque and stay valid until Remove.
type Surface interface {
	Add(o Overlay) string
	Update(handle string, o Overlay) bool
	Remove(handle string) bool
	FitBounds(b models.Bounds)
}

// ForMarker builds the overlay for a user marker as seen by the current viewer.
func ForMarker(m models.Marker, editable bool) Overlay {
	o := Overlay{
		Kind:        KindUser,
		MarkerID:    m.ID,
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		Icon:        UserIcon,
		Draggable:   true,
		Editable:    editable,
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Description == "" {
		o.Description = DefaultDescription
	}
	return o
}

// ForHeritage builds the read-only overlay of a heritage site.
func ForHeritage(s models.HeritageSite) Overlay {
	return Overlay{
		Kind:     KindHeritage,
		Title:    s.Label,
		Position: s.Position,
		Link:     s.Article,
	}
}

// ForPlace builds the overlay of a search result. p.Location must be set.
func ForPlace(p models.Place) Overlay {
	return Overlay{
		Kind:     KindPlace,
		Title:    p.Name,
		Position: *p.Location,
		Icon:     p.Icon,
	}
}
