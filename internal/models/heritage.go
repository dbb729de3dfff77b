package models

// HeritageSite is a read-only World Heritage Site shown next to user markers.
type HeritageSite struct {
	Site     string `json:"site"`
	Label    string `json:"label"`
	Position LatLng `json:"position"`
	Article  string `json:"article"`
}

// Place is a search result handed over by the map surface's place search box.
// Location is nil when the provider returned no geometry.
type Place struct {
	Name     string  `json:"name"`
	Icon     string  `json:"icon,omitempty"`
	Location *LatLng `json:"location,omitempty"`
	Viewport *Bounds `json:"viewport,omitempty"`
}
