package overlay

import (
	"errors"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidPosition is returned when an overlay cannot be placed on a map.
var ErrInvalidPosition = errors.New("invalid overlay position")

// GeoJSON renders every overlay on the canvas as a FeatureCollection.
// GeoJSON positions are (lng, lat).
func (c *Canvas) GeoJSON() ([]byte, error) {
	overlays := c.Overlays()
	features := make([]geom.GeoJSONFeature, 0, len(overlays))
	for _, o := range overlays {
		if !o.Position.IsFinite() {
			return nil, fmt.Errorf("%w: %q at %v", ErrInvalidPosition, o.Title, o.Position)
		}
		pt, err := geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: o.Position.Lng, Y: o.Position.Lat},
			Type: geom.DimXY,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, o.Title, err)
		}

		props := map[string]interface{}{
			"kind":  o.Kind.String(),
			"title": o.Title,
		}
		if o.Kind == KindUser {
			props["marker_id"] = o.MarkerID
			props["description"] = o.Description
			props["editable"] = o.Editable
		}
		if o.Link != "" {
			props["link"] = o.Link
		}

		features = append(features, geom.GeoJSONFeature{
			Geometry:   pt.AsGeometry(),
			Properties: props,
		})
	}

	return geom.GeoJSONFeatureCollection(features).MarshalJSON()
}
