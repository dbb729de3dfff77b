// Package places shows the results of the map's place search box.
package places

import (
	"sync"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/models"
	"github.com/ukydev/monument-map/internal/overlay"
)

// Layer holds the overlays of the latest search.
type Layer struct {
	surface overlay.Surface
	log     log.FieldLogger

	mu      sync.Mutex
	handles []string
}

// NewLayer creates an empty layer.
func NewLayer(surface overlay.Surface, logger log.FieldLogger) *Layer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Layer{
		surface: surface,
		log:     logger.WithField("component", "places"),
	}
}

// Show replaces the previous results with results and fits the map to them.
// Places without a location are skipped. An empty search leaves the map as is.
func (l *Layer) Show(results []models.Place) (models.Bounds, bool) {
	if len(results) == 0 {
		return models.Bounds{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, h := range l.handles {
		l.surface.Remove(h)
	}
	l.handles = nil

	located := lo.Filter(results, func(p models.Place, _ int) bool {
		if p.Location == nil {
			l.log.WithField("name", p.Name).Warn("Returned place contains no geometry")
			return false
		}
		return true
	})
	if len(located) == 0 {
		return models.Bounds{}, false
	}

	var bounds models.Bounds
	for i, p := range located {
		l.handles = append(l.handles, l.surface.Add(overlay.ForPlace(p)))

		b := models.BoundsAt(*p.Location)
		if p.Viewport != nil {
			b = *p.Viewport
		}
		if i == 0 {
			bounds = b
		} else {
			bounds = bounds.Union(b)
		}
	}

	l.surface.FitBounds(bounds)
	return bounds, true
}

// Clear removes the current results.
func (l *Layer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range l.handles {
		l.surface.Remove(h)
	}
	l.handles = nil
}
