package overlay

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ukydev/monument-map/internal/models"
)

// Canvas is an in-memory Surface. The CLI renders from it and tests inspect it.
type Canvas struct {
	mu       sync.RWMutex
	overlays map[string]Overlay
	order    []string
	viewport *models.Bounds
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{overlays: make(map[string]Overlay)}
}

func (c *Canvas) Add(o Overlay) string {
	handle := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlays[handle] = o
	c.order = append(c.order, handle)
	return handle
}

func (c *Canvas) Update(handle string, o Overlay) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.overlays[handle]; !ok {
		return false
	}
	c.overlays[handle] = o
	return true
}

func (c *Canvas) Remove(handle string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.overlays[handle]; !ok {
		return false
	}
	delete(c.overlays, handle)
	c.order = lo.Without(c.order, handle)
	return true
}

func (c *Canvas) FitBounds(b models.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = &b
}

// Get returns the overlay behind handle.
func (c *Canvas) Get(handle string) (Overlay, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.overlays[handle]
	return o, ok
}

// Overlays returns every overlay in insertion order.
func (c *Canvas) Overlays() []Overlay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.order, func(h string, _ int) Overlay {
		return c.overlays[h]
	})
}

// OfKind returns the overlays of one layer.
func (c *Canvas) OfKind(k Kind) []Overlay {
	return lo.Filter(c.Overlays(), func(o Overlay, _ int) bool {
		return o.Kind == k
	})
}

// ByMarkerID returns the user overlay for marker id.
func (c *Canvas) ByMarkerID(id int64) (Overlay, bool) {
	return lo.Find(c.OfKind(KindUser), func(o Overlay) bool {
		return o.MarkerID == id
	})
}

// Viewport returns the last bounds passed to FitBounds.
func (c *Canvas) Viewport() (models.Bounds, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.viewport == nil {
		return models.Bounds{}, false
	}
	return *c.viewport, true
}

// Len returns the number of attached overlays.
func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.overlays)
}

// Handles returns the attached handles sorted, mostly for debugging output.
func (c *Canvas) Handles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handles := lo.Keys(c.overlays)
	sort.Strings(handles)
	return handles
}
