// Package markers keeps the user-owned marker overlays in step with the
// marker backend.
package markers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/models"
	"github.com/ukydev/monument-map/internal/overlay"
)

var (
	ErrSuperseded    = errors.New("marker list superseded by a newer fetch")
	ErrNotDraft      = errors.New("marker is already persisted")
	ErrUnknownMarker = errors.New("unknown marker")
	ErrNoSession     = errors.New("no active session")
	ErrNotOwner      = errors.New("marker belongs to another user")
)

// Backend is the marker part of the backend REST contract.
type Backend interface {
	GetMarkers(ctx context.Context) ([]models.MarkerRecord, error)
	AddMarker(ctx context.Context, payload models.MarkerPayload) (int64, error)
	EditMarker(ctx context.Context, id int64, payload models.MarkerPayload) error
	DeleteMarker(ctx context.Context, id int64) error
}

// Viewer answers who is looking at the map.
type Viewer interface {
	UserID() (int64, bool)
	Owns(ownerID int64) bool
}

type entry struct {
	marker models.Marker
	handle string
}

// Registry is the local list of user marker overlays.
type Registry struct {
	backend Backend
	surface overlay.Surface
	viewer  Viewer
	log     log.FieldLogger

	mu      sync.Mutex
	entries []*entry
	// generation is bumped by every List and Clear; a fetch only applies its
	// result if no newer one started in the meantime.
	generation uint64
}

// NewRegistry creates an empty registry. A nil logger falls back to the standard logger.
func NewRegistry(backend Backend, surface overlay.Surface, viewer Viewer, logger log.FieldLogger) *Registry {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Registry{
		backend: backend,
		surface: surface,
		viewer:  viewer,
		log:     logger.WithField("component", "markers"),
	}
}

// List fetches all markers and replaces the local set with them.
// On a backend error the local set is left alone and an empty slice is returned.
func (r *Registry) List(ctx context.Context) ([]models.Marker, error) {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	records, err := r.backend.GetMarkers(ctx)
	if err != nil {
		return []models.Marker{}, err
	}
	fetched := lo.Map(records, func(rec models.MarkerRecord, _ int) models.Marker {
		return rec.Marker()
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		r.log.WithFields(log.Fields{
			"generation": gen,
			"current":    r.generation,
		}).Debug("Discarding superseded marker list")
		return []models.Marker{}, ErrSuperseded
	}

	r.detachLocked()
	for _, m := range fetched {
		r.attachLocked(m)
	}

	r.log.WithField("count", len(fetched)).Debug("Loaded markers")
	return fetched, nil
}

// Create persists a draft and adds its overlay. Nothing is drawn if the backend refuses.
func (r *Registry) Create(ctx context.Context, draft models.Marker) (models.Marker, error) {
	if !draft.IsDraft() {
		return models.Marker{}, fmt.Errorf("create marker %d: %w", draft.ID, ErrNotDraft)
	}
	userID, ok := r.viewer.UserID()
	if !ok {
		return models.Marker{}, fmt.Errorf("create marker: %w", ErrNoSession)
	}

	id, err := r.backend.AddMarker(ctx, models.PayloadFor(draft))
	if err != nil {
		return models.Marker{}, err
	}

	draft.ID = id
	draft.OwnerID = userID

	r.mu.Lock()
	r.attachLocked(draft)
	r.mu.Unlock()

	r.log.WithFields(log.Fields{
		"marker_id": id,
		"title":     draft.Title,
	}).Info("Created marker")

	return draft, nil
}

// Update sends the full replacement fields and, once the backend accepts them,
// mutates the existing overlay in place.
func (r *Registry) Update(ctx context.Context, id int64, fields models.MarkerFields) (models.Marker, error) {
	current, ok := r.Get(id)
	if !ok {
		return models.Marker{}, fmt.Errorf("update marker %d: %w", id, ErrUnknownMarker)
	}
	if err := r.checkOwner(current); err != nil {
		return models.Marker{}, fmt.Errorf("update marker %d: %w", id, err)
	}
	updated := current.Apply(fields)

	if err := r.backend.EditMarker(ctx, id, models.PayloadFor(updated)); err != nil {
		return models.Marker{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The marker may have been torn down while the request was in flight.
	e := r.findLocked(id)
	if e == nil {
		return updated, fmt.Errorf("update marker %d: saved remotely but gone locally: %w", id, ErrUnknownMarker)
	}
	e.marker = e.marker.Apply(fields)
	r.surface.Update(e.handle, overlay.ForMarker(e.marker, r.viewer.Owns(e.marker.OwnerID)))

	r.log.WithField("marker_id", id).Info("Updated marker")
	return e.marker, nil
}

// Delete removes the marker remotely and then detaches its overlay. A marker
// missing locally is still sent to the backend, which has the final word.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	if _, ok := r.viewer.UserID(); !ok {
		return fmt.Errorf("delete marker %d: %w", id, ErrNoSession)
	}
	if current, ok := r.Get(id); ok {
		if err := r.checkOwner(current); err != nil {
			return fmt.Errorf("delete marker %d: %w", id, err)
		}
	}

	if err := r.backend.DeleteMarker(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.findLocked(id); e != nil {
		r.surface.Remove(e.handle)
		r.entries = lo.Without(r.entries, e)
	}

	r.log.WithField("marker_id", id).Info("Deleted marker")
	return nil
}

// Get returns the local copy of marker id.
func (r *Registry) Get(id int64) (models.Marker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.findLocked(id); e != nil {
		return e.marker, true
	}
	return models.Marker{}, false
}

// Markers returns the local list in display order.
func (r *Registry) Markers() []models.Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.entries, func(e *entry, _ int) models.Marker {
		return e.marker
	})
}

// CanEdit reports whether the viewer may edit or delete marker id.
func (r *Registry) CanEdit(id int64) bool {
	m, ok := r.Get(id)
	return ok && r.viewer.Owns(m.OwnerID)
}

// Clear detaches every overlay without touching the backend. Fetches that are
// still in flight will not repopulate the map.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.detachLocked()
}

// Refresh redraws every overlay so edit/delete follow the current viewer.
func (r *Registry) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		r.surface.Update(e.handle, overlay.ForMarker(e.marker, r.viewer.Owns(e.marker.OwnerID)))
	}
}

func (r *Registry) checkOwner(m models.Marker) error {
	if _, ok := r.viewer.UserID(); !ok {
		return ErrNoSession
	}
	if !r.viewer.Owns(m.OwnerID) {
		return ErrNotOwner
	}
	return nil
}

// attachLocked draws m, replacing the overlay of an entry with the same id.
// A create that finishes after a reload already containing it must not draw twice.
func (r *Registry) attachLocked(m models.Marker) {
	o := overlay.ForMarker(m, r.viewer.Owns(m.OwnerID))
	if m.ID != 0 {
		if e := r.findLocked(m.ID); e != nil {
			e.marker = m
			r.surface.Update(e.handle, o)
			return
		}
	}
	r.entries = append(r.entries, &entry{marker: m, handle: r.surface.Add(o)})
}

func (r *Registry) detachLocked() {
	for _, e := range r.entries {
		r.surface.Remove(e.handle)
	}
	r.entries = nil
}

func (r *Registry) findLocked(id int64) *entry {
	e, ok := lo.Find(r.entries, func(e *entry) bool {
		return e.marker.ID == id
	})
	if !ok {
		return nil
	}
	return e
}
