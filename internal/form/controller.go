// Package form drives the single create/edit form that floats over the map.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/models"
)

var (
	ErrNoSession  = errors.New("no active session")
	ErrNotOwner   = errors.New("marker belongs to another user")
	ErrNotFound   = errors.New("marker not found")
	ErrHidden     = errors.New("form is not open")
	ErrNotEditing = errors.New("form is not editing an existing marker")
)

// State is the form lifecycle: Hidden, then CreateDraft or EditExisting, then Hidden again.
type State int

const (
	StateHidden State = iota
	StateCreateDraft
	StateEditExisting
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateCreateDraft:
		return "create"
	case StateEditExisting:
		return "edit"
	default:
		return "unknown"
	}
}

// Store is the marker registry as seen by the form.
type Store interface {
	Get(id int64) (models.Marker, bool)
	Create(ctx context.Context, draft models.Marker) (models.Marker, error)
	Update(ctx context.Context, id int64, fields models.MarkerFields) (models.Marker, error)
	Delete(ctx context.Context, id int64) error
}

// Viewer answers who is looking at the map.
type Viewer interface {
	UserID() (int64, bool)
	Owns(ownerID int64) bool
}

// Fields are the inputs the user types into the form.
type Fields struct {
	Title       string
	Description string
}

// View is what the form currently renders.
type View struct {
	State       State
	MarkerID    int64
	Title       string
	Description string
	Position    models.LatLng
	ShowDelete  bool
}

// Controller owns the form. At most one marker is bound to it at a time.
type Controller struct {
	store  Store
	viewer Viewer
	log    log.FieldLogger

	mu       sync.Mutex
	state    State
	markerID int64
	fields   Fields
	position models.LatLng
}

// NewController creates a hidden form.
func NewController(store Store, viewer Viewer, logger log.FieldLogger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{
		store:  store,
		viewer: viewer,
		log:    logger.WithField("component", "form"),
	}
}

// State returns the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot of the form.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		State:       c.state,
		MarkerID:    c.markerID,
		Title:       c.fields.Title,
		Description: c.fields.Description,
		Position:    c.position,
		ShowDelete:  c.state == StateEditExisting,
	}
}

// MapClick opens an empty form for a new marker at pos. Anonymous viewers
// cannot create markers, so the click is ignored for them.
func (c *Controller) MapClick(pos models.LatLng) bool {
	if _, ok := c.viewer.UserID(); !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateCreateDraft
	c.markerID = 0
	c.fields = Fields{}
	c.position = pos
	return true
}

// Edit opens the form pre-filled with marker id. Only the owner may edit.
func (c *Controller) Edit(id int64) error {
	m, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("edit marker %d: %w", id, ErrNotFound)
	}
	if _, ok := c.viewer.UserID(); !ok {
		return fmt.Errorf("edit marker %d: %w", id, ErrNoSession)
	}
	if !c.viewer.Owns(m.OwnerID) {
		return fmt.Errorf("edit marker %d: %w", id, ErrNotOwner)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateEditExisting
	c.markerID = m.ID
	c.fields = Fields{Title: m.Title, Description: m.Description}
	c.position = m.Position
	return nil
}

// Move tracks the bound marker while it is dragged with the form open.
func (c *Controller) Move(pos models.LatLng) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHidden {
		c.position = pos
	}
}

// Submit saves the form. The form closes whether or not the backend accepts
// the change; a failed save is logged and returned.
func (c *Controller) Submit(ctx context.Context, fields Fields) (models.Marker, error) {
	c.mu.Lock()
	state, id, pos := c.state, c.markerID, c.position
	c.resetLocked()
	c.mu.Unlock()

	var (
		m   models.Marker
		err error
	)
	switch state {
	case StateCreateDraft:
		m, err = c.store.Create(ctx, models.Marker{
			Title:       fields.Title,
			Description: fields.Description,
			Position:    pos,
		})
	case StateEditExisting:
		m, err = c.store.Update(ctx, id, models.MarkerFields{
			Title:       fields.Title,
			Description: fields.Description,
			Position:    pos,
		})
	default:
		return models.Marker{}, ErrHidden
	}

	if err != nil {
		c.log.WithError(err).WithFields(log.Fields{
			"state":     state.String(),
			"marker_id": id,
		}).Error("Error saving marker")
		return models.Marker{}, err
	}
	return m, nil
}

// Delete removes the bound marker. Only available while editing.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateEditExisting {
		c.mu.Unlock()
		return ErrNotEditing
	}
	id := c.markerID
	c.resetLocked()
	c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		c.log.WithError(err).WithField("marker_id", id).Error("Error deleting marker")
		return err
	}
	return nil
}

// Cancel closes the form without saving.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.state = StateHidden
	c.markerID = 0
	c.fields = Fields{}
	c.position = models.LatLng{}
}
