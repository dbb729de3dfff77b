// Package session holds who is logged in and which account panel is showing.
package session

import (
	"context"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/models"
)

const (
	LoginFailedMessage        = "Login failed"
	RegistrationFailedMessage = "Registration failed"
)

// Panel is the account UI currently shown next to the map.
type Panel int

const (
	PanelLogin Panel = iota
	PanelRegister
	PanelLoggedIn
)

// Authenticator is the account part of the backend REST contract.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (int64, error)
	Register(ctx context.Context, creds models.Credentials) error
	Logout(ctx context.Context) error
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a plain function to Alerter.
type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

// Markers is what the session needs from the marker registry.
type Markers interface {
	List(ctx context.Context) ([]models.Marker, error)
	Clear()
	Refresh()
}

// Session is the single per-page login state.
type Session struct {
	auth   Authenticator
	alerts Alerter
	log    log.FieldLogger

	mu       sync.RWMutex
	userID   int64
	loggedIn bool
	panel    Panel

	markers     Markers
	logoutHooks []func()
}

// New creates an anonymous session.
func New(auth Authenticator, alerts Alerter, logger log.FieldLogger) *Session {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Session{
		auth:   auth,
		alerts: alerts,
		log:    logger.WithField("component", "session"),
		panel:  PanelLogin,
	}
}

// Bind attaches the marker registry. The registry itself needs the session as
// its viewer, so the two are wired after construction.
func (s *Session) Bind(markers Markers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = markers
}

// OnLogout registers fn to run once the user is forgotten, before the markers
// are reloaded. Open editors use it to close.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutHooks = append(s.logoutHooks, fn)
}

// UserID returns the logged in user, if any.
func (s *Session) UserID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.loggedIn
}

// Owns reports whether the logged in user owns markers of ownerID.
func (s *Session) Owns(ownerID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn && s.userID == ownerID
}

// Panel returns the account panel that should be visible.
func (s *Session) Panel() Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panel
}

// ShowLogin switches to the login form unless someone is logged in.
func (s *Session) ShowLogin() {
	s.setPanel(PanelLogin)
}

// ShowRegister switches to the registration form unless someone is logged in.
func (s *Session) ShowRegister() {
	s.setPanel(PanelRegister)
}

func (s *Session) setPanel(p Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		s.panel = p
	}
}

// Login delegates the credential check to the backend. Any failure raises a
// blocking alert.
func (s *Session) Login(ctx context.Context, username, password string) bool {
	userID, err := s.auth.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		s.log.WithError(err).WithField("username", username).Error("Error logging in")
		s.alerts.Alert(LoginFailedMessage)
		return false
	}

	s.mu.Lock()
	s.userID = userID
	s.loggedIn = true
	s.panel = PanelLoggedIn
	markers := s.markers
	s.mu.Unlock()

	if markers != nil {
		markers.Refresh()
	}

	s.log.WithField("user_id", userID).Info("Logged in")
	return true
}

// Register creates an account and, on success, brings up the login form.
func (s *Session) Register(ctx context.Context, username, password string) bool {
	err := s.auth.Register(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		s.log.WithError(err).WithField("username", username).Error("Error registering")
		s.alerts.Alert(RegistrationFailedMessage)
		return false
	}

	s.ShowLogin()
	s.log.WithField("username", username).Info("Registered")
	return true
}

// Logout forgets the user, tears down every marker overlay and reloads the
// markers in read-only view. Remote markers are never deleted here.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	wasLoggedIn := s.loggedIn
	s.userID = 0
	s.loggedIn = false
	s.panel = PanelLogin
	markers := s.markers
	hooks := slices.Clone(s.logoutHooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	if wasLoggedIn {
		if err := s.auth.Logout(ctx); err != nil {
			s.log.WithError(err).Warn("Backend logout failed")
		}
	}

	if markers == nil {
		return
	}
	markers.Clear()
	if _, err := markers.List(ctx); err != nil {
		s.log.WithError(err).Error("Error fetching markers")
	}
}
