package session

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/monument-map/internal/api"
	"github.com/ukydev/monument-map/internal/models"
)

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, creds models.Credentials) (int64, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthenticator) Register(ctx context.Context, creds models.Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func (m *MockAuthenticator) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type fakeMarkers struct {
	calls   []string
	listErr error
}

func (f *fakeMarkers) List(ctx context.Context) ([]models.Marker, error) {
	f.calls = append(f.calls, "list")
	return []models.Marker{}, f.listErr
}

func (f *fakeMarkers) Clear()   { f.calls = append(f.calls, "clear") }
func (f *fakeMarkers) Refresh() { f.calls = append(f.calls, "refresh") }

type recordingAlerter struct {
	messages []string
}

func (a *recordingAlerter) Alert(message string) { a.messages = append(a.messages, message) }

func newSession(auth Authenticator) (*Session, *recordingAlerter, *fakeMarkers, *test.Hook) {
	logger, hook := test.NewNullLogger()
	alerts := &recordingAlerter{}
	markers := &fakeMarkers{}
	s := New(auth, alerts, logger)
	s.Bind(markers)
	return s, alerts, markers, hook
}

var anna = models.Credentials{Username: "anna", Password: "secret"}

func TestSession_StartsAnonymous(t *testing.T) {
	s, _, _, _ := newSession(new(MockAuthenticator))

	_, ok := s.UserID()
	assert.False(t, ok)
	assert.False(t, s.Owns(0), "anonymous viewer must not own ownerless markers")
	assert.Equal(t, PanelLogin, s.Panel())
}

func TestSession_Login(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, anna).Return(int64(42), nil)

	s, alerts, markers, _ := newSession(auth)

	require.True(t, s.Login(context.Background(), "anna", "secret"))

	id, ok := s.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.True(t, s.Owns(42))
	assert.False(t, s.Owns(5))
	assert.Equal(t, PanelLoggedIn, s.Panel())
	assert.Empty(t, alerts.messages)
	assert.Equal(t, []string{"refresh"}, markers.calls)
}

func TestSession_Login_Rejected(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, anna).Return(int64(0), &api.RejectedError{Op: "login"})

	s, alerts, markers, hook := newSession(auth)

	assert.False(t, s.Login(context.Background(), "anna", "secret"))
	_, ok := s.UserID()
	assert.False(t, ok)
	assert.Equal(t, []string{LoginFailedMessage}, alerts.messages)
	assert.Equal(t, PanelLogin, s.Panel())
	assert.Empty(t, markers.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Error logging in", hook.LastEntry().Message)
}

func TestSession_Register(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, anna).Return(nil)

	s, alerts, _, _ := newSession(auth)
	s.ShowRegister()
	require.Equal(t, PanelRegister, s.Panel())

	assert.True(t, s.Register(context.Background(), "anna", "secret"))
	assert.Equal(t, PanelLogin, s.Panel())
	assert.Empty(t, alerts.messages)

	_, ok := s.UserID()
	assert.False(t, ok, "registering does not log in")
}

func TestSession_Register_Failure(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, mock.Anything).Return(api.ErrUnavailable)

	s, alerts, _, _ := newSession(auth)
	s.ShowRegister()

	assert.False(t, s.Register(context.Background(), "", ""))
	assert.Equal(t, []string{RegistrationFailedMessage}, alerts.messages)
	assert.Equal(t, PanelRegister, s.Panel())
}

func TestSession_PanelTogglesIgnoredWhileLoggedIn(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, anna).Return(int64(42), nil)

	s, _, _, _ := newSession(auth)
	require.True(t, s.Login(context.Background(), "anna", "secret"))

	s.ShowRegister()
	assert.Equal(t, PanelLoggedIn, s.Panel())
}

func TestSession_Logout(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, anna).Return(int64(42), nil)
	auth.On("Logout", mock.Anything).Return(nil)

	s, _, markers, _ := newSession(auth)
	require.True(t, s.Login(context.Background(), "anna", "secret"))
	markers.calls = nil

	s.Logout(context.Background())

	_, ok := s.UserID()
	assert.False(t, ok)
	assert.False(t, s.Owns(42))
	assert.Equal(t, PanelLogin, s.Panel())
	assert.Equal(t, []string{"clear", "list"}, markers.calls)
	auth.AssertCalled(t, "Logout", mock.Anything)
}

func TestSession_Logout_BackendErrorsAreSwallowed(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, anna).Return(int64(42), nil)
	auth.On("Logout", mock.Anything).Return(api.ErrUnavailable)

	s, alerts, markers, hook := newSession(auth)
	require.True(t, s.Login(context.Background(), "anna", "secret"))
	markers.calls = nil
	markers.listErr = api.ErrUnavailable

	s.Logout(context.Background())

	_, ok := s.UserID()
	assert.False(t, ok)
	assert.Equal(t, []string{"clear", "list"}, markers.calls)
	assert.Empty(t, alerts.messages)
	assert.Equal(t, "Error fetching markers", hook.LastEntry().Message)
}

func TestSession_Logout_RunsHooksBeforeReload(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, anna).Return(int64(42), nil)
	auth.On("Logout", mock.Anything).Return(nil)

	s, _, markers, _ := newSession(auth)
	require.True(t, s.Login(context.Background(), "anna", "secret"))
	markers.calls = nil

	var loggedInDuringHook bool
	s.OnLogout(func() {
		_, loggedInDuringHook = s.UserID()
		markers.calls = append(markers.calls, "hook")
	})
	s.Logout(context.Background())

	assert.False(t, loggedInDuringHook)
	assert.Equal(t, []string{"hook", "clear", "list"}, markers.calls)
}

func TestSession_Logout_AnonymousSkipsBackend(t *testing.T) {
	auth := new(MockAuthenticator)
	s, _, markers, _ := newSession(auth)

	s.Logout(context.Background())

	auth.AssertNotCalled(t, "Logout", mock.Anything)
	assert.Equal(t, []string{"clear", "list"}, markers.calls)
}

func TestAlertFunc(t *testing.T) {
	var got string
	var a Alerter = AlertFunc(func(m string) { got = m })
	a.Alert("hi")
	assert.Equal(t, "hi", got)
}
