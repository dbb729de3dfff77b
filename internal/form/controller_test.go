package form

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/monument-map/internal/models"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(id int64) (models.Marker, bool) {
	args := m.Called(id)
	return args.Get(0).(models.Marker), args.Bool(1)
}

func (m *MockStore) Create(ctx context.Context, draft models.Marker) (models.Marker, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(models.Marker), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, id int64, fields models.MarkerFields) (models.Marker, error) {
	args := m.Called(ctx, id, fields)
	return args.Get(0).(models.Marker), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type stubViewer struct {
	userID int64
}

func (v stubViewer) UserID() (int64, bool)   { return v.userID, v.userID != 0 }
func (v stubViewer) Owns(ownerID int64) bool { return v.userID != 0 && v.userID == ownerID }

var castle = models.Marker{
	ID:          7,
	Title:       "Castle",
	Description: "Old",
	Position:    models.LatLng{Lat: 50, Lng: 19},
	OwnerID:     42,
}

func newController(store Store, userID int64) *Controller {
	logger, _ := test.NewNullLogger()
	return NewController(store, stubViewer{userID: userID}, logger)
}

func TestMapClick_RequiresSession(t *testing.T) {
	c := newController(new(MockStore), 0)

	assert.False(t, c.MapClick(models.LatLng{Lat: 1, Lng: 2}))
	assert.Equal(t, StateHidden, c.State())
}

func TestMapClick_OpensEmptyDraft(t *testing.T) {
	store := new(MockStore)
	store.On("Get", int64(7)).Return(castle, true)
	c := newController(store, 42)

	require.NoError(t, c.Edit(7))
	require.True(t, c.MapClick(models.LatLng{Lat: 1, Lng: 2}))

	v := c.View()
	assert.Equal(t, StateCreateDraft, v.State)
	assert.Empty(t, v.Title)
	assert.Empty(t, v.Description)
	assert.Zero(t, v.MarkerID)
	assert.Equal(t, models.LatLng{Lat: 1, Lng: 2}, v.Position)
	assert.False(t, v.ShowDelete)
}

func TestSubmit_CreatesDraft(t *testing.T) {
	store := new(MockStore)
	want := models.Marker{Title: "Castle", Description: "Old", Position: models.LatLng{Lat: 50, Lng: 19}}
	saved := want
	saved.ID, saved.OwnerID = 7, 42
	store.On("Create", mock.Anything, want).Return(saved, nil)

	c := newController(store, 42)
	require.True(t, c.MapClick(models.LatLng{Lat: 50, Lng: 19}))

	m, err := c.Submit(context.Background(), Fields{Title: "Castle", Description: "Old"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, StateHidden, c.State())
	store.AssertExpectations(t)
}

func TestSubmit_ClosesOnFailure(t *testing.T) {
	store := new(MockStore)
	store.On("Create", mock.Anything, mock.Anything).Return(models.Marker{}, errors.New("backend down"))

	logger, hook := test.NewNullLogger()
	c := NewController(store, stubViewer{userID: 42}, logger)
	require.True(t, c.MapClick(models.LatLng{}))

	_, err := c.Submit(context.Background(), Fields{Title: "x"})
	assert.Error(t, err)
	assert.Equal(t, StateHidden, c.State())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Error saving marker", hook.LastEntry().Message)
}

func TestSubmit_Hidden(t *testing.T) {
	c := newController(new(MockStore), 42)

	_, err := c.Submit(context.Background(), Fields{})
	assert.ErrorIs(t, err, ErrHidden)
}

func TestEdit_PrefillsAndShowsDelete(t *testing.T) {
	store := new(MockStore)
	store.On("Get", int64(7)).Return(castle, true)
	c := newController(store, 42)

	require.NoError(t, c.Edit(7))

	v := c.View()
	assert.Equal(t, StateEditExisting, v.State)
	assert.Equal(t, int64(7), v.MarkerID)
	assert.Equal(t, "Castle", v.Title)
	assert.Equal(t, "Old", v.Description)
	assert.True(t, v.ShowDelete)
}

func TestEdit_Guards(t *testing.T) {
	store := new(MockStore)
	store.On("Get", int64(7)).Return(castle, true)
	store.On("Get", int64(8)).Return(models.Marker{}, false)

	assert.ErrorIs(t, newController(store, 5).Edit(7), ErrNotOwner)
	assert.ErrorIs(t, newController(store, 0).Edit(7), ErrNoSession)
	assert.ErrorIs(t, newController(store, 42).Edit(8), ErrNotFound)
}

func TestSubmit_UpdatesExisting(t *testing.T) {
	store := new(MockStore)
	store.On("Get", int64(7)).Return(castle, true)
	fields := models.MarkerFields{Title: "Castle", Description: "New", Position: models.LatLng{Lat: 51, Lng: 20}}
	store.On("Update", mock.Anything, int64(7), fields).Return(castle.Apply(fields), nil)

	c := newController(store, 42)
	require.NoError(t, c.Edit(7))
	c.Move(models.LatLng{Lat: 51, Lng: 20})

	m, err := c.Submit(context.Background(), Fields{Title: "Castle", Description: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", m.Description)
	assert.Equal(t, StateHidden, c.State())
	store.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	store := new(MockStore)
	store.On("Get", int64(7)).Return(castle, true)
	store.On("Delete", mock.Anything, int64(7)).Return(nil)

	c := newController(store, 42)
	require.NoError(t, c.Edit(7))

	require.NoError(t, c.Delete(context.Background()))
	assert.Equal(t, StateHidden, c.State())
	store.AssertExpectations(t)
}

func TestDelete_OnlyWhileEditing(t *testing.T) {
	store := new(MockStore)
	c := newController(store, 42)
	require.True(t, c.MapClick(models.LatLng{}))

	assert.ErrorIs(t, c.Delete(context.Background()), ErrNotEditing)
	assert.Equal(t, StateCreateDraft, c.State())
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_FailureStillCloses(t *testing.T) {
	store := new(MockStore)
	store.On("Get", int64(7)).Return(castle, true)
	store.On("Delete", mock.Anything, int64(7)).Return(errors.New("Unauthorized"))

	c := newController(store, 42)
	require.NoError(t, c.Edit(7))

	assert.Error(t, c.Delete(context.Background()))
	assert.Equal(t, StateHidden, c.State())
}

func TestCancel(t *testing.T) {
	c := newController(new(MockStore), 42)
	require.True(t, c.MapClick(models.LatLng{Lat: 1}))

	c.Cancel()
	assert.Equal(t, View{State: StateHidden}, c.View())
}
