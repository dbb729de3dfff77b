package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/ukydev/monument-map/internal/models"
)

// MemoryStore keeps users and markers in process memory. It implements both
// UserCollection and MarkerCollection and is used when no MongoDB is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int64]models.User
	markers   map[int64]models.MarkerRecord
	userSeq   int64
	markerSeq int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]models.User),
		markers: make(map[int64]models.MarkerRecord),
	}
}

func (s *MemoryStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := lo.ContainsBy(lo.Values(s.users), func(u models.User) bool {
		return u.Username == user.Username
	})
	if taken {
		return ErrDuplicateUser
	}

	s.userSeq++
	user.ID = s.userSeq
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := lo.Find(lo.Values(s.users), func(u models.User) bool {
		return u.Username == username
	})
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *MemoryStore) UpdateLastLogin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now()
	user.LastLogin = &now
	s.users[id] = user
	return nil
}

func (s *MemoryStore) InsertMarker(_ context.Context, marker *models.MarkerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markerSeq++
	marker.ID = s.markerSeq
	s.markers[marker.ID] = *marker
	return nil
}

// FindMarkers returns every marker ordered by id.
func (s *MemoryStore) FindMarkers(_ context.Context) ([]models.MarkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := lo.Keys(s.markers)
	slices.Sort(ids)
	return lo.Map(ids, func(id int64, _ int) models.MarkerRecord {
		return s.markers[id]
	}), nil
}

func (s *MemoryStore) FindMarkerByID(_ context.Context, id int64) (*models.MarkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	marker, ok := s.markers[id]
	if !ok {
		return nil, ErrMarkerNotFound
	}
	return &marker, nil
}

func (s *MemoryStore) UpdateMarker(_ context.Context, marker models.MarkerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.markers[marker.ID]
	if !ok {
		return ErrMarkerNotFound
	}
	current.Title = marker.Title
	current.Description = marker.Description
	current.Lat = marker.Lat
	current.Lng = marker.Lng
	s.markers[marker.ID] = current
	return nil
}

func (s *MemoryStore) DeleteMarker(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers[id]; !ok {
		return ErrMarkerNotFound
	}
	delete(s.markers, id)
	return nil
}
