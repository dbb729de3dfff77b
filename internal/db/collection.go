package db

import (
	"context"
	"errors"

	"github.com/ukydev/monument-map/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateUser  = errors.New("username already taken")
	ErrMarkerNotFound = errors.New("marker not found")
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	// InsertUser stores user and assigns its ID. Usernames are unique.
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// MarkerCollection defines the interface for marker database operations
type MarkerCollection interface {
	// InsertMarker stores marker and assigns its ID.
	InsertMarker(ctx context.Context, marker *models.MarkerRecord) error
	FindMarkers(ctx context.Context) ([]models.MarkerRecord, error)
	FindMarkerByID(ctx context.Context, id int64) (*models.MarkerRecord, error)
	UpdateMarker(ctx context.Context, marker models.MarkerRecord) error
	DeleteMarker(ctx context.Context, id int64) error
}
