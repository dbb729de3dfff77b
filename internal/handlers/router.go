package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/auth"
	"github.com/ukydev/monument-map/internal/db"
	"github.com/ukydev/monument-map/internal/events"
	"github.com/ukydev/monument-map/internal/metrics"
	"github.com/ukydev/monument-map/internal/middleware"
)

// DefaultAuthRateLimit is how many /login and /register calls one client may
// make per minute.
const DefaultAuthRateLimit = 20

// Deps is everything the router needs.
type Deps struct {
	Auth          *auth.Service
	Users         db.UserCollection
	Markers       db.MarkerCollection
	Events        events.Publisher
	Logger        log.FieldLogger
	AuthRateLimit int
}

// NewRouter builds the backend HTTP handler.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	if d.AuthRateLimit <= 0 {
		d.AuthRateLimit = DefaultAuthRateLimit
	}

	authHandler := NewAuthHandler(d.Auth, d.Users, d.Logger)
	markerHandler := NewMarkerHandler(d.Markers, d.Events, d.Logger)
	authMiddleware := middleware.NewAuthMiddleware(d.Auth, d.Logger)
	limiter := middleware.NewRateLimitMiddleware().RateLimit(d.AuthRateLimit, 60)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_markers", markerHandler.GetMarkers)
	mux.Handle("POST /add_marker", middleware.RequireSession(http.HandlerFunc(markerHandler.AddMarker)))
	mux.Handle("POST /edit_marker/{id}", middleware.RequireSession(http.HandlerFunc(markerHandler.EditMarker)))
	mux.Handle("POST /delete_marker/{id}", middleware.RequireSession(http.HandlerFunc(markerHandler.DeleteMarker)))

	mux.Handle("POST /login", limiter(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /register", limiter(http.HandlerFunc(authHandler.Register)))
	mux.HandleFunc("POST /logout", authHandler.Logout)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// metrics.Middleware must sit directly on the mux to see the matched pattern;
	// RequestLogger sits inside Authenticate to see the claims.
	return authMiddleware.Authenticate(middleware.RequestLogger(d.Logger)(metrics.Middleware(mux)))
}
