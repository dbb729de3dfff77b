package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/auth"
	"github.com/ukydev/monument-map/internal/db"
	"github.com/ukydev/monument-map/internal/metrics"
	"github.com/ukydev/monument-map/internal/middleware"
	"github.com/ukydev/monument-map/internal/models"
)

const (
	InvalidDataMessage        = "Invalid data"
	InvalidCredentialsMessage = "Invalid credentials"
	UsernameTakenMessage      = "Username already taken"
	InternalErrorMessage      = "Internal server error"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	log            log.FieldLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, logger log.FieldLogger) *AuthHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		log:            logger.WithField("component", "auth"),
	}
}

// Login checks the credentials and sets the session cookie.
// Wrong credentials answer 200 with success=false.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		metrics.AuthAttempts.WithLabelValues("login", metrics.ResultRejected).Inc()
		middleware.WriteJSON(w, http.StatusBadRequest, models.Result{Message: InvalidDataMessage})
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), creds.Username)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		h.log.WithError(err).Error("Failed to look up user")
		metrics.AuthAttempts.WithLabelValues("login", metrics.ResultError).Inc()
		middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: InternalErrorMessage})
		return
	}
	if user == nil || !h.authService.CheckPassword(creds.Password, user.PasswordHash) {
		h.log.WithField("username", creds.Username).Info("Rejected login")
		metrics.AuthAttempts.WithLabelValues("login", metrics.ResultRejected).Inc()
		middleware.WriteJSON(w, http.StatusOK, models.Result{Message: InvalidCredentialsMessage})
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.log.WithError(err).Error("Failed to generate token")
		metrics.AuthAttempts.WithLabelValues("login", metrics.ResultError).Inc()
		middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: InternalErrorMessage})
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.authService.TokenExpiry()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.AuthAttempts.WithLabelValues("login", metrics.ResultOK).Inc()
	h.log.WithField("user_id", user.ID).Info("User logged in")
	middleware.WriteJSON(w, http.StatusOK, models.Result{Success: true, UserID: user.ID})
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", metrics.ResultRejected).Inc()
		middleware.WriteJSON(w, http.StatusBadRequest, models.Result{Message: InvalidDataMessage})
		return
	}
	if err := h.authService.ValidateCredentials(creds); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", metrics.ResultRejected).Inc()
		middleware.WriteJSON(w, http.StatusBadRequest, models.Result{Message: InvalidDataMessage})
		return
	}

	hash, err := h.authService.HashPassword(creds.Password)
	if err != nil {
		h.log.WithError(err).Error("Failed to hash password")
		metrics.AuthAttempts.WithLabelValues("register", metrics.ResultError).Inc()
		middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: InternalErrorMessage})
		return
	}

	user := &models.User{Username: creds.Username, PasswordHash: hash}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicateUser) {
			metrics.AuthAttempts.WithLabelValues("register", metrics.ResultRejected).Inc()
			middleware.WriteJSON(w, http.StatusConflict, models.Result{Message: UsernameTakenMessage})
			return
		}
		h.log.WithError(err).Error("Failed to create user")
		metrics.AuthAttempts.WithLabelValues("register", metrics.ResultError).Inc()
		middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: InternalErrorMessage})
		return
	}

	metrics.AuthAttempts.WithLabelValues("register", metrics.ResultOK).Inc()
	h.log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	middleware.WriteJSON(w, http.StatusOK, models.Result{Success: true})
}

// Logout clears the session cookie. It succeeds without a session too.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		h.log.WithField("user_id", claims.UserID).Info("User logged out")
	}
	middleware.WriteJSON(w, http.StatusOK, models.Result{Success: true})
}
