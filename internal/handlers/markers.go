package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/db"
	"github.com/ukydev/monument-map/internal/events"
	"github.com/ukydev/monument-map/internal/metrics"
	"github.com/ukydev/monument-map/internal/middleware"
	"github.com/ukydev/monument-map/internal/models"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 200

	NotFoundOrForbiddenMessage = "Marker not found or not authorized"
)

// MarkerHandler serves the marker endpoints.
type MarkerHandler struct {
	markers   db.MarkerCollection
	publisher events.Publisher
	log       log.FieldLogger
}

// NewMarkerHandler creates a marker handler. A nil publisher drops events.
func NewMarkerHandler(markers db.MarkerCollection, publisher events.Publisher, logger log.FieldLogger) *MarkerHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &MarkerHandler{
		markers:   markers,
		publisher: publisher,
		log:       logger.WithField("component", "markers"),
	}
}

// GetMarkers lists every marker. Anyone may read.
func (h *MarkerHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.markers.FindMarkers(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list markers")
		middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: err.Error()})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, markers)
}

// AddMarker stores a marker owned by the session user.
func (h *MarkerHandler) AddMarker(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())

	payload, ok := decodeMarker(w, r)
	if !ok {
		metrics.MarkerOperations.WithLabelValues("add", metrics.ResultRejected).Inc()
		return
	}

	record := models.MarkerRecord{
		Title:       payload.Title,
		Description: payload.Description,
		Lat:         payload.Lat,
		Lng:         payload.Lng,
		UserID:      claims.UserID,
	}
	if err := h.markers.InsertMarker(r.Context(), &record); err != nil {
		h.log.WithError(err).Error("Failed to add marker")
		metrics.MarkerOperations.WithLabelValues("add", metrics.ResultError).Inc()
		middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: err.Error()})
		return
	}

	metrics.MarkerOperations.WithLabelValues("add", metrics.ResultOK).Inc()
	h.log.WithFields(log.Fields{"marker_id": record.ID, "user_id": claims.UserID}).Info("Marker added")
	h.publish(r.Context(), events.TopicCreated, record)
	middleware.WriteJSON(w, http.StatusOK, models.Result{Success: true, ID: record.ID})
}

// EditMarker replaces title, description and position of a marker the session user owns.
func (h *MarkerHandler) EditMarker(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())

	id, ok := markerID(w, r)
	if !ok {
		metrics.MarkerOperations.WithLabelValues("edit", metrics.ResultRejected).Inc()
		return
	}
	payload, ok := decodeMarker(w, r)
	if !ok {
		metrics.MarkerOperations.WithLabelValues("edit", metrics.ResultRejected).Inc()
		return
	}

	record, ok := h.owned(w, r, "edit", id, claims.UserID)
	if !ok {
		return
	}
	record.Title = payload.Title
	record.Description = payload.Description
	record.Lat = payload.Lat
	record.Lng = payload.Lng

	if err := h.markers.UpdateMarker(r.Context(), *record); err != nil {
		h.fail(w, "edit", id, err)
		return
	}

	metrics.MarkerOperations.WithLabelValues("edit", metrics.ResultOK).Inc()
	h.log.WithField("marker_id", id).Info("Marker updated")
	h.publish(r.Context(), events.TopicUpdated, *record)
	middleware.WriteJSON(w, http.StatusOK, models.Result{Success: true})
}

// DeleteMarker removes a marker the session user owns.
func (h *MarkerHandler) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())

	id, ok := markerID(w, r)
	if !ok {
		metrics.MarkerOperations.WithLabelValues("delete", metrics.ResultRejected).Inc()
		return
	}

	record, ok := h.owned(w, r, "delete", id, claims.UserID)
	if !ok {
		return
	}
	if err := h.markers.DeleteMarker(r.Context(), id); err != nil {
		h.fail(w, "delete", id, err)
		return
	}

	metrics.MarkerOperations.WithLabelValues("delete", metrics.ResultOK).Inc()
	h.log.WithField("marker_id", id).Info("Marker deleted")
	h.publish(r.Context(), events.TopicDeleted, *record)
	middleware.WriteJSON(w, http.StatusOK, models.Result{Success: true})
}

// owned loads marker id and checks it belongs to userID. Missing and foreign
// markers get the same answer.
func (h *MarkerHandler) owned(w http.ResponseWriter, r *http.Request, op string, id, userID int64) (*models.MarkerRecord, bool) {
	record, err := h.markers.FindMarkerByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrMarkerNotFound) {
			metrics.MarkerOperations.WithLabelValues(op, metrics.ResultRejected).Inc()
			middleware.WriteJSON(w, http.StatusNotFound, models.Result{Message: NotFoundOrForbiddenMessage})
			return nil, false
		}
		h.fail(w, op, id, err)
		return nil, false
	}
	if record.UserID != userID {
		h.log.WithFields(log.Fields{"marker_id": id, "user_id": userID}).Warn("Refused change to foreign marker")
		metrics.MarkerOperations.WithLabelValues(op, metrics.ResultRejected).Inc()
		middleware.WriteJSON(w, http.StatusForbidden, models.Result{Message: NotFoundOrForbiddenMessage})
		return nil, false
	}
	return record, true
}

func (h *MarkerHandler) fail(w http.ResponseWriter, op string, id int64, err error) {
	if errors.Is(err, db.ErrMarkerNotFound) {
		metrics.MarkerOperations.WithLabelValues(op, metrics.ResultRejected).Inc()
		middleware.WriteJSON(w, http.StatusNotFound, models.Result{Message: NotFoundOrForbiddenMessage})
		return
	}
	h.log.WithError(err).WithFields(log.Fields{"op": op, "marker_id": id}).Error("Marker operation failed")
	metrics.MarkerOperations.WithLabelValues(op, metrics.ResultError).Inc()
	middleware.WriteJSON(w, http.StatusInternalServerError, models.Result{Message: err.Error()})
}

func (h *MarkerHandler) publish(ctx context.Context, topic string, record models.MarkerRecord) {
	if err := h.publisher.Publish(ctx, topic, record); err != nil {
		h.log.WithError(err).WithField("topic", topic).Warn("Failed to publish marker event")
	}
}

func markerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteJSON(w, http.StatusBadRequest, models.Result{Message: InvalidDataMessage})
		return 0, false
	}
	return id, true
}

func decodeMarker(w http.ResponseWriter, r *http.Request) (models.MarkerPayload, bool) {
	var payload models.MarkerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil ||
		utf8.RuneCountInString(payload.Title) > MaxTitleLength ||
		utf8.RuneCountInString(payload.Description) > MaxDescriptionLength ||
		payload.Lat < -90 || payload.Lat > 90 ||
		payload.Lng < -180 || payload.Lng > 180 {
		middleware.WriteJSON(w, http.StatusBadRequest, models.Result{Message: InvalidDataMessage})
		return payload, false
	}
	return payload, true
}
