package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type BookingHandler struct {
	svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	ref, err := uuid.Parse(chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking reference")
		return
	}

	b, err := h.svc.GetByReference(r.Context(), ref)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// ListByEmail serves GET /v1/bookings?email=...&limit=...
func (h *BookingHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	bookings, err := h.svc.ListByEmail(r.Context(), email, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}
