/*
handlers.go - HTTP handlers

PURPOSE:
  The thin read/submit surface over the store. No allocation logic lives
  here: the summary endpoint reports what the engine persisted, and the
  submission endpoint writes only Pending or Cancelled records - the
  statuses the engine treats as external input.

SEE ALSO:
  - server.go: routing and middleware
  - allocation/orchestrator.go: the only writer of Allocated records
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
)

// Handler carries the API dependencies.
type Handler struct {
	Store    allocation.Store
	Calendar *calendar.Calculator
	Logger   *zap.Logger
}

func NewHandler(store allocation.Store, cal *calendar.Calculator, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Calendar: cal, Logger: logger}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSummary reports the allocation state for every active date.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active := h.Calendar.ActiveDates()
	if len(active) == 0 {
		h.writeJSON(w, http.StatusOK, SummaryResponse{})
		return
	}
	first, last := active[0], active[len(active)-1]

	requests, err := h.Store.RequestsInRange(ctx, first, last)
	if err != nil {
		h.Logger.Error("failed to load requests", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load requests")
		return
	}
	reservations, err := h.Store.ReservationsInRange(ctx, first, last)
	if err != nil {
		h.Logger.Error("failed to load reservations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load reservations")
		return
	}

	byDate := make(map[calendar.Date]*DateSummary, len(active))
	resp := SummaryResponse{Dates: make([]DateSummary, len(active))}
	for i, d := range active {
		resp.Dates[i] = DateSummary{Date: d.String(), Allocated: []string{}, Reserved: []string{}}
		byDate[d] = &resp.Dates[i]
	}

	for _, req := range requests {
		s, ok := byDate[req.Date]
		if !ok {
			continue
		}
		switch {
		case req.Status == allocation.StatusAllocated:
			s.Allocated = append(s.Allocated, string(req.UserID))
		case req.Status == allocation.StatusPending:
			s.Pending++
		case req.Status.Interrupted():
			s.Interrupted++
		}
	}
	for _, res := range reservations {
		if s, ok := byDate[res.Date]; ok {
			s.Reserved = append(s.Reserved, string(res.UserID))
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// SubmitRequests is the user-facing submission path.
func (h *Handler) SubmitRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SubmitRequestsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserID == "" || len(body.Dates) == 0 {
		h.writeError(w, http.StatusBadRequest, "userId and dates are required")
		return
	}

	if !h.userExists(ctx, w, allocation.UserID(body.UserID)) {
		return
	}

	status := allocation.StatusPending
	if body.Cancel {
		status = allocation.StatusCancelled
	}

	records := make([]allocation.Request, 0, len(body.Dates))
	for _, raw := range body.Dates {
		d, err := calendar.ParseDate(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		records = append(records, allocation.Request{
			UserID: allocation.UserID(body.UserID),
			Date:   d,
			Status: status,
		})
	}

	if err := h.Store.SaveRequests(ctx, records); err != nil {
		h.Logger.Error("failed to save requests", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to save requests")
		return
	}
	h.writeJSON(w, http.StatusOK, SubmitRequestsResponse{Saved: len(records)})
}

// GetUserRequests lists one user's requests across the active window.
func (h *Handler) GetUserRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := allocation.UserID(r.URL.Query().Get("userId"))
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	active := h.Calendar.ActiveDates()
	if len(active) == 0 {
		h.writeJSON(w, http.StatusOK, UserRequestsResponse{UserID: string(userID)})
		return
	}

	requests, err := h.Store.RequestsInRange(ctx, active[0], active[len(active)-1])
	if err != nil {
		h.Logger.Error("failed to load requests", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load requests")
		return
	}

	resp := UserRequestsResponse{UserID: string(userID), Requests: []RequestItem{}}
	for _, req := range requests {
		if req.UserID == userID {
			resp.Requests = append(resp.Requests, RequestItem{
				Date:   req.Date.String(),
				Status: string(req.Status),
			})
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetReservations lists reservations across the active window.
func (h *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active := h.Calendar.ActiveDates()
	if len(active) == 0 {
		h.writeJSON(w, http.StatusOK, ReservationsResponse{Reservations: []ReservationItem{}})
		return
	}

	reservations, err := h.Store.ReservationsInRange(ctx, active[0], active[len(active)-1])
	if err != nil {
		h.Logger.Error("failed to load reservations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load reservations")
		return
	}

	resp := ReservationsResponse{Reservations: make([]ReservationItem, 0, len(reservations))}
	for _, res := range reservations {
		resp.Reservations = append(resp.Reservations, ReservationItem{
			UserID: string(res.UserID),
			Date:   res.Date.String(),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CreateReservation adds a guaranteed claim for a (user, date).
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := calendar.ParseDate(body.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.userExists(ctx, w, allocation.UserID(body.UserID)) {
		return
	}

	res := allocation.Reservation{UserID: allocation.UserID(body.UserID), Date: d}
	if err := h.Store.SaveReservation(ctx, res); err != nil {
		h.Logger.Error("failed to save reservation", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to save reservation")
		return
	}
	h.writeJSON(w, http.StatusCreated, body)
}

// userExists validates the referenced user, writing the error response
// itself when validation fails.
func (h *Handler) userExists(ctx context.Context, w http.ResponseWriter, id allocation.UserID) bool {
	users, err := h.Store.Users(ctx)
	if err != nil {
		h.Logger.Error("failed to load users", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load users")
		return false
	}
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	h.writeError(w, http.StatusBadRequest, "unknown user "+string(id))
	return false
}
