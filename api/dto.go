/*
dto.go - HTTP request/response shapes

PURPOSE:
  JSON shapes for the API layer. Dates travel as "2006-01-02" strings;
  conversion to calendar.Date happens at the handler boundary, never in
  the engine.
*/
package api

// SummaryResponse is the per-date allocation view over the active window.
type SummaryResponse struct {
	Dates []DateSummary `json:"dates"`
}

type DateSummary struct {
	Date        string   `json:"date"`
	Allocated   []string `json:"allocated"`
	Pending     int      `json:"pending"`
	Interrupted int      `json:"interrupted"`
	Reserved    []string `json:"reserved"`
}

// SubmitRequestsRequest is the submission path: it creates Pending
// records, or Cancelled ones when cancel is set. It never allocates.
type SubmitRequestsRequest struct {
	UserID string   `json:"userId"`
	Dates  []string `json:"dates"`
	Cancel bool     `json:"cancel"`
}

type SubmitRequestsResponse struct {
	Saved int `json:"saved"`
}

// UserRequestsResponse lists one user's requests in the active window.
type UserRequestsResponse struct {
	UserID   string        `json:"userId"`
	Requests []RequestItem `json:"requests"`
}

type RequestItem struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// ReservationRequest adds a guaranteed claim.
type ReservationRequest struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
}

type ReservationsResponse struct {
	Reservations []ReservationItem `json:"reservations"`
}

type ReservationItem struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
