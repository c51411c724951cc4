package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/app"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

// ReservationService is the minimal interface needed for the
// reservation endpoints.
type ReservationService interface {
	ConsumeReservation(ctx context.Context, in app.ConsumeReservationInput) (domain.ConsumptionRecord, error)
	ReleaseReservation(ctx context.Context, in app.ReleaseReservationInput) error
}

// HandleCreateReservation returns an HTTP handler consuming capacity
// for a reservation's ticket lines.
func HandleCreateReservation(svc ReservationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if len(req.Lines) == 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, "at least one line is required")
			return
		}

		record, err := svc.ConsumeReservation(r.Context(), app.ConsumeReservationInput{
			ReservationID: req.ReservationID,
			Lines:         toTicketLines(req.Lines),
			BusinessID:    req.BusinessID,
		})
		if err != nil {
			switch err {
			case domain.ErrInvalidQuantity:
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			case domain.ErrInvalidTicketLine:
				writeError(w, http.StatusBadRequest, codeInvalidTicketLine, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := reservationResponse{
			ReservationID: record.ReservationID,
			Entries:       record.Entries,
			CreatedAt:     record.CreatedAt,
		}
		if resp.Entries == nil {
			resp.Entries = []domain.ConsumptionEntry{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleReleaseReservation returns an HTTP handler reversing a
// reservation's consumption. The body carries the reservation's lines
// so the ledger counters can be decremented even when the consumption
// record is gone.
func HandleReleaseReservation(svc ReservationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseReservationPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req releaseReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		err := svc.ReleaseReservation(r.Context(), app.ReleaseReservationInput{
			ReservationID: id,
			Lines:         toTicketLines(req.Lines),
		})
		if err != nil {
			switch err {
			case domain.ErrInvalidTicketLine:
				writeError(w, http.StatusBadRequest, codeInvalidTicketLine, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reservationLine struct {
	TicketID string `json:"ticket_id"`
	Quantity int    `json:"quantity"`
}

type createReservationRequest struct {
	ReservationID string            `json:"reservation_id,omitempty"`
	BusinessID    string            `json:"business_id,omitempty"`
	Lines         []reservationLine `json:"lines"`
}

type releaseReservationRequest struct {
	Lines []reservationLine `json:"lines"`
}

type reservationResponse struct {
	ReservationID string                    `json:"reservation_id"`
	Entries       []domain.ConsumptionEntry `json:"entries"`
	CreatedAt     time.Time                 `json:"created_at"`
}

func toTicketLines(lines []reservationLine) []domain.TicketLine {
	out := make([]domain.TicketLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.TicketLine{TicketID: line.TicketID, Quantity: line.Quantity})
	}
	return out
}

// parseReservationPath extracts the id from /reservations/{id}.
func parseReservationPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "reservations" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
