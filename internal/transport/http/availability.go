package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/app"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

// AvailabilityEstimator is the minimal interface needed for the
// availability endpoint.
type AvailabilityEstimator interface {
	Estimate(ctx context.Context, in app.EstimateInput) (domain.Availability, error)
}

// HandleAvailability returns an HTTP handler answering how much a
// business could buy in a scope.
func HandleAvailability(svc AvailabilityEstimator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req availabilityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Group == "" {
			writeError(w, http.StatusBadRequest, codeGroupNotFound, domain.ErrGroupNotFound.Error())
			return
		}

		availability, err := svc.Estimate(r.Context(), app.EstimateInput{
			Group:        req.Group,
			TicketOption: req.TicketOption,
			BusinessID:   req.BusinessID,
		})
		if err != nil {
			switch err {
			case domain.ErrGroupNotFound:
				writeError(w, http.StatusNotFound, codeGroupNotFound, err.Error())
			case domain.ErrTicketOptionNotFound:
				writeError(w, http.StatusNotFound, codeTicketOptionNotFound, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := availabilityResponse{
			Available:      availability.Available,
			Reason:         availability.Reason,
			MatchingQuotas: availability.MatchingQuotas,
		}
		if resp.MatchingQuotas == nil {
			resp.MatchingQuotas = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type availabilityRequest struct {
	Group        string `json:"group"`
	TicketOption string `json:"ticket_option,omitempty"`
	BusinessID   string `json:"business_id,omitempty"`
}

type availabilityResponse struct {
	Available      int      `json:"available"`
	Reason         string   `json:"reason"`
	MatchingQuotas []string `json:"matching_quotas"`
}
