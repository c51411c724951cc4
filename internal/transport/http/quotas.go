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

// QuotaService is the minimal interface needed for the quota endpoints.
type QuotaService interface {
	CreateQuota(ctx context.Context, in app.CreateQuotaInput) (domain.Quota, error)
	UpdateQuota(ctx context.Context, id string, in app.UpdateQuotaInput) (*domain.Quota, error)
	SetQuotaCapacity(ctx context.Context, id string, capacity int) (*domain.Quota, error)
	DeleteQuota(ctx context.Context, id string) error
	ListQuotas(ctx context.Context, group string, optionFilter *string) ([]domain.Quota, error)
	ValidateCapacity(ctx context.Context, group string, newCapacity int, excludeQuotaID, ticketOption string) (app.ValidationResult, error)
}

// FreeCapacityReader resolves the free-capacity row shown alongside a
// scope's quota listing.
type FreeCapacityReader interface {
	FreeCapacity(ctx context.Context, scope domain.Scope) (domain.CapacityRow, error)
}

// HandleGroupQuotas returns an HTTP handler for listing and creating
// the quotas of a capacity group.
func HandleGroupQuotas(svc QuotaService, free FreeCapacityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, ok := parseGroupPath(r.URL.Path, "quotas")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			var optionFilter *string
			if r.URL.Query().Has("ticket_option") {
				option := r.URL.Query().Get("ticket_option")
				optionFilter = &option
			}

			quotas, err := svc.ListQuotas(r.Context(), group, optionFilter)
			if err != nil {
				writeQuotaError(w, err)
				return
			}

			scope := domain.Scope{Group: group}
			if optionFilter != nil {
				scope.Option = *optionFilter
			}
			row, err := free.FreeCapacity(r.Context(), scope)
			if err != nil {
				writeQuotaError(w, err)
				return
			}

			resp := listQuotasResponse{
				Quotas: make([]quotaResponse, 0, len(quotas)),
				FreeCapacity: capacityRowResponse{
					Capacity:  row.Capacity,
					Sold:      row.Sold,
					Available: row.Available,
				},
			}
			for _, q := range quotas {
				resp.Quotas = append(resp.Quotas, toQuotaResponse(q))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodPost:
			var req createQuotaRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			quota, err := svc.CreateQuota(r.Context(), app.CreateQuotaInput{
				Name:         req.Name,
				Type:         domain.QuotaType(req.Type),
				Capacity:     req.Capacity,
				Targets:      req.Targets,
				Assignation:  req.Assignation,
				Group:        group,
				TicketOption: req.TicketOption,
			})
			if err != nil {
				writeQuotaError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toQuotaResponse(quota))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleQuotaByID returns an HTTP handler for editing and deleting a
// single quota, including the capacity-only edit at /quotas/{id}/capacity.
func HandleQuotaByID(svc QuotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, capacityEdit, ok := parseQuotaPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if capacityEdit {
			if r.Method != http.MethodPut {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req setCapacityRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			quota, err := svc.SetQuotaCapacity(r.Context(), id, req.Capacity)
			if err != nil {
				writeQuotaError(w, err)
				return
			}
			if quota == nil {
				writeError(w, http.StatusNotFound, codeQuotaNotFound, "quota not found")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toQuotaResponse(*quota))
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req updateQuotaRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			in := app.UpdateQuotaInput{
				Name:     req.Name,
				Capacity: req.Capacity,
				Targets:  req.Targets,
			}
			if req.Type != nil {
				quotaType := domain.QuotaType(*req.Type)
				in.Type = &quotaType
			}

			quota, err := svc.UpdateQuota(r.Context(), id, in)
			if err != nil {
				writeQuotaError(w, err)
				return
			}
			if quota == nil {
				writeError(w, http.StatusNotFound, codeQuotaNotFound, "quota not found")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toQuotaResponse(*quota))
			return
		case http.MethodDelete:
			if err := svc.DeleteQuota(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleValidateCapacity returns an HTTP handler for the advisory
// capacity check. Violations come back as a report, never as an error.
func HandleValidateCapacity(svc QuotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, ok := parseGroupPath(r.URL.Path, "validate-capacity")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req validateCapacityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		result, err := svc.ValidateCapacity(r.Context(), group, req.Capacity, req.ExcludeQuotaID, req.TicketOption)
		if err != nil {
			writeQuotaError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(validateCapacityResponse{
			IsValid:      result.IsValid,
			MaxAvailable: result.MaxAvailable,
			Message:      result.Message,
		})
	}
}

func writeQuotaError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrQuotaNameRequired:
		writeError(w, http.StatusBadRequest, codeQuotaNameRequired, err.Error())
	case domain.ErrInvalidQuotaType:
		writeError(w, http.StatusBadRequest, codeInvalidQuotaType, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrCapacityBelowSold:
		writeError(w, http.StatusConflict, codeCapacityBelowSold, err.Error())
	case domain.ErrGroupNotFound:
		writeError(w, http.StatusNotFound, codeGroupNotFound, err.Error())
	case domain.ErrTicketOptionNotFound:
		writeError(w, http.StatusNotFound, codeTicketOptionNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type createQuotaRequest struct {
	Name         string                `json:"name"`
	Type         string                `json:"type"`
	Capacity     int                   `json:"capacity"`
	Targets      []domain.AssignTarget `json:"targets,omitempty"`
	Assignation  string                `json:"assignation,omitempty"`
	TicketOption string                `json:"ticket_option,omitempty"`
}

type updateQuotaRequest struct {
	Name     *string                `json:"name,omitempty"`
	Type     *string                `json:"type,omitempty"`
	Capacity *int                   `json:"capacity,omitempty"`
	Targets  *[]domain.AssignTarget `json:"targets,omitempty"`
}

type setCapacityRequest struct {
	Capacity int `json:"capacity"`
}

type validateCapacityRequest struct {
	Capacity       int    `json:"capacity"`
	ExcludeQuotaID string `json:"exclude_quota_id,omitempty"`
	TicketOption   string `json:"ticket_option,omitempty"`
}

type validateCapacityResponse struct {
	IsValid      bool   `json:"is_valid"`
	MaxAvailable int    `json:"max_available"`
	Message      string `json:"message,omitempty"`
}

type quotaResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Type         string                `json:"type"`
	Capacity     int                   `json:"capacity"`
	Sold         int                   `json:"sold"`
	Available    int                   `json:"available"`
	Targets      []domain.AssignTarget `json:"targets"`
	Group        string                `json:"group"`
	TicketOption string                `json:"ticket_option,omitempty"`
	Assignation  string                `json:"assignation"`
	CreatedAt    time.Time             `json:"created_at"`
}

type capacityRowResponse struct {
	Capacity  int `json:"capacity"`
	Sold      int `json:"sold"`
	Available int `json:"available"`
}

type listQuotasResponse struct {
	Quotas       []quotaResponse     `json:"quotas"`
	FreeCapacity capacityRowResponse `json:"free_capacity"`
}

func toQuotaResponse(q domain.Quota) quotaResponse {
	return quotaResponse{
		ID:           q.ID,
		Name:         q.Name,
		Type:         string(q.Type),
		Capacity:     q.Capacity,
		Sold:         q.Sold,
		Available:    q.Available,
		Targets:      q.Targets,
		Group:        q.Group,
		TicketOption: q.TicketOption,
		Assignation:  domain.RenderAssignation(q.Targets, 2),
		CreatedAt:    q.CreatedAt,
	}
}

// parseGroupPath extracts the group segment from /groups/{group}/{tail}.
func parseGroupPath(path, tail string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "groups" || parts[2] != tail {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// parseQuotaPath extracts the id from /quotas/{id} or /quotas/{id}/capacity.
func parseQuotaPath(path string) (id string, capacityEdit, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] != "quotas" || parts[1] == "" {
		return "", false, false
	}
	switch len(parts) {
	case 2:
		return parts[1], false, true
	case 3:
		if parts[2] != "capacity" {
			return "", false, false
		}
		return parts[1], true, true
	default:
		return "", false, false
	}
}
