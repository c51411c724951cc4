package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeQuotaNameRequired    = "quota_name_required"
	codeInvalidQuotaType     = "invalid_quota_type"
	codeInvalidCapacity      = "invalid_capacity"
	codeCapacityBelowSold    = "capacity_below_sold"
	codeInvalidQuantity      = "invalid_quantity"
	codeInvalidTicketLine    = "invalid_ticket_line"
	codeGroupNotFound        = "group_not_found"
	codeTicketOptionNotFound = "ticket_option_not_found"
	codeQuotaNotFound        = "quota_not_found"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
