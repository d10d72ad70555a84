package api

import (
	"encoding/json"
	"net/http"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

// ListResponse is the list envelope for collection endpoints.
// Example: {"object": "list", "data": [...], "has_more": false, "url": "/v1/players"}
type ListResponse struct {
	Object  string `json:"object"`
	Data    any    `json:"data"`
	HasMore bool   `json:"has_more"`
	URL     string `json:"url"`
}

// ErrorResponse wraps an error body.
type ErrorResponse struct {
	Error apperrors.ErrorBody `json:"error"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes err as {"error": {"type": "...", "code": "...", "message": "..."}}.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.EnsureAppError(err)
	_ = WriteJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.ErrorBody()})
}

// WriteList writes a list response.
func WriteList(w http.ResponseWriter, url string, data any, hasMore bool) error {
	return WriteJSON(w, http.StatusOK, ListResponse{
		Object:  "list",
		Data:    data,
		HasMore: hasMore,
		URL:     url,
	})
}

// WriteResource writes a single resource directly. The resource should
// already carry an "object" field.
func WriteResource(w http.ResponseWriter, status int, resource any) error {
	return WriteJSON(w, status, resource)
}

// WriteAction writes the result of a non-CRUD action.
func WriteAction(w http.ResponseWriter, status int, result any) error {
	return WriteJSON(w, status, result)
}

// SingleResponse writes a resource under a dynamic key, tagged with the request id.
// Produces: {"request_id": "...", "info": {...}}
func SingleResponse(w http.ResponseWriter, r *http.Request, status int, key string, resource any) error {
	resp := map[string]any{
		"request_id": GetRequestID(r),
		key:          resource,
	}
	return WriteJSON(w, status, resp)
}
