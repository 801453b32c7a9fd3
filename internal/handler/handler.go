// Package handler provides HTTP request handlers.
package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/penshort/usermcp/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Info describes the running service on the root endpoint.
type Info struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Transport string   `json:"transport"`
	Endpoints []string `json:"endpoints"`
	Tools     []string `json:"tools"`
}

// Handler serves the service-level endpoints that are not MCP.
type Handler struct {
	info Info
}

// New creates a new Handler instance.
func New(info Info) *Handler {
	return &Handler{info: info}
}

// Root describes the service. It never exposes user data.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.NewErrorResponse("Not Found", "resource not found"))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.NewErrorResponse("Method Not Allowed", r.Method+" is not supported here"))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal Error","details":null}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
