package middleware

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/penshort/usermcp/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeError writes an ErrorResponse envelope with the given status.
func writeError(w http.ResponseWriter, status int, category, details string) {
	body, err := json.Marshal(model.NewErrorResponse(category, details))
	if err != nil {
		body = []byte(`{"error":"Internal Error","details":null}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
