package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		isDev     bool
		wantStack bool
	}{
		{"production hides stack", false, false},
		{"development logs stack", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			handler := Recoverer(logger, tt.isDev)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", nil))

			if w.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", w.Code)
			}
			if body := w.Body.String(); body != `{"error":"Internal Error","details":null}` {
				t.Errorf("body = %s", body)
			}
			if !strings.Contains(logs.String(), `"panic":"boom"`) {
				t.Errorf("panic not logged: %s", logs.String())
			}
			if got := strings.Contains(logs.String(), `"stack"`); got != tt.wantStack {
				t.Errorf("stack logged = %v, want %v", got, tt.wantStack)
			}
		})
	}
}
