package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEndpoints(t *testing.T) {
	s := NewServer("127.0.0.1:0", func() int64 { return 7 })

	tests := []struct {
		path    string
		handler http.HandlerFunc
		want    string
	}{
		{"/", s.handleRoot, "Heartbeats: 7"},
		{"/health", s.handleHealth, "OK"},
		{"/ping", s.handlePing, "PONG"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.handler(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", tt.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s: body %q, want %q", tt.path, rec.Body.String(), tt.want)
		}
	}
}
