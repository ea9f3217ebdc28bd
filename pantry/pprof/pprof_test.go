package pprof

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMount(t *testing.T) {
	r := chi.NewRouter()
	Mount(r)

	tests := []struct {
		target   string
		wantCode int
		wantBody string
	}{
		{Prefix + "/", http.StatusOK, "goroutine"},
		{Prefix + "/goroutine?debug=1", http.StatusOK, "goroutine profile"},
		{Prefix + "/cmdline", http.StatusOK, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.target, rec.Code, tt.wantCode)
		}
		if !strings.Contains(rec.Body.String(), tt.wantBody) {
			t.Errorf("%s: body lacks %q", tt.target, tt.wantBody)
		}
	}
}
