package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>shell</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "app.js"), []byte("console.log(1)"), 0o644))

	h := NewPageHandler(dir)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "static file", method: http.MethodGet, path: "/static/app.js", expectedStatus: http.StatusOK, expectedBody: "console.log(1)"},
		{name: "client route", method: http.MethodGet, path: "/dashboard", expectedStatus: http.StatusOK, expectedBody: "shell"},
		{name: "root", method: http.MethodGet, path: "/", expectedStatus: http.StatusOK, expectedBody: "shell"},
		{name: "traversal rejected", method: http.MethodGet, path: "/../../etc/passwd", expectedStatus: http.StatusBadRequest},
		{name: "post", method: http.MethodPost, path: "/dashboard", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.path
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
		})
	}
}
