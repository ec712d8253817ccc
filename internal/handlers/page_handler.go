package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PageHandler serves the web client from a directory. Paths that are not files get
// index.html so client-side routes such as /dashboard load the application shell.
// Access control already happened in the route guard.
type PageHandler struct {
	root  string
	files http.Handler
}

// NewPageHandler creates a new page handler rooted at dir
func NewPageHandler(dir string) *PageHandler {
	return &PageHandler{
		root:  dir,
		files: http.FileServer(http.Dir(dir)),
	}
}

// ServeHTTP serves a static file or the application shell
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" && !strings.HasSuffix(clean, "/") {
		info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}

	http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
}
