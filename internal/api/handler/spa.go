// internal/api/handler/spa.go
package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

// SPAHandler serves the built client. With static files enabled, existing
// files under dir are served as-is; every other GET gets index.html so the
// client router can take over.
type SPAHandler struct {
	dir    string
	static bool
	files  http.Handler
}

func NewSPAHandler(dir string, serveStatic bool) *SPAHandler {
	return &SPAHandler{
		dir:    dir,
		static: serveStatic,
		files:  http.FileServer(http.Dir(dir)),
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.static && h.isFile(r.URL.Path) {
		h.files.ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.dir, indexFile)
	if _, err := os.Stat(index); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			WriteError(w, r, errors.New("client build not found"), http.StatusNotFound)
			return
		}
		WriteError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}

func (h *SPAHandler) isFile(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || strings.HasSuffix(clean, "/"+indexFile) {
		return false
	}
	info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
	return err == nil && !info.IsDir()
}
