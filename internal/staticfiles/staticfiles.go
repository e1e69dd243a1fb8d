// Package staticfiles serves the game client's static assets: MIME
// inference by extension, directory-to-index.html resolution, and
// path-escape protection, per spec.md §6.
package staticfiles

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"strayfinder/internal/apperr"
)

var mimeByExt = map[string]string{
	".htm":  "text/html",
	".html": "text/html",
	".css":  "text/css",
	".txt":  "text/plain",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".ico":  "image/vnd.microsoft.icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".svg":  "image/svg+xml",
	".mp3":  "audio/mpeg",
}

const defaultMime = "application/octet-stream"

// contentType infers the Content-Type for name from its extension, per
// the table in spec.md §6.
func contentType(name string) string {
	if ct, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultMime
}

// Handler serves files rooted at root. Any request whose resolved path
// escapes root is refused with a ProtocolError, surfaced by the caller as
// a plain-text 400; a missing file surfaces as a plain-text 404.
type Handler struct {
	root string
}

// New returns a Handler rooted at root, which must already exist.
func New(root string) *Handler {
	return &Handler{root: root}
}

// Resolve maps an URL path to an absolute file path under root, resolving
// directories to index.html. It returns a *apperr.ProtocolError if the
// path escapes root or the resulting file does not exist.
func (h *Handler) Resolve(urlPath string) (string, error) {
	full := filepath.Join(h.root, filepath.FromSlash(urlPath))

	rootAbs, err := filepath.Abs(h.root)
	if err != nil {
		return "", apperr.NewProtocol(http.StatusInternalServerError, "internal error")
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", apperr.NewProtocol(http.StatusInternalServerError, "internal error")
	}
	if fullAbs != rootAbs && !strings.HasPrefix(fullAbs, rootAbs+string(filepath.Separator)) {
		return "", apperr.NewProtocol(http.StatusBadRequest, "bad request")
	}

	info, err := os.Stat(fullAbs)
	if err != nil {
		return "", apperr.NewProtocol(http.StatusNotFound, "file not found")
	}
	if info.IsDir() {
		fullAbs = filepath.Join(fullAbs, "index.html")
		if _, err := os.Stat(fullAbs); err != nil {
			return "", apperr.NewProtocol(http.StatusNotFound, "file not found")
		}
	}
	return fullAbs, nil
}

// ServeHTTP resolves the request path under root and streams the file
// back with an inferred Content-Type.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := h.Resolve(r.URL.Path)
	if err != nil {
		if pe, ok := err.(*apperr.ProtocolError); ok {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(pe.Status)
			w.Write([]byte(pe.Msg))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(path))
	http.ServeFile(w, r, path)
}
