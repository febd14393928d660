package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// handleSPA serves the page and its assets (post images, profile picture)
// from dir. Unknown page routes get index.html; a missing asset is a 404 so a
// broken image never renders as HTML.
func handleSPA(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		full := filepath.Join(dir, filepath.FromSlash(clean))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		if path.Ext(clean) != "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
