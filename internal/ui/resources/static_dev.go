//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
)

// staticDir locates static/ next to this file so edits show up without a
// rebuild, wherever the binary runs from.
func staticDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return StaticDirectoryPath
	}
	return filepath.Join(filepath.Dir(filename), "static")
}

// Handler serves static files from disk with revalidation on every request.
func Handler(logger *slog.Logger) http.Handler {
	dir := staticDir()
	logger.Info("static assets served from filesystem", slog.String("path", dir))

	files := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

// Exists reports whether an asset is present, for startup checks.
func Exists(name string) bool {
	_, err := os.Stat(filepath.Join(staticDir(), name))
	return err == nil
}
