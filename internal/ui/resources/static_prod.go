//go:build !dev

package resources

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves the assets embedded in the binary. They only change with a
// new build, so clients may cache them for a year.
func Handler(logger *slog.Logger) http.Handler {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		logger.Error("embedded assets unavailable", slog.String("error", err.Error()))
		return http.NotFoundHandler()
	}
	files := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}

// Exists reports whether an asset is embedded.
func Exists(name string) bool {
	_, err := fs.Stat(staticFS, "static/"+name)
	return err == nil
}
