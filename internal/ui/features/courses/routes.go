// Package courses provides the course catalog table.
package courses

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
)

// SetupRoutes configures routes for the courses feature.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers, err := NewHandlers(deps)
	if err != nil {
		return err
	}
	handlers.Routes(router)

	// the catalog is the landing page
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+core.ResourceCourses, http.StatusFound)
	})
	return nil
}
