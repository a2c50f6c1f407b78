// Package invoices provides the invoices table.
package invoices

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
)

// SetupRoutes configures routes for the invoices feature.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers, err := NewHandlers(deps)
	if err != nil {
		return err
	}
	handlers.Routes(router)
	return nil
}
