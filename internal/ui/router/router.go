// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	coursesFeature "github.com/leapstack-labs/backoffice/internal/ui/features/courses"
	exportsFeature "github.com/leapstack-labs/backoffice/internal/ui/features/exports"
	invoicesFeature "github.com/leapstack-labs/backoffice/internal/ui/features/invoices"
	membersFeature "github.com/leapstack-labs/backoffice/internal/ui/features/members"
	ordersFeature "github.com/leapstack-labs/backoffice/internal/ui/features/orders"
	"github.com/leapstack-labs/backoffice/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	// Hot reload endpoint for dev mode
	if deps.IsDev {
		setupReload(router)
	}

	router.Handle("/static/*", resources.Handler(deps.Logger))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	features := []func(chi.Router, common.Deps) error{
		coursesFeature.SetupRoutes,
		ordersFeature.SetupRoutes,
		membersFeature.SetupRoutes,
		invoicesFeature.SetupRoutes,
		exportsFeature.SetupRoutes,
	}
	for _, setup := range features {
		if err := setup(router, deps); err != nil {
			return err
		}
	}
	return nil
}

// setupReload lets `make dev` style watchers reload open tabs: /reload is
// held open by every page and answered once /hotreload is hit.
func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
