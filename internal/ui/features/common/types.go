// Package common provides shared types and utilities for UI features.
package common

import (
	"log/slog"
	"time"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/backoffice/internal/config"
	"github.com/leapstack-labs/backoffice/internal/exports"
	"github.com/leapstack-labs/backoffice/internal/remote"
	"github.com/leapstack-labs/backoffice/internal/ui/notifier"
	"github.com/leapstack-labs/backoffice/pkg/core"
)

// DefaultIdleTimeout is how long a visitor's tables stay bound without
// requests or open update streams.
const DefaultIdleTimeout = 30 * time.Minute

// Deps holds what feature routes need from the server.
type Deps struct {
	Store    core.Store
	Sessions sessions.Store
	Notifier *notifier.Notifier
	Exports  *exports.Service
	Config   *config.Config
	Logger   *slog.Logger
	IsDev    bool

	// API, when set, replaces the store as the source of table rows.
	API *remote.Client

	// APIToken, when set, is the bearer token the JSON API requires.
	APIToken string

	// IdleTimeout overrides DefaultIdleTimeout.
	IdleTimeout time.Duration
}

// NavItem is one entry of the top navigation.
type NavItem struct {
	Title string
	Path  string
}

// Nav lists the dashboard tables in menu order.
var Nav = []NavItem{
	{Title: "Courses", Path: "/" + core.ResourceCourses},
	{Title: "Orders", Path: "/" + core.ResourceOrders},
	{Title: "Members", Path: "/" + core.ResourceMembers},
	{Title: "Invoices", Path: "/" + core.ResourceInvoices},
	{Title: "Exports", Path: "/" + core.ResourceExports},
}

func (d Deps) table(name string) config.TableConfig {
	if d.Config == nil {
		return config.TableConfig{PerPage: config.DefaultPerPage}
	}
	return d.Config.Table(name)
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}
