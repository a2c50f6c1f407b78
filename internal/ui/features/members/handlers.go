package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Handlers provides HTTP handlers for the members feature.
type Handlers struct {
	*common.Table[core.Member]

	store  core.Store
	logger *slog.Logger
}

// NewHandlers creates the members table bound to deps.
func NewHandlers(deps common.Deps) (*Handlers, error) {
	h := &Handlers{store: deps.Store, logger: deps.Logger}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	spec := common.TableSpec[core.Member]{
		Name:       core.ResourceMembers,
		Title:      "Members",
		Columns:    Columns(),
		Sortables:  Sortables,
		Filters:    Filters(),
		Empty:      datatable.EmptyState{NoData: "No members have signed up yet."},
		Selectable: true,
		Fetcher:    common.Source[core.Member](deps, core.ResourceMembers, deps.Store.ListMembers),
		Actions:    map[string]common.Action{ActionApprove: h.Approve},
	}
	if deps.Exports != nil {
		spec.Exporter = deps.Exports.For(core.ResourceMembers)
	}

	table, err := common.NewTable(deps, spec)
	if err != nil {
		return nil, err
	}
	h.Table = table
	return h, nil
}

// Approve activates a pending member.
func (h *Handlers) Approve(ctx context.Context, form url.Values) (string, error) {
	id := form.Get(datatable.KeyID)
	if id == "" {
		return "", errors.New("approve intent without id")
	}
	m, err := h.store.ApproveMember(ctx, id)
	switch {
	case errors.Is(err, core.ErrInvalidState):
		return "", fmt.Errorf("member is not pending approval: %w", err)
	case err != nil:
		return "", err
	}
	h.logger.Info("member approved", slog.String("id", m.ID))
	return m.Name + " approved.", nil
}
