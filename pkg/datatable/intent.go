package datatable

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Intent actions emitted by the render surface.
const (
	ActionPage           = "page"
	ActionSort           = "sort"
	ActionSearch         = "search"
	ActionFilter         = "filter"
	ActionClearFilters   = "clear_filters"
	ActionSelect         = "select"
	ActionSelectAll      = "select_all"
	ActionClearSelection = "clear_selection"
	ActionRefetch        = "refetch"
	ActionNext           = "next"
	ActionPrev           = "prev"
)

// Form keys carried by intents besides the URL state keys.
const (
	KeyField = "field"
	KeyID    = "id"
)

// ErrUnknownAction is returned by Apply for an unrecognized action.
var ErrUnknownAction = errors.New("unknown table action")

// Apply dispatches a form-encoded intent to c and returns the resulting
// snapshot. Malformed intents leave the controller untouched.
func Apply[R any](ctx context.Context, c *Controller[R], action string, form url.Values) (Snapshot[R], error) {
	switch action {
	case ActionPage:
		n, err := strconv.Atoi(form.Get(KeyPage))
		if err != nil {
			return c.Snapshot(), fmt.Errorf("invalid page %q: %w", form.Get(KeyPage), err)
		}
		return c.SetPage(ctx, n), nil
	case ActionSort:
		field := form.Get(KeyField)
		if field == "" {
			return c.Snapshot(), errors.New("sort intent without field")
		}
		if dir := form.Get(KeyDir); dir != "" {
			return c.SetSort(ctx, field, ParseSortDirection(dir)), nil
		}
		return c.ToggleSort(ctx, field), nil
	case ActionSearch:
		return c.SetSearch(ctx, form.Get(KeySearch)), nil
	case ActionFilter:
		return c.SetFilters(ctx, DecodeFilters(form)), nil
	case ActionClearFilters:
		return c.ClearCriteria(ctx), nil
	case ActionSelect:
		return c.ToggleRowSelection(form.Get(KeyID)), nil
	case ActionSelectAll:
		return c.SelectAllOnPage(), nil
	case ActionClearSelection:
		return c.ClearSelection(), nil
	case ActionRefetch:
		return c.Refetch(ctx), nil
	case ActionNext:
		return c.NextCursor(ctx), nil
	case ActionPrev:
		return c.PrevCursor(ctx), nil
	default:
		return c.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
