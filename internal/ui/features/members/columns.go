package members

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// ActionApprove is the intent approving a pending member.
const ActionApprove = "approve"

var links = datatable.Links{Path: "/" + core.ResourceMembers}

// Sortables are the fields members can be sorted by unless configured
// otherwise.
var Sortables = []string{"name", "email", "status", "joined_at"}

// Columns is the full column set of the members table.
func Columns() []datatable.Column[core.Member] {
	return []datatable.Column[core.Member]{
		{ID: "name", Accessor: func(m core.Member) any { return m.Name }, Sortable: true},
		{ID: "email", Accessor: func(m core.Member) any { return m.Email }, Sortable: true},
		{
			ID:       "status",
			Accessor: func(m core.Member) any { return string(m.Status) },
			Sortable: true,
			Render:   func(m core.Member) templ.Component { return common.Badge(string(m.Status)) },
		},
		{ID: "joined_at", Header: "Joined", Accessor: func(m core.Member) any { return common.Date(m.JoinedAt) }, Sortable: true},
		{ID: datatable.ActionsColumnID, Header: " ", Render: approveButton},
	}
}

// Filters are the toolbar selects of the members table.
func Filters() []datatable.Filter {
	return []datatable.Filter{{
		Key:     "status",
		Label:   "Status",
		Options: common.Options(string(core.MemberPending), string(core.MemberActive), string(core.MemberSuspended)),
	}}
}

func approveButton(m core.Member) templ.Component {
	if !m.CanApprove() {
		return nil
	}
	return approve(links.Post(ActionApprove, url.Values{datatable.KeyID: {m.ID}}))
}
