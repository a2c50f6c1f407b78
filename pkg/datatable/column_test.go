package datatable

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	ID        string
	Name      string
	Email     string
	Status    string
	CreatedAt string
}

func testColumns() []Column[testRow] {
	return []Column[testRow]{
		{ID: "id", Sortable: true, Accessor: func(r testRow) any { return r.ID }},
		{ID: "name", Sortable: true, Accessor: func(r testRow) any { return r.Name }},
		{ID: "email", Accessor: func(r testRow) any { return r.Email }},
		{ID: "created_at", Header: "Joined", Sortable: true, Accessor: func(r testRow) any { return r.CreatedAt }},
		{ID: ActionsColumnID, Render: func(r testRow) templ.Component {
			if r.Status != "pending" {
				return nil
			}
			return plainText("Approve")
		}},
	}
}

func TestProduce_AllColumnsWhenUnrestricted(t *testing.T) {
	cols := Produce(ColumnConfig{Sortables: []string{"id", "created_at"}}, testColumns())

	require.Len(t, cols, 5)
	assert.Equal(t, []string{"id", "name", "email", "created_at", "actions"}, IDs(cols))

	for _, col := range cols {
		wantDisabled := col.ID != "id" && col.ID != "created_at"
		assert.Equal(t, wantDisabled, col.DisableSortBy, "column %s", col.ID)
	}
}

func TestProduce_VisibleColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    []string
	}{
		{name: "subset in requested order", columns: []string{"email", "id"}, want: []string{"email", "id"}},
		{name: "single column", columns: []string{"actions"}, want: []string{"actions"}},
		{name: "unknown ids ignored", columns: []string{"nope", "name"}, want: []string{"name"}},
		{name: "repeated ids kept once", columns: []string{"name", "name", "id"}, want: []string{"name", "id"}},
		{name: "full reorder", columns: []string{"actions", "created_at", "email", "name", "id"}, want: []string{"actions", "created_at", "email", "name", "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := Produce(ColumnConfig{Columns: tt.columns}, testColumns())
			assert.Equal(t, tt.want, IDs(cols))
		})
	}
}

func TestProduce_DoesNotMutateInput(t *testing.T) {
	all := testColumns()
	_ = Produce(ColumnConfig{Sortables: []string{"name"}, Columns: []string{"name"}}, all)

	for _, col := range all {
		assert.False(t, col.DisableSortBy)
	}
	assert.Len(t, all, 5)
}

func TestProduce_DuplicateFirstWins(t *testing.T) {
	all := append(testColumns(), Column[testRow]{ID: "id", Header: "Second"})
	cols := Produce(ColumnConfig{}, all)

	require.Len(t, cols, 5)
	assert.Empty(t, cols[0].Header)
}

func TestProduce_SortableRequiresAllowList(t *testing.T) {
	cols := Produce(ColumnConfig{Sortables: []string{"email", "name"}}, testColumns())

	byID := map[string]Column[testRow]{}
	for _, c := range cols {
		byID[c.ID] = c
	}
	assert.True(t, byID["name"].CanSort())
	// email is allowed but not declared sortable
	assert.False(t, byID["email"].CanSort())
	assert.False(t, byID["id"].CanSort())
	assert.Equal(t, []string{"name"}, SortableIDs(cols))

	assert.Empty(t, SortableIDs(Produce(ColumnConfig{Sortables: []string{}}, testColumns())))
}

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ColumnConfig
		extra   []Column[testRow]
		wantErr []string
	}{
		{name: "valid", cfg: ColumnConfig{Sortables: []string{"id"}, Columns: []string{"id", "name"}}},
		{
			name:    "duplicate id",
			extra:   []Column[testRow]{{ID: "name"}},
			wantErr: []string{`duplicate column id "name"`},
		},
		{
			name:    "sortable not declared",
			cfg:     ColumnConfig{Sortables: []string{"email", "ghost"}},
			wantErr: []string{`sortable "email" names a column that is not sortable`, `sortable "ghost" names no column`},
		},
		{
			name:    "unknown visible column",
			cfg:     ColumnConfig{Columns: []string{"ghost"}},
			wantErr: []string{`visible column "ghost" is not declared`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.cfg, append(testColumns(), tt.extra...))
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestColumn_TitleAndCell(t *testing.T) {
	cols := testColumns()

	assert.Equal(t, "Id", cols[0].Title())
	assert.Equal(t, "Joined", cols[3].Title())
	assert.Equal(t, "Created At", Column[testRow]{ID: "created_at"}.Title())

	var buf bytes.Buffer
	require.NoError(t, cols[1].Cell(testRow{Name: "Ada <Lovelace>"}).Render(context.Background(), &buf))
	assert.Equal(t, "Ada &lt;Lovelace&gt;", buf.String())

	// action column with no output renders empty
	buf.Reset()
	require.NoError(t, cols[4].Cell(testRow{Status: "active"}).Render(context.Background(), &buf))
	assert.Empty(t, buf.String())

	buf.Reset()
	require.NoError(t, cols[4].Cell(testRow{Status: "pending"}).Render(context.Background(), &buf))
	assert.Equal(t, "Approve", buf.String())
}
