package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/backoffice/internal/cli/testutil"
	"github.com/leapstack-labs/backoffice/internal/config"
	"github.com/leapstack-labs/backoffice/internal/testutil"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

func testConfig(t *testing.T, dsn string) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	cfg.Database.DSN = dsn
	cfg.Output = ModeMarkdown
	return cfg
}

// runCommand executes cmd with cfg and a test logger in its context, the
// way the root command would.
func runCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	ctx := config.WithConfig(context.Background(), cfg)
	// keep seed and store chatter out of the test log
	ctx = config.WithLogger(ctx, testutil.NewTestLoggerAt(t, slog.LevelWarn))
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

type jsonPage struct {
	Data []map[string]any `json:"data"`
	Meta datatable.Meta   `json:"meta"`
}

func decodePage(t *testing.T, out string) jsonPage {
	t.Helper()
	var p jsonPage
	require.NoError(t, json.Unmarshal([]byte(out), &p), out)
	return p
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewListCommand(), use: "list <table>", flags: []string{"page", "per-page", "sort", "dir", "search", "filter", "after", "before"}},
		{cmd: NewBrowseCommand(), use: "browse <table>", flags: []string{"page", "sort", "search", "filter"}},
		{cmd: NewServeCommand(), use: "serve", flags: []string{"port", "watch", "session-secret", "open"}},
		{cmd: NewSeedCommand(), use: "seed", flags: []string{"courses", "members", "orders", "invoices"}},
		{cmd: NewMigrateCommand(), use: "migrate"},
		{cmd: NewConfigCommand(), use: "config"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	assert.Equal(t, core.Resources, NewListCommand().ValidArgs)
}

func TestListCommand(t *testing.T) {
	dsn := clitest.SetupTestDatabase(t, core.SeedOptions{Courses: 4, Members: 30, Orders: 40, Invoices: 60})
	cfg := testConfig(t, dsn)

	t.Run("markdown", func(t *testing.T) {
		out, err := runCommand(t, NewListCommand(), cfg, "members")
		require.NoError(t, err)

		clitest.AssertNoANSI(t, out)
		clitest.AssertValidMarkdownTable(t, out)
		assert.Contains(t, strings.ToLower(out), "email")
		assert.Contains(t, out, "page 1 of 2, 30 rows")
	})

	t.Run("json", func(t *testing.T) {
		jsonCfg := *cfg
		jsonCfg.Output = ModeJSON

		out, err := runCommand(t, NewListCommand(), &jsonCfg, "members", "--per-page", "10", "--page", "3")
		require.NoError(t, err)

		p := decodePage(t, out)
		assert.Len(t, p.Data, 10)
		assert.Equal(t, 30, p.Meta.TotalCount)
		assert.Equal(t, 3, p.Meta.TotalPages)
	})

	t.Run("sorted", func(t *testing.T) {
		out, err := runCommand(t, NewListCommand(), cfg, "members", "--sort", "name", "--dir", "desc")
		require.NoError(t, err)
		assert.Contains(t, out, "sorted by name desc")
	})

	t.Run("search without matches", func(t *testing.T) {
		out, err := runCommand(t, NewListCommand(), cfg, "members", "-q", "zzzz-nobody")
		require.NoError(t, err)
		assert.Equal(t, "No results match the current search or filters.\n", out)
	})

	t.Run("cursor paging", func(t *testing.T) {
		jsonCfg := *cfg
		jsonCfg.Output = ModeJSON

		out, err := runCommand(t, NewListCommand(), &jsonCfg, "invoices")
		require.NoError(t, err)
		first := decodePage(t, out)
		require.Len(t, first.Data, 25)
		assert.True(t, first.Meta.HasMore)
		require.NotEmpty(t, first.Meta.StartingAfter)

		out, err = runCommand(t, NewListCommand(), &jsonCfg, "invoices", "--after", first.Meta.StartingAfter)
		require.NoError(t, err)
		second := decodePage(t, out)
		require.NotEmpty(t, second.Data)
		assert.NotEqual(t, first.Data[0]["id"], second.Data[0]["id"])
	})

	t.Run("cursor footer", func(t *testing.T) {
		out, err := runCommand(t, NewListCommand(), cfg, "invoices")
		require.NoError(t, err)
		assert.Contains(t, out, "60 rows, next: --after ")
	})

	t.Run("errors", func(t *testing.T) {
		_, err := runCommand(t, NewListCommand(), cfg, "students")
		assert.ErrorContains(t, err, `unknown table "students"`)

		_, err = runCommand(t, NewListCommand(), cfg, "members", "--filter", "status")
		assert.ErrorContains(t, err, "expected key=value")
	})
}

func TestSeedAndMigrateCommands(t *testing.T) {
	cfg := testConfig(t, t.TempDir()+"/nested/backoffice.db")

	out, err := runCommand(t, NewSeedCommand(), cfg, "--courses", "2", "--members", "3", "--orders", "4", "--invoices", "5")
	require.NoError(t, err)
	assert.Equal(t, "Seeded 2 courses, 3 members, 4 orders and 5 invoices.\n", out)

	out, err = runCommand(t, NewMigrateCommand(), cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite database at schema version")

	jsonCfg := *cfg
	jsonCfg.Output = ModeJSON
	out, err = runCommand(t, NewListCommand(), &jsonCfg, "courses")
	require.NoError(t, err)
	assert.Len(t, decodePage(t, out).Data, 2)
}

func TestConfigCommand(t *testing.T) {
	cfg := testConfig(t, "/var/lib/backoffice.db")
	cfg.Server.SessionSecret = "s3cret"
	cfg.API.Token = "tok"

	out, err := runCommand(t, NewConfigCommand(), cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "dsn: /var/lib/backoffice.db")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "tok\n")
	assert.Equal(t, "s3cret", cfg.Server.SessionSecret, "config in context is not modified")
}

func TestListQueryValues(t *testing.T) {
	q := listQuery{
		Page:    2,
		PerPage: 50,
		Sort:    "total",
		Dir:     "desc",
		Search:  "ada",
		Filters: []string{"status=paid", " currency =EUR"},
		After:   "in_9",
	}
	v, err := q.values()
	require.NoError(t, err)

	assert.Equal(t, url.Values{
		"page":             {"2"},
		"per_page":         {"50"},
		"sort":             {"total"},
		"dir":              {"desc"},
		"q":                {"ada"},
		"filter[status]":   {"paid"},
		"filter[currency]": {"EUR"},
		"starting_after":   {"in_9"},
	}, v)

	s := datatable.DecodeQuery(v, datatable.DefaultQueryState(25))
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, datatable.SortDesc, s.SortDirection)
	assert.Equal(t, map[string]string{"status": "paid", "currency": "EUR"}, s.Filters)
}

func TestOutputMode(t *testing.T) {
	tests := []struct {
		configured string
		want       string
	}{
		{configured: "auto", want: ModeMarkdown},
		{configured: "text", want: ModeText},
		{configured: "markdown", want: ModeMarkdown},
		{configured: "json", want: ModeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.configured, func(t *testing.T) {
			cfg := &config.Config{Output: tt.configured}
			assert.Equal(t, tt.want, outputMode(cfg, new(bytes.Buffer)))
		})
	}
}

func TestFooter(t *testing.T) {
	tests := []struct {
		name string
		l    listing
		want string
	}{
		{
			name: "offset",
			l: listing{
				Style: datatable.PaginationOffset,
				State: datatable.QueryState{Page: 2},
				Meta:  datatable.Meta{TotalCount: 60, TotalPages: 3},
			},
			want: "page 2 of 3, 60 rows",
		},
		{
			name: "offset without rows",
			l:    listing{State: datatable.QueryState{Page: 1}},
			want: "page 1 of 1, 0 rows",
		},
		{
			name: "cursor middle page",
			l: listing{
				Style: datatable.PaginationCursor,
				State: datatable.QueryState{SortField: "number", SortDirection: datatable.SortDesc},
				Meta:  datatable.Meta{TotalCount: 60, HasMore: true, StartingAfter: "in_2", EndingBefore: "in_1"},
			},
			want: "60 rows, next: --after in_2, prev: --before in_1, sorted by number desc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, footer(&tt.l))
		})
	}
}
