package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches into a fresh directory for the duration of the test.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "backoffice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.String("driver", "", "")
	fs.Int("port", 0, "")
	fs.String("log-level", "", "")
	fs.StringP("output", "o", "", "")
	fs.String("api-url", "", "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultDSN, cfg.Database.DSN)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.Enabled())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Empty(t, cfg.File)
}

func TestLoadConfig_File(t *testing.T) {
	dir := chdir(t)
	writeConfig(t, dir, `
database:
  driver: postgres
  dsn: postgres://localhost/academy
server:
  port: 9000
api:
  base_url: https://api.example.com/v1
  timeout: 3s
tables:
  members:
    per_page: 50
    columns: [name, email, status]
    sortables: [name]
    persist_selection: true
log_level: debug
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "backoffice.yaml", cfg.File)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.API.Enabled())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	members := cfg.Table("members")
	assert.Equal(t, 50, members.PerPage)
	assert.Equal(t, []string{"name", "email", "status"}, members.Columns)
	assert.Equal(t, []string{"name"}, members.Sortables)
	assert.True(t, members.PersistSelection)

	courses := cfg.Table("courses")
	assert.Equal(t, DefaultPerPage, courses.PerPage)
	assert.Nil(t, courses.Sortables)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := chdir(t)
	writeConfig(t, dir, "server:\n  port: 9000\nlog_level: warn\noutput: markdown\n")

	t.Setenv("BACKOFFICE_SERVER__PORT", "9100")
	t.Setenv("BACKOFFICE_LOG_LEVEL", "error")
	t.Setenv("BACKOFFICE_TABLES__ORDERS__PER_PAGE", "40")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--port", "9200", "--db", "/tmp/x.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port, "flag beats env")
	assert.Equal(t, "/tmp/x.db", cfg.Database.DSN)
	assert.Equal(t, slog.LevelError, cfg.Level(), "env beats file")
	assert.Equal(t, "markdown", cfg.Output, "file beats defaults")
	assert.Equal(t, 40, cfg.Table("orders").PerPage)
}

func TestLoadConfig_UnchangedFlagsDoNotOverride(t *testing.T) {
	dir := chdir(t)
	writeConfig(t, dir, "server:\n  port: 9000\n")

	cfg, err := LoadConfig("", testFlags())
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "bad yaml", content: "server: [", errMsg: "error reading config file"},
		{name: "bad port", content: "server:\n  port: 70000\n", errMsg: "server.port"},
		{name: "bad level", content: "log_level: loud\n", errMsg: "log_level"},
		{name: "bad output", content: "output: xml\n", errMsg: "output"},
		{name: "bad per page", content: "tables:\n  members:\n    per_page: 1000\n", errMsg: "tables.members.per_page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdir(t)
			path := writeConfig(t, dir, tt.content)

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := LoadConfig("missing.yaml", nil)
	assert.Error(t, err)
}

func TestConfig_Redacted(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{SessionSecret: "s3cret"},
		API:    APIConfig{Token: "tok"},
	}

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Server.SessionSecret)
	assert.Equal(t, "********", red.API.Token)
	assert.Empty(t, red.Server.APIToken)
	assert.Equal(t, "s3cret", cfg.Server.SessionSecret, "original untouched")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	ctx := WithLogger(context.Background(), logger)

	GetLogger(ctx).Info("hidden")
	GetLogger(ctx).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
