package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"serve", "list", "browse", "migrate", "seed", "config", "version", "completion"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_ConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Setenv("BACKOFFICE_SERVER__PORT", "9100")
	t.Setenv("BACKOFFICE_DATABASE__DSN", filepath.Join(dir, "env.db"))

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "env over defaults",
			args: []string{"config"},
			want: []string{"port: 9100", "dsn: " + filepath.Join(dir, "env.db"), "log_level: info"},
		},
		{
			name: "flags over env",
			args: []string{"config", "--db", "flag.db", "-o", "json", "--log-level", "debug"},
			want: []string{"dsn: flag.db", "output: json", "log_level: debug"},
		},
		{
			name: "remote api",
			args: []string{"config", "--api-url", "https://api.example.com", "--api-token", "tok-9f2c"},
			want: []string{"base_url: https://api.example.com", "********"},
		},
		{
			name:    "invalid output",
			args:    []string{"config", "-o", "xml"},
			wantErr: `output "xml"`,
		},
		{
			name:    "invalid log level",
			args:    []string{"config", "--log-level", "loud"},
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "tok-9f2c")
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "backoffice")
		})
	}

	_, err := execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
