package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/classroom/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantErr   bool
		wantDebug bool
		wantJSON  bool
	}{
		{"defaults", config.LogConfig{}, false, false, false},
		{"debug text", config.LogConfig{Level: "debug", Format: "text"}, false, true, false},
		{"warn json", config.LogConfig{Level: "warn", Format: "json"}, false, false, true},
		{"bad level", config.LogConfig{Level: "loud"}, true, false, false},
		{"bad format", config.LogConfig{Format: "xml"}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
			logger.Error("hello")
			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommands_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "sqlite")
	t.Setenv("CLASSROOM_DATABASE_PATH", filepath.Join(dir, "nested", "classroom.db"))

	out, err := runCLI(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 0")

	out, err = runCLI(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 1")

	// Applying again is a no-op.
	out, err = runCLI(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 1")

	out, err = runCLI(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "All migrations rolled back")

	out, err = runCLI(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 0")
}

func TestMigrate_UnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "mysql")

	_, err := runCLI(t, "migrate", "up")
	assert.Error(t, err)
}

func TestServe_RequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CLASSROOM_AUTH_JWTSECRET", "")

	_, err := runCLI(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwtsecret")
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
