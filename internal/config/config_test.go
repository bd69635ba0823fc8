package config

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray config.yaml or
// .env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func validConfig() *Config {
	return &Config{
		HTTP:     HTTPConfig{Port: 8000},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "data/classroom.db"},
		Auth:     AuthConfig{JWTSecret: "0123456789abcdef", JWTExpiry: time.Hour, BCryptCost: 12},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/classroom.db", cfg.Database.Path)
	assert.Equal(t, 3*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, 12, cfg.Auth.BCryptCost)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("CLASSROOM_AUTH_JWTSECRET", "from-prefixed-env!")
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "postgres")
	t.Setenv("CLASSROOM_AUTH_BCRYPTCOST", "10")
	t.Setenv("CLASSROOM_METRICS_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed-env!", cfg.Auth.JWTSecret)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Auth.BCryptCost)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ShortAliases(t *testing.T) {
	inTempDir(t)
	t.Setenv("JWT_SECRET", "from-short-alias!!")
	t.Setenv("JWT_EXPIRY", "45m")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/classroom")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-short-alias!!", cfg.Auth.JWTSecret)
	assert.Equal(t, 45*time.Minute, cfg.Auth.JWTExpiry)
	assert.Equal(t, "postgres://u:p@localhost/classroom", cfg.Database.DSN)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_PrefixedBeatsAlias(t *testing.T) {
	inTempDir(t)
	t.Setenv("CLASSROOM_AUTH_JWTSECRET", "prefixed-secret-value")
	t.Setenv("JWT_SECRET", "alias-secret-value!!")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed-secret-value", cfg.Auth.JWTSecret)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "classroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 7000
auth:
  jwtsecret: file-secret-0123456
  jwtexpiry: 0s
log:
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, "file-secret-0123456", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Duration(0), cfg.Auth.JWTExpiry)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := inTempDir(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLASSROOM_LOG_LEVEL=debug\n"), 0o600))
	// godotenv sets process variables; register cleanup for the one it adds.
	t.Setenv("CLASSROOM_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("CLASSROOM_LOG_LEVEL"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"negative expiry", func(c *Config) { c.Auth.JWTExpiry = -time.Second }, true},
		{"zero expiry allowed", func(c *Config) { c.Auth.JWTExpiry = 0 }, false},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BCryptCost = 3 }, true},
		{"bcrypt cost too high", func(c *Config) { c.Auth.BCryptCost = 32 }, true},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.Database.Driver = DriverPostgres
			c.Database.DSN = "postgres://localhost/classroom"
		}, false},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDatabase_IgnoresAuth(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""

	assert.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateDatabase())
}

func TestExportedTypesDocumented(t *testing.T) {
	f, err := parser.ParseFile(token.NewFileSet(), "config.go", nil, parser.ParseComments)
	require.NoError(t, err)

	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			if !ts.Name.IsExported() {
				continue
			}
			doc := ts.Doc
			if doc == nil {
				doc = gen.Doc
			}
			assert.NotNil(t, doc, "type %s has no doc comment", ts.Name.Name)
		}
	}
}
