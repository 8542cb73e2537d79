package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/gatekeeper.db", cfg.Database.Path)
	assert.Equal(t, "gatekeeper.sid", cfg.Session.Name)
	assert.Equal(t, 60, cfg.Session.MaxAge)
	assert.False(t, cfg.Session.Secure)
	assert.True(t, cfg.Session.HTTPOnly)
	assert.True(t, cfg.Session.CreateTable)
	assert.Equal(t, "@every 5m", cfg.Session.Cleanup)
	assert.Equal(t, 14, cfg.Auth.BcryptCost)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GATEKEEPER_SESSION_SECRET", "s3cret")
	t.Setenv("GATEKEEPER_SESSION_MAXAGE", "3600")
	t.Setenv("GATEKEEPER_DATABASE_DRIVER", "postgres")
	t.Setenv("GATEKEEPER_AUTH_BCRYPTCOST", "10")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, 3600, cfg.Session.MaxAge)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GATEKEEPER_SESSION_NAME=from-dotenv\n"), 0o600))
	t.Setenv("GATEKEEPER_SESSION_NAME", "")
	require.NoError(t, os.Unsetenv("GATEKEEPER_SESSION_NAME"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Session.Name)
}

func TestLoadFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "gatekeeper.yaml")
	yaml := "server:\n  addr: 127.0.0.1:9999\nsession:\n  secret: file-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "file-secret", cfg.Session.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Session.Secret = "secret"
		c.Session.MaxAge = 60
		c.Database.Driver = "sqlite"
		c.Database.Path = "data/test.db"
		c.Server.Mode = "release"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Session.Secret = " " }, wantErr: "session secret is required"},
		{name: "zero max age", mutate: func(c *Config) { c.Session.MaxAge = 0 }, wantErr: "max age must be positive"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "dsn is required"},
		{name: "unknown mode", mutate: func(c *Config) { c.Server.Mode = "prod" }, wantErr: "unsupported server mode"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unsupported database driver"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := valid()
			test.mutate(&c)
			err := c.Validate()
			if test.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, test.wantErr)
		})
	}
}
