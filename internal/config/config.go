package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
		Mode string
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Session struct {
		Name        string
		Secret      string
		MaxAge      int
		Secure      bool
		HTTPOnly    bool
		Rolling     bool
		Cleanup     string
		CreateTable bool
	}
	Auth struct {
		BcryptCost int
	}
	Log struct {
		Level  string
		Format string
	}
	CORS struct {
		AllowedOrigins []string
	}
}

// Load reads configuration from environment variables and an optional config
// file. When path is empty a file named config.* in the working directory is
// used if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // optional .env, never overrides the environment

	v := viper.New()
	v.SetEnvPrefix("GATEKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/gatekeeper.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("session.name", "gatekeeper.sid")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.maxage", 60)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.httponly", true)
	v.SetDefault("session.rolling", false)
	v.SetDefault("session.cleanup", "@every 5m")
	v.SetDefault("session.createtable", true)
	v.SetDefault("auth.bcryptcost", 14)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.allowedorigins", []string{})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the HTTP server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Session.Secret) == "" {
		errs = append(errs, errors.New("session secret is required"))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("session max age must be positive, got %d", c.Session.MaxAge))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unsupported server mode %q", c.Server.Mode))
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database path is required for sqlite"))
		}
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}
