package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"gatekeeper/internal/config"
	"gatekeeper/internal/repository/sqlstore"
)

type envKey struct{}

// env carries what PersistentPreRunE prepared for sub-commands.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
}

func loadEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey{}).(*env)
	if !ok {
		return nil, errors.New("command environment not initialized")
	}
	return e, nil
}

func newLogger(cfg config.Config, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Log.Format)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	return logger, nil
}

func openDB(ctx context.Context, e *env) (*sql.DB, sqlstore.Dialect, error) {
	dialect, err := sqlstore.ParseDialect(e.cfg.Database.Driver)
	if err != nil {
		return nil, "", err
	}
	source := e.cfg.Database.Path
	if dialect == sqlstore.Postgres {
		source = e.cfg.Database.DSN
	}
	db, err := sqlstore.Open(ctx, dialect, source, e.logger)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	return db, dialect, nil
}

func prompt(in io.Reader, out io.Writer, msg string, mask bool) (string, error) {
	f, isFile := in.(*os.File)
	interactive := isFile && term.IsTerminal(int(f.Fd()))
	if interactive {
		if _, err := io.WriteString(out, msg); err != nil {
			return "", err
		}
	}
	if mask && interactive {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = io.WriteString(out, "\n")
		return string(b), err
	}
	return readLine(in)
}

func readLine(r io.Reader) (string, error) {
	var (
		buf [1]byte
		ret []byte
	)
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			switch buf[0] {
			case '\n':
				return strings.TrimSuffix(string(ret), "\r"), nil
			default:
				ret = append(ret, buf[0])
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(ret) > 0 {
				return strings.TrimSuffix(string(ret), "\r"), nil
			}
			return "", err
		}
	}
}
