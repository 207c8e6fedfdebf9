// Package migration applies the SQL schema under migrations/ with
// golang-migrate before the Postgres repositories are used.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// registers the "pgx5" database scheme
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// registers the "file" source scheme
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Up applies every pending up migration found in path against the database
// at dsn. An already current schema is not an error.
func Up(dsn, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := migrate.New("file://"+path, ToPgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Error("Failed to close migration source", "err", srcErr)
		}
		if dbErr != nil {
			logger.Error("Failed to close migration database", "err", dbErr)
		}
	}()
	m.Log = &migrateLogger{logger: logger}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema is dirty at version %d", from)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Schema is up to date", "version", from)
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	to, _, _ := m.Version()
	logger.Info("Applied migrations", "from", from, "to", to)
	return nil
}

// ToPgx5DSN rewrites a postgres:// or postgresql:// URL to the pgx5://
// scheme golang-migrate registers for the pgx v5 driver.
func ToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
