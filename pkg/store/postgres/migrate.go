package postgres

import (
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/matzehuels/locallore/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrationLogger adapts a charm logger to migrate.Logger.
type migrationLogger struct {
	logger *log.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

func (l migrationLogger) Verbose() bool { return false }

// Migrate applies every pending schema migration embedded in the binary.
func Migrate(db *sql.DB, logger *log.Logger) error {
	m, err := newMigrator(db, logger)
	if err != nil {
		return err
	}

	err = m.Up()
	if err == nil {
		version, _, _ := m.Version()
		logger.Info("applied migrations", "version", version)
		return nil
	}
	if stderrors.Is(err, migrate.ErrNoChange) {
		logger.Info("no new migrations to apply")
		return nil
	}

	version, dirty, verr := m.Version()
	if verr != nil && !stderrors.Is(verr, migrate.ErrNilVersion) {
		logger.Error("read migration version", "error", verr)
	}
	logger.Error("migration failed", "version", version, "dirty", dirty, "error", err)
	return errors.Wrap(errors.ErrCodeStore, err, "apply migrations")
}

// SchemaVersion reports the applied migration version and whether the last
// migration left the schema dirty.
func SchemaVersion(db *sql.DB, logger *log.Logger) (uint, bool, error) {
	m, err := newMigrator(db, logger)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrator(db *sql.DB, logger *log.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "init migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "init migrator")
	}
	m.Log = migrationLogger{logger: logger}
	return m, nil
}
