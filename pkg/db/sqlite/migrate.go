package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator applies the embedded schema to a database file. Each call opens
// its own connection because the migrate driver closes it on Close.
type Migrator struct {
	dbPath string
	log    *zap.Logger
}

func NewMigrator(dbPath string, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{dbPath: dbPath, log: log.Named("migrate")}
}

// Up runs all pending migrations.
func (m *Migrator) Up() error {
	db, err := OpenConnection(m.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	isWAL, err := CheckWALMode(db)
	if err != nil {
		return fmt.Errorf("failed to verify WAL mode: %w", err)
	}
	if !isWAL {
		return fmt.Errorf("WAL mode is not enabled")
	}

	mig, err := newMigrate(db)
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := WALCheckpoint(db); err != nil {
		m.log.Warn("failed to checkpoint WAL after migrations", zap.Error(err))
	}

	m.log.Debug("database migrations completed", zap.String("path", m.dbPath))
	return nil
}

// Force sets the migration version without running migrations.
func (m *Migrator) Force(version uint) error {
	mig, err := m.createMigrationInstance()
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := mig.Force(int(version)); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}

	m.log.Info("forced migration version", zap.Uint("version", version))
	return nil
}

// Version reports the applied version. A database with nothing applied
// reports version 0 and no error.
func (m *Migrator) Version() (uint, bool, error) {
	mig, err := m.createMigrationInstance()
	if err != nil {
		return 0, false, err
	}
	defer mig.Close()

	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current migration version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) createMigrationInstance() (*migrate.Migrate, error) {
	db, err := sql.Open("sqlite3", m.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	mig, err := newMigrate(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return mig, nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create driver instance: %w", err)
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return mig, nil
}
