package sqlite

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

var ErrDirty = errors.New("database is in a dirty state, force a version before rolling back")

// Rollback steps back the given number of migrations.
func (m *Migrator) Rollback(steps int) error {
	mig, err := m.createMigrationInstance()
	if err != nil {
		return err
	}
	defer mig.Close()

	currentVersion, dirty, err := mig.Version()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return ErrDirty
	}

	targetVersion := int(currentVersion) - steps
	if targetVersion < 0 {
		return fmt.Errorf("cannot roll back %d steps from version %d", steps, currentVersion)
	}

	if targetVersion == 0 {
		err = mig.Down()
	} else {
		err = mig.Migrate(uint(targetVersion))
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	m.log.Info("rolled back migrations", zap.Int("version", targetVersion))
	return nil
}

// RollbackTo migrates down to version.
func (m *Migrator) RollbackTo(version uint) error {
	mig, err := m.createMigrationInstance()
	if err != nil {
		return err
	}
	defer mig.Close()

	currentVersion, dirty, err := mig.Version()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return ErrDirty
	}
	if version > currentVersion {
		return fmt.Errorf("cannot roll back to a version greater than the current version (%d)", currentVersion)
	}

	if err := mig.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back to version %d: %w", version, err)
	}

	m.log.Info("rolled back migrations", zap.Uint("version", version))
	return nil
}

// RollbackAll drops the whole schema.
func (m *Migrator) RollbackAll() error {
	mig, err := m.createMigrationInstance()
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := mig.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back all migrations: %w", err)
	}

	m.log.Info("rolled back all migrations")
	return nil
}
