package db

import (
	"fmt"

	"spark-client/pkg/db/sqlite"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Open runs pending migrations on the local store at dbPath and returns a
// WAL-mode handle to it.
func Open(dbPath string, log *zap.Logger) (*sqlx.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := sqlite.NewMigrator(dbPath, log).Up(); err != nil {
		return nil, err
	}

	conn, err := sqlite.OpenConnection(dbPath)
	if err != nil {
		return nil, err
	}

	isWAL, err := sqlite.CheckWALMode(conn)
	if err != nil {
		log.Warn("failed to check WAL mode", zap.Error(err))
	} else {
		log.Debug("local store opened", zap.String("path", dbPath), zap.Bool("wal", isWAL))
	}

	return sqlx.NewDb(conn, "sqlite3"), nil
}

// Close checkpoints the WAL and closes the handle.
func Close(conn *sqlx.DB, log *zap.Logger) error {
	if conn == nil {
		return nil
	}
	if err := sqlite.WALCheckpoint(conn.DB); err != nil && log != nil {
		log.Warn("failed to checkpoint WAL before closing", zap.Error(err))
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close local store: %w", err)
	}
	return nil
}
