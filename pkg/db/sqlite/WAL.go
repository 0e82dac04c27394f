package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BackupDatabase writes a consistent copy of db to backupPath.
func BackupDatabase(db *sql.DB, backupPath string) error {
	backupDir := filepath.Dir(backupPath)
	if err := os.MkdirAll(backupDir, 0700); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := os.Stat(backupPath); err == nil {
		return fmt.Errorf("backup target already exists: %s", backupPath)
	}

	// fold the WAL in so the copy is complete
	if err := WALCheckpoint(db); err != nil {
		return fmt.Errorf("failed to checkpoint WAL before backup: %w", err)
	}

	query := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(backupPath, "'", "''"))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	return nil
}
