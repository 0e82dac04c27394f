package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// WAL configuration constants
const (
	// WAL checkpoint interval (number of pages)
	WAL_AUTOCHECKPOINT = 1000
	// Synchronous mode for WAL
	SYNCHRONOUS_NORMAL = "NORMAL"
	// Busy timeout in milliseconds
	BUSY_TIMEOUT = 5000
)

// OpenConnection opens the local store with WAL mode enabled.
func OpenConnection(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=%d",
		dbPath, BUSY_TIMEOUT)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single client process: a handful of connections is plenty
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := configureWALMode(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure WAL mode: %w", err)
	}

	return db, nil
}

func configureWALMode(db *sql.DB) error {
	execPragmas := []struct {
		name  string
		value string
	}{
		{"synchronous", SYNCHRONOUS_NORMAL},
		{"foreign_keys", "ON"},
		{"temp_store", "memory"},
		{"wal_autocheckpoint", fmt.Sprintf("%d", WAL_AUTOCHECKPOINT)},
	}

	for _, pragma := range execPragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
	}

	// journal_mode returns the resulting mode
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode = WAL").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to set PRAGMA journal_mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("failed to enable WAL mode, got: %s", journalMode)
	}
	return nil
}

// CheckWALMode verifies that WAL mode is enabled
func CheckWALMode(db *sql.DB) (bool, error) {
	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		return false, fmt.Errorf("failed to check journal mode: %w", err)
	}

	return journalMode == "wal", nil
}

// WALCheckpoint folds the WAL back into the main file and truncates it.
func WALCheckpoint(db *sql.DB) error {
	_, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}

type WALInfo struct {
	Busy         int64
	LogFrames    int64
	Checkpointed int64
	JournalMode  string
	Synchronous  string
}

// GetWALInfo runs a passive checkpoint and reports the WAL state.
func GetWALInfo(db *sql.DB) (WALInfo, error) {
	var info WALInfo

	err := db.QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&info.Busy, &info.LogFrames, &info.Checkpointed)
	if err != nil {
		return info, fmt.Errorf("failed to get WAL info: %w", err)
	}

	if err := db.QueryRow("PRAGMA journal_mode").Scan(&info.JournalMode); err != nil {
		return info, fmt.Errorf("failed to get journal mode: %w", err)
	}

	if err := db.QueryRow("PRAGMA synchronous").Scan(&info.Synchronous); err != nil {
		return info, fmt.Errorf("failed to get synchronous mode: %w", err)
	}

	return info, nil
}
