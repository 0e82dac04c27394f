package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"spark-client/pkg/db/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local session store",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE: withMigrator(func(cmd *cobra.Command, m *sqlite.Migrator, _ string, _ []string) error {
		if err := m.Up(); err != nil {
			return err
		}
		return printVersion(cmd, m)
	}),
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back migrations",
	Long: `Roll back the last --steps migrations, down to --to, or everything
with --all. Rolling back everything forgets the stored session.`,
	RunE: withMigrator(func(cmd *cobra.Command, m *sqlite.Migrator, _ string, _ []string) error {
		flags := cmd.Flags()
		var err error
		switch all, _ := flags.GetBool("all"); {
		case all:
			err = m.RollbackAll()
		case flags.Changed("to"):
			to, _ := flags.GetUint("to")
			err = m.RollbackTo(to)
		default:
			steps, _ := flags.GetInt("steps")
			err = m.Rollback(steps)
		}
		if err != nil {
			return err
		}
		return printVersion(cmd, m)
	}),
}

var dbForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Mark a migration version as applied and clear the dirty flag",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(cmd *cobra.Command, m *sqlite.Migrator, _ string, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := m.Force(uint(v)); err != nil {
			return err
		}
		return printVersion(cmd, m)
	}),
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration version and WAL state",
	RunE: withMigrator(func(cmd *cobra.Command, m *sqlite.Migrator, dbPath string, _ []string) error {
		if err := printVersion(cmd, m); err != nil {
			return err
		}

		conn, err := sqlite.OpenConnection(dbPath)
		if err != nil {
			return err
		}
		defer conn.Close()

		info, err := sqlite.GetWALInfo(conn)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "path:         %s\n", dbPath)
		fmt.Fprintf(out, "journal mode: %s\n", info.JournalMode)
		fmt.Fprintf(out, "synchronous:  %s\n", info.Synchronous)
		fmt.Fprintf(out, "wal frames:   %d (%d checkpointed, busy=%d)\n", info.LogFrames, info.Checkpointed, info.Busy)
		return nil
	}),
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "Write a consistent copy of the store",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(cmd *cobra.Command, _ *sqlite.Migrator, dbPath string, args []string) error {
		conn, err := sqlite.OpenConnection(dbPath)
		if err != nil {
			return err
		}
		defer conn.Close()

		isWAL, err := sqlite.CheckWALMode(conn)
		if err != nil {
			return err
		}
		if !isWAL {
			return fmt.Errorf("store at %s is not in WAL mode", dbPath)
		}
		if err := sqlite.BackupDatabase(conn, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s\n", dbPath, args[0])
		return nil
	}),
}

// withMigrator runs fn against the configured store without opening the
// session on top of it.
func withMigrator(fn func(cmd *cobra.Command, m *sqlite.Migrator, dbPath string, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		log.Debug("using local store", zap.String("path", cfg.DBPath))
		return fn(cmd, sqlite.NewMigrator(cfg.DBPath, log), cfg.DBPath, args)
	}
}

func printVersion(cmd *cobra.Command, m *sqlite.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d (%s)\n", v, state)
	return nil
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd, dbRollbackCmd, dbForceCmd, dbStatusCmd, dbBackupCmd)

	dbRollbackCmd.Flags().Int("steps", 1, "number of migrations to roll back")
	dbRollbackCmd.Flags().Uint("to", 0, "roll back to this version")
	dbRollbackCmd.Flags().Bool("all", false, "roll back every migration")
}
