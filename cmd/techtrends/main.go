// main.go sets up the techtrends command line: serving the blog, creating
// the database, and taking backups.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thisdougb/techtrends"
	"github.com/thisdougb/techtrends/internal/config"
	"github.com/thisdougb/techtrends/internal/storage"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree, so tests get their own flags.
func newRootCmd() *cobra.Command {
	var envFile string
	var logFile io.Closer

	cmd := &cobra.Command{
		Use:   "techtrends",
		Short: "TechTrends serves a small cloud native news blog.",
		Long: `TechTrends serves a small news blog backed by a single SQLite file.

Running without a subcommand starts the web server. The server never creates
the database; run 'techtrends init-db --seed' first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}

			closer, err := config.ConfigureLogging()
			if err != nil {
				return err
			}
			logFile = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
		RunE: runServe,
	}

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file of KEY=value settings loaded before the environment is read")
	cmd.PersistentFlags().String("db-path", "database.db", "SQLite database file")
	cmd.PersistentFlags().String("db-driver", storage.DriverCGO, "database/sql driver: sqlite3 (cgo) or sqlite (pure Go)")
	cmd.PersistentFlags().String("log-level", "DEBUG", "DEBUG, INFO, WARNING, ERROR or CRITICAL")
	cmd.Flags().String("addr", "0.0.0.0:3111", "listen address")

	bindFlag("TECHTRENDS_DB_PATH", cmd.PersistentFlags().Lookup("db-path"))
	bindFlag("TECHTRENDS_DB_DRIVER", cmd.PersistentFlags().Lookup("db-driver"))
	bindFlag("LOGLEVEL", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitDBCmd())
	cmd.AddCommand(newBackupCmd())

	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "0.0.0.0:3111", "listen address")

	return cmd
}

// runServe backs both the root command and serve, each with its own --addr.
func runServe(cmd *cobra.Command, args []string) error {
	bindFlag("TECHTRENDS_ADDR", cmd.Flags().Lookup("addr"))

	opts, err := techtrends.LoadOptions()
	if err != nil {
		return err
	}

	app, err := techtrends.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.ListenAndServe(ctx)
}

func newInitDBCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the database file and posts table",
		Long: `Creates the SQLite file and the posts table when they do not exist.
With --seed, an empty table is filled with sample articles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storage.LoadConfig()
			if err != nil {
				return err
			}

			inserted, err := storage.InitDatabase(cmd.Context(), cfg, seed)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("database %s ready, %d posts inserted", cfg.DBPath, inserted)
			config.LogInfo(cmd.Context(), msg)
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "insert sample posts into an empty table")

	return cmd
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the database into the backup directory",
		Long: `Writes today's copy of the database to the backup directory as
blog_YYYYMMDD.db (or .db.zst when compressed) and removes copies older than
the retention window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storage.LoadConfig()
			if err != nil {
				return err
			}

			path, err := storage.BackupDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			config.LogInfo(cmd.Context(), fmt.Sprintf("backup written to %s", path))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.PersistentFlags().String("backup-dir", "./backups", "backup directory")
	cmd.Flags().Int("retention-days", 30, "days to keep backups, 0 keeps everything")
	cmd.Flags().Bool("compress", true, "zstd-compress the backup")

	bindFlag("TECHTRENDS_BACKUP_DIR", cmd.PersistentFlags().Lookup("backup-dir"))
	bindFlag("TECHTRENDS_BACKUP_RETENTION_DAYS", cmd.Flags().Lookup("retention-days"))
	bindFlag("TECHTRENDS_BACKUP_COMPRESS", cmd.Flags().Lookup("compress"))

	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storage.LoadConfig()
			if err != nil {
				return err
			}

			backups, err := storage.ListBackups(&cfg.Backup)
			if err != nil {
				return err
			}

			for _, name := range backups {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the database with a backup",
		Long: `Replaces the database file with a backup. The argument is a name
from 'techtrends backup list' or a path to a backup file. Stop the server
first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storage.LoadConfig()
			if err != nil {
				return err
			}

			src, err := storage.RestoreBackup(cfg, args[0])
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("database %s restored from %s", cfg.DBPath, src)
			config.LogInfo(cmd.Context(), msg)
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func bindFlag(key string, flag *pflag.Flag) {
	cobra.CheckErr(config.BindFlag(key, flag))
}
