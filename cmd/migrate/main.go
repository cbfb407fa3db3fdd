// Command migrate applies, inspects and rolls back the blog schema.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"zenith/internal/config"
	"zenith/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg    *config.Config
	db     *gorm.DB
	strict bool
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the Zenith blog schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if db, err = database.Connect(cfg); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.RunMigrations(cmd.Context(), db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
		return nil
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Create or alter blog tables from the GORM models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "models migrated")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migrations, missing tables or indexes, and replica health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		report, err := database.InspectSchema(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		if err := writeReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if strict && !report.Healthy() {
			return fmt.Errorf("schema is not healthy")
		}
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down <version>",
	Short: "Roll back one applied migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %06d\n", version)
		return nil
	},
}

func writeReport(out io.Writer, r *database.SchemaReport) error {
	fmt.Fprintf(out, "mode %s (env %s): sql=%t auto=%t\n",
		r.Plan.Mode, r.Plan.Env, r.Plan.Migrations, r.Plan.AutoMigrate)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tAPPLIED")
	for _, m := range r.Migrations {
		applied := "pending"
		if m.Applied {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\n", m.String(), applied)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.MissingTables) > 0 {
		fmt.Fprintf(out, "missing tables: %s\n", strings.Join(r.MissingTables, ", "))
	}
	if len(r.MissingIndexes) > 0 {
		fmt.Fprintf(out, "missing indexes: %s\n", strings.Join(r.MissingIndexes, ", "))
	}
	switch {
	case !r.Replica:
		fmt.Fprintln(out, "replica: not configured")
	case r.ReplicaErr != nil:
		fmt.Fprintf(out, "replica: %v\n", r.ReplicaErr)
	default:
		fmt.Fprintln(out, "replica: ok")
	}
	return nil
}

func init() {
	statusCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the schema is incomplete")
	rootCmd.AddCommand(upCmd, autoCmd, statusCmd, downCmd)
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
