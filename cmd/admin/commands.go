package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"zenith/internal/cache"
	"zenith/internal/config"
	"zenith/internal/database"
	"zenith/internal/models"
	"zenith/internal/repository"
	"zenith/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	retentionDays int
	listPage      int
	listSize      int
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Operator utilities for the Zenith blog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var roleCmd = &cobra.Command{
	Use:   "role <username> <USER|MODERATOR|ADMIN>",
	Short: "Set a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := models.ParseRole(args[1])
		if !ok {
			return fmt.Errorf("invalid role %q", args[1])
		}
		db, err := connect()
		if err != nil {
			return err
		}
		defer database.Close()

		return setRole(cmd.Context(), repository.NewUserRepository(db), args[0], role, cmd.OutOrStdout())
	},
}

func setRole(ctx context.Context, users repository.UserRepository, username string, role models.Role, out io.Writer) error {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q not found", username)
	}
	if user.Role == role {
		fmt.Fprintf(out, "%s is already %s\n", user.Username, role)
		return nil
	}
	if err := users.UpdateRole(ctx, user.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s -> %s\n", user.Username, user.Role, role)
	return nil
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer database.Close()

		page, err := service.ResolvePage(service.PageInput{Page: listPage, Size: listSize}, service.UserSortFields)
		if err != nil {
			return err
		}
		users, total, err := repository.NewUserRepository(db).List(cmd.Context(), page)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format(time.DateOnly))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(users), total)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete archived posts and comments past the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		retention := cfg.CleanupRetention()
		if retentionDays > 0 {
			retention = time.Duration(retentionDays) * 24 * time.Hour
		}

		cleanup := service.NewCleanupService(
			repository.NewTransactor(db),
			repository.NewPostRepository(db),
			repository.NewCommentRepository(db),
			cache.NewStore(nil),
			retention,
		)
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		result, err := cleanup.Run(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return database.Connect(cfg)
}

func init() {
	usersCmd.Flags().IntVar(&listPage, "page", 0, "Zero-based page")
	usersCmd.Flags().IntVar(&listSize, "size", 50, "Page size")
	cleanupCmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Override CLEANUP_RETENTION_DAYS")

	rootCmd.AddCommand(roleCmd, usersCmd, cleanupCmd)
	rootCmd.SetOut(os.Stdout)
}
