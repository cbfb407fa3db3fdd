package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zenith/internal/config"
	"zenith/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan lists the schema steps ApplySchema performs.
type SchemaPlan struct {
	Mode        string
	Env         string
	Migrations  bool
	AutoMigrate bool
}

// PlanSchema resolves DB_SCHEMA_MODE against the environment. Blog data in
// production and staging is only ever shaped by the embedded SQL migrations.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: cfg.DBSchemaMode, Env: cfg.Env}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	protected := cfg.IsProduction() || cfg.Env == "staging" || cfg.Env == "stage"

	switch plan.Mode {
	case SchemaModeSQL:
		plan.Migrations = true
	case SchemaModeAuto:
		if protected {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.Migrations = true
		plan.AutoMigrate = !protected
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema brings the blog tables up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.Migrations {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.AutoMigrate {
		middleware.Logger.InfoContext(ctx, "Auto-migrating blog models",
			slog.String("mode", plan.Mode), slog.String("env", plan.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

type indexRef struct {
	Table string
	Name  string
}

func (r indexRef) String() string { return r.Table + "." + r.Name }

// Indexes each migration is expected to leave behind. AutoMigrate does not
// create the expression indexes, so only applied migrations are checked.
var migrationIndexes = map[int][]indexRef{
	2: {
		{"users", "idx_users_username_lower"},
		{"users", "idx_users_email_lower"},
		{"categories", "idx_categories_name_lower"},
		{"tags", "idx_tags_name_lower"},
		{"posts", "idx_posts_status_created_at"},
		{"comments", "idx_comments_status_created_at"},
	},
}

// MigrationState is one embedded migration and when, if ever, it was applied.
type MigrationState struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// SchemaReport is a read-only view of the blog schema.
type SchemaReport struct {
	Plan           SchemaPlan
	Migrations     []MigrationState
	MissingTables  []string
	MissingIndexes []string
	Replica        bool
	ReplicaErr     error
}

// Pending returns the migrations not yet recorded in migration_logs.
func (r *SchemaReport) Pending() []Migration {
	var out []Migration
	for _, m := range r.Migrations {
		if !m.Applied {
			out = append(out, m.Migration)
		}
	}
	return out
}

// Healthy reports whether the schema is complete and the replica, if any, answers.
func (r *SchemaReport) Healthy() bool {
	return len(r.MissingTables) == 0 && len(r.MissingIndexes) == 0 &&
		r.ReplicaErr == nil && (!r.Plan.Migrations || len(r.Pending()) == 0)
}

// InspectSchema reports migration progress, missing blog tables, missing
// migration indexes and read-replica reachability without changing anything.
func InspectSchema(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaReport, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	report := &SchemaReport{Plan: plan}

	var logs []MigrationLog
	if err := db.WithContext(ctx).Order("version ASC").Find(&logs).Error; err != nil && !isMissingTableError(err) {
		return nil, fmt.Errorf("failed to read migration logs: %w", err)
	}
	appliedAt := make(map[int]time.Time, len(logs))
	for _, l := range logs {
		appliedAt[l.Version] = l.AppliedAt
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, m := range GetMigrations() {
		at, ok := appliedAt[m.Version]
		report.Migrations = append(report.Migrations, MigrationState{Migration: m, Applied: ok, AppliedAt: at})
		if !ok {
			continue
		}
		for _, idx := range migrationIndexes[m.Version] {
			if !migrator.HasIndex(idx.Table, idx.Name) {
				report.MissingIndexes = append(report.MissingIndexes, idx.String())
			}
		}
	}

	for _, model := range PersistentModels() {
		if migrator.HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		report.MissingTables = append(report.MissingTables, stmt.Schema.Table)
	}

	if ReadDB != nil {
		report.Replica = true
		if err := Ping(ctx, ReadDB); err != nil {
			report.ReplicaErr = errors.Join(errors.New("read replica unreachable"), err)
		}
	}
	return report, nil
}
