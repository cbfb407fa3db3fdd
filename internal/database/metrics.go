package database

import (
	"time"

	"zenith/internal/observability"

	"gorm.io/gorm"
)

const startedAtKey = "metrics:started_at"

// RegisterMetricsCallbacks records query latency per operation and table.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			started, ok := v.(time.Time)
			if !ok {
				return
			}
			observability.ObserveQuery(op, tx.Statement.Table, time.Since(started))
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", a)
		}},
		{"query", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", a)
		}},
		{"update", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", a)
		}},
		{"delete", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", a)
		}},
		{"raw", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(name+":after", a)
		}},
	}

	for _, s := range steps {
		if err := s.register("metrics:"+s.op, before, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
