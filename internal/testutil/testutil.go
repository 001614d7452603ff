// Package testutil provides an isolated, migrated database for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mx-space/pagebuilder/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Epoch is the first timestamp handed out by DB's clock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DB opens a fresh SQLite database under t.TempDir with foreign keys on and
// every model migrated. Its clock advances one second per statement so
// created_at ordering is deterministic.
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000"

	var mu sync.Mutex
	tick := 0
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return Epoch.Add(time.Duration(tick) * time.Second)
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Seed inserts rows and fails the test on error.
func Seed(t testing.TB, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

// FailInserts makes every INSERT into table fail until the returned switch is
// turned off.
func FailInserts(t testing.TB, db *gorm.DB, table string) *atomic.Bool {
	t.Helper()

	on := &atomic.Bool{}
	on.Store(true)
	name := "testutil:fail_inserts:" + table
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if on.Load() && tx.Statement.Table == table {
			_ = tx.AddError(fmt.Errorf("injected insert failure on %s", table))
		}
	})
	require.NoError(t, err)
	return on
}

// FailQueries makes every SELECT against table fail until the returned switch
// is turned off.
func FailQueries(t testing.TB, db *gorm.DB, table string) *atomic.Bool {
	t.Helper()

	on := &atomic.Bool{}
	on.Store(true)
	name := "testutil:fail_queries:" + table
	err := db.Callback().Query().Before("gorm:query").Register(name, func(tx *gorm.DB) {
		if on.Load() && tx.Statement.Table == table {
			_ = tx.AddError(fmt.Errorf("injected query failure on %s", table))
		}
	})
	require.NoError(t, err)
	return on
}

// FailUpdates makes every UPDATE of table whose WHERE clause binds id fail.
// An empty id fails every update of the table.
func FailUpdates(t testing.TB, db *gorm.DB, table, id string) *atomic.Bool {
	t.Helper()

	on := &atomic.Bool{}
	on.Store(true)
	name := "testutil:fail_updates:" + table + ":" + id
	err := db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if !on.Load() || tx.Statement.Table != table {
			return
		}
		if id == "" || bindsValue(tx, id) {
			_ = tx.AddError(fmt.Errorf("injected update failure on %s", table))
		}
	})
	require.NoError(t, err)
	return on
}

func bindsValue(tx *gorm.DB, value string) bool {
	where, ok := tx.Statement.Clauses["WHERE"]
	if !ok {
		return false
	}
	w, ok := where.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range w.Exprs {
		if e, ok := expr.(clause.Expr); ok {
			for _, v := range e.Vars {
				if v == value {
					return true
				}
			}
		}
	}
	return false
}
