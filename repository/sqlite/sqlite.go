// Package sqlite opens the file-backed history store
package sqlite

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// busyTimeoutMs is how long a writer waits on a locked database file
const busyTimeoutMs = 5000

// New opens the SQLite database at path, creating the file when missing.
// Tests can pass a shared in-memory name such as "file:history?mode=memory&cache=shared".
func New(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}

	// SQLite has a single writer; one connection keeps observer writes and
	// history reads from failing with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// dsn appends the connection pragmas to path
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%s_busy_timeout=%d", path, sep, busyTimeoutMs)
}
