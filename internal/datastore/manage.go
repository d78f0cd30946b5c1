// manage.go: database lifecycle helpers shared by the SQLite and MySQL stores
package datastore

import (
	"log"
	"os"
	"time"

	"github.com/camsentry/camsentry/internal/errors"
	"github.com/camsentry/camsentry/internal/logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. One second accommodates migration batch queries.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             DefaultSlowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// performAutoMigration migrates the schema for every model the engine uses.
func performAutoMigration(db *gorm.DB, debug bool, dbType string) error {
	if err := db.AutoMigrate(
		&Camera{},
		&Recording{},
		&StoragePool{},
		&CameraStorageAssignment{},
	); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %w", dbType, err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("db_type", dbType).
			Build()
	}

	if debug {
		logging.Debug("Database schema migrated", "db_type", dbType)
	}

	return nil
}
