// Package sqlite implements every store on a single SQLite file through gorm,
// for deployments without PostgreSQL.
package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LuckyB33f/domainAgent/internal/observability"
)

// DB wraps gorm.DB for dependency injection.
type DB struct {
	*gorm.DB
}

// Open opens (creating if needed) the SQLite file at path and migrates the schema.
func Open(path string, log logrus.FieldLogger) (*DB, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	log.WithField("component", "sqlite").WithField("path", path).Info("migrating database")
	if err := db.AutoMigrate(&seenDomainRow{}, &purchaseAttemptRow{}, &runSummaryRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func observe(operation string, start time.Time, err error) {
	if isNotFound(err) {
		err = nil
	}
	observability.RecordDBQuery("sqlite", operation, time.Since(start).Seconds(), err)
}
