package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jobtrack-backend/pkg/config"
)

const sqlitePrefix = "sqlite://"

// DefaultDSN is used when DATABASE_URL is unset: a SQLite file in the
// working directory.
const DefaultDSN = sqlitePrefix + "jobtrack.db"

// NewConnection opens the database configured by cfg
func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = DefaultDSN
	}
	return Open(dsn, logger)
}

// Open connects to PostgreSQL for postgres:// URLs and key=value DSNs, and
// to SQLite for sqlite:// URLs.
func Open(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, sqlitePrefix):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("database: unsupported DSN %q", redact(dsn))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(zapWriter{logger.Named("gorm").Sugar()}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("database connected", zap.String("dialect", dialector.Name()))
	return db, nil
}

// Migrate creates or updates the tables of the given models
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

type zapWriter struct {
	sugar *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.sugar.Warnf(format, args...)
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		return "***" + dsn[i:]
	}
	return dsn
}
