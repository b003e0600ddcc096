package config

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pgrepo "github.com/yoockh/nnsurvey/internal/repositories/postgres"
)

// InitDatabase opens the shared pool, checks connectivity and migrates the
// schema. The caller owns the returned handle and closes it with CloseDatabase.
func InitDatabase(ctx context.Context, dc DatabaseConfig, l *logrus.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(dc)
	if err != nil {
		return nil, err
	}

	gcfg := &gorm.Config{Logger: gormlogger.Discard}
	if l != nil && l.IsLevelEnabled(logrus.DebugLevel) {
		gcfg.Logger = gormlogger.New(l, gormlogger.Config{LogLevel: gormlogger.Info})
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(dc.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dc.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(dc.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(dc.ConnMaxLifetime)

	pingCtx := ctx
	if dc.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, dc.ConnectTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := pgrepo.Migrate(db.WithContext(ctx)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(dc DatabaseConfig) (gorm.Dialector, error) {
	if dc.DSN == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	switch dc.Driver {
	case "postgres", "":
		return postgres.Open(dc.DSN), nil
	case "mysql":
		return mysql.Open(dc.DSN), nil
	case "sqlite":
		return sqlite.Open(dc.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dc.Driver)
	}
}
