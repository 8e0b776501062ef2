package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vishalpmittal/dratavlibrary/internal/config"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func GormConfig() *gorm.Config {
	return &gorm.Config{
		// surfaces unique violations as gorm.ErrDuplicatedKey on every dialect
		TranslateError: true,
		Logger:         gormlogger.Discard,
	}
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.Dialect {
	case config.DialectPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DialectSQLite:
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, errors.Errorf("unsupported db dialect %q", cfg.DB.Dialect)
	}
}

func open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(d, GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return database, nil
}

// ConnectWithRetry opens the database and pings it, retrying at a fixed delay
// until the configured attempt budget runs out.
func ConnectWithRetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	attempts := cfg.DB.ConnectRetries
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		var database *gorm.DB
		database, err = open(ctx, cfg)
		if err == nil {
			log.Info("db connected",
				zap.String("dialect", cfg.DB.Dialect),
				zap.Int("attempt", attempt))
			return database, nil
		}

		if attempt == attempts {
			break
		}

		log.Warn("db not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", cfg.DB.ConnectDelay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.DB.ConnectDelay):
		}
	}

	return nil, errors.Wrapf(err, "could not connect to db after %d attempts", attempts)
}

func Migrate(database *gorm.DB) error {
	return errors.Wrap(database.AutoMigrate(&model.Author{}, &model.Book{}), "auto migrate")
}
