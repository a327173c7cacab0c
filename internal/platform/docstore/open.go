package docstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Driver   string
	MongoURI string
	MongoDB  string
	// DSN is the postgres connection string or the sqlite file path.
	DSN string
}

// Open builds the Store selected by cfg.Driver. An empty driver means mongo.
func Open(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverMongo
	}
	log.Info("Opening document store", "driver", driver)

	switch driver {
	case DriverMongo:
		return NewMongoStore(ctx, log, cfg.MongoURI, cfg.MongoDB)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("missing DB_DSN for postgres document store")
		}
		db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			log.Error("Failed to connect to Postgres", "error", err)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return NewSQLStore(db, log)
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return NewSQLStore(db, log)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown document store driver %q", cfg.Driver)
	}
}
