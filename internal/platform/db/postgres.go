package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Postgres wraps the tally database handle.
type Postgres struct {
	DB *gorm.DB
}

// Options tunes the connection pool. Zero values keep the defaults below.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	SlowQuery       time.Duration
}

func defaultOptions() Options {
	return Options{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
		SlowQuery:       500 * time.Millisecond,
	}
}

func Connect(dsn string, logger *slog.Logger) (*Postgres, error) {
	return ConnectWithOptions(context.Background(), dsn, Options{}, logger)
}

func ConnectWithOptions(ctx context.Context, dsn string, opts Options, logger *slog.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(slogWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             opts.SlowQuery,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres connected",
		"event", "postgres_connected",
		"module", "internal/platform/db",
		"layer", "platform",
		"max_open_conns", opts.MaxOpenConns,
		"max_idle_conns", opts.MaxIdleConns,
	)
	return &Postgres{DB: db}, nil
}

func (o Options) withDefaults() Options {
	defaults := defaultOptions()
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = defaults.MaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaults.MaxIdleConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = defaults.PingTimeout
	}
	if o.SlowQuery <= 0 {
		o.SlowQuery = defaults.SlowQuery
	}
	return o
}

func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slogWriter routes gorm's slow-query and error lines into the process logger.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(fmt.Sprintf(format, args...),
		"event", "postgres_query_warning",
		"module", "internal/platform/db",
		"layer", "platform",
	)
}
