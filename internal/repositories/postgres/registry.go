package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/roastline/api/internal/platform/observability"
	"github.com/roastline/api/internal/repositories"
)

type txContextKey struct{}

// Options configures the Postgres registry.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Logger          *zap.Logger
}

// Registry implements repositories.Registry over a shared *gorm.DB handle.
type Registry struct {
	db       *gorm.DB
	products *ProductRepository
	orders   *OrderRepository
	history  *OrderHistoryRepository
	profiles *ProfileRepository
	health   *HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// Open connects to Postgres and assembles the repository registry.
func Open(opts Options) (*Registry, error) {
	if opts.DSN == "" {
		return nil, errors.New("postgres registry: dsn is required")
	}

	gormLog := logger.Discard
	if opts.Logger != nil {
		// Slow queries and errors surface through zap; routine statements
		// stay out of the logs.
		gormLog = logger.New(observability.NewPrintfAdapter(opts.Logger.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(gormpostgres.Open(opts.DSN), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres registry: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres registry: access pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if opts.Logger != nil {
		opts.Logger.Info("postgres pool configured",
			zap.Int("max_open_conns", opts.MaxOpenConns),
			zap.Int("max_idle_conns", opts.MaxIdleConns),
		)
	}

	return NewRegistry(db), nil
}

// NewRegistry wraps an existing gorm handle; used by Open and by tests
// that supply their own connection.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:       db,
		products: &ProductRepository{db: db},
		orders:   &OrderRepository{db: db},
		history:  &OrderHistoryRepository{db: db},
		profiles: &ProfileRepository{db: db},
		health:   &HealthRepository{db: db},
	}
}

// Close releases the underlying connection pool.
func (r *Registry) Close(context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Products returns the product repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// OrderHistory returns the order history repository.
func (r *Registry) OrderHistory() repositories.OrderHistoryRepository { return r.history }

// Profiles returns the profile repository.
func (r *Registry) Profiles() repositories.ProfileRepository { return r.profiles }

// Health returns the health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a single database transaction. Repository
// calls made with the context passed to fn join that transaction; nested
// calls reuse the ambient transaction instead of opening a second one.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
	if err == nil {
		return nil
	}
	// Errors raised by fn (service sentinels, already-wrapped repository
	// errors) pass through untouched; only raw driver failures from the
	// begin/commit path get classified here.
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	if isDriverError(err) {
		return wrapError("tx.run", err)
	}
	return err
}

// session resolves the handle for the current call: the ambient
// transaction when inside RunInTx, the shared pool otherwise.
func session(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
