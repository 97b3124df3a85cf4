package repositories

import (
	"context"
	"time"

	domain "github.com/roastline/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Orders() OrderRepository
	OrderHistory() OrderHistoryRepository
	Profiles() ProfileRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups repository operations in a transactional boundary.
// Repository calls made with the context passed to fn join the same
// database transaction; the whole group commits or rolls back together.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductListFilter narrows product listings.
type ProductListFilter struct {
	Status       domain.ProductStatus
	Category     string
	Search       string
	LowStockOnly bool
	Pagination   domain.Pagination
}

// ProductRepository persists catalog entries and their per-size stock ledger.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.Page[domain.Product], error)
	// AdjustStock applies a signed delta to one size quantity. A negative
	// delta that would drive the quantity below zero fails with an
	// InventoryError carrying InventoryErrorInsufficientStock and leaves
	// the row untouched.
	AdjustStock(ctx context.Context, productID string, size domain.ProductSize, delta int) error
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	CustomerID       string
	Status           []domain.OrderStatus
	CreatedRange     domain.RangeQuery[time.Time]
	IncludeDismissed bool
	Pagination       domain.Pagination
}

// OrderRepository persists order aggregates (order row plus line items).
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
	ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Order, error)
	SetDismissed(ctx context.Context, orderID string, dismissedAt time.Time) error
	// DeleteAggregate removes the order row and its line items. History
	// rows are the OrderHistoryRepository's concern.
	DeleteAggregate(ctx context.Context, orderID string) error
}

// OrderHistoryRepository persists the append-only status audit trail.
type OrderHistoryRepository interface {
	Append(ctx context.Context, entry domain.OrderHistoryEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}

// ProfileRepository persists customer profiles and their loyalty balances.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (domain.Profile, error)
	UpdateLoyalty(ctx context.Context, profile domain.Profile) error
}

// HealthRepository reports on persistence connectivity for readiness probes.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
