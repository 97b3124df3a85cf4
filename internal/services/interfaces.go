package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	ProductID string
	Size      domain.ProductSize
	Quantity  int
}

// CreateOrderCommand carries everything needed to place an order.
type CreateOrderCommand struct {
	CustomerID         string
	Items              []CreateOrderItemInput
	Delivery           domain.DeliveryInfo
	PaymentMethod      string
	LoyaltyPointsToUse int
	ActorID            string
}

// TransitionOrderCommand moves an order along the status graph.
type TransitionOrderCommand struct {
	OrderID      string
	TargetStatus domain.OrderStatus
	ActorID      string
	Notes        string
}

// CancelOrderCommand cancels an order with forced ledger restoration.
type CancelOrderCommand struct {
	OrderID string
	ActorID string
	Reason  string
}

// DeleteOrderCommand requests a hard purge of an order aggregate.
type DeleteOrderCommand struct {
	OrderID string
	ActorID string
}

// DeleteOrderResult reports the outcome of a purge.
type DeleteOrderResult struct {
	Purged bool
}

// DismissOrderCommand hides an order from the admin working view without
// deleting any persisted row.
type DismissOrderCommand struct {
	OrderID string
	ActorID string
}

// OrderListFilter narrows order listings at the service boundary.
type OrderListFilter struct {
	CustomerID       string
	Status           []domain.OrderStatus
	CreatedRange     domain.RangeQuery[time.Time]
	IncludeDismissed bool
	Pagination       domain.Pagination
}

// OrderService orchestrates the order lifecycle workflow: creation,
// status transitions, cancellation, purge and dismissal, keeping the
// stock and loyalty ledgers consistent under one transaction per call.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
	History(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error)
	Transition(ctx context.Context, cmd TransitionOrderCommand) (domain.Order, error)
	Cancel(ctx context.Context, cmd CancelOrderCommand) (domain.Order, error)
	Delete(ctx context.Context, cmd DeleteOrderCommand) (DeleteOrderResult, error)
	Dismiss(ctx context.Context, cmd DismissOrderCommand) error
}

// InventoryService applies controlled deltas to the per-size stock ledger.
type InventoryService interface {
	// Deduct decrements stock for every line item or fails without any
	// partial deduction when run inside a transaction.
	Deduct(ctx context.Context, items []domain.OrderItem) error
	// Restore puts the line items' stock back on the shelf.
	Restore(ctx context.Context, items []domain.OrderItem) error
}

// LoyaltyService applies controlled deltas to the loyalty point ledger.
type LoyaltyService interface {
	// Redeem moves points from the available balance to the used counter.
	Redeem(ctx context.Context, userID string, points int) error
	// Refund returns previously redeemed points to the available balance.
	Refund(ctx context.Context, userID string, points int) error
	// ReverseOrder undoes both sides of a purged order's loyalty impact.
	ReverseOrder(ctx context.Context, order domain.Order) error
}

// CreateProductCommand describes a new catalog entry.
type CreateProductCommand struct {
	Name              string
	Description       string
	Category          string
	Sizes             map[domain.ProductSize]domain.SizeVariant
	LowStockThreshold int
	ActorID           string
}

// UpdateProductCommand replaces the mutable fields of a product.
type UpdateProductCommand struct {
	ProductID         string
	Name              string
	Description       string
	Category          string
	Prices            map[domain.ProductSize]decimal.Decimal
	LowStockThreshold int
	ActorID           string
}

// RestockCommand adds stock to one size of a product.
type RestockCommand struct {
	ProductID string
	Size      domain.ProductSize
	Quantity  int
	ActorID   string
}

// ProductListFilter narrows catalog listings at the service boundary.
type ProductListFilter struct {
	Status       domain.ProductStatus
	Category     string
	Search       string
	LowStockOnly bool
	Pagination   domain.Pagination
}

// CatalogService manages products and their stock configuration.
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error)
	SetProductStatus(ctx context.Context, productID string, status domain.ProductStatus, actorID string) (domain.Product, error)
	Restock(ctx context.Context, cmd RestockCommand) (domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.Page[domain.Product], error)
}

// SweepError records one order the sweep could not confirm.
type SweepError struct {
	OrderID string
	Message string
}

// SweepReport summarises one stale-pending sweep run.
type SweepReport struct {
	RunID        string
	UpdatedCount int
	Errors       []SweepError
	SweptAt      time.Time
}

// SweepService auto-confirms Pending orders older than a threshold.
type SweepService interface {
	SweepStalePending(ctx context.Context, threshold time.Duration) (SweepReport, error)
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OrderNumber    string
	PreviousStatus domain.OrderStatus
	CurrentStatus  domain.OrderStatus
	ActorID        string
	OccurredAt     time.Time
	Metadata       map[string]any
}

// NoteSanitizer strips markup from operator-supplied free text before it
// is persisted. bluemonday policies satisfy this directly.
type NoteSanitizer interface {
	Sanitize(string) string
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func ensureUnitOfWork(unit repositories.UnitOfWork) repositories.UnitOfWork {
	if unit == nil {
		return noopUnitOfWork{}
	}
	return unit
}
