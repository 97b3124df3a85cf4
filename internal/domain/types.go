package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pagination defines standard paging inputs for list operations.
type Pagination struct {
	Limit  int
	Offset int
}

// Page wraps a result slice with the total row count for the filter.
type Page[T any] struct {
	Items []T
	Total int64
}

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// ProductSize enumerates the drink sizes stocked per product.
type ProductSize string

const (
	// SizeSmall is the small serving size.
	SizeSmall ProductSize = "small"
	// SizeMedium is the medium serving size.
	SizeMedium ProductSize = "medium"
	// SizeLarge is the large serving size.
	SizeLarge ProductSize = "large"
)

// ProductSizes lists every stocked size in display order.
var ProductSizes = []ProductSize{SizeSmall, SizeMedium, SizeLarge}

// ValidSize reports whether the given size is one of the stocked sizes.
func ValidSize(size ProductSize) bool {
	switch size {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// ProductStatus marks a product as visible to customers or retired.
type ProductStatus string

const (
	// ProductStatusActive exposes the product in customer-facing listings.
	ProductStatusActive ProductStatus = "active"
	// ProductStatusInactive hides the product from listings without touching historical order items.
	ProductStatusInactive ProductStatus = "inactive"
)

// SizeVariant captures the price and remaining stock of one size of a product.
type SizeVariant struct {
	Price    decimal.Decimal
	Quantity int
}

// Product is a catalog entry with size-partitioned pricing and stock.
type Product struct {
	ID                string
	Name              string
	Description       string
	Category          string
	Sizes             map[ProductSize]SizeVariant
	LowStockThreshold int
	Status            ProductStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TotalStock derives the product-wide stock count from the per-size quantities.
func (p Product) TotalStock() int {
	total := 0
	for _, variant := range p.Sizes {
		total += variant.Quantity
	}
	return total
}

// LowStock reports whether the derived total stock has fallen to the threshold.
func (p Product) LowStock() bool {
	return p.TotalStock() <= p.LowStockThreshold
}

// DeliveryInfo carries the contact and address fields captured at checkout.
type DeliveryInfo struct {
	RecipientName string
	Phone         string
	AddressLine   string
	City          string
	PostalCode    string
	Instructions  string
}

// Order is the aggregate root for a customer purchase.
type Order struct {
	ID                string
	CustomerID        *string
	OrderNumber       string
	Status            OrderStatus
	TotalAmount       decimal.Decimal
	PaymentMethod     string
	Delivery          DeliveryInfo
	LoyaltyPointsUsed int
	StockRestored     bool
	DismissedAt       *time.Time
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem is a single line of an order with the unit price frozen at order time.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Size      ProductSize
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// LineTotal returns quantity times the captured unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderHistoryEntry is one append-only audit record of an order status change.
type OrderHistoryEntry struct {
	ID         string
	OrderID    string
	CustomerID *string
	Status     OrderStatus
	Notes      string
	CreatedAt  time.Time
}

// Profile holds the loyalty ledger balances for a customer.
type Profile struct {
	ID                string
	UserID            string
	DisplayName       string
	Phone             string
	LoyaltyPoints     int
	LoyaltyPointsUsed int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
