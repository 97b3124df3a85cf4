package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/roastline/api/internal/domain"
)

type productRow struct {
	ID                string          `gorm:"column:id;primaryKey"`
	Name              string          `gorm:"column:name"`
	Description       string          `gorm:"column:description"`
	Category          string          `gorm:"column:category"`
	SmallPrice        decimal.Decimal `gorm:"column:small_price;type:numeric(12,2)"`
	SmallQuantity     int             `gorm:"column:small_quantity"`
	MediumPrice       decimal.Decimal `gorm:"column:medium_price;type:numeric(12,2)"`
	MediumQuantity    int             `gorm:"column:medium_quantity"`
	LargePrice        decimal.Decimal `gorm:"column:large_price;type:numeric(12,2)"`
	LargeQuantity     int             `gorm:"column:large_quantity"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold"`
	Status            string          `gorm:"column:status"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	ID                string          `gorm:"column:id;primaryKey"`
	CustomerID        *string         `gorm:"column:customer_id"`
	OrderNumber       string          `gorm:"column:order_number;uniqueIndex"`
	Status            string          `gorm:"column:status"`
	TotalAmount       decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2)"`
	PaymentMethod     string          `gorm:"column:payment_method"`
	RecipientName     string          `gorm:"column:recipient_name"`
	Phone             string          `gorm:"column:phone"`
	AddressLine       string          `gorm:"column:address_line"`
	City              string          `gorm:"column:city"`
	PostalCode        string          `gorm:"column:postal_code"`
	Instructions      string          `gorm:"column:instructions"`
	LoyaltyPointsUsed int             `gorm:"column:loyalty_points_used"`
	StockRestored     bool            `gorm:"column:stock_restored"`
	DismissedAt       *time.Time      `gorm:"column:dismissed_at"`
	Items             []orderItemRow  `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID        string          `gorm:"column:id;primaryKey"`
	OrderID   string          `gorm:"column:order_id;index"`
	ProductID string          `gorm:"column:product_id;index"`
	Size      string          `gorm:"column:size"`
	Quantity  int             `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (orderItemRow) TableName() string { return "order_items" }

type orderHistoryRow struct {
	ID         string    `gorm:"column:id;primaryKey"`
	OrderID    string    `gorm:"column:order_id;index"`
	CustomerID *string   `gorm:"column:customer_id"`
	Status     string    `gorm:"column:status"`
	Notes      string    `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (orderHistoryRow) TableName() string { return "order_history" }

type profileRow struct {
	ID                string    `gorm:"column:id;primaryKey"`
	UserID            string    `gorm:"column:user_id;uniqueIndex"`
	DisplayName       string    `gorm:"column:display_name"`
	Phone             string    `gorm:"column:phone"`
	LoyaltyPoints     int       `gorm:"column:loyalty_points"`
	LoyaltyPointsUsed int       `gorm:"column:loyalty_points_used"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (profileRow) TableName() string { return "profiles" }

func productRowFromDomain(product domain.Product) productRow {
	row := productRow{
		ID:                product.ID,
		Name:              product.Name,
		Description:       product.Description,
		Category:          product.Category,
		LowStockThreshold: product.LowStockThreshold,
		Status:            string(product.Status),
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}
	if variant, ok := product.Sizes[domain.SizeSmall]; ok {
		row.SmallPrice = variant.Price
		row.SmallQuantity = variant.Quantity
	}
	if variant, ok := product.Sizes[domain.SizeMedium]; ok {
		row.MediumPrice = variant.Price
		row.MediumQuantity = variant.Quantity
	}
	if variant, ok := product.Sizes[domain.SizeLarge]; ok {
		row.LargePrice = variant.Price
		row.LargeQuantity = variant.Quantity
	}
	return row
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Sizes: map[domain.ProductSize]domain.SizeVariant{
			domain.SizeSmall:  {Price: r.SmallPrice, Quantity: r.SmallQuantity},
			domain.SizeMedium: {Price: r.MediumPrice, Quantity: r.MediumQuantity},
			domain.SizeLarge:  {Price: r.LargePrice, Quantity: r.LargeQuantity},
		},
		LowStockThreshold: r.LowStockThreshold,
		Status:            domain.ProductStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func orderRowFromDomain(order domain.Order) orderRow {
	row := orderRow{
		ID:                order.ID,
		CustomerID:        order.CustomerID,
		OrderNumber:       order.OrderNumber,
		Status:            string(order.Status),
		TotalAmount:       order.TotalAmount,
		PaymentMethod:     order.PaymentMethod,
		RecipientName:     order.Delivery.RecipientName,
		Phone:             order.Delivery.Phone,
		AddressLine:       order.Delivery.AddressLine,
		City:              order.Delivery.City,
		PostalCode:        order.Delivery.PostalCode,
		Instructions:      order.Delivery.Instructions,
		LoyaltyPointsUsed: order.LoyaltyPointsUsed,
		StockRestored:     order.StockRestored,
		DismissedAt:       order.DismissedAt,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, item := range order.Items {
		row.Items = append(row.Items, orderItemRowFromDomain(item))
	}
	return row
}

func (r orderRow) toDomain() domain.Order {
	order := domain.Order{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		OrderNumber:   r.OrderNumber,
		Status:        domain.OrderStatus(r.Status),
		TotalAmount:   r.TotalAmount,
		PaymentMethod: r.PaymentMethod,
		Delivery: domain.DeliveryInfo{
			RecipientName: r.RecipientName,
			Phone:         r.Phone,
			AddressLine:   r.AddressLine,
			City:          r.City,
			PostalCode:    r.PostalCode,
			Instructions:  r.Instructions,
		},
		LoyaltyPointsUsed: r.LoyaltyPointsUsed,
		StockRestored:     r.StockRestored,
		DismissedAt:       r.DismissedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, item.toDomain())
	}
	return order
}

func orderItemRowFromDomain(item domain.OrderItem) orderItemRow {
	return orderItemRow{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Size:      string(item.Size),
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		CreatedAt: item.CreatedAt,
	}
}

func (r orderItemRow) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Size:      domain.ProductSize(r.Size),
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		CreatedAt: r.CreatedAt,
	}
}

func historyRowFromDomain(entry domain.OrderHistoryEntry) orderHistoryRow {
	return orderHistoryRow{
		ID:         entry.ID,
		OrderID:    entry.OrderID,
		CustomerID: entry.CustomerID,
		Status:     string(entry.Status),
		Notes:      entry.Notes,
		CreatedAt:  entry.CreatedAt,
	}
}

func (r orderHistoryRow) toDomain() domain.OrderHistoryEntry {
	return domain.OrderHistoryEntry{
		ID:         r.ID,
		OrderID:    r.OrderID,
		CustomerID: r.CustomerID,
		Status:     domain.OrderStatus(r.Status),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
	}
}

func profileRowFromDomain(profile domain.Profile) profileRow {
	return profileRow{
		ID:                profile.ID,
		UserID:            profile.UserID,
		DisplayName:       profile.DisplayName,
		Phone:             profile.Phone,
		LoyaltyPoints:     profile.LoyaltyPoints,
		LoyaltyPointsUsed: profile.LoyaltyPointsUsed,
		CreatedAt:         profile.CreatedAt,
		UpdatedAt:         profile.UpdatedAt,
	}
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{
		ID:                r.ID,
		UserID:            r.UserID,
		DisplayName:       r.DisplayName,
		Phone:             r.Phone,
		LoyaltyPoints:     r.LoyaltyPoints,
		LoyaltyPointsUsed: r.LoyaltyPointsUsed,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
