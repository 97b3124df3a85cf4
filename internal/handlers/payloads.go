package handlers

import (
	"strings"

	domain "github.com/roastline/api/internal/domain"
)

type productListResponse struct {
	Items []productPayload `json:"items"`
	Total int64            `json:"total"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ID                string                        `json:"id"`
	Name              string                        `json:"name"`
	Description       string                        `json:"description,omitempty"`
	Category          string                        `json:"category,omitempty"`
	Status            string                        `json:"status"`
	Sizes             map[string]sizeVariantPayload `json:"sizes"`
	TotalStock        int                           `json:"total_stock"`
	LowStock          bool                          `json:"low_stock"`
	LowStockThreshold int                           `json:"low_stock_threshold"`
	CreatedAt         string                        `json:"created_at"`
	UpdatedAt         string                        `json:"updated_at,omitempty"`
}

type sizeVariantPayload struct {
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

func buildProductPayload(product domain.Product) productPayload {
	sizes := make(map[string]sizeVariantPayload, len(product.Sizes))
	for size, variant := range product.Sizes {
		sizes[string(size)] = sizeVariantPayload{
			Price:    variant.Price.StringFixed(2),
			Quantity: variant.Quantity,
		}
	}
	return productPayload{
		ID:                product.ID,
		Name:              product.Name,
		Description:       product.Description,
		Category:          product.Category,
		Status:            string(product.Status),
		Sizes:             sizes,
		TotalStock:        product.TotalStock(),
		LowStock:          product.LowStock(),
		LowStockThreshold: product.LowStockThreshold,
		CreatedAt:         formatTime(product.CreatedAt),
		UpdatedAt:         formatTime(product.UpdatedAt),
	}
}

type orderListResponse struct {
	Items []orderSummaryPayload `json:"items"`
	Total int64                 `json:"total"`
}

type orderSummaryPayload struct {
	ID                string `json:"id"`
	OrderNumber       string `json:"order_number"`
	Status            string `json:"status"`
	TotalAmount       string `json:"total_amount"`
	ItemCount         int    `json:"item_count"`
	LoyaltyPointsUsed int    `json:"loyalty_points_used,omitempty"`
	Dismissed         bool   `json:"dismissed,omitempty"`
	NeedsAttention    bool   `json:"needs_attention,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID                string             `json:"id"`
	OrderNumber       string             `json:"order_number"`
	CustomerID        string             `json:"customer_id,omitempty"`
	Status            string             `json:"status"`
	TotalAmount       string             `json:"total_amount"`
	PaymentMethod     string             `json:"payment_method"`
	LoyaltyPointsUsed int                `json:"loyalty_points_used,omitempty"`
	StockRestored     bool               `json:"stock_restored,omitempty"`
	DismissedAt       string             `json:"dismissed_at,omitempty"`
	Delivery          deliveryPayload    `json:"delivery"`
	Items             []orderItemPayload `json:"items"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at,omitempty"`
}

type deliveryPayload struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	AddressLine   string `json:"address_line,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

type orderItemPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderHistoryResponse struct {
	Items []orderHistoryEntryPayload `json:"items"`
}

type orderHistoryEntryPayload struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
}

func buildOrderSummary(order domain.Order) orderSummaryPayload {
	return orderSummaryPayload{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            string(order.Status),
		TotalAmount:       order.TotalAmount.StringFixed(2),
		ItemCount:         len(order.Items),
		LoyaltyPointsUsed: order.LoyaltyPointsUsed,
		Dismissed:         order.DismissedAt != nil,
		CreatedAt:         formatTime(order.CreatedAt),
	}
}

func buildOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            string(order.Status),
		TotalAmount:       order.TotalAmount.StringFixed(2),
		PaymentMethod:     order.PaymentMethod,
		LoyaltyPointsUsed: order.LoyaltyPointsUsed,
		StockRestored:     order.StockRestored,
		DismissedAt:       formatTimePtr(order.DismissedAt),
		Delivery: deliveryPayload{
			RecipientName: order.Delivery.RecipientName,
			Phone:         order.Delivery.Phone,
			AddressLine:   order.Delivery.AddressLine,
			City:          order.Delivery.City,
			PostalCode:    order.Delivery.PostalCode,
			Instructions:  order.Delivery.Instructions,
		},
		Items:     make([]orderItemPayload, 0, len(order.Items)),
		CreatedAt: formatTime(order.CreatedAt),
		UpdatedAt: formatTime(order.UpdatedAt),
	}
	if order.CustomerID != nil {
		payload.CustomerID = strings.TrimSpace(*order.CustomerID)
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			Size:      string(item.Size),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			LineTotal: item.LineTotal().StringFixed(2),
		})
	}
	return payload
}

func buildOrderHistoryPayload(entries []domain.OrderHistoryEntry) orderHistoryResponse {
	response := orderHistoryResponse{Items: make([]orderHistoryEntryPayload, 0, len(entries))}
	for _, entry := range entries {
		response.Items = append(response.Items, orderHistoryEntryPayload{
			ID:        entry.ID,
			Status:    string(entry.Status),
			Notes:     entry.Notes,
			CreatedAt: formatTime(entry.CreatedAt),
		})
	}
	return response
}
