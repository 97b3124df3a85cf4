package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/platform/auth"
	"github.com/roastline/api/internal/platform/httpx"
	"github.com/roastline/api/internal/services"
)

// OrderHandlers serves the customer-facing order endpoints. Placement is
// open to guests; everything else requires a bearer token and operates on
// the caller's own orders.
type OrderHandlers struct {
	orders services.OrderService
	authn  *auth.Authenticator
}

// NewOrderHandlers constructs the customer order handlers.
func NewOrderHandlers(orders services.OrderService, authn *auth.Authenticator) (*OrderHandlers, error) {
	if orders == nil {
		return nil, errors.New("handlers: order service is required")
	}
	if authn == nil {
		return nil, errors.New("handlers: authenticator is required")
	}
	return &OrderHandlers{orders: orders, authn: authn}, nil
}

// Routes registers the customer order endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)

	r.Group(func(g chi.Router) {
		g.Use(h.authn.RequireAuth())
		g.Get("/", h.List)
		g.Get("/{orderID}", h.Get)
		g.Get("/{orderID}/history", h.History)
		g.Post("/{orderID}:cancel", h.Cancel)
	})
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type deliveryRequest struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	AddressLine   string `json:"address_line"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Instructions  string `json:"instructions"`
}

type createOrderRequest struct {
	Items              []createOrderItemRequest `json:"items"`
	Delivery           deliveryRequest          `json:"delivery"`
	PaymentMethod      string                   `json:"payment_method"`
	LoyaltyPointsToUse int                      `json:"loyalty_points_to_use"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Create places a new order. A valid bearer token attaches the order to
// the caller's account; without one the order is placed as a guest and
// loyalty points cannot be redeemed.
func (h *OrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := h.optionalIdentity(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "bearer token is invalid", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var payload createOrderRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.CreateOrderCommand{
		Items:              make([]services.CreateOrderItemInput, 0, len(payload.Items)),
		PaymentMethod:      strings.TrimSpace(payload.PaymentMethod),
		LoyaltyPointsToUse: payload.LoyaltyPointsToUse,
		Delivery: domain.DeliveryInfo{
			RecipientName: strings.TrimSpace(payload.Delivery.RecipientName),
			Phone:         strings.TrimSpace(payload.Delivery.Phone),
			AddressLine:   strings.TrimSpace(payload.Delivery.AddressLine),
			City:          strings.TrimSpace(payload.Delivery.City),
			PostalCode:    strings.TrimSpace(payload.Delivery.PostalCode),
			Instructions:  strings.TrimSpace(payload.Delivery.Instructions),
		},
	}
	for _, item := range payload.Items {
		cmd.Items = append(cmd.Items, services.CreateOrderItemInput{
			ProductID: strings.TrimSpace(item.ProductID),
			Size:      domain.ProductSize(strings.ToLower(strings.TrimSpace(item.Size))),
			Quantity:  item.Quantity,
		})
	}
	if identity != nil {
		cmd.CustomerID = identity.UID
		cmd.ActorID = identity.UID
	}

	order, err := h.orders.Create(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

// List returns the caller's own orders, newest first.
func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	query := r.URL.Query()
	pagination, err := parsePagination(query)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	statuses, ok := parseStatusFilters(query["status"])
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order status filter", http.StatusBadRequest))
		return
	}

	page, err := h.orders.List(ctx, services.OrderListFilter{
		CustomerID:       identity.UID,
		Status:           statuses,
		IncludeDismissed: true,
		Pagination:       pagination,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	response := orderListResponse{
		Items: make([]orderSummaryPayload, 0, len(page.Items)),
		Total: page.Total,
	}
	for _, order := range page.Items {
		summary := buildOrderSummary(order)
		// Dismissal is an admin working-view concept; customers never see it.
		summary.Dismissed = false
		response.Items = append(response.Items, summary)
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// Get returns one of the caller's orders.
func (h *OrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

// History returns the status trail for one of the caller's orders.
func (h *OrderHandlers) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}

	entries, err := h.orders.History(ctx, order.ID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderHistoryPayload(entries))
}

// Cancel lets a customer back out of an order that has not started
// preparation yet. Later stages require staff intervention.
func (h *OrderHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	order, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusConfirmed {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", "order can no longer be cancelled by the customer", http.StatusBadRequest))
		return
	}

	var payload cancelOrderRequest
	body, err := readLimitedBody(r, maxBodySize)
	switch {
	case err == nil:
		if err := json.Unmarshal(body, &payload); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
			return
		}
	case errors.Is(err, errEmptyBody):
		// The reason is optional; an empty body keeps the default.
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.CancelOrderCommand{
		OrderID: order.ID,
		Reason:  strings.TrimSpace(payload.Reason),
	}
	if identity != nil {
		cmd.ActorID = identity.UID
	}

	cancelled, err := h.orders.Cancel(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(cancelled)})
}

// loadOwnedOrder fetches the order from the path parameter and enforces
// that the caller owns it. Staff and admin identities bypass the
// ownership check.
func (h *OrderHandlers) loadOwnedOrder(w http.ResponseWriter, r *http.Request) (domain.Order, bool) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return domain.Order{}, false
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return domain.Order{}, false
	}

	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return domain.Order{}, false
	}

	if identity.HasAnyRole(auth.RoleStaff, auth.RoleAdmin) {
		return order, true
	}
	if order.CustomerID == nil || *order.CustomerID != identity.UID {
		// Report foreign orders as missing rather than leaking their existence.
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return domain.Order{}, false
	}
	return order, true
}

// optionalIdentity verifies the bearer token when one is present. A
// missing header is not an error; a malformed or expired token is.
func (h *OrderHandlers) optionalIdentity(r *http.Request) (*auth.Identity, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("authorization header is not a bearer token")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil, errors.New("bearer token is empty")
	}
	return h.authn.Verify(token)
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrInventoryInvalidInput),
		errors.Is(err, services.ErrLoyaltyInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInventoryProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "ordered product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrLoyaltyProfileNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("profile_not_found", "loyalty profile not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInventoryInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "not enough stock to fulfil the order", http.StatusConflict))
	case errors.Is(err, services.ErrLoyaltyInsufficientPoints):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_points", "not enough loyalty points available", http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", "order was modified concurrently", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process order request", http.StatusInternalServerError))
	}
}
