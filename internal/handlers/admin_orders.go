package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/platform/auth"
	"github.com/roastline/api/internal/platform/config"
	"github.com/roastline/api/internal/platform/httpx"
	"github.com/roastline/api/internal/services"
)

// AdminOrderHandlers serves the back-office order endpoints: the full
// status graph, dismissal, hard purge and the stale-pending sweep.
type AdminOrderHandlers struct {
	orders services.OrderService
	sweeps services.SweepService

	pendingWarningAge time.Duration
	sweepThreshold    time.Duration
	clock             func() time.Time
}

// AdminOrderOption customises AdminOrderHandlers construction.
type AdminOrderOption func(*AdminOrderHandlers)

// WithPendingWarningAge overrides how old a Pending order must be before
// listings flag it as needing attention.
func WithPendingWarningAge(age time.Duration) AdminOrderOption {
	return func(h *AdminOrderHandlers) {
		if age > 0 {
			h.pendingWarningAge = age
		}
	}
}

// WithSweepThreshold sets the configured stale age used when a sweep
// request carries no threshold of its own.
func WithSweepThreshold(threshold time.Duration) AdminOrderOption {
	return func(h *AdminOrderHandlers) {
		if threshold > 0 {
			h.sweepThreshold = threshold
		}
	}
}

// WithAdminOrderClock overrides the time source, for tests.
func WithAdminOrderClock(clock func() time.Time) AdminOrderOption {
	return func(h *AdminOrderHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewAdminOrderHandlers constructs the admin order handlers.
func NewAdminOrderHandlers(orders services.OrderService, sweeps services.SweepService, opts ...AdminOrderOption) (*AdminOrderHandlers, error) {
	if orders == nil {
		return nil, errors.New("handlers: order service is required")
	}
	if sweeps == nil {
		return nil, errors.New("handlers: sweep service is required")
	}
	h := &AdminOrderHandlers{
		orders:            orders,
		sweeps:            sweeps,
		pendingWarningAge: config.DefaultPendingWarningAge,
		clock:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Routes registers the admin order endpoints. Callers are expected to
// have passed a staff or admin RequireAuth gate already.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	r.Post("/orders:sweep", h.Sweep)
	r.Route("/orders", func(g chi.Router) {
		g.Get("/", h.List)
		g.Get("/{orderID}", h.Get)
		g.Get("/{orderID}/history", h.History)
		g.Post("/{orderID}:transition", h.Transition)
		g.Post("/{orderID}:cancel", h.Cancel)
		g.Post("/{orderID}:dismiss", h.Dismiss)
		g.Delete("/{orderID}", h.Delete)
	})
}

type transitionOrderRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type sweepRequest struct {
	Threshold string `json:"threshold"`
}

type sweepResponse struct {
	RunID        string              `json:"run_id"`
	UpdatedCount int                 `json:"updated_count"`
	Errors       []sweepErrorPayload `json:"errors"`
	SweptAt      string              `json:"swept_at"`
}

type sweepErrorPayload struct {
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// List returns orders across all customers with the full admin filter
// set. Pending orders older than the warning age are flagged.
func (h *AdminOrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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

	filter := services.OrderListFilter{
		CustomerID:       strings.TrimSpace(query.Get("customer_id")),
		Status:           statuses,
		IncludeDismissed: strings.EqualFold(query.Get("include_dismissed"), "true"),
		Pagination:       pagination,
	}
	if raw := strings.TrimSpace(query.Get("created_from")); raw != "" {
		from, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_from "+err.Error(), http.StatusBadRequest))
			return
		}
		filter.CreatedRange.From = &from
	}
	if raw := strings.TrimSpace(query.Get("created_to")); raw != "" {
		to, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_to "+err.Error(), http.StatusBadRequest))
			return
		}
		filter.CreatedRange.To = &to
	}

	page, err := h.orders.List(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	now := h.clock()
	response := orderListResponse{
		Items: make([]orderSummaryPayload, 0, len(page.Items)),
		Total: page.Total,
	}
	for _, order := range page.Items {
		summary := buildOrderSummary(order)
		summary.NeedsAttention = h.needsAttention(order, now)
		response.Items = append(response.Items, summary)
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// Get returns any order by id.
func (h *AdminOrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := requireOrderID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

// History returns the status trail for any order.
func (h *AdminOrderHandlers) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := requireOrderID(w, r)
	if !ok {
		return
	}
	entries, err := h.orders.History(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderHistoryPayload(entries))
}

// Transition moves an order to the requested status.
func (h *AdminOrderHandlers) Transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := requireOrderID(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var payload transitionOrderRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.TransitionOrderCommand{
		OrderID:      orderID,
		TargetStatus: domain.OrderStatus(strings.TrimSpace(payload.Status)),
		Notes:        payload.Notes,
		ActorID:      actorID(ctx),
	}

	order, err := h.orders.Transition(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

// Cancel cancels an order from any cancellable status.
func (h *AdminOrderHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := requireOrderID(w, r)
	if !ok {
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
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order, err := h.orders.Cancel(ctx, services.CancelOrderCommand{
		OrderID: orderID,
		Reason:  strings.TrimSpace(payload.Reason),
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

// Dismiss hides a terminal order from the default admin listing.
func (h *AdminOrderHandlers) Dismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := requireOrderID(w, r)
	if !ok {
		return
	}

	if err := h.orders.Dismiss(ctx, services.DismissOrderCommand{
		OrderID: orderID,
		ActorID: actorID(ctx),
	}); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete hard-purges an order and reverses its ledger impact. Admin only.
func (h *AdminOrderHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, _ := auth.IdentityFromContext(ctx)
	if !identity.HasRole(auth.RoleAdmin) {
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_role", "order deletion requires the admin role", http.StatusForbidden))
		return
	}

	orderID, ok := requireOrderID(w, r)
	if !ok {
		return
	}

	result, err := h.orders.Delete(ctx, services.DeleteOrderCommand{
		OrderID: orderID,
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"purged": result.Purged})
}

// Sweep auto-confirms Pending orders older than the threshold. An
// optional body overrides the configured threshold for one run.
func (h *AdminOrderHandlers) Sweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	threshold := h.sweepThreshold
	var payload sweepRequest
	body, err := readLimitedBody(r, maxBodySize)
	switch {
	case err == nil:
		if err := json.Unmarshal(body, &payload); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
			return
		}
		if raw := strings.TrimSpace(payload.Threshold); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "threshold must be a positive duration", http.StatusBadRequest))
				return
			}
			threshold = parsed
		}
	case errors.Is(err, errEmptyBody):
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	report, err := h.sweeps.SweepStalePending(ctx, threshold)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "sweep run failed", http.StatusInternalServerError))
		return
	}

	response := sweepResponse{
		RunID:        report.RunID,
		UpdatedCount: report.UpdatedCount,
		Errors:       make([]sweepErrorPayload, 0, len(report.Errors)),
		SweptAt:      formatTime(report.SweptAt),
	}
	for _, sweepErr := range report.Errors {
		response.Errors = append(response.Errors, sweepErrorPayload{
			OrderID: sweepErr.OrderID,
			Message: sweepErr.Message,
		})
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *AdminOrderHandlers) needsAttention(order domain.Order, now time.Time) bool {
	if order.Status != domain.OrderStatusPending || order.DismissedAt != nil {
		return false
	}
	return now.Sub(order.CreatedAt) >= h.pendingWarningAge
}

func requireOrderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return "", false
	}
	return orderID, true
}

func actorID(ctx context.Context) string {
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		return identity.UID
	}
	return ""
}
