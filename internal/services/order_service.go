package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventPurged        = "order.purged"
	orderEventDismissed     = "order.dismissed"

	orderIDPrefix   = "ord_"
	itemIDPrefix    = "itm_"
	historyIDPrefix = "hst_"

	orderNumberPrefix = "RL"

	maxHistoryNoteLength = 500
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidTransition indicates a status graph violation.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates the operation is illegal given the order's current state.
	ErrOrderConflict = errors.New("order: conflict")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	History     repositories.OrderHistoryRepository
	Products    repositories.ProductRepository
	Inventory   InventoryService
	Loyalty     LoyaltyService
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Sanitizer   NoteSanitizer
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	history    repositories.OrderHistoryRepository
	products   repositories.ProductRepository
	inventory  InventoryService
	loyalty    LoyaltyService
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	sanitizer  NoteSanitizer
	logger     func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.History == nil {
		return nil, errors.New("order service: history repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("order service: inventory service is required")
	}
	if deps.Loyalty == nil {
		return nil, errors.New("order service: loyalty service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		history:    deps.History,
		products:   deps.Products,
		inventory:  deps.Inventory,
		loyalty:    deps.Loyalty,
		unitOfWork: ensureUnitOfWork(deps.UnitOfWork),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		events:    deps.Events,
		sanitizer: deps.Sanitizer,
		logger:    logger,
	}, nil
}

// Create places a new Pending order: stock is deducted, redeemed loyalty
// points are moved, the order aggregate and its first history entry are
// written, all inside one transaction.
func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	if err := validateCreateCommand(cmd); err != nil {
		return domain.Order{}, err
	}

	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" && cmd.LoyaltyPointsToUse > 0 {
		return domain.Order{}, fmt.Errorf("%w: loyalty points require a customer", ErrOrderInvalidInput)
	}

	productIDs := make([]string, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	now := s.now()
	order := domain.Order{
		ID:                orderIDPrefix + s.newID(),
		OrderNumber:       s.generateOrderNumber(now),
		Status:            domain.OrderStatusPending,
		PaymentMethod:     strings.TrimSpace(cmd.PaymentMethod),
		Delivery:          sanitizeDelivery(s.sanitize(cmd.Delivery.Instructions), cmd.Delivery),
		LoyaltyPointsUsed: cmd.LoyaltyPointsToUse,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if customerID != "" {
		order.CustomerID = &customerID
	}

	subtotal := decimal.Zero
	for _, input := range cmd.Items {
		product, ok := products[input.ProductID]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: product %s", ErrInventoryProductNotFound, input.ProductID)
		}
		if product.Status != domain.ProductStatusActive {
			return domain.Order{}, fmt.Errorf("%w: product %s is not available", ErrOrderInvalidInput, input.ProductID)
		}
		variant, ok := product.Sizes[input.Size]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: product %s has no %s size", ErrOrderInvalidInput, input.ProductID, input.Size)
		}

		item := domain.OrderItem{
			ID:        itemIDPrefix + s.newID(),
			OrderID:   order.ID,
			ProductID: input.ProductID,
			Size:      input.Size,
			Quantity:  input.Quantity,
			UnitPrice: variant.Price,
			CreatedAt: now,
		}
		order.Items = append(order.Items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}

	// One redeemed point is worth one currency unit off the total.
	order.TotalAmount = subtotal.Sub(decimal.NewFromInt(int64(cmd.LoyaltyPointsToUse)))
	if order.TotalAmount.IsNegative() {
		order.TotalAmount = decimal.Zero
	}

	entry := s.newHistoryEntry(order, "Order placed", now)

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inventory.Deduct(txCtx, order.Items); err != nil {
			return err
		}
		if cmd.LoyaltyPointsToUse > 0 {
			if err := s.loyalty.Redeem(txCtx, customerID, cmd.LoyaltyPointsToUse); err != nil {
				return err
			}
		}
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.history.Append(txCtx, entry); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CurrentStatus: order.Status,
		ActorID:       cmd.ActorID,
		OccurredAt:    now,
	})

	return order, nil
}

// Get loads an order aggregate by id.
func (s *orderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

// List returns a filtered page of orders.
func (s *orderService) List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error) {
	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		CustomerID:       strings.TrimSpace(filter.CustomerID),
		Status:           filter.Status,
		CreatedRange:     filter.CreatedRange,
		IncludeDismissed: filter.IncludeDismissed,
		Pagination:       filter.Pagination,
	})
	if err != nil {
		return domain.Page[domain.Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// History returns the audit trail for an existing order.
func (s *orderService) History(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return entries, nil
}

// Transition moves an order along the status graph. The status update,
// the history append and any ledger restorations persist together or
// not at all.
func (s *orderService) Transition(ctx context.Context, cmd TransitionOrderCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !domain.ValidOrderStatus(cmd.TargetStatus) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.TargetStatus)
	}

	sanitized := strings.TrimSpace(s.sanitize(cmd.Notes))
	now := s.now()

	var (
		order      domain.Order
		prevStatus domain.OrderStatus
	)
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		// Read inside the transaction so a concurrent cancel or purge
		// cannot slip between the status check and the write.
		var err error
		order, err = s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		if !domain.CanTransition(order.Status, cmd.TargetStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, order.Status, cmd.TargetStatus)
		}

		prevStatus = order.Status
		order.Status = cmd.TargetStatus
		order.UpdatedAt = now

		// Entering Cancelled or Returned puts stock back and refunds redeemed
		// points exactly once; the flag survives later purge attempts.
		restoreStock := false
		refundPoints := 0
		if domain.RestoresInventory(cmd.TargetStatus) && !order.StockRestored {
			restoreStock = len(order.Items) > 0
			if order.CustomerID != nil && order.LoyaltyPointsUsed > 0 {
				refundPoints = order.LoyaltyPointsUsed
			}
			order.StockRestored = true
		}

		notes := sanitized
		if notes == "" {
			notes = fmt.Sprintf("Status changed from %s to %s", prevStatus, cmd.TargetStatus)
		}
		entry := s.newHistoryEntry(order, notes, now)

		if restoreStock {
			if err := s.inventory.Restore(txCtx, order.Items); err != nil {
				return err
			}
		}
		if refundPoints > 0 {
			if err := s.loyalty.Refund(txCtx, *order.CustomerID, refundPoints); err != nil {
				return err
			}
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.history.Append(txCtx, entry); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: prevStatus,
		CurrentStatus:  order.Status,
		ActorID:        cmd.ActorID,
		OccurredAt:     now,
	})

	return order, nil
}

// Cancel transitions the order to Cancelled with forced ledger restoration.
func (s *orderService) Cancel(ctx context.Context, cmd CancelOrderCommand) (domain.Order, error) {
	notes := strings.TrimSpace(cmd.Reason)
	if notes == "" {
		notes = "Order cancelled"
	}
	return s.Transition(ctx, TransitionOrderCommand{
		OrderID:      cmd.OrderID,
		TargetStatus: domain.OrderStatusCancelled,
		ActorID:      cmd.ActorID,
		Notes:        notes,
	})
}

// Delete hard-purges an order: inventory restored, loyalty reconciled,
// then history rows, line items and the order row removed, all in one
// transaction. Completed orders cannot be purged.
func (s *orderService) Delete(ctx context.Context, cmd DeleteOrderCommand) (DeleteOrderResult, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return DeleteOrderResult{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	var order domain.Order
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		// Read inside the transaction: the stock_restored flag decides
		// whether the ledgers move, and a cancel committing between an
		// outside read and this point would make that decision stale.
		var err error
		order, err = s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		if order.Status == domain.OrderStatusCompleted {
			return fmt.Errorf("%w: completed orders cannot be deleted", ErrOrderConflict)
		}

		// Cancellation already put the ledgers right; restoring again
		// here would double-credit stock and points.
		if !order.StockRestored {
			if len(order.Items) > 0 {
				if err := s.inventory.Restore(txCtx, order.Items); err != nil {
					return err
				}
			}
			if err := s.loyalty.ReverseOrder(txCtx, order); err != nil {
				return err
			}
		}
		if err := s.history.DeleteByOrder(txCtx, orderID); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.orders.DeleteAggregate(txCtx, orderID); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return DeleteOrderResult{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventPurged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: order.Status,
		ActorID:        cmd.ActorID,
		OccurredAt:     s.now(),
	})

	return DeleteOrderResult{Purged: true}, nil
}

// Dismiss hides the order from the admin working view. No row is
// deleted and no ledger moves; dismissing twice is a no-op.
func (s *orderService) Dismiss(ctx context.Context, cmd DismissOrderCommand) error {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if order.DismissedAt != nil {
		return nil
	}

	now := s.now()
	if err := s.orders.SetDismissed(ctx, orderID, now); err != nil {
		return s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventDismissed,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CurrentStatus: order.Status,
		ActorID:       cmd.ActorID,
		OccurredAt:    now,
	})
	return nil
}

func (s *orderService) newHistoryEntry(order domain.Order, notes string, now time.Time) domain.OrderHistoryEntry {
	if len(notes) > maxHistoryNoteLength {
		notes = notes[:maxHistoryNoteLength]
	}
	return domain.OrderHistoryEntry{
		ID:         historyIDPrefix + s.newID(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		Notes:      notes,
		CreatedAt:  now,
	}
}

func (s *orderService) generateOrderNumber(now time.Time) string {
	suffix := s.newID()
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("20060102"), strings.ToUpper(suffix))
}

func (s *orderService) sanitize(value string) string {
	if s.sanitizer == nil {
		return value
	}
	return s.sanitizer.Sanitize(value)
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func validateCreateCommand(cmd CreateOrderCommand) error {
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	for _, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item product id is required", ErrOrderInvalidInput)
		}
		if !domain.ValidSize(item.Size) {
			return fmt.Errorf("%w: size %q", ErrOrderInvalidInput, item.Size)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrOrderInvalidInput)
		}
	}
	if strings.TrimSpace(cmd.PaymentMethod) == "" {
		return fmt.Errorf("%w: payment method is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Delivery.RecipientName) == "" {
		return fmt.Errorf("%w: recipient name is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Delivery.Phone) == "" {
		return fmt.Errorf("%w: contact phone is required", ErrOrderInvalidInput)
	}
	if cmd.LoyaltyPointsToUse < 0 {
		return fmt.Errorf("%w: loyalty points cannot be negative", ErrOrderInvalidInput)
	}
	return nil
}

func sanitizeDelivery(instructions string, delivery domain.DeliveryInfo) domain.DeliveryInfo {
	delivery.RecipientName = strings.TrimSpace(delivery.RecipientName)
	delivery.Phone = strings.TrimSpace(delivery.Phone)
	delivery.AddressLine = strings.TrimSpace(delivery.AddressLine)
	delivery.City = strings.TrimSpace(delivery.City)
	delivery.PostalCode = strings.TrimSpace(delivery.PostalCode)
	delivery.Instructions = strings.TrimSpace(instructions)
	return delivery
}
