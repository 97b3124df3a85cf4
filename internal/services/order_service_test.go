package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

type orderServiceFixture struct {
	orders   *stubOrderRepo
	history  *stubHistoryRepo
	products *stubProductRepo
	profiles *stubProfileRepo
	unit     *countingUnitOfWork
	events   *captureOrderEvents
}

func newOrderServiceFixture() *orderServiceFixture {
	return &orderServiceFixture{
		orders:   &stubOrderRepo{},
		history:  &stubHistoryRepo{},
		products: &stubProductRepo{},
		profiles: &stubProfileRepo{},
		unit:     &countingUnitOfWork{},
		events:   &captureOrderEvents{},
	}
}

func (f *orderServiceFixture) build(t *testing.T) OrderService {
	t.Helper()

	inventory, err := NewInventoryService(InventoryServiceDeps{Products: f.products})
	if err != nil {
		t.Fatalf("build inventory service: %v", err)
	}
	loyalty, err := NewLoyaltyService(LoyaltyServiceDeps{Profiles: f.profiles, Clock: fixedClock(testNow)})
	if err != nil {
		t.Fatalf("build loyalty service: %v", err)
	}
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      f.orders,
		History:     f.history,
		Products:    f.products,
		Inventory:   inventory,
		Loyalty:     loyalty,
		UnitOfWork:  f.unit,
		Clock:       fixedClock(testNow),
		IDGenerator: sequentialIDs("seq"),
		Events:      f.events,
	})
	if err != nil {
		t.Fatalf("build order service: %v", err)
	}
	return svc
}

func activeProduct(id string, smallPrice string, smallQty int) domain.Product {
	return domain.Product{
		ID:     id,
		Name:   "Flat White",
		Status: domain.ProductStatusActive,
		Sizes: map[domain.ProductSize]domain.SizeVariant{
			domain.SizeSmall:  {Price: decimal.RequireFromString(smallPrice), Quantity: smallQty},
			domain.SizeMedium: {Price: decimal.RequireFromString(smallPrice).Add(decimal.NewFromInt(1)), Quantity: smallQty},
			domain.SizeLarge:  {Price: decimal.RequireFromString(smallPrice).Add(decimal.NewFromInt(2)), Quantity: smallQty},
		},
	}
}

func validCreateCommand() CreateOrderCommand {
	return CreateOrderCommand{
		CustomerID: "usr_1",
		Items: []CreateOrderItemInput{
			{ProductID: "prd_1", Size: domain.SizeSmall, Quantity: 3},
		},
		Delivery: domain.DeliveryInfo{
			RecipientName: "Mika",
			Phone:         "555-0101",
		},
		PaymentMethod: "card",
	}
}

func TestOrderServiceCreate(t *testing.T) {
	t.Run("rejects empty orders", func(t *testing.T) {
		f := newOrderServiceFixture()
		svc := f.build(t)

		cmd := validCreateCommand()
		cmd.Items = nil

		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
		}
	})

	t.Run("rejects missing payment method", func(t *testing.T) {
		f := newOrderServiceFixture()
		svc := f.build(t)

		cmd := validCreateCommand()
		cmd.PaymentMethod = " "

		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
		}
	})

	t.Run("rejects loyalty points without a customer", func(t *testing.T) {
		f := newOrderServiceFixture()
		svc := f.build(t)

		cmd := validCreateCommand()
		cmd.CustomerID = ""
		cmd.LoyaltyPointsToUse = 5

		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
		}
	})

	t.Run("deducts stock and persists the aggregate", func(t *testing.T) {
		f := newOrderServiceFixture()
		stock := map[domain.ProductSize]int{domain.SizeSmall: 10}
		f.products.findByIDsFn = func(_ context.Context, ids []string) (map[string]domain.Product, error) {
			return map[string]domain.Product{"prd_1": activeProduct("prd_1", "4.50", stock[domain.SizeSmall])}, nil
		}
		f.products.adjustFn = func(_ context.Context, productID string, size domain.ProductSize, delta int) error {
			if stock[size]+delta < 0 {
				return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, "", nil)
			}
			stock[size] += delta
			return nil
		}

		var inserted domain.Order
		f.orders.insertFn = func(_ context.Context, order domain.Order) error {
			inserted = order
			return nil
		}
		var appended domain.OrderHistoryEntry
		f.history.appendFn = func(_ context.Context, entry domain.OrderHistoryEntry) error {
			appended = entry
			return nil
		}

		svc := f.build(t)

		order, err := svc.Create(context.Background(), validCreateCommand())
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		if stock[domain.SizeSmall] != 7 {
			t.Fatalf("small stock = %d, want 7", stock[domain.SizeSmall])
		}
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("status = %q, want Pending", order.Status)
		}
		if !order.TotalAmount.Equal(decimal.RequireFromString("13.50")) {
			t.Fatalf("total = %s, want 13.50", order.TotalAmount)
		}
		if !strings.HasPrefix(order.OrderNumber, "RL-20260314-") {
			t.Fatalf("order number = %q", order.OrderNumber)
		}
		if inserted.ID != order.ID {
			t.Fatalf("inserted order %q does not match returned %q", inserted.ID, order.ID)
		}
		if appended.Status != domain.OrderStatusPending || appended.OrderID != order.ID {
			t.Fatalf("history entry = %+v", appended)
		}
		if f.unit.calls != 1 {
			t.Fatalf("expected one transaction, got %d", f.unit.calls)
		}
		if len(f.events.events) != 1 || f.events.events[0].Type != orderEventCreated {
			t.Fatalf("events = %+v", f.events.events)
		}
	})

	t.Run("redeems loyalty points and discounts the total", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.products.findByIDsFn = func(context.Context, []string) (map[string]domain.Product, error) {
			return map[string]domain.Product{"prd_1": activeProduct("prd_1", "4.50", 10)}, nil
		}
		profile := domain.Profile{ID: "prf_1", UserID: "usr_1", LoyaltyPoints: 8}
		f.profiles.findFn = func(_ context.Context, userID string) (domain.Profile, error) {
			return profile, nil
		}
		var savedProfile domain.Profile
		f.profiles.updateFn = func(_ context.Context, p domain.Profile) error {
			savedProfile = p
			return nil
		}

		svc := f.build(t)

		cmd := validCreateCommand()
		cmd.LoyaltyPointsToUse = 5

		order, err := svc.Create(context.Background(), cmd)
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		if !order.TotalAmount.Equal(decimal.RequireFromString("8.50")) {
			t.Fatalf("total = %s, want 8.50", order.TotalAmount)
		}
		if order.LoyaltyPointsUsed != 5 {
			t.Fatalf("loyalty points used = %d, want 5", order.LoyaltyPointsUsed)
		}
		if savedProfile.LoyaltyPoints != 3 || savedProfile.LoyaltyPointsUsed != 5 {
			t.Fatalf("profile after redeem = %+v", savedProfile)
		}
	})

	t.Run("oversell aborts the whole order", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.products.findByIDsFn = func(context.Context, []string) (map[string]domain.Product, error) {
			return map[string]domain.Product{"prd_1": activeProduct("prd_1", "4.50", 2)}, nil
		}
		f.products.adjustFn = func(_ context.Context, _ string, _ domain.ProductSize, delta int) error {
			if 2+delta < 0 {
				return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, "", nil)
			}
			return nil
		}
		inserts := 0
		f.orders.insertFn = func(context.Context, domain.Order) error {
			inserts++
			return nil
		}

		svc := f.build(t)

		cmd := validCreateCommand()
		cmd.Items[0].Quantity = 5

		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrInventoryInsufficientStock) {
			t.Fatalf("expected ErrInventoryInsufficientStock, got %v", err)
		}
		if inserts != 0 {
			t.Fatalf("order insert must not run after a failed deduction")
		}
	})

	t.Run("rejects inactive products", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.products.findByIDsFn = func(context.Context, []string) (map[string]domain.Product, error) {
			product := activeProduct("prd_1", "4.50", 10)
			product.Status = domain.ProductStatusInactive
			return map[string]domain.Product{"prd_1": product}, nil
		}

		svc := f.build(t)

		if _, err := svc.Create(context.Background(), validCreateCommand()); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
		}
	})

	t.Run("missing product maps to not found", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.products.findByIDsFn = func(context.Context, []string) (map[string]domain.Product, error) {
			return map[string]domain.Product{}, nil
		}

		svc := f.build(t)

		if _, err := svc.Create(context.Background(), validCreateCommand()); !errors.Is(err, ErrInventoryProductNotFound) {
			t.Fatalf("expected ErrInventoryProductNotFound, got %v", err)
		}
	})
}

func TestOrderServiceTransition(t *testing.T) {
	customer := "usr_1"

	pendingOrder := func() domain.Order {
		return domain.Order{
			ID:          "ord_1",
			CustomerID:  &customer,
			OrderNumber: "RL-20260314-ABCDEF",
			Status:      domain.OrderStatusPending,
			TotalAmount: decimal.RequireFromString("21.00"),
			Items: []domain.OrderItem{
				{ID: "itm_1", OrderID: "ord_1", ProductID: "prd_1", Size: domain.SizeSmall, Quantity: 3},
			},
			CreatedAt: testNow.Add(-time.Hour),
		}
	}

	t.Run("allowed transition updates and appends history", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return pendingOrder(), nil
		}
		var updated domain.Order
		f.orders.updateFn = func(_ context.Context, order domain.Order) error {
			updated = order
			return nil
		}
		var appended domain.OrderHistoryEntry
		f.history.appendFn = func(_ context.Context, entry domain.OrderHistoryEntry) error {
			appended = entry
			return nil
		}

		svc := f.build(t)

		order, err := svc.Transition(context.Background(), TransitionOrderCommand{
			OrderID:      "ord_1",
			TargetStatus: domain.OrderStatusConfirmed,
			ActorID:      "adm_1",
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}

		if order.Status != domain.OrderStatusConfirmed || updated.Status != domain.OrderStatusConfirmed {
			t.Fatalf("status = %q / %q, want Confirmed", order.Status, updated.Status)
		}
		if appended.Status != domain.OrderStatusConfirmed {
			t.Fatalf("history status = %q", appended.Status)
		}
		if appended.Notes == "" {
			t.Fatalf("expected a default history note")
		}
		if len(f.events.events) != 1 || f.events.events[0].PreviousStatus != domain.OrderStatusPending {
			t.Fatalf("events = %+v", f.events.events)
		}
	})

	t.Run("skipping a state is rejected before any mutation", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return pendingOrder(), nil
		}
		f.orders.updateFn = func(context.Context, domain.Order) error {
			t.Fatalf("update must not run for a rejected transition")
			return nil
		}

		svc := f.build(t)

		_, err := svc.Transition(context.Background(), TransitionOrderCommand{
			OrderID:      "ord_1",
			TargetStatus: domain.OrderStatusProcessing,
		})
		if !errors.Is(err, ErrOrderInvalidTransition) {
			t.Fatalf("expected ErrOrderInvalidTransition, got %v", err)
		}
	})

	t.Run("status checks run against the in-transaction read", func(t *testing.T) {
		f := newOrderServiceFixture()
		unit := &stampingUnitOfWork{}
		f.orders.findFn = func(ctx context.Context, _ string) (domain.Order, error) {
			if !unit.stamped(ctx) {
				t.Fatalf("order must be read inside the transaction")
			}
			cancelled := pendingOrder()
			cancelled.Status = domain.OrderStatusCancelled
			cancelled.StockRestored = true
			return cancelled, nil
		}
		f.products.adjustFn = func(context.Context, string, domain.ProductSize, int) error {
			t.Fatalf("stock must not move when the order was cancelled concurrently")
			return nil
		}

		inventory, _ := NewInventoryService(InventoryServiceDeps{Products: f.products})
		loyalty, _ := NewLoyaltyService(LoyaltyServiceDeps{Profiles: f.profiles})
		svc, err := NewOrderService(OrderServiceDeps{
			Orders:      f.orders,
			History:     f.history,
			Products:    f.products,
			Inventory:   inventory,
			Loyalty:     loyalty,
			UnitOfWork:  unit,
			Clock:       fixedClock(testNow),
			IDGenerator: sequentialIDs("seq"),
		})
		if err != nil {
			t.Fatalf("build order service: %v", err)
		}

		_, err = svc.Cancel(context.Background(), CancelOrderCommand{OrderID: "ord_1"})
		if !errors.Is(err, ErrOrderInvalidTransition) {
			t.Fatalf("expected ErrOrderInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown status is invalid input", func(t *testing.T) {
		f := newOrderServiceFixture()
		svc := f.build(t)

		_, err := svc.Transition(context.Background(), TransitionOrderCommand{
			OrderID:      "ord_1",
			TargetStatus: domain.OrderStatus("Teleported"),
		})
		if !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
		}
	})

	t.Run("missing order maps to not found", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, stubRepoError{notFound: true}
		}

		svc := f.build(t)

		_, err := svc.Transition(context.Background(), TransitionOrderCommand{
			OrderID:      "ord_missing",
			TargetStatus: domain.OrderStatusConfirmed,
		})
		if !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("cancellation restores stock and refunds points once", func(t *testing.T) {
		f := newOrderServiceFixture()
		order := pendingOrder()
		order.LoyaltyPointsUsed = 4
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return order, nil
		}

		adjustments := map[string]int{}
		f.products.adjustFn = func(_ context.Context, productID string, size domain.ProductSize, delta int) error {
			adjustments[productID+"/"+string(size)] += delta
			return nil
		}

		profile := domain.Profile{ID: "prf_1", UserID: customer, LoyaltyPoints: 1, LoyaltyPointsUsed: 4}
		f.profiles.findFn = func(context.Context, string) (domain.Profile, error) {
			return profile, nil
		}
		var savedProfile domain.Profile
		f.profiles.updateFn = func(_ context.Context, p domain.Profile) error {
			savedProfile = p
			return nil
		}

		var updated domain.Order
		f.orders.updateFn = func(_ context.Context, o domain.Order) error {
			updated = o
			return nil
		}

		svc := f.build(t)

		if _, err := svc.Cancel(context.Background(), CancelOrderCommand{OrderID: "ord_1", ActorID: "adm_1"}); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if adjustments["prd_1/small"] != 3 {
			t.Fatalf("stock adjustment = %d, want +3", adjustments["prd_1/small"])
		}
		if !updated.StockRestored {
			t.Fatalf("expected stock_restored to be set")
		}
		if savedProfile.LoyaltyPoints != 5 || savedProfile.LoyaltyPointsUsed != 0 {
			t.Fatalf("profile after refund = %+v", savedProfile)
		}
	})

	t.Run("re-cancelling a cancelled order never double-restores", func(t *testing.T) {
		f := newOrderServiceFixture()
		order := pendingOrder()
		order.Status = domain.OrderStatusCancelled
		order.StockRestored = true
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return order, nil
		}
		f.products.adjustFn = func(context.Context, string, domain.ProductSize, int) error {
			t.Fatalf("stock must not be adjusted for a rejected transition")
			return nil
		}

		svc := f.build(t)

		_, err := svc.Cancel(context.Background(), CancelOrderCommand{OrderID: "ord_1"})
		if !errors.Is(err, ErrOrderInvalidTransition) {
			t.Fatalf("expected ErrOrderInvalidTransition, got %v", err)
		}
	})

	t.Run("sanitises operator notes", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return pendingOrder(), nil
		}
		var appended domain.OrderHistoryEntry
		f.history.appendFn = func(_ context.Context, entry domain.OrderHistoryEntry) error {
			appended = entry
			return nil
		}

		inventory, _ := NewInventoryService(InventoryServiceDeps{Products: f.products})
		loyalty, _ := NewLoyaltyService(LoyaltyServiceDeps{Profiles: f.profiles})
		svc, err := NewOrderService(OrderServiceDeps{
			Orders:      f.orders,
			History:     f.history,
			Products:    f.products,
			Inventory:   inventory,
			Loyalty:     loyalty,
			UnitOfWork:  f.unit,
			Clock:       fixedClock(testNow),
			IDGenerator: sequentialIDs("seq"),
			Sanitizer:   upperSanitizer{},
		})
		if err != nil {
			t.Fatalf("build order service: %v", err)
		}

		if _, err := svc.Transition(context.Background(), TransitionOrderCommand{
			OrderID:      "ord_1",
			TargetStatus: domain.OrderStatusConfirmed,
			Notes:        "customer called",
		}); err != nil {
			t.Fatalf("transition: %v", err)
		}

		if appended.Notes != "CUSTOMER CALLED" {
			t.Fatalf("notes = %q, want sanitiser applied", appended.Notes)
		}
	})
}

type upperSanitizer struct{}

func (upperSanitizer) Sanitize(s string) string { return strings.ToUpper(s) }

func TestOrderServiceDelete(t *testing.T) {
	customer := "usr_1"

	order := func() domain.Order {
		return domain.Order{
			ID:                "ord_1",
			CustomerID:        &customer,
			Status:            domain.OrderStatusPending,
			TotalAmount:       decimal.RequireFromString("150"),
			LoyaltyPointsUsed: 10,
			Items: []domain.OrderItem{
				{ID: "itm_1", OrderID: "ord_1", ProductID: "prd_1", Size: domain.SizeSmall, Quantity: 2},
			},
		}
	}

	t.Run("completed orders cannot be purged", func(t *testing.T) {
		f := newOrderServiceFixture()
		done := order()
		done.Status = domain.OrderStatusCompleted
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return done, nil
		}

		svc := f.build(t)

		_, err := svc.Delete(context.Background(), DeleteOrderCommand{OrderID: "ord_1"})
		if !errors.Is(err, ErrOrderConflict) {
			t.Fatalf("expected ErrOrderConflict, got %v", err)
		}
	})

	t.Run("purge restores stock, reconciles loyalty and removes every row", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return order(), nil
		}

		adjustments := map[string]int{}
		f.products.adjustFn = func(_ context.Context, productID string, size domain.ProductSize, delta int) error {
			adjustments[productID+"/"+string(size)] += delta
			return nil
		}

		profile := domain.Profile{ID: "prf_1", UserID: customer, LoyaltyPoints: 5, LoyaltyPointsUsed: 10}
		f.profiles.findFn = func(context.Context, string) (domain.Profile, error) {
			return profile, nil
		}
		var savedProfile domain.Profile
		f.profiles.updateFn = func(_ context.Context, p domain.Profile) error {
			savedProfile = p
			return nil
		}

		historyDeleted := false
		f.history.deleteFn = func(context.Context, string) error {
			historyDeleted = true
			return nil
		}
		aggregateDeleted := false
		f.orders.deleteFn = func(context.Context, string) error {
			aggregateDeleted = true
			return nil
		}

		svc := f.build(t)

		result, err := svc.Delete(context.Background(), DeleteOrderCommand{OrderID: "ord_1", ActorID: "adm_1"})
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if !result.Purged {
			t.Fatalf("expected purged result")
		}

		if adjustments["prd_1/small"] != 2 {
			t.Fatalf("stock adjustment = %d, want +2", adjustments["prd_1/small"])
		}
		// total 150 earns 15; 10 were used: net -5 against a balance of 5.
		if savedProfile.LoyaltyPoints != 0 || savedProfile.LoyaltyPointsUsed != 0 {
			t.Fatalf("profile after reversal = %+v", savedProfile)
		}
		if !historyDeleted || !aggregateDeleted {
			t.Fatalf("history deleted = %v, aggregate deleted = %v", historyDeleted, aggregateDeleted)
		}
		if f.unit.calls != 1 {
			t.Fatalf("expected one transaction, got %d", f.unit.calls)
		}
	})

	t.Run("purge decides restoration from the in-transaction read", func(t *testing.T) {
		f := newOrderServiceFixture()
		unit := &stampingUnitOfWork{}
		f.orders.findFn = func(ctx context.Context, _ string) (domain.Order, error) {
			if !unit.stamped(ctx) {
				t.Fatalf("order must be read inside the transaction")
			}
			cancelled := order()
			cancelled.Status = domain.OrderStatusCancelled
			cancelled.StockRestored = true
			return cancelled, nil
		}
		f.products.adjustFn = func(context.Context, string, domain.ProductSize, int) error {
			t.Fatalf("stock must not move when cancellation already restored it")
			return nil
		}
		f.profiles.updateFn = func(context.Context, domain.Profile) error {
			t.Fatalf("loyalty must not move when cancellation already reconciled it")
			return nil
		}

		inventory, _ := NewInventoryService(InventoryServiceDeps{Products: f.products})
		loyalty, _ := NewLoyaltyService(LoyaltyServiceDeps{Profiles: f.profiles})
		svc, err := NewOrderService(OrderServiceDeps{
			Orders:      f.orders,
			History:     f.history,
			Products:    f.products,
			Inventory:   inventory,
			Loyalty:     loyalty,
			UnitOfWork:  unit,
			Clock:       fixedClock(testNow),
			IDGenerator: sequentialIDs("seq"),
		})
		if err != nil {
			t.Fatalf("build order service: %v", err)
		}

		if _, err := svc.Delete(context.Background(), DeleteOrderCommand{OrderID: "ord_1"}); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})

	t.Run("purging a cancelled order skips ledger restoration", func(t *testing.T) {
		f := newOrderServiceFixture()
		cancelled := order()
		cancelled.Status = domain.OrderStatusCancelled
		cancelled.StockRestored = true
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return cancelled, nil
		}
		f.products.adjustFn = func(context.Context, string, domain.ProductSize, int) error {
			t.Fatalf("stock already restored at cancellation")
			return nil
		}
		f.profiles.updateFn = func(context.Context, domain.Profile) error {
			t.Fatalf("loyalty already reconciled at cancellation")
			return nil
		}

		svc := f.build(t)

		if _, err := svc.Delete(context.Background(), DeleteOrderCommand{OrderID: "ord_1"}); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})
}

func TestOrderServiceDismiss(t *testing.T) {
	t.Run("stamps the dismissal without touching ledgers", func(t *testing.T) {
		f := newOrderServiceFixture()
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return domain.Order{ID: "ord_1", Status: domain.OrderStatusProcessing}, nil
		}
		var dismissedID string
		f.orders.setDismissFn = func(_ context.Context, orderID string, _ time.Time) error {
			dismissedID = orderID
			return nil
		}

		svc := f.build(t)

		if err := svc.Dismiss(context.Background(), DismissOrderCommand{OrderID: "ord_1"}); err != nil {
			t.Fatalf("dismiss: %v", err)
		}
		if dismissedID != "ord_1" {
			t.Fatalf("dismissed id = %q", dismissedID)
		}
	})

	t.Run("dismissing twice is a no-op", func(t *testing.T) {
		f := newOrderServiceFixture()
		already := testNow.Add(-time.Hour)
		f.orders.findFn = func(context.Context, string) (domain.Order, error) {
			return domain.Order{ID: "ord_1", DismissedAt: &already}, nil
		}
		f.orders.setDismissFn = func(context.Context, string, time.Time) error {
			t.Fatalf("dismiss must not run twice")
			return nil
		}

		svc := f.build(t)

		if err := svc.Dismiss(context.Background(), DismissOrderCommand{OrderID: "ord_1"}); err != nil {
			t.Fatalf("dismiss: %v", err)
		}
	})
}
