package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

type stubOrderRepo struct {
	insertFn     func(context.Context, domain.Order) error
	updateFn     func(context.Context, domain.Order) error
	findFn       func(context.Context, string) (domain.Order, error)
	listFn       func(context.Context, repositories.OrderListFilter) (domain.Page[domain.Order], error)
	listStaleFn  func(context.Context, time.Time) ([]domain.Order, error)
	setDismissFn func(context.Context, string, time.Time) error
	deleteFn     func(context.Context, string) error
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.Page[domain.Order]{}, nil
}

func (s *stubOrderRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	if s.listStaleFn != nil {
		return s.listStaleFn(ctx, olderThan)
	}
	return nil, nil
}

func (s *stubOrderRepo) SetDismissed(ctx context.Context, orderID string, dismissedAt time.Time) error {
	if s.setDismissFn != nil {
		return s.setDismissFn(ctx, orderID, dismissedAt)
	}
	return nil
}

func (s *stubOrderRepo) DeleteAggregate(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

type stubHistoryRepo struct {
	appendFn func(context.Context, domain.OrderHistoryEntry) error
	listFn   func(context.Context, string) ([]domain.OrderHistoryEntry, error)
	deleteFn func(context.Context, string) error
}

func (s *stubHistoryRepo) Append(ctx context.Context, entry domain.OrderHistoryEntry) error {
	if s.appendFn != nil {
		return s.appendFn(ctx, entry)
	}
	return nil
}

func (s *stubHistoryRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID)
	}
	return nil, nil
}

func (s *stubHistoryRepo) DeleteByOrder(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

type stubProductRepo struct {
	insertFn    func(context.Context, domain.Product) error
	updateFn    func(context.Context, domain.Product) error
	findFn      func(context.Context, string) (domain.Product, error)
	findByIDsFn func(context.Context, []string) (map[string]domain.Product, error)
	listFn      func(context.Context, repositories.ProductListFilter) (domain.Page[domain.Product], error)
	adjustFn    func(context.Context, string, domain.ProductSize, int) error
}

func (s *stubProductRepo) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) Update(ctx context.Context, product domain.Product) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findFn != nil {
		return s.findFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	if s.findByIDsFn != nil {
		return s.findByIDsFn(ctx, productIDs)
	}
	return map[string]domain.Product{}, nil
}

func (s *stubProductRepo) List(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.Page[domain.Product]{}, nil
}

func (s *stubProductRepo) AdjustStock(ctx context.Context, productID string, size domain.ProductSize, delta int) error {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, productID, size, delta)
	}
	return nil
}

type stubProfileRepo struct {
	findFn   func(context.Context, string) (domain.Profile, error)
	updateFn func(context.Context, domain.Profile) error
}

func (s *stubProfileRepo) FindByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	if s.findFn != nil {
		return s.findFn(ctx, userID)
	}
	return domain.Profile{}, errors.New("not implemented")
}

func (s *stubProfileRepo) UpdateLoyalty(ctx context.Context, profile domain.Profile) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, profile)
	}
	return nil
}

type countingUnitOfWork struct {
	calls int
}

func (u *countingUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	u.calls++
	return fn(ctx)
}

// stampingUnitOfWork marks the context handed to fn so tests can assert
// that repository reads happen inside the transaction.
type stampingUnitOfWork struct{}

type txStampKey struct{}

func (stampingUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(context.WithValue(ctx, txStampKey{}, true))
}

func (stampingUnitOfWork) stamped(ctx context.Context) bool {
	marked, _ := ctx.Value(txStampKey{}).(bool)
	return marked
}

type captureOrderEvents struct {
	events []OrderEvent
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return nil
}

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return "stub repository error" }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%03d", prefix, n)
	}
}
