package handlers

import (
	"context"
	"errors"
	"time"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/services"
)

type stubOrderService struct {
	createFn     func(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error)
	getFn        func(ctx context.Context, orderID string) (domain.Order, error)
	listFn       func(ctx context.Context, filter services.OrderListFilter) (domain.Page[domain.Order], error)
	historyFn    func(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error)
	transitionFn func(ctx context.Context, cmd services.TransitionOrderCommand) (domain.Order, error)
	cancelFn     func(ctx context.Context, cmd services.CancelOrderCommand) (domain.Order, error)
	deleteFn     func(ctx context.Context, cmd services.DeleteOrderCommand) (services.DeleteOrderResult, error)
	dismissFn    func(ctx context.Context, cmd services.DismissOrderCommand) error
}

func (s *stubOrderService) Create(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	if s.createFn == nil {
		return domain.Order{}, errors.New("unexpected Create call")
	}
	return s.createFn(ctx, cmd)
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn == nil {
		return domain.Order{}, errors.New("unexpected Get call")
	}
	return s.getFn(ctx, orderID)
}

func (s *stubOrderService) List(ctx context.Context, filter services.OrderListFilter) (domain.Page[domain.Order], error) {
	if s.listFn == nil {
		return domain.Page[domain.Order]{}, errors.New("unexpected List call")
	}
	return s.listFn(ctx, filter)
}

func (s *stubOrderService) History(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error) {
	if s.historyFn == nil {
		return nil, errors.New("unexpected History call")
	}
	return s.historyFn(ctx, orderID)
}

func (s *stubOrderService) Transition(ctx context.Context, cmd services.TransitionOrderCommand) (domain.Order, error) {
	if s.transitionFn == nil {
		return domain.Order{}, errors.New("unexpected Transition call")
	}
	return s.transitionFn(ctx, cmd)
}

func (s *stubOrderService) Cancel(ctx context.Context, cmd services.CancelOrderCommand) (domain.Order, error) {
	if s.cancelFn == nil {
		return domain.Order{}, errors.New("unexpected Cancel call")
	}
	return s.cancelFn(ctx, cmd)
}

func (s *stubOrderService) Delete(ctx context.Context, cmd services.DeleteOrderCommand) (services.DeleteOrderResult, error) {
	if s.deleteFn == nil {
		return services.DeleteOrderResult{}, errors.New("unexpected Delete call")
	}
	return s.deleteFn(ctx, cmd)
}

func (s *stubOrderService) Dismiss(ctx context.Context, cmd services.DismissOrderCommand) error {
	if s.dismissFn == nil {
		return errors.New("unexpected Dismiss call")
	}
	return s.dismissFn(ctx, cmd)
}

type stubCatalogService struct {
	createFn  func(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error)
	updateFn  func(ctx context.Context, cmd services.UpdateProductCommand) (domain.Product, error)
	statusFn  func(ctx context.Context, productID string, status domain.ProductStatus, actorID string) (domain.Product, error)
	restockFn func(ctx context.Context, cmd services.RestockCommand) (domain.Product, error)
	getFn     func(ctx context.Context, productID string) (domain.Product, error)
	listFn    func(ctx context.Context, filter services.ProductListFilter) (domain.Page[domain.Product], error)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error) {
	if s.createFn == nil {
		return domain.Product{}, errors.New("unexpected CreateProduct call")
	}
	return s.createFn(ctx, cmd)
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, cmd services.UpdateProductCommand) (domain.Product, error) {
	if s.updateFn == nil {
		return domain.Product{}, errors.New("unexpected UpdateProduct call")
	}
	return s.updateFn(ctx, cmd)
}

func (s *stubCatalogService) SetProductStatus(ctx context.Context, productID string, status domain.ProductStatus, actorID string) (domain.Product, error) {
	if s.statusFn == nil {
		return domain.Product{}, errors.New("unexpected SetProductStatus call")
	}
	return s.statusFn(ctx, productID, status, actorID)
}

func (s *stubCatalogService) Restock(ctx context.Context, cmd services.RestockCommand) (domain.Product, error) {
	if s.restockFn == nil {
		return domain.Product{}, errors.New("unexpected Restock call")
	}
	return s.restockFn(ctx, cmd)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getFn == nil {
		return domain.Product{}, errors.New("unexpected GetProduct call")
	}
	return s.getFn(ctx, productID)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.ProductListFilter) (domain.Page[domain.Product], error) {
	if s.listFn == nil {
		return domain.Page[domain.Product]{}, errors.New("unexpected ListProducts call")
	}
	return s.listFn(ctx, filter)
}

type stubSweepService struct {
	sweepFn func(ctx context.Context, threshold time.Duration) (services.SweepReport, error)
}

func (s *stubSweepService) SweepStalePending(ctx context.Context, threshold time.Duration) (services.SweepReport, error) {
	if s.sweepFn == nil {
		return services.SweepReport{}, errors.New("unexpected SweepStalePending call")
	}
	return s.sweepFn(ctx, threshold)
}

type stubPinger struct {
	pingFn func(ctx context.Context) error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	if s.pingFn == nil {
		return nil
	}
	return s.pingFn(ctx)
}
