package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

const (
	eventInventoryDeduct  = "inventory.deduct"
	eventInventoryRestore = "inventory.restore"
)

var (
	// ErrInventoryInvalidInput signals the caller provided invalid arguments.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryInsufficientStock indicates a decrement would drive a quantity below zero.
	ErrInventoryInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInventoryProductNotFound indicates a line item references a missing product.
	ErrInventoryProductNotFound = errors.New("inventory: product not found")
)

// InventoryServiceDeps bundles the collaborators required to construct an inventory service.
type InventoryServiceDeps struct {
	Products repositories.ProductRepository
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	products repositories.ProductRepository
	logger   func(context.Context, string, map[string]any)
}

// NewInventoryService wires dependencies into a concrete InventoryService implementation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Products == nil {
		return nil, errors.New("inventory service: product repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &inventoryService{
		products: deps.Products,
		logger:   logger,
	}, nil
}

// Deduct decrements the {size}_quantity ledger for every line item. The
// caller runs it inside a transaction, so a failed decrement leaves no
// partial deduction behind.
func (s *inventoryService) Deduct(ctx context.Context, items []domain.OrderItem) error {
	if err := validateLedgerItems(items); err != nil {
		return err
	}
	for _, item := range items {
		if err := s.adjust(ctx, eventInventoryDeduct, item, -item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Restore increments the {size}_quantity ledger for every line item.
// Callers guard against double restoration; this method applies the
// deltas unconditionally.
func (s *inventoryService) Restore(ctx context.Context, items []domain.OrderItem) error {
	if err := validateLedgerItems(items); err != nil {
		return err
	}
	for _, item := range items {
		if err := s.adjust(ctx, eventInventoryRestore, item, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *inventoryService) adjust(ctx context.Context, event string, item domain.OrderItem, delta int) error {
	err := s.products.AdjustStock(ctx, item.ProductID, item.Size, delta)
	if err == nil {
		return nil
	}

	mapped := s.mapLedgerError(err, item)
	s.logger(ctx, event+".failed", map[string]any{
		"product": item.ProductID,
		"size":    string(item.Size),
		"delta":   delta,
		"error":   mapped.Error(),
	})
	return mapped
}

func (s *inventoryService) mapLedgerError(err error, item domain.OrderItem) error {
	var invErr *repositories.InventoryError
	if errors.As(err, &invErr) {
		switch invErr.Code {
		case repositories.InventoryErrorInsufficientStock:
			return fmt.Errorf("%w: product %s size %s", ErrInventoryInsufficientStock, item.ProductID, item.Size)
		case repositories.InventoryErrorProductNotFound:
			return fmt.Errorf("%w: product %s", ErrInventoryProductNotFound, item.ProductID)
		case repositories.InventoryErrorInvalidSize:
			return fmt.Errorf("%w: size %q", ErrInventoryInvalidInput, item.Size)
		}
	}
	return err
}

func validateLedgerItems(items []domain.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInventoryInvalidInput)
	}
	for _, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: item product id is required", ErrInventoryInvalidInput)
		}
		if !domain.ValidSize(item.Size) {
			return fmt.Errorf("%w: size %q", ErrInventoryInvalidInput, item.Size)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInventoryInvalidInput)
		}
	}
	return nil
}
