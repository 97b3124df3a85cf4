package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

func ledgerItems() []domain.OrderItem {
	return []domain.OrderItem{
		{ID: "itm_1", OrderID: "ord_1", ProductID: "prd_1", Size: domain.SizeSmall, Quantity: 2},
		{ID: "itm_2", OrderID: "ord_1", ProductID: "prd_2", Size: domain.SizeLarge, Quantity: 1},
	}
}

func TestInventoryServiceDeduct(t *testing.T) {
	t.Run("decrements every line item", func(t *testing.T) {
		products := &stubProductRepo{}
		deltas := map[string]int{}
		products.adjustFn = func(_ context.Context, productID string, size domain.ProductSize, delta int) error {
			deltas[productID+"/"+string(size)] += delta
			return nil
		}

		svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
		if err != nil {
			t.Fatalf("build inventory service: %v", err)
		}

		if err := svc.Deduct(context.Background(), ledgerItems()); err != nil {
			t.Fatalf("deduct: %v", err)
		}

		if deltas["prd_1/small"] != -2 || deltas["prd_2/large"] != -1 {
			t.Fatalf("deltas = %v", deltas)
		}
	})

	t.Run("maps insufficient stock", func(t *testing.T) {
		products := &stubProductRepo{
			adjustFn: func(context.Context, string, domain.ProductSize, int) error {
				return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, "", nil)
			},
		}

		svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
		if err != nil {
			t.Fatalf("build inventory service: %v", err)
		}

		err = svc.Deduct(context.Background(), ledgerItems())
		if !errors.Is(err, ErrInventoryInsufficientStock) {
			t.Fatalf("expected ErrInventoryInsufficientStock, got %v", err)
		}
	})

	t.Run("maps missing product", func(t *testing.T) {
		products := &stubProductRepo{
			adjustFn: func(context.Context, string, domain.ProductSize, int) error {
				return repositories.NewInventoryError(repositories.InventoryErrorProductNotFound, "", nil)
			},
		}

		svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
		if err != nil {
			t.Fatalf("build inventory service: %v", err)
		}

		err = svc.Deduct(context.Background(), ledgerItems())
		if !errors.Is(err, ErrInventoryProductNotFound) {
			t.Fatalf("expected ErrInventoryProductNotFound, got %v", err)
		}
	})

	t.Run("rejects empty and malformed items", func(t *testing.T) {
		svc, err := NewInventoryService(InventoryServiceDeps{Products: &stubProductRepo{}})
		if err != nil {
			t.Fatalf("build inventory service: %v", err)
		}

		cases := []struct {
			name  string
			items []domain.OrderItem
		}{
			{"no items", nil},
			{"missing product id", []domain.OrderItem{{Size: domain.SizeSmall, Quantity: 1}}},
			{"bad size", []domain.OrderItem{{ProductID: "prd_1", Size: "venti", Quantity: 1}}},
			{"zero quantity", []domain.OrderItem{{ProductID: "prd_1", Size: domain.SizeSmall, Quantity: 0}}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if err := svc.Deduct(context.Background(), tc.items); !errors.Is(err, ErrInventoryInvalidInput) {
					t.Fatalf("expected ErrInventoryInvalidInput, got %v", err)
				}
			})
		}
	})
}

func TestInventoryServiceRestore(t *testing.T) {
	products := &stubProductRepo{}
	deltas := map[string]int{}
	products.adjustFn = func(_ context.Context, productID string, size domain.ProductSize, delta int) error {
		deltas[productID+"/"+string(size)] += delta
		return nil
	}

	svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
	if err != nil {
		t.Fatalf("build inventory service: %v", err)
	}

	if err := svc.Restore(context.Background(), ledgerItems()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if deltas["prd_1/small"] != 2 || deltas["prd_2/large"] != 1 {
		t.Fatalf("deltas = %v", deltas)
	}
}
