package service

import (
	"context"
	"errors"
	"testing"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
)

func TestSetFlags(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.createOrder(t, models.MarketplaceOrder{OrderID: "999-0000000-0000001", ProductCode: "WIN11PRO"})
	ctx := context.Background()

	blocked := true
	reason := "chargeback"
	order, err := f.orders.SetFlags(ctx, "999-0000000-0000001", OrderFlagsInput{IsBlocked: &blocked, BlockReason: &reason})
	if err != nil {
		t.Fatalf("set flags failed: %v", err)
	}
	if !order.IsBlocked || order.BlockReason != "chargeback" {
		t.Fatalf("block not applied: %+v", order)
	}

	unblocked := false
	delivered := "delivered"
	order, err = f.orders.SetFlags(ctx, "999-0000000-0000001", OrderFlagsInput{IsBlocked: &unblocked, ShipmentStatus: &delivered})
	if err != nil {
		t.Fatalf("set flags failed: %v", err)
	}
	if order.IsBlocked || order.BlockReason != "" || order.ShipmentStatus != constants.ShipmentStatusDelivered {
		t.Fatalf("unexpected flags: %+v", order)
	}

	bogus := "LOST"
	if _, err := f.orders.SetFlags(ctx, "999-0000000-0000001", OrderFlagsInput{ShipmentStatus: &bogus}); !errors.Is(err, ErrOrderFlagsInvalid) {
		t.Fatalf("expected ErrOrderFlagsInvalid, got %v", err)
	}
	if _, err := f.orders.SetFlags(ctx, "999-0000000-0000001", OrderFlagsInput{}); !errors.Is(err, ErrOrderFlagsInvalid) {
		t.Fatalf("empty update should be rejected, got %v", err)
	}
	if _, err := f.orders.SetFlags(ctx, "999-0000000-0000404", OrderFlagsInput{IsBlocked: &blocked}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
