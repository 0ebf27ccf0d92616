package service

import (
	"context"
	"errors"
	"testing"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
)

func TestRedeemRefundGating(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.seedKeyRange(t, "WIN11PRO", 2)
	f.createOrder(t, models.MarketplaceOrder{OrderID: "888-0000000-0000001", ProductCode: "WIN11PRO", FulfillmentType: constants.FulfillmentTypeAmazonFBA, IsRefunded: true})
	f.createOrder(t, models.MarketplaceOrder{OrderID: "888-0000000-0000002", ProductCode: "WIN11PRO", FulfillmentType: constants.FulfillmentTypeSellerEasyShip, IsRefunded: true})
	ctx := context.Background()

	blocked, err := f.redemption.Redeem(ctx, "888-0000000-0000001")
	if err != nil {
		t.Fatalf("redeem refunded platform order failed: %v", err)
	}
	if blocked.Eligibility.Status != constants.EligibilityBlocked || blocked.Redemption != nil {
		t.Fatalf("refunded platform order must not receive keys: %+v", blocked)
	}

	allowed, err := f.redemption.Redeem(ctx, "888-0000000-0000002")
	if err != nil {
		t.Fatalf("redeem refunded merchant order failed: %v", err)
	}
	if allowed.Redemption == nil || len(allowed.Redemption.Licenses) != 1 {
		t.Fatalf("merchant-fulfilled refund is not gated: %+v", allowed)
	}
	if stats := f.stats(t, "WIN11PRO"); stats.Redeemed != 1 {
		t.Fatalf("unexpected pool stats: %+v", stats)
	}
}

func TestRedeemRepeatReportsAlreadyRedeemed(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.seedKeyRange(t, "WIN11PRO", 2)
	f.createOrder(t, models.MarketplaceOrder{OrderID: "888-0000000-0000003", ProductCode: "WIN11PRO"})
	ctx := context.Background()

	first, err := f.redemption.Redeem(ctx, "888-0000000-0000003")
	if err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	second, err := f.redemption.Redeem(ctx, "888-0000000-0000003")
	if err != nil {
		t.Fatalf("second redeem failed: %v", err)
	}
	if second.Eligibility.Status != constants.EligibilityAlreadyRedeemed || second.Redemption.Status != constants.RedemptionStatusAlreadyRedeemed {
		t.Fatalf("unexpected repeat result: %+v", second)
	}
	if second.Redemption.Licenses[0].Key != first.Redemption.Licenses[0].Key {
		t.Fatalf("repeat must return the same key")
	}
}

func TestRedeemInventoryExhaustedAsksForContact(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "WIN11PRO", constants.ProductKindLicenseKey)
	f.createOrder(t, models.MarketplaceOrder{OrderID: "888-0000000-0000004", ProductCode: "WIN11PRO"})

	result, err := f.redemption.Redeem(context.Background(), "888-0000000-0000004")
	if !errors.Is(err, ErrInventoryExhausted) {
		t.Fatalf("expected ErrInventoryExhausted, got %v", err)
	}
	if result == nil || result.Redemption == nil || !result.Redemption.NeedsContact {
		t.Fatalf("expected needs_contact result, got %+v", result)
	}
}

func TestRedeemSubscriptionSkipsAllocation(t *testing.T) {
	f := setupServiceTest(t)
	f.createProduct(t, "M365", constants.ProductKindSubscription)
	f.createOrder(t, models.MarketplaceOrder{OrderID: "888-0000000-0000005", ProductCode: "M365", SubscriptionActive: true})

	result, err := f.redemption.Redeem(context.Background(), "888-0000000-0000005")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Eligibility.Route != constants.ProductKindSubscription || result.Redemption != nil {
		t.Fatalf("subscription route should not allocate keys: %+v", result)
	}
}
