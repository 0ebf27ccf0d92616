package service

import (
	"context"
	"errors"
	"testing"

	"github.com/licensedesk/internal/constants"
)

func TestDeliveryDelayFallbackChain(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	hours, err := f.delivery.DelayHours(ctx, "Ohio")
	if err != nil || hours != 96 {
		t.Fatalf("expected configured default 96, got %d err=%v", hours, err)
	}
	if err := f.delivery.Upsert(ctx, constants.DeliveryDelayDefaultState, 72); err != nil {
		t.Fatalf("upsert default failed: %v", err)
	}
	if err := f.delivery.Upsert(ctx, " hawaii ", 200); err != nil {
		t.Fatalf("upsert state failed: %v", err)
	}
	if hours, _ := f.delivery.DelayHours(ctx, "Ohio"); hours != 72 {
		t.Fatalf("expected DEFAULT row 72, got %d", hours)
	}
	if hours, _ := f.delivery.DelayHours(ctx, "HAWAII"); hours != 200 {
		t.Fatalf("expected state row 200, got %d", hours)
	}
	if err := f.delivery.Upsert(ctx, "HAWAII", 150); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if hours, _ := f.delivery.DelayHours(ctx, "hawaii"); hours != 150 {
		t.Fatalf("expected overwritten 150, got %d", hours)
	}
	if err := f.delivery.Upsert(ctx, "", 10); !errors.Is(err, ErrDeliveryDelayInvalid) {
		t.Fatalf("expected ErrDeliveryDelayInvalid, got %v", err)
	}
	if err := f.delivery.Upsert(ctx, "OHIO", -1); !errors.Is(err, ErrDeliveryDelayInvalid) {
		t.Fatalf("expected ErrDeliveryDelayInvalid, got %v", err)
	}
}
