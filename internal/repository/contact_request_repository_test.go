package repository

import (
	"testing"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
)

func TestContactRequestGetPendingWithoutRowsReturnsNil(t *testing.T) {
	repo := NewContactRequestRepository(setupRepositoryTest(t))

	pending, err := repo.GetPending("402-1111111-2222222", constants.ContactReasonInventoryExhausted)
	if err != nil {
		t.Fatalf("empty lookup should not fail: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected nil pending request, got %+v", pending)
	}

	request := &models.ContactRequest{
		OrderID: "402-1111111-2222222",
		Email:   "buyer@example.com",
		Reason:  constants.ContactReasonInventoryExhausted,
		Status:  constants.ContactStatusPending,
	}
	if err := repo.Create(request); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	pending, err = repo.GetPending("402-1111111-2222222", constants.ContactReasonInventoryExhausted)
	if err != nil || pending == nil || pending.ID != request.ID {
		t.Fatalf("pending request not found, got %+v err=%v", pending, err)
	}

	closed, err := repo.MarkClosed(request.ID, "refunded", time.Now())
	if err != nil || !closed {
		t.Fatalf("close should succeed, ok=%v err=%v", closed, err)
	}
	pending, err = repo.GetPending("402-1111111-2222222", constants.ContactReasonInventoryExhausted)
	if err != nil || pending != nil {
		t.Fatalf("closed request must not be pending, got %+v err=%v", pending, err)
	}
	if again, err := repo.MarkClosed(request.ID, "refunded", time.Now()); err != nil || again {
		t.Fatalf("second close must be a noop, ok=%v err=%v", again, err)
	}
}
