package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/licensedesk/internal/activation"
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/provider"
	"github.com/licensedesk/internal/queue"
	"github.com/licensedesk/internal/repository"
	"github.com/licensedesk/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(
		&models.Product{},
		&models.MarketplaceOrder{},
		&models.LicenseKey{},
		&models.ActivationAttempt{},
		&models.ReplacementRequest{},
		&models.ContactRequest{},
		&models.DeliveryDelay{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	keyRepo := repository.NewLicenseKeyRepository(db)
	contactRepo := repository.NewContactRequestRepository(db)
	catalog := service.NewCatalogService(repository.NewProductRepository(db))
	delivery := service.NewDeliveryDelayService(repository.NewDeliveryDelayRepository(db), 96, time.Minute)
	eligibility := service.NewEligibilityService(orderRepo, catalog, delivery)
	allocation := service.NewAllocationService(orderRepo, keyRepo, catalog, 3)
	activationSvc := service.NewActivationService(
		orderRepo,
		keyRepo,
		repository.NewActivationAttemptRepository(db),
		repository.NewReplacementRequestRepository(db),
		eligibility,
		catalog,
		activation.NewRegistry(nil),
	)
	container := &provider.Container{
		OrderRepo:          orderRepo,
		ContactRequestRepo: contactRepo,
		ContactService:     service.NewContactService(orderRepo, contactRepo, eligibility, allocation, activationSvc, nil),
	}
	return NewConsumer(container), db
}

func fulfillTask(t *testing.T, requestID uint) *asynq.Task {
	t.Helper()
	task, err := queue.NewContactRequestFulfillTask(queue.ContactRequestFulfillPayload{RequestID: requestID, AdminID: 1})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func TestHandleContactRequestFulfill(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	if err := db.Create(&models.Product{Code: "WIN11PRO", Title: "Windows 11 Pro", Kind: constants.ProductKindLicenseKey}).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := db.Create(&models.MarketplaceOrder{
		OrderID:           "111-0000000-0000001",
		ProductCode:       "WIN11PRO",
		Quantity:          1,
		FulfillmentType:   constants.FulfillmentTypeSellerSelfShip,
		FulfillmentStatus: constants.MarketplaceStatusShipped,
		ShipmentStatus:    constants.ShipmentStatusShipped,
		ActivationState:   constants.ActivationStateNotStarted,
	}).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	request := &models.ContactRequest{
		OrderID:     "111-0000000-0000001",
		ProductCode: "WIN11PRO",
		Email:       "buyer@example.com",
		Reason:      constants.ContactReasonInventoryExhausted,
		Status:      constants.ContactStatusPending,
	}
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("create contact request failed: %v", err)
	}
	ctx := context.Background()

	if err := consumer.handleContactRequestFulfill(ctx, fulfillTask(t, request.ID)); err != nil {
		t.Fatalf("inventory short should not be retried, got %v", err)
	}
	var pending models.ContactRequest
	if err := db.First(&pending, request.ID).Error; err != nil {
		t.Fatalf("reload request failed: %v", err)
	}
	if pending.Status != constants.ContactStatusPending {
		t.Fatalf("request should stay pending, got %s", pending.Status)
	}

	if err := db.Create(&models.LicenseKey{Key: "W-RESTOCK-1", ProductCode: "WIN11PRO", BatchNo: "restock"}).Error; err != nil {
		t.Fatalf("seed key failed: %v", err)
	}
	if err := consumer.handleContactRequestFulfill(ctx, fulfillTask(t, request.ID)); err != nil {
		t.Fatalf("fulfill failed: %v", err)
	}
	var done models.ContactRequest
	if err := db.First(&done, request.ID).Error; err != nil {
		t.Fatalf("reload request failed: %v", err)
	}
	if done.Status != constants.ContactStatusFulfilled || done.FulfilledAt == nil {
		t.Fatalf("request should be fulfilled: %+v", done)
	}

	if err := consumer.handleContactRequestFulfill(ctx, fulfillTask(t, request.ID)); err != nil {
		t.Fatalf("repeat fulfill should be skipped, got %v", err)
	}
	if err := consumer.handleContactRequestFulfill(ctx, fulfillTask(t, 404)); err != nil {
		t.Fatalf("missing request should be skipped, got %v", err)
	}
}

func TestHandleContactRequestFulfillBlockedOrder(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	if err := db.Create(&models.Product{Code: "WIN11PRO", Title: "Windows 11 Pro", Kind: constants.ProductKindLicenseKey}).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := db.Create(&models.MarketplaceOrder{
		OrderID:           "111-0000000-0000002",
		ProductCode:       "WIN11PRO",
		Quantity:          1,
		FulfillmentType:   constants.FulfillmentTypeSellerSelfShip,
		FulfillmentStatus: constants.MarketplaceStatusShipped,
		ShipmentStatus:    constants.ShipmentStatusShipped,
		ActivationState:   constants.ActivationStateNotStarted,
		IsBlocked:         true,
	}).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := db.Create(&models.LicenseKey{Key: "W-BLOCKED-1", ProductCode: "WIN11PRO", BatchNo: "restock"}).Error; err != nil {
		t.Fatalf("seed key failed: %v", err)
	}
	request := &models.ContactRequest{
		OrderID:     "111-0000000-0000002",
		ProductCode: "WIN11PRO",
		Email:       "buyer@example.com",
		Reason:      constants.ContactReasonInventoryExhausted,
		Status:      constants.ContactStatusPending,
	}
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("create contact request failed: %v", err)
	}

	if err := consumer.handleContactRequestFulfill(context.Background(), fulfillTask(t, request.ID)); err != nil {
		t.Fatalf("blocked order should not be retried, got %v", err)
	}
	var closed models.ContactRequest
	if err := db.First(&closed, request.ID).Error; err != nil {
		t.Fatalf("reload request failed: %v", err)
	}
	if closed.Status != constants.ContactStatusClosed || closed.CloseReason == "" {
		t.Fatalf("request should be closed with a reason: %+v", closed)
	}
	var key models.LicenseKey
	if err := db.Where("license_key = ?", "W-BLOCKED-1").First(&key).Error; err != nil {
		t.Fatalf("reload key failed: %v", err)
	}
	if key.IsRedeemed || key.OrderRef != nil {
		t.Fatalf("key must stay in the pool: %+v", key)
	}
	if err := consumer.handleContactRequestFulfill(context.Background(), fulfillTask(t, request.ID)); err != nil {
		t.Fatalf("closed request should be skipped, got %v", err)
	}
}

func TestHandleContactRequestCreated(t *testing.T) {
	consumer, _ := setupWorkerTest(t)
	task, err := queue.NewContactRequestCreatedTask(queue.ContactRequestCreatedPayload{RequestID: 99, OrderID: "x", Reason: constants.ContactReasonInventoryExhausted})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleContactRequestCreated(context.Background(), task); err != nil {
		t.Fatalf("unknown request should be skipped, got %v", err)
	}
	if err := consumer.handleContactRequestCreated(context.Background(), asynq.NewTask(queue.TaskContactRequestCreated, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
