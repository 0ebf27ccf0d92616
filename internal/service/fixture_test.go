package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/licensedesk/internal/activation"
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testCID = "111111222222333333444444555555666666777777888888"

type fakeExchanger struct {
	mu      sync.Mutex
	calls   int
	results []activation.Result
	err     error
}

func (f *fakeExchanger) Exchange(ctx context.Context, installationID string) (activation.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return activation.Result{}, f.err
	}
	if len(f.results) == 0 {
		return activation.Result{Status: activation.StatusSuccess, ConfirmationID: testCID, Raw: testCID}, nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result, nil
}

func (f *fakeExchanger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type serviceFixture struct {
	db          *gorm.DB
	orderRepo   *repository.GormOrderRepository
	keyRepo     *repository.GormLicenseKeyRepository
	catalog     *CatalogService
	delivery    *DeliveryDelayService
	eligibility *EligibilityService
	allocation  *AllocationService
	redemption  *RedemptionService
	activation  *ActivationService
	contact     *ContactService
	appeal      *AppealService
	orders      *OrderService
	keys        *LicenseKeyService
	exchanger   *fakeExchanger
}

func setupServiceTest(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	return newServiceFixture(t, dsn, 1)
}

// setupFileServiceTest 使用文件型 sqlite（WAL）与多连接，让并发事务真正竞争
func setupFileServiceTest(t *testing.T, conns int) *serviceFixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "race.db") + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	return newServiceFixture(t, dsn, conns)
}

func newServiceFixture(t *testing.T, dsn string, conns int) *serviceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Product{},
		&models.MarketplaceOrder{},
		&models.LicenseKey{},
		&models.ActivationAttempt{},
		&models.ReplacementRequest{},
		&models.ContactRequest{},
		&models.DeliveryDelay{},
		&models.EarlyAppeal{},
		&models.GetcidToken{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	keyRepo := repository.NewLicenseKeyRepository(db)
	productRepo := repository.NewProductRepository(db)
	exchanger := &fakeExchanger{}
	registry := activation.NewRegistry(exchanger)

	catalog := NewCatalogService(productRepo)
	delivery := NewDeliveryDelayService(repository.NewDeliveryDelayRepository(db), 96, time.Minute)
	eligibility := NewEligibilityService(orderRepo, catalog, delivery)
	allocation := NewAllocationService(orderRepo, keyRepo, catalog, 3)
	activationSvc := NewActivationService(
		orderRepo,
		keyRepo,
		repository.NewActivationAttemptRepository(db),
		repository.NewReplacementRequestRepository(db),
		eligibility,
		catalog,
		registry,
	)
	return &serviceFixture{
		db:          db,
		orderRepo:   orderRepo,
		keyRepo:     keyRepo,
		catalog:     catalog,
		delivery:    delivery,
		eligibility: eligibility,
		allocation:  allocation,
		redemption:  NewRedemptionService(eligibility, allocation),
		activation:  activationSvc,
		contact:     NewContactService(orderRepo, repository.NewContactRequestRepository(db), eligibility, allocation, activationSvc, nil),
		appeal:      NewAppealService(orderRepo, repository.NewEarlyAppealRepository(db), eligibility),
		orders:      NewOrderService(orderRepo),
		keys:        NewLicenseKeyService(keyRepo, productRepo),
		exchanger:   exchanger,
	}
}

func (f *serviceFixture) createProduct(t *testing.T, code, kind string, components ...string) *models.Product {
	t.Helper()
	product := &models.Product{
		Code:             code,
		Title:            code,
		Kind:             kind,
		Components:       models.StringArray(components),
		ActivationFamily: "windows",
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product %s failed: %v", code, err)
	}
	return product
}

func (f *serviceFixture) createOrder(t *testing.T, order models.MarketplaceOrder) *models.MarketplaceOrder {
	t.Helper()
	if order.Quantity == 0 {
		order.Quantity = 1
	}
	if order.FulfillmentType == "" {
		order.FulfillmentType = constants.FulfillmentTypeSellerSelfShip
	}
	if order.FulfillmentStatus == "" {
		order.FulfillmentStatus = constants.MarketplaceStatusShipped
	}
	if order.ShipmentStatus == "" {
		order.ShipmentStatus = constants.ShipmentStatusShipped
	}
	if order.ActivationState == "" {
		order.ActivationState = constants.ActivationStateNotStarted
	}
	if order.OrderDate == nil {
		placed := time.Now().Add(-30 * 24 * time.Hour)
		order.OrderDate = &placed
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("create order %s failed: %v", order.OrderID, err)
	}
	return &order
}

func (f *serviceFixture) seedKeys(t *testing.T, productCode string, keys ...string) []models.LicenseKey {
	t.Helper()
	rows := make([]models.LicenseKey, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, models.LicenseKey{Key: key, ProductCode: productCode, BatchNo: "test"})
	}
	if len(rows) == 0 {
		return rows
	}
	if err := f.db.Create(&rows).Error; err != nil {
		t.Fatalf("seed keys for %s failed: %v", productCode, err)
	}
	return rows
}

func (f *serviceFixture) seedKeyRange(t *testing.T, productCode string, count int) []models.LicenseKey {
	t.Helper()
	keys := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		keys = append(keys, fmt.Sprintf("%s-KEY-%03d", strings.ToUpper(productCode), i))
	}
	return f.seedKeys(t, productCode, keys...)
}

func (f *serviceFixture) reloadOrder(t *testing.T, orderID string) *models.MarketplaceOrder {
	t.Helper()
	order, err := f.orderRepo.GetByOrderID(orderID)
	if err != nil || order == nil {
		t.Fatalf("reload order %s failed: %v", orderID, err)
	}
	return order
}

func (f *serviceFixture) stats(t *testing.T, productCode string) *repository.LicenseKeyStats {
	t.Helper()
	stats, err := f.keyRepo.CountByProduct(productCode)
	if err != nil {
		t.Fatalf("count keys for %s failed: %v", productCode, err)
	}
	return stats
}
