package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/licensedesk/internal/activation/getcid"
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/provider"
	"github.com/licensedesk/internal/repository"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupAdminHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.DeliveryDelay{},
		&models.GetcidToken{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	keyRepo := repository.NewLicenseKeyRepository(db)
	container := &provider.Container{
		OrderRepo:            orderRepo,
		ProductRepo:          productRepo,
		LicenseKeyRepo:       keyRepo,
		OrderService:         service.NewOrderService(orderRepo),
		LicenseKeyService:    service.NewLicenseKeyService(keyRepo, productRepo),
		DeliveryDelayService: service.NewDeliveryDelayService(repository.NewDeliveryDelayRepository(db), 96, time.Minute),
		GetcidTokenService:   service.NewGetcidTokenService(repository.NewGetcidTokenRepository(db), newTokenVerifier(t)),
	}

	h := New(container)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_id", uint(1))
		c.Next()
	})
	r.POST("/license-keys", h.ImportLicenseKeys)
	r.GET("/license-keys/stats", h.GetLicenseKeyStats)
	r.PATCH("/orders/:order_id/flags", h.UpdateOrderFlags)
	r.GET("/delivery-delays", h.GetDeliveryDelays)
	r.PUT("/delivery-delays", h.UpsertDeliveryDelay)
	r.GET("/getcid-tokens", h.GetGetcidTokens)
	r.POST("/getcid-tokens", h.AddGetcidToken)
	r.PATCH("/getcid-tokens/:id", h.UpdateGetcidToken)

	if err := db.Create(&models.Product{Code: "WIN11PRO", Title: "Windows 11 Pro", Kind: constants.ProductKindLicenseKey}).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return r, db
}

// newTokenVerifier 模拟 getcid 令牌校验接口，仅接受 valid- 前缀令牌
func newTokenVerifier(t *testing.T) *getcid.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.PostForm.Get("tokenApi"), "valid-") {
			_, _ = w.Write([]byte(`{"Status":"Success","Result":{"email":"ops@example.com","count_token":4,"total_token":50}}`))
			return
		}
		_, _ = w.Write([]byte(`{"Status":"Error"}`))
	}))
	t.Cleanup(server.Close)
	client, err := getcid.New(getcid.Options{BaseURL: server.URL, Token: "static-token"})
	if err != nil {
		t.Fatalf("new getcid client failed: %v", err)
	}
	return client
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) apiResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestImportLicenseKeysAndStats(t *testing.T) {
	r, _ := setupAdminHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/license-keys", gin.H{
		"product_code": "WIN11PRO",
		"keys":         []string{"AAAAA-BBBBB-1", " AAAAA-BBBBB-2 ", "AAAAA-BBBBB-1"},
	})
	if resp.StatusCode != 0 {
		t.Fatalf("import want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var result service.ImportResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("decode import result failed: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("created want 2 got %d", result.Created)
	}

	resp = doJSON(t, r, http.MethodGet, "/license-keys/stats?product_code=WIN11PRO", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("stats want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var stats repository.LicenseKeyStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("decode stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Available != 2 || stats.Redeemed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	resp = doJSON(t, r, http.MethodPost, "/license-keys", gin.H{"product_code": "GHOST", "keys": []string{"X"}})
	if resp.StatusCode != 404 {
		t.Fatalf("unknown product import want 404 got %d", resp.StatusCode)
	}
	resp = doJSON(t, r, http.MethodGet, "/license-keys/stats?product_code=GHOST", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("unknown product stats want 404 got %d", resp.StatusCode)
	}
	resp = doJSON(t, r, http.MethodGet, "/license-keys/stats", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("missing product code want 400 got %d", resp.StatusCode)
	}
}

func TestUpdateOrderFlags(t *testing.T) {
	r, db := setupAdminHandlerTest(t)
	placed := time.Now().Add(-48 * time.Hour)
	order := models.MarketplaceOrder{
		OrderID:         "114-2000000-0000001",
		ProductCode:     "WIN11PRO",
		Quantity:        1,
		FulfillmentType: constants.FulfillmentTypeAmazonFBA,
		ShipmentStatus:  constants.ShipmentStatusPending,
		ActivationState: constants.ActivationStateNotStarted,
		OrderDate:       &placed,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	resp := doJSON(t, r, http.MethodPatch, "/orders/114-2000000-0000001/flags", gin.H{
		"is_blocked":      true,
		"block_reason":    "chargeback",
		"shipment_status": "delivered",
	})
	if resp.StatusCode != 0 {
		t.Fatalf("update flags want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var stored models.MarketplaceOrder
	if err := db.Where("order_id = ?", "114-2000000-0000001").First(&stored).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !stored.IsBlocked || stored.BlockReason != "chargeback" || stored.ShipmentStatus != constants.ShipmentStatusDelivered {
		t.Fatalf("flags not persisted: %+v", stored)
	}

	resp = doJSON(t, r, http.MethodPatch, "/orders/114-2000000-0000001/flags", gin.H{"shipment_status": "LOST"})
	if resp.StatusCode != 400 {
		t.Fatalf("invalid shipment status want 400 got %d", resp.StatusCode)
	}
	resp = doJSON(t, r, http.MethodPatch, "/orders/114-9999999-0000001/flags", gin.H{"is_refunded": true})
	if resp.StatusCode != 404 {
		t.Fatalf("unknown order want 404 got %d", resp.StatusCode)
	}
}

func TestUpsertDeliveryDelay(t *testing.T) {
	r, _ := setupAdminHandlerTest(t)

	resp := doJSON(t, r, http.MethodPut, "/delivery-delays", gin.H{"state_name": "alaska", "delay_hours": 168})
	if resp.StatusCode != 0 {
		t.Fatalf("upsert want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	resp = doJSON(t, r, http.MethodPut, "/delivery-delays", gin.H{"state_name": "alaska", "delay_hours": -1})
	if resp.StatusCode != 400 {
		t.Fatalf("negative delay want 400 got %d", resp.StatusCode)
	}
	resp = doJSON(t, r, http.MethodPut, "/delivery-delays", gin.H{"state_name": "alaska"})
	if resp.StatusCode != 400 {
		t.Fatalf("missing delay want 400 got %d", resp.StatusCode)
	}

	resp = doJSON(t, r, http.MethodGet, "/delivery-delays", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("list want 0 got %d", resp.StatusCode)
	}
	var rows []models.DeliveryDelay
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		t.Fatalf("decode delays failed: %v", err)
	}
	if len(rows) != 1 || rows[0].StateName != "ALASKA" || rows[0].DelayHours != 168 {
		t.Fatalf("unexpected delays: %+v", rows)
	}
}

func TestGetcidTokenRoutes(t *testing.T) {
	r, _ := setupAdminHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/getcid-tokens", gin.H{"token": "bogus-token-1"})
	if resp.StatusCode != 400 {
		t.Fatalf("rejected token want 400 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	resp = doJSON(t, r, http.MethodPost, "/getcid-tokens", gin.H{"token": "tiny"})
	if resp.StatusCode != 400 {
		t.Fatalf("short token want 400 got %d", resp.StatusCode)
	}
	resp = doJSON(t, r, http.MethodPost, "/getcid-tokens", gin.H{"token": "VALID-token-1"})
	if resp.StatusCode != 0 {
		t.Fatalf("add token want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var added models.GetcidToken
	if err := json.Unmarshal(resp.Data, &added); err != nil {
		t.Fatalf("decode token failed: %v", err)
	}
	if added.Token != "valid-token-1" || added.CountUsed != 4 || added.TotalAvailable != 50 || added.Priority != 1 {
		t.Fatalf("unexpected token: %+v", added)
	}

	resp = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/getcid-tokens/%d", added.ID), gin.H{"is_active": false})
	if resp.StatusCode != 0 {
		t.Fatalf("update token want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	resp = doJSON(t, r, http.MethodPatch, "/getcid-tokens/9999", gin.H{"priority": 3})
	if resp.StatusCode != 404 {
		t.Fatalf("unknown token want 404 got %d", resp.StatusCode)
	}

	resp = doJSON(t, r, http.MethodGet, "/getcid-tokens", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("list want 0 got %d", resp.StatusCode)
	}
	var overview service.GetcidTokenOverview
	if err := json.Unmarshal(resp.Data, &overview); err != nil {
		t.Fatalf("decode overview failed: %v", err)
	}
	if len(overview.Tokens) != 1 || overview.Tokens[0].IsActive || overview.Summary.TotalRemaining != 46 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}
