package main

import (
	"fmt"
	"time"

	"github.com/licensedesk/internal/config"
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商品
	products := []models.Product{
		{
			Code:             "OFFICE2021",
			Title:            "Office Professional Plus 2021",
			Kind:             constants.ProductKindLicenseKey,
			ActivationFamily: "office",
			DownloadURL:      "https://example.com/downloads/office2021",
			InstallationDoc:  "https://example.com/docs/office2021",
		},
		{
			Code:                  "WIN11PRO",
			Title:                 "Windows 11 Pro",
			Kind:                  constants.ProductKindLicenseKey,
			ActivationFamily:      "windows",
			RequiresEditionSwitch: true,
			InstallationDoc:       "https://example.com/docs/win11pro",
		},
		{
			Code:       "WIN11-OFFICE-BUNDLE",
			Title:      "Windows 11 Pro + Office 2021 Bundle",
			Kind:       constants.ProductKindCombo,
			Components: models.StringArray([]string{"WIN11PRO", "OFFICE2021"}),
		},
		{
			Code:       "OFFICE2021-2PACK",
			Title:      "Office Professional Plus 2021 (2 PCs)",
			Kind:       constants.ProductKindCombo,
			Components: models.StringArray([]string{"OFFICE2021", "OFFICE2021"}),
		},
		{
			Code:  "M365-FAMILY",
			Title: "Microsoft 365 Family",
			Kind:  constants.ProductKindSubscription,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("code = ?", product.Code).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Code, err)
			} else {
				stdLog.Printf("Created product: %s", product.Code)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Code)
		}
	}

	// 添加授权码库存
	batchNo := "SEED-" + time.Now().Format("20060102")
	for _, code := range []string{"OFFICE2021", "WIN11PRO"} {
		created := 0
		for i := 1; i <= 10; i++ {
			key := models.LicenseKey{
				Key:         fmt.Sprintf("%s-SEED-%05d", code, i),
				ProductCode: code,
				BatchNo:     batchNo,
			}
			var existing models.LicenseKey
			if err := models.DB.Where("license_key = ?", key.Key).First(&existing).Error; err == nil {
				continue
			}
			if err := models.DB.Create(&key).Error; err != nil {
				stdLog.Printf("Failed to create license key %s: %v", key.Key, err)
				continue
			}
			created++
		}
		stdLog.Printf("Created %d license keys for %s", created, code)
	}

	// 添加示例订单
	now := time.Now()
	orderedAt := func(hours int) *time.Time {
		t := now.Add(-time.Duration(hours) * time.Hour)
		return &t
	}
	secret := func(value string) *string {
		return &value
	}
	orders := []models.MarketplaceOrder{
		{
			OrderID:         "113-0000001-0000001",
			SecretCode:      secret("SEEDCODE0001"),
			ProductCode:     "OFFICE2021",
			Quantity:        1,
			FulfillmentType: constants.FulfillmentTypeSellerSelfShip,
			ShipmentStatus:  constants.ShipmentStatusShipped,
			ShipState:       "CALIFORNIA",
			OrderDate:       orderedAt(24),
		},
		{
			OrderID:         "113-0000001-0000002",
			ProductCode:     "WIN11-OFFICE-BUNDLE",
			Quantity:        1,
			FulfillmentType: constants.FulfillmentTypeAmazonFBA,
			ShipmentStatus:  constants.ShipmentStatusPending,
			ShipState:       "TEXAS",
			OrderDate:       orderedAt(200),
		},
		{
			OrderID:         "113-0000001-0000003",
			ProductCode:     "OFFICE2021-2PACK",
			Quantity:        2,
			FulfillmentType: constants.FulfillmentTypeAmazonFBA,
			ShipmentStatus:  constants.ShipmentStatusPending,
			ShipState:       "HAWAII",
			OrderDate:       orderedAt(2),
		},
		{
			OrderID:            "113-0000001-0000004",
			ProductCode:        "M365-FAMILY",
			Quantity:           1,
			FulfillmentType:    constants.FulfillmentTypeDigital,
			ShipmentStatus:     constants.ShipmentStatusDelivered,
			SubscriptionActive: true,
			OrderDate:          orderedAt(48),
		},
	}

	for _, order := range orders {
		var existing models.MarketplaceOrder
		if err := models.DB.Where("order_id = ?", order.OrderID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.OrderID, err)
			} else {
				stdLog.Printf("Created order: %s", order.OrderID)
			}
		} else {
			stdLog.Printf("Order already exists: %s", order.OrderID)
		}
	}

	// 送达延迟配置
	if err := models.InitDefaultDeliveryDelay(cfg.Redemption.DefaultDeliveryDelayHours); err != nil {
		stdLog.Printf("Failed to create default delivery delay: %v", err)
	}
	delays := []models.DeliveryDelay{
		{StateName: "ALASKA", DelayHours: 168},
		{StateName: "HAWAII", DelayHours: 168},
	}
	for _, delay := range delays {
		var existing models.DeliveryDelay
		if err := models.DB.Where("state_name = ?", delay.StateName).First(&existing).Error; err == nil {
			continue
		}
		if err := models.DB.Create(&delay).Error; err != nil {
			stdLog.Printf("Failed to create delivery delay %s: %v", delay.StateName, err)
		}
	}

	stdLog.Println("Seed completed")
}
