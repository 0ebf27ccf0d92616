package service

import (
	"context"
	"strings"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"github.com/google/uuid"
)

const maxImportKeyLength = 255

// LicenseKeyService 授权码库存维护
type LicenseKeyService struct {
	keyRepo     repository.LicenseKeyRepository
	productRepo repository.ProductRepository
}

// NewLicenseKeyService 创建授权码库存服务
func NewLicenseKeyService(keyRepo repository.LicenseKeyRepository, productRepo repository.ProductRepository) *LicenseKeyService {
	return &LicenseKeyService{
		keyRepo:     keyRepo,
		productRepo: productRepo,
	}
}

// ImportInput 授权码导入请求
type ImportInput struct {
	ProductCode string
	Keys        []string
	Content     string
	BatchNo     string
}

// ImportResult 授权码导入结果
type ImportResult struct {
	ProductCode string `json:"product_code"`
	BatchNo     string `json:"batch_no"`
	Total       int    `json:"total"`
	Created     int64  `json:"created"`
	Skipped     int64  `json:"skipped"`
}

// Import 批量导入授权码，去重后已存在的授权码计为跳过
func (s *LicenseKeyService) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	code := strings.TrimSpace(input.ProductCode)
	if code == "" {
		return nil, ErrLicenseKeyImportInvalid
	}
	product, err := s.productRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Kind != constants.ProductKindLicenseKey {
		return nil, ErrLicenseKeyImportInvalid
	}

	keys := normalizeImportKeys(append(append([]string{}, input.Keys...), ParseKeyLines(input.Content)...))
	if len(keys) == 0 {
		return nil, ErrLicenseKeyImportInvalid
	}
	batchNo := strings.TrimSpace(input.BatchNo)
	if batchNo == "" {
		batchNo = uuid.NewString()
	}

	now := time.Now()
	rows := make([]models.LicenseKey, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, models.LicenseKey{
			Key:         key,
			ProductCode: code,
			BatchNo:     batchNo,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	created, err := s.keyRepo.CreateBatch(rows)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{
		ProductCode: code,
		BatchNo:     batchNo,
		Total:       len(keys),
		Created:     created,
		Skipped:     int64(len(keys)) - created,
	}
	logger.Infow("license_keys_imported",
		"product_code", code,
		"batch_no", batchNo,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

// Stats 获取商品库存统计
func (s *LicenseKeyService) Stats(ctx context.Context, productCode string) (*repository.LicenseKeyStats, error) {
	code := strings.TrimSpace(productCode)
	if code == "" {
		return nil, ErrLicenseKeyImportInvalid
	}
	return s.keyRepo.CountByProduct(code)
}

// ParseKeyLines 按行拆分文本形式的授权码
func ParseKeyLines(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	lines := strings.FieldsFunc(content, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	return lines
}

func normalizeImportKeys(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	keys := make([]string, 0, len(raw))
	for _, item := range raw {
		key := strings.TrimSpace(item)
		if key == "" || len(key) > maxImportKeyLength {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
