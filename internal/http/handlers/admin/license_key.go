package admin

import (
	"errors"
	"strings"

	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// ImportLicenseKeysRequest 授权码导入请求
type ImportLicenseKeysRequest struct {
	ProductCode string   `json:"product_code" binding:"required"`
	Keys        []string `json:"keys"`
	Content     string   `json:"content"`
	BatchNo     string   `json:"batch_no"`
}

var licenseKeyErrorRules = []mappedHandlerError{
	{target: service.ErrLicenseKeyImportInvalid, code: response.CodeBadRequest, key: "error.license_key_import_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
}

// ImportLicenseKeys 批量导入授权码
func (h *Handler) ImportLicenseKeys(c *gin.Context) {
	var req ImportLicenseKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.LicenseKeyService.Import(c.Request.Context(), service.ImportInput{
		ProductCode: req.ProductCode,
		Keys:        req.Keys,
		Content:     req.Content,
		BatchNo:     req.BatchNo,
	})
	if err != nil {
		respondWithMappedError(c, err, licenseKeyErrorRules, response.CodeInternal, "error.license_key_import_failed")
		return
	}
	requestLog(c).Infow("admin_license_keys_imported",
		"admin_id", currentAdminID(c),
		"product_code", result.ProductCode,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	response.Success(c, result)
}

// GetLicenseKeyStats 获取商品库存统计
func (h *Handler) GetLicenseKeyStats(c *gin.Context) {
	productCode := strings.TrimSpace(c.Query("product_code"))
	if productCode == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.ProductRepo.GetByCode(productCode)
	if err != nil {
		respondError(c, response.CodeInternal, "error.license_key_stats_failed", err)
		return
	}
	if product == nil {
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		return
	}

	stats, err := h.LicenseKeyService.Stats(c.Request.Context(), productCode)
	if err != nil {
		if errors.Is(err, service.ErrLicenseKeyImportInvalid) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.license_key_stats_failed", err)
		return
	}
	response.Success(c, stats)
}
