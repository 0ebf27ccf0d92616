package public

import (
	"errors"

	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfirmationRequest 电话激活请求
type ConfirmationRequest struct {
	Identifier     string   `json:"identifier" binding:"required"`
	InstallationID string   `json:"installation_id"`
	Blocks         []string `json:"blocks"`
	ProductCode    string   `json:"product_code"`
}

// ReplacementRequest 即时替换请求
type ReplacementRequest struct {
	Identifier     string `json:"identifier" binding:"required"`
	InstallationID string `json:"installation_id"`
	ProductCode    string `json:"product_code"`
}

// RequestConfirmation 用安装 ID 换取确认 ID
func (h *Handler) RequestConfirmation(c *gin.Context) {
	var req ConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.ActivationService.RequestConfirmation(c.Request.Context(), service.ConfirmationInput{
		Identifier:     req.Identifier,
		InstallationID: req.InstallationID,
		Blocks:         req.Blocks,
		ProductCode:    req.ProductCode,
		ClientIP:       c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		if result != nil {
			respondActivationError(c, err, result)
			return
		}
		respondActivationError(c, err, nil)
		return
	}
	response.Success(c, result)
}

// IssueReplacement 发放即时替换授权码
func (h *Handler) IssueReplacement(c *gin.Context) {
	var req ReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.ActivationService.IssueReplacement(c.Request.Context(), service.ReplacementInput{
		Identifier:     req.Identifier,
		InstallationID: req.InstallationID,
		ProductCode:    req.ProductCode,
	})
	if err != nil {
		if errors.Is(err, service.ErrInventoryExhausted) {
			requestLog(c).Warnw("replacement_inventory_exhausted", "product_code", req.ProductCode, "installation_id", req.InstallationID)
			respondReplacementError(c, err, gin.H{"needs_contact": true})
			return
		}
		respondReplacementError(c, err, nil)
		return
	}
	response.Success(c, result)
}
