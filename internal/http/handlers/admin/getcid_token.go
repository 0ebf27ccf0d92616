package admin

import (
	handlershared "github.com/licensedesk/internal/http/handlers/shared"
	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

var getcidTokenErrorRules = []mappedHandlerError{
	{target: service.ErrGetcidTokenInvalid, code: response.CodeBadRequest, key: "error.getcid_token_invalid"},
	{target: service.ErrGetcidTokenRejected, code: response.CodeBadRequest, key: "error.getcid_token_rejected"},
	{target: service.ErrGetcidTokenNotFound, code: response.CodeNotFound, key: "error.getcid_token_not_found"},
	{target: service.ErrActivationUnavailable, code: response.CodeInternal, key: "error.activation_unavailable"},
}

// AddGetcidTokenRequest 新增令牌请求
type AddGetcidTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// UpdateGetcidTokenRequest 调整令牌请求
type UpdateGetcidTokenRequest struct {
	IsActive *bool `json:"is_active"`
	Priority *int  `json:"priority"`
}

// GetGetcidTokens 获取令牌池
func (h *Handler) GetGetcidTokens(c *gin.Context) {
	overview, err := h.GetcidTokenService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.getcid_token_fetch_failed", err)
		return
	}
	response.Success(c, overview)
}

// AddGetcidToken 校验并新增令牌
func (h *Handler) AddGetcidToken(c *gin.Context) {
	var req AddGetcidTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	token, err := h.GetcidTokenService.Add(c.Request.Context(), req.Token)
	if err != nil {
		respondWithMappedError(c, err, getcidTokenErrorRules, response.CodeInternal, "error.getcid_token_save_failed")
		return
	}
	requestLog(c).Infow("admin_getcid_token_added", "admin_id", currentAdminID(c), "token_id", token.ID, "priority", token.Priority)
	response.Success(c, token)
}

// UpdateGetcidToken 启停令牌或调整优先级
func (h *Handler) UpdateGetcidToken(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id", "error.bad_request")
	if !ok {
		return
	}
	var req UpdateGetcidTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	token, err := h.GetcidTokenService.Update(id, service.UpdateGetcidTokenInput{
		IsActive: req.IsActive,
		Priority: req.Priority,
	})
	if err != nil {
		respondWithMappedError(c, err, getcidTokenErrorRules, response.CodeInternal, "error.getcid_token_save_failed")
		return
	}
	requestLog(c).Infow("admin_getcid_token_updated", "admin_id", currentAdminID(c), "token_id", id, "is_active", token.IsActive, "priority", token.Priority)
	response.Success(c, token)
}
