package public

import (
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// AppealRequest 提前送达申诉请求
type AppealRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ProofURL   string `json:"proof_url" binding:"required"`

	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// SubmitAppeal 提交提前送达申诉
func (h *Handler) SubmitAppeal(c *gin.Context) {
	var req AppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneAppeal, req.CaptchaPayload) {
		return
	}

	appeal, err := h.AppealService.Submit(c.Request.Context(), service.AppealInput{
		Identifier: req.Identifier,
		Email:      req.Email,
		Phone:      req.Phone,
		ProofURL:   req.ProofURL,
	})
	if err != nil {
		respondAppealError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":       appeal.ID,
		"order_id": appeal.OrderID,
		"status":   appeal.Status,
	})
}
