package public

import (
	"errors"
	"strings"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// RedemptionRequest 兑换与资格检查请求
type RedemptionRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// ContactRequest 人工补发登记请求
type ContactRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Reason     string `json:"reason"`

	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// RedemptionView 兑换接口响应
type RedemptionView struct {
	Eligibility *service.EligibilityOutcome `json:"eligibility"`
	Redemption  *service.RedemptionResult   `json:"redemption,omitempty"`
	Links       map[string]string           `json:"links,omitempty"`
}

// VerifyRedemption 检查订单兑换资格
func (h *Handler) VerifyRedemption(c *gin.Context) {
	var req RedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	outcome, err := h.RedemptionService.Verify(c.Request.Context(), req.Identifier)
	if err != nil {
		respondVerifyError(c, err)
		return
	}
	view := h.buildRedemptionView(outcome, nil)
	if outcome.Status == constants.EligibilityNotFound {
		respondErrorWithData(c, response.CodeNotFound, "error.order_not_found", view, nil)
		return
	}
	response.Success(c, view)
}

// Redeem 兑换订单授权码
func (h *Handler) Redeem(c *gin.Context) {
	var req RedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.RedemptionService.Redeem(c.Request.Context(), req.Identifier)
	if err != nil {
		if result != nil && errors.Is(err, service.ErrInventoryExhausted) {
			requestLog(c).Warnw("redeem_inventory_exhausted", "order_id", result.Eligibility.OrderID)
			respondRedeemError(c, err, h.buildRedemptionView(result.Eligibility, result.Redemption))
			return
		}
		respondRedeemError(c, err, nil)
		return
	}

	view := h.buildRedemptionView(result.Eligibility, result.Redemption)
	if !result.Eligibility.CanProceed() {
		respondRedeemError(c, result.Eligibility.Err(), view)
		return
	}
	response.Success(c, view)
}

// RecordContact 库存不足或替换不可用时登记联系方式
func (h *Handler) RecordContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneContact, req.CaptchaPayload) {
		return
	}

	request, err := h.ContactService.RecordContactRequest(c.Request.Context(), service.ContactInput{
		Identifier: req.Identifier,
		Email:      req.Email,
		Phone:      req.Phone,
		Reason:     req.Reason,
	})
	if err != nil {
		respondContactError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":       request.ID,
		"order_id": request.OrderID,
		"reason":   request.Reason,
		"status":   request.Status,
	})
}

func (h *Handler) buildRedemptionView(outcome *service.EligibilityOutcome, redemption *service.RedemptionResult) *RedemptionView {
	view := &RedemptionView{
		Eligibility: outcome,
		Redemption:  redemption,
	}
	if outcome == nil || h.Container == nil || h.Config == nil {
		return view
	}
	links := make(map[string]string)
	for _, guidance := range outcome.Guidance {
		switch guidance {
		case constants.GuidanceFeedbackRemoval:
			if url := strings.TrimSpace(h.Config.Redemption.FeedbackRemovalURL); url != "" {
				links[guidance] = url
			}
		case constants.GuidanceContactSupport:
			if url := strings.TrimSpace(h.Config.Redemption.SupportURL); url != "" {
				links[guidance] = url
			}
		}
	}
	if len(links) > 0 {
		view.Links = links
	}
	return view
}
