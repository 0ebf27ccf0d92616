package admin

import (
	handlershared "github.com/licensedesk/internal/http/handlers/shared"
	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewAppealRequest 申诉审核请求
type ReviewAppealRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Note    string `json:"note"`
}

var appealReviewErrorRules = []mappedHandlerError{
	{target: service.ErrAppealNotFound, code: response.CodeNotFound, key: "error.appeal_not_found"},
	{target: service.ErrAppealAlreadyReviewed, code: response.CodeConflict, key: "error.appeal_already_reviewed"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
}

// ReviewAppeal 审核提前送达申诉
func (h *Handler) ReviewAppeal(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParamUint(c, "id", "error.bad_request")
	if !ok {
		return
	}
	var req ReviewAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	appeal, err := h.AppealService.Review(c.Request.Context(), id, *req.Approve, adminID, req.Note)
	if err != nil {
		respondWithMappedError(c, err, appealReviewErrorRules, response.CodeInternal, "error.appeal_review_failed")
		return
	}
	response.Success(c, appeal)
}
