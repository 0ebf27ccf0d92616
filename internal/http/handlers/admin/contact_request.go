package admin

import (
	handlershared "github.com/licensedesk/internal/http/handlers/shared"
	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

var contactFulfillErrorRules = []mappedHandlerError{
	{target: service.ErrContactRequestNotFound, code: response.CodeNotFound, key: "error.contact_request_not_found"},
	{target: service.ErrContactRequestFulfilled, code: response.CodeConflict, key: "error.contact_request_fulfilled"},
	{target: service.ErrContactRequestClosed, code: response.CodeConflict, key: "error.contact_request_closed"},
	{target: service.ErrOrderBlocked, code: response.CodeForbidden, key: "error.order_blocked"},
	{target: service.ErrOrderPending, code: response.CodeConflict, key: "error.order_pending"},
	{target: service.ErrInventoryExhausted, code: response.CodeConflict, key: "error.inventory_exhausted"},
	{target: service.ErrActivationClosed, code: response.CodeConflict, key: "error.activation_closed"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrQueueUnavailable, code: response.CodeInternal, key: "error.queue_unavailable"},
}

// GetContactRequests 获取人工补发登记列表
func (h *Handler) GetContactRequests(c *gin.Context) {
	page, pageSize := handlershared.BindPageQuery(c)

	items, total, err := h.ContactService.List(service.ContactListInput{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.DefaultQuery("status", "pending"),
		Reason:      c.Query("reason"),
		ProductCode: c.Query("product_code"),
		Search:      c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.contact_request_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// FulfillContactRequest 提交人工补发处理
func (h *Handler) FulfillContactRequest(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParamUint(c, "id", "error.bad_request")
	if !ok {
		return
	}

	queued, err := h.ContactService.EnqueueFulfill(c.Request.Context(), id, adminID)
	if err != nil {
		respondWithMappedError(c, err, contactFulfillErrorRules, response.CodeInternal, "error.contact_request_fulfill_failed")
		return
	}
	requestLog(c).Infow("admin_contact_request_fulfill_submitted", "admin_id", adminID, "request_id", id, "queued", queued)
	response.Success(c, gin.H{
		"id":     id,
		"queued": queued,
	})
}
