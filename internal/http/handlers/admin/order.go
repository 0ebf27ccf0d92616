package admin

import (
	"strings"

	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderFlagsRequest 订单标记更新请求
type UpdateOrderFlagsRequest struct {
	IsRefunded         *bool   `json:"is_refunded"`
	IsBlocked          *bool   `json:"is_blocked"`
	BlockReason        *string `json:"block_reason"`
	ShipmentStatus     *string `json:"shipment_status"`
	SubscriptionActive *bool   `json:"subscription_active"`
}

var orderFlagsErrorRules = []mappedHandlerError{
	{target: service.ErrOrderFlagsInvalid, code: response.CodeBadRequest, key: "error.order_flags_invalid"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
}

// UpdateOrderFlags 更新订单退款、拦截与发货标记
func (h *Handler) UpdateOrderFlags(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("order_id"))
	if orderID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateOrderFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.SetFlags(c.Request.Context(), orderID, service.OrderFlagsInput{
		IsRefunded:         req.IsRefunded,
		IsBlocked:          req.IsBlocked,
		BlockReason:        req.BlockReason,
		ShipmentStatus:     req.ShipmentStatus,
		SubscriptionActive: req.SubscriptionActive,
	})
	if err != nil {
		respondWithMappedError(c, err, orderFlagsErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_flags_updated", "admin_id", currentAdminID(c), "order_id", order.OrderID)
	response.Success(c, order)
}
