package service

import (
	"context"
	"strings"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"
)

// OrderService 订单标记维护
type OrderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// OrderFlagsInput 订单标记更新，nil 字段不修改
type OrderFlagsInput struct {
	IsRefunded         *bool
	IsBlocked          *bool
	BlockReason        *string
	ShipmentStatus     *string
	SubscriptionActive *bool
}

// SetFlags 更新退款、拦截、发货状态等标记
func (s *OrderService) SetFlags(ctx context.Context, orderID string, input OrderFlagsInput) (*models.MarketplaceOrder, error) {
	order, err := s.orderRepo.GetByOrderID(strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{}
	if input.IsRefunded != nil {
		updates["is_refunded"] = *input.IsRefunded
	}
	if input.IsBlocked != nil {
		updates["is_blocked"] = *input.IsBlocked
		if !*input.IsBlocked && input.BlockReason == nil {
			updates["block_reason"] = ""
		}
	}
	if input.BlockReason != nil {
		updates["block_reason"] = strings.TrimSpace(*input.BlockReason)
	}
	if input.ShipmentStatus != nil {
		status := strings.ToUpper(strings.TrimSpace(*input.ShipmentStatus))
		switch status {
		case constants.ShipmentStatusPending, constants.ShipmentStatusShipped, constants.ShipmentStatusDelivered:
			updates["shipment_status"] = status
		default:
			return nil, ErrOrderFlagsInvalid
		}
	}
	if input.SubscriptionActive != nil {
		updates["subscription_active"] = *input.SubscriptionActive
	}
	if len(updates) == 0 {
		return nil, ErrOrderFlagsInvalid
	}
	if err := s.orderRepo.UpdateFlags(order.ID, updates); err != nil {
		return nil, err
	}
	logger.Infow("order_flags_updated", "order_id", order.OrderID, "fields", len(updates))
	return s.orderRepo.GetByOrderID(order.OrderID)
}
