package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"
)

// EligibilityService 订单兑换资格检查
type EligibilityService struct {
	orderRepo    repository.OrderRepository
	catalog      *CatalogService
	deliveryRule *DeliveryDelayService
	now          func() time.Time
}

// NewEligibilityService 创建兑换资格检查服务
func NewEligibilityService(orderRepo repository.OrderRepository, catalog *CatalogService, deliveryRule *DeliveryDelayService) *EligibilityService {
	return &EligibilityService{
		orderRepo:    orderRepo,
		catalog:      catalog,
		deliveryRule: deliveryRule,
		now:          time.Now,
	}
}

// EligibilityOutcome 兑换资格检查结果
type EligibilityOutcome struct {
	Status                string     `json:"status"`
	Reason                string     `json:"reason,omitempty"`
	OrderID               string     `json:"order_id,omitempty"`
	ProductCode           string     `json:"product_code,omitempty"`
	ProductTitle          string     `json:"product_title,omitempty"`
	FulfillmentType       string     `json:"fulfillment_type,omitempty"`
	Quantity              int        `json:"quantity,omitempty"`
	Route                 string     `json:"route,omitempty"`
	RequiresEditionSwitch bool       `json:"requires_edition_switch"`
	CanAppeal             bool       `json:"can_appeal"`
	AppealStatus          string     `json:"appeal_status,omitempty"`
	RedeemableAt          *time.Time `json:"redeemable_at,omitempty"`
	DaysRemaining         int        `json:"days_remaining,omitempty"`
	Guidance              []string   `json:"guidance,omitempty"`

	order    *models.MarketplaceOrder
	resolved *ResolvedProduct
}

// Order 检查时读取的订单快照
func (o *EligibilityOutcome) Order() *models.MarketplaceOrder {
	if o == nil {
		return nil
	}
	return o.order
}

// Product 检查时解析的商品
func (o *EligibilityOutcome) Product() *ResolvedProduct {
	if o == nil {
		return nil
	}
	return o.resolved
}

// CanProceed 是否可进入授权码交付或激活流程
func (o *EligibilityOutcome) CanProceed() bool {
	return o != nil && (o.Status == constants.EligibilityEligible || o.Status == constants.EligibilityAlreadyRedeemed)
}

// Err 将非可用结果转为业务错误
func (o *EligibilityOutcome) Err() error {
	if o == nil {
		return ErrOrderNotFound
	}
	switch o.Status {
	case constants.EligibilityNotFound:
		return ErrOrderNotFound
	case constants.EligibilityBlocked:
		return ErrOrderBlocked
	case constants.EligibilityPending:
		return ErrOrderPending
	default:
		return nil
	}
}

// Check 按顺序评估订单兑换资格，首个命中的规则生效
func (s *EligibilityService) Check(ctx context.Context, identifier string) (*EligibilityOutcome, error) {
	parsed, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(parsed)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return &EligibilityOutcome{Status: constants.EligibilityNotFound}, nil
	}
	return s.Evaluate(ctx, order)
}

// Evaluate 对已加载的订单评估兑换资格
func (s *EligibilityService) Evaluate(ctx context.Context, order *models.MarketplaceOrder) (*EligibilityOutcome, error) {
	outcome := &EligibilityOutcome{
		OrderID:         order.OrderID,
		ProductCode:     order.ProductCode,
		FulfillmentType: order.FulfillmentType,
		Quantity:        order.NormalizedQuantity(),
		AppealStatus:    order.EarlyAppealStatus,
		order:           order,
	}
	platform := order.IsPlatformFulfilled()

	if order.IsBlocked {
		outcome.Status = constants.EligibilityBlocked
		outcome.Reason = constants.EligibilityReasonFraudBlocked
		outcome.Guidance = []string{constants.GuidanceFeedbackRemoval, constants.GuidanceContactSupport}
		return outcome, nil
	}
	if order.IsRefunded {
		if platform {
			outcome.Status = constants.EligibilityBlocked
			outcome.Reason = constants.EligibilityReasonRefunded
			outcome.Guidance = []string{constants.GuidanceContactSupport}
			return outcome, nil
		}
		logger.Warnw("eligibility_refunded_non_platform_order",
			"order_id", order.OrderID,
			"fulfillment_type", order.FulfillmentType,
		)
	}
	if platform && isCanceledStatus(order.FulfillmentStatus) {
		outcome.Status = constants.EligibilityBlocked
		outcome.Reason = constants.EligibilityReasonCancelled
		outcome.Guidance = []string{constants.GuidanceContactSupport}
		return outcome, nil
	}
	if order.IsRedeemed {
		outcome.Status = constants.EligibilityAlreadyRedeemed
		if resolved, err := s.catalog.Resolve(ctx, order.ProductCode); err == nil {
			s.applyProduct(outcome, resolved)
		}
		return outcome, nil
	}
	if strings.TrimSpace(order.ProductCode) == "" {
		outcome.Status = constants.EligibilityPending
		outcome.Reason = constants.EligibilityReasonProductUnresolved
		outcome.Guidance = []string{constants.GuidanceContactSupport}
		return outcome, nil
	}

	resolved, err := s.catalog.Resolve(ctx, order.ProductCode)
	if err != nil {
		logger.Errorw("eligibility_catalog_resolve_failed",
			"order_id", order.OrderID,
			"product_code", order.ProductCode,
			"error", err,
		)
		return nil, err
	}
	s.applyProduct(outcome, resolved)

	if resolved.Product.Kind == constants.ProductKindSubscription {
		if order.SubscriptionActive {
			outcome.Status = constants.EligibilityEligible
			return outcome, nil
		}
		outcome.Status = constants.EligibilityPending
		outcome.Reason = constants.EligibilityReasonSubscriptionProvisioning
		return outcome, nil
	}

	if platform && !deliveryHoldLifted(order) {
		held, err := s.applyDeliveryHold(ctx, outcome, order)
		if err != nil {
			return nil, err
		}
		if held {
			return outcome, nil
		}
	}

	outcome.Status = constants.EligibilityEligible
	return outcome, nil
}

func (s *EligibilityService) applyProduct(outcome *EligibilityOutcome, resolved *ResolvedProduct) {
	if resolved == nil || resolved.Product == nil {
		return
	}
	outcome.resolved = resolved
	outcome.Route = resolved.Product.Kind
	outcome.ProductTitle = resolved.Product.Title
	outcome.RequiresEditionSwitch = resolved.Product.RequiresEditionSwitch
}

func (s *EligibilityService) applyDeliveryHold(ctx context.Context, outcome *EligibilityOutcome, order *models.MarketplaceOrder) (bool, error) {
	status := strings.TrimSpace(order.FulfillmentStatus)
	if status == constants.MarketplaceStatusPending || status == constants.MarketplaceStatusUnshipped {
		outcome.Status = constants.EligibilityPending
		outcome.Reason = constants.EligibilityReasonAwaitingShipment
		outcome.Guidance = []string{constants.GuidanceWaitForDelivery}
		return true, nil
	}

	orderDate := order.CreatedAt
	if order.OrderDate != nil {
		orderDate = *order.OrderDate
	}
	if orderDate.IsZero() {
		return false, nil
	}
	hours, err := s.deliveryRule.DelayHours(ctx, order.ShipState)
	if err != nil {
		return false, err
	}
	redeemableAt := orderDate.Add(time.Duration(hours) * time.Hour)
	now := s.now()
	if !now.Before(redeemableAt) {
		return false, nil
	}

	appealStatus := strings.TrimSpace(order.EarlyAppealStatus)
	outcome.Status = constants.EligibilityPending
	outcome.Reason = constants.EligibilityReasonDeliveryWindow
	outcome.RedeemableAt = &redeemableAt
	outcome.DaysRemaining = int(math.Ceil(redeemableAt.Sub(now).Hours() / 24))
	outcome.CanAppeal = appealStatus != constants.AppealStatusPending && appealStatus != constants.AppealStatusRejected
	outcome.Guidance = []string{constants.GuidanceWaitForDelivery}
	if appealStatus == constants.AppealStatusPending {
		outcome.Reason = constants.EligibilityReasonAppealUnderReview
	}
	if outcome.CanAppeal {
		outcome.Guidance = append(outcome.Guidance, constants.GuidanceEarlyAppeal)
	}
	return true, nil
}

func (s *EligibilityService) loadOrder(identifier OrderIdentifier) (*models.MarketplaceOrder, error) {
	if identifier.Kind == IdentifierKindSecretCode {
		return s.orderRepo.GetBySecretCode(identifier.Value)
	}
	return s.orderRepo.GetByOrderID(identifier.Value)
}

func deliveryHoldLifted(order *models.MarketplaceOrder) bool {
	return strings.TrimSpace(order.EarlyAppealStatus) == constants.AppealStatusApproved ||
		strings.TrimSpace(order.ShipmentStatus) == constants.ShipmentStatusDelivered
}

func isCanceledStatus(status string) bool {
	status = strings.TrimSpace(status)
	return strings.EqualFold(status, constants.MarketplaceStatusCanceled) || strings.EqualFold(status, "Cancelled")
}
