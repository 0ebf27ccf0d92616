package service

import (
	"context"
	"errors"

	"github.com/licensedesk/internal/constants"
)

// RedemptionService 兑换入口：资格检查后交由分配引擎发放授权码
type RedemptionService struct {
	eligibility *EligibilityService
	allocation  *AllocationService
}

// NewRedemptionService 创建兑换服务
func NewRedemptionService(eligibility *EligibilityService, allocation *AllocationService) *RedemptionService {
	return &RedemptionService{
		eligibility: eligibility,
		allocation:  allocation,
	}
}

// RedeemResult 兑换请求结果
type RedeemResult struct {
	Eligibility *EligibilityOutcome `json:"eligibility"`
	Redemption  *RedemptionResult   `json:"redemption,omitempty"`
}

// Verify 仅做资格检查
func (s *RedemptionService) Verify(ctx context.Context, identifier string) (*EligibilityOutcome, error) {
	return s.eligibility.Check(ctx, identifier)
}

// Redeem 资格检查通过后分配授权码；库存不足时同时返回结果与 ErrInventoryExhausted
func (s *RedemptionService) Redeem(ctx context.Context, identifier string) (*RedeemResult, error) {
	outcome, err := s.eligibility.Check(ctx, identifier)
	if err != nil {
		return nil, err
	}
	result := &RedeemResult{Eligibility: outcome}
	if !outcome.CanProceed() {
		return result, nil
	}
	if outcome.Route != "" && outcome.Route != constants.ProductKindLicenseKey && outcome.Route != constants.ProductKindCombo {
		return result, nil
	}

	redemption, err := s.allocation.Allocate(ctx, outcome.OrderID)
	if errors.Is(err, ErrInventoryExhausted) {
		result.Redemption = &RedemptionResult{
			OrderID:         outcome.OrderID,
			Quantity:        outcome.Quantity,
			FulfillmentType: outcome.FulfillmentType,
			IsCombo:         outcome.Route == constants.ProductKindCombo,
			NeedsContact:    true,
			Licenses:        []LicenseView{},
		}
		return result, err
	}
	if err != nil {
		return nil, err
	}
	result.Redemption = redemption
	if redemption.Status == constants.RedemptionStatusAlreadyRedeemed {
		outcome.Status = constants.EligibilityAlreadyRedeemed
	}
	return result, nil
}
