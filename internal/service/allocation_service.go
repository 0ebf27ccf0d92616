package service

import (
	"context"
	"errors"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"gorm.io/gorm"
)

const defaultClaimRetries = 3

var errClaimLost = errors.New("order claimed by concurrent request")

// AllocationService 授权码分配引擎
type AllocationService struct {
	orderRepo repository.OrderRepository
	keyRepo   repository.LicenseKeyRepository
	catalog   *CatalogService
	retries   int
}

// NewAllocationService 创建授权码分配服务
func NewAllocationService(orderRepo repository.OrderRepository, keyRepo repository.LicenseKeyRepository, catalog *CatalogService, retries int) *AllocationService {
	if retries <= 0 {
		retries = defaultClaimRetries
	}
	return &AllocationService{
		orderRepo: orderRepo,
		keyRepo:   keyRepo,
		catalog:   catalog,
		retries:   retries,
	}
}

// LicenseView 对客户展示的授权码
type LicenseView struct {
	ID            uint       `json:"id"`
	Key           string     `json:"key"`
	ProductCode   string     `json:"product_code"`
	SlotIndex     int        `json:"slot_index"`
	IsReplacement bool       `json:"is_replacement"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
}

// RedemptionResult 授权码分配结果
type RedemptionResult struct {
	Status          string        `json:"status"`
	OrderID         string        `json:"order_id"`
	Licenses        []LicenseView `json:"licenses"`
	Replacements    []LicenseView `json:"replacements,omitempty"`
	IsCombo         bool          `json:"is_combo"`
	ComboCode       string        `json:"combo_code,omitempty"`
	Quantity        int           `json:"quantity"`
	FulfillmentType string        `json:"fulfillment_type"`
	NeedsContact    bool          `json:"needs_contact"`
}

// Allocate 为订单分配授权码；已分配订单直接返回既有结果
func (s *AllocationService) Allocate(ctx context.Context, orderID string) (*RedemptionResult, error) {
	order, err := s.orderRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	resolved, err := s.catalog.Resolve(ctx, order.ProductCode)
	if err != nil {
		logger.Errorw("allocation_catalog_resolve_failed",
			"order_id", order.OrderID,
			"product_code", order.ProductCode,
			"error", err,
		)
		return nil, err
	}
	if !resolved.IssuesKeys() {
		return nil, ErrProductRouteUnsupported
	}
	if order.IsRedeemed {
		return s.claimedResult(order, resolved, constants.RedemptionStatusAlreadyRedeemed)
	}

	slots := ExpandSlots(resolved.Components, order.NormalizedQuantity())
	for attempt := 1; attempt <= s.retries; attempt++ {
		err = s.claim(ctx, order, slots)
		switch {
		case err == nil:
			logger.Infow("allocation_claimed",
				"order_id", order.OrderID,
				"product_code", order.ProductCode,
				"slots", len(slots),
			)
			return s.reload(order.OrderID, resolved, constants.RedemptionStatusRedeemed)
		case errors.Is(err, errClaimLost):
			logger.Infow("allocation_claim_lost", "order_id", order.OrderID)
			return s.reload(order.OrderID, resolved, constants.RedemptionStatusAlreadyRedeemed)
		case errors.Is(err, ErrClaimConflict):
			logger.Warnw("allocation_key_conflict_retry",
				"order_id", order.OrderID,
				"attempt", attempt,
			)
			continue
		case errors.Is(err, ErrInventoryExhausted):
			logger.Warnw("allocation_inventory_exhausted",
				"order_id", order.OrderID,
				"product_code", order.ProductCode,
				"slots", len(slots),
			)
			return nil, err
		default:
			logger.Errorw("allocation_claim_failed", "order_id", order.OrderID, "error", err)
			return nil, err
		}
	}
	return nil, ErrClaimConflict
}

// claim 在单个事务内占用订单并逐槽位领取授权码，任一步失败整体回滚
func (s *AllocationService) claim(ctx context.Context, order *models.MarketplaceOrder, slots []string) error {
	now := time.Now()
	return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		keyRepo := s.keyRepo.WithTx(tx)

		claimed, err := orderRepo.Claim(order.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errClaimLost
		}

		positions := make(map[string][]int)
		codes := make([]string, 0)
		for idx, code := range slots {
			if _, ok := positions[code]; !ok {
				codes = append(codes, code)
			}
			positions[code] = append(positions[code], idx)
		}

		var firstKeyID uint
		for _, code := range codes {
			need := positions[code]
			rows, err := keyRepo.ListAvailableExcluding(code, nil, len(need))
			if err != nil {
				return err
			}
			if len(rows) < len(need) {
				return ErrInventoryExhausted
			}
			for i, slot := range need {
				slotIndex := slot
				ok, err := keyRepo.MarkRedeemed(rows[i].ID, order.OrderID, &slotIndex, false, now)
				if err != nil {
					return err
				}
				if !ok {
					return ErrClaimConflict
				}
				if slot == 0 {
					firstKeyID = rows[i].ID
				}
			}
		}
		if firstKeyID != 0 {
			if err := orderRepo.SetLicenseRef(order.ID, firstKeyID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AllocationService) reload(orderID string, resolved *ResolvedProduct, status string) (*RedemptionResult, error) {
	order, err := s.orderRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.claimedResult(order, resolved, status)
}

func (s *AllocationService) claimedResult(order *models.MarketplaceOrder, resolved *ResolvedProduct, status string) (*RedemptionResult, error) {
	keys, err := s.keyRepo.ListByOrder(order.OrderID)
	if err != nil {
		return nil, err
	}
	result := &RedemptionResult{
		Status:          status,
		OrderID:         order.OrderID,
		Licenses:        make([]LicenseView, 0, len(keys)),
		IsCombo:         resolved.IsCombo(),
		Quantity:        order.NormalizedQuantity(),
		FulfillmentType: order.FulfillmentType,
	}
	if result.IsCombo {
		result.ComboCode = resolved.Product.Code
	}
	for i := range keys {
		view := toLicenseView(&keys[i])
		if keys[i].IsReplacement {
			result.Replacements = append(result.Replacements, view)
			continue
		}
		result.Licenses = append(result.Licenses, view)
	}
	if len(result.Licenses) == 0 {
		logger.Warnw("allocation_claimed_without_keys", "order_id", order.OrderID)
	}
	return result, nil
}

func toLicenseView(key *models.LicenseKey) LicenseView {
	view := LicenseView{
		ID:            key.ID,
		Key:           key.Key,
		ProductCode:   key.ProductCode,
		IsReplacement: key.IsReplacement,
		RedeemedAt:    key.RedeemedAt,
	}
	if key.SlotIndex != nil {
		view.SlotIndex = *key.SlotIndex
	}
	return view
}
