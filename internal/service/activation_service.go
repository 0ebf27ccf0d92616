package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/licensedesk/internal/activation"
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"gorm.io/gorm"
)

const (
	comboSlotsPerUnit        = 2
	replacementCandidateSize = 20
	replacementMaxRounds     = 10
)

var baseKeySuffixPattern = regexp.MustCompile(`[-~!@#$%^&*()_+=\[\]{}|;:'",.<>?\\/]+$`)

// ActivationService 电话激活与即时替换
type ActivationService struct {
	orderRepo       repository.OrderRepository
	keyRepo         repository.LicenseKeyRepository
	attemptRepo     repository.ActivationAttemptRepository
	replacementRepo repository.ReplacementRequestRepository
	eligibility     *EligibilityService
	catalog         *CatalogService
	registry        *activation.Registry
}

// NewActivationService 创建电话激活服务
func NewActivationService(
	orderRepo repository.OrderRepository,
	keyRepo repository.LicenseKeyRepository,
	attemptRepo repository.ActivationAttemptRepository,
	replacementRepo repository.ReplacementRequestRepository,
	eligibility *EligibilityService,
	catalog *CatalogService,
	registry *activation.Registry,
) *ActivationService {
	return &ActivationService{
		orderRepo:       orderRepo,
		keyRepo:         keyRepo,
		attemptRepo:     attemptRepo,
		replacementRepo: replacementRepo,
		eligibility:     eligibility,
		catalog:         catalog,
		registry:        registry,
	}
}

// ConfirmationInput 电话激活请求
type ConfirmationInput struct {
	Identifier     string
	InstallationID string
	Blocks         []string
	ProductCode    string
	ClientIP       string
	UserAgent      string
}

// ConfirmationResult 电话激活结果
type ConfirmationResult struct {
	OrderID             string   `json:"order_id"`
	Status              string   `json:"status"`
	Error               string   `json:"error,omitempty"`
	ConfirmationID      string   `json:"confirmation_id,omitempty"`
	ConfirmationBlocks  []string `json:"confirmation_blocks,omitempty"`
	State               string   `json:"state"`
	AttemptsUsed        int      `json:"attempts_used"`
	AttemptsMax         int      `json:"attempts_max"`
	CanRetry            bool     `json:"can_retry"`
	CanOfferReplacement bool     `json:"can_offer_replacement"`
}

// ReplacementInput 即时替换请求
type ReplacementInput struct {
	Identifier     string
	InstallationID string
	ProductCode    string
}

// ReplacementResult 即时替换结果
type ReplacementResult struct {
	OrderID string      `json:"order_id"`
	State   string      `json:"state"`
	License LicenseView `json:"license"`
}

// RequestConfirmation 用安装 ID 换取确认 ID；返回结果同时可能携带业务错误
func (s *ActivationService) RequestConfirmation(ctx context.Context, input ConfirmationInput) (*ConfirmationResult, error) {
	iid, err := NormalizeInstallationID(input.InstallationID, input.Blocks)
	if err != nil {
		return nil, err
	}
	order, resolved, err := s.loadActivatable(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}
	state := order.CurrentActivationState()
	if isTerminalActivationState(state) {
		return nil, ErrActivationClosed
	}

	maxAttempts := MaxActivationAttempts(order, resolved)
	result := &ConfirmationResult{
		OrderID:      order.OrderID,
		State:        state,
		AttemptsUsed: order.ActivationUsageCount,
		AttemptsMax:  maxAttempts,
	}
	if state == constants.ActivationStateReplacementOffered {
		result.Error = constants.ActivationStateReplacementOffered
		result.CanOfferReplacement = true
		return result, ErrReplacementOffered
	}
	if order.ActivationUsageCount >= maxAttempts {
		return s.offerReplacement(order, result, ErrQuotaExhausted)
	}

	component, family, err := s.catalog.ActivationTarget(ctx, resolved, input.ProductCode)
	if err != nil {
		return nil, err
	}
	exchanger, err := s.registry.Lookup(family)
	if err != nil {
		logger.Errorw("activation_exchanger_missing",
			"order_id", order.OrderID,
			"product_code", component,
			"activation_family", family,
		)
		return nil, ErrExchangerMissing
	}

	incremented, err := s.orderRepo.IncrementActivationUsage(order.ID, maxAttempts)
	if err != nil {
		return nil, err
	}
	if !incremented {
		return s.offerReplacement(order, result, ErrQuotaExhausted)
	}
	if _, err := s.orderRepo.TransitionActivationState(order.ID, []string{constants.ActivationStateNotStarted}, constants.ActivationStateInProgress); err != nil {
		return nil, err
	}

	exchange, exchangeErr := exchanger.Exchange(ctx, iid)
	if exchangeErr != nil {
		exchange = activation.Result{Status: activation.StatusError, Raw: exchangeErr.Error()}
	}
	s.recordAttempt(order, component, input, iid, exchange)

	current, err := s.orderRepo.GetByOrderID(order.OrderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrOrderNotFound
	}
	result.AttemptsUsed = current.ActivationUsageCount
	result.State = current.CurrentActivationState()
	result.Status = exchange.Status
	remaining := current.ActivationUsageCount < maxAttempts

	if exchangeErr != nil {
		logger.Warnw("activation_exchange_failed", "order_id", order.OrderID, "installation_id", iid, "error", exchangeErr)
		result.Error = activation.StatusError
		result.CanRetry = remaining
		return result, fmt.Errorf("%w: %v", ErrActivationUnavailable, exchangeErr)
	}

	switch {
	case exchange.Success():
		if err := s.orderRepo.IncrementActivationConfirmed(order.ID); err != nil {
			return nil, err
		}
		result.ConfirmationID = exchange.ConfirmationID
		result.ConfirmationBlocks = FormatConfirmationID(exchange.ConfirmationID)
		if current.ActivationConfirmedCount+1 >= maxAttempts {
			if _, err := s.orderRepo.TransitionActivationState(order.ID, []string{constants.ActivationStateNotStarted, constants.ActivationStateInProgress}, constants.ActivationStateConfirmed); err != nil {
				return nil, err
			}
			result.State = constants.ActivationStateConfirmed
		}
		logger.Infow("activation_confirmed",
			"order_id", order.OrderID,
			"attempts_used", result.AttemptsUsed,
			"attempts_max", maxAttempts,
		)
		return result, nil
	case activation.OffersReplacement(exchange.Status):
		result.Error = exchange.Status
		return s.offerReplacement(current, result, ErrTransformationRejected)
	case exchange.Status == activation.StatusWrongIID,
		exchange.Status == activation.StatusBlockedKey,
		exchange.Status == activation.StatusCallSupport:
		result.Error = exchange.Status
		result.CanRetry = exchange.Retryable() && remaining
		s.markQuotaExhausted(current, remaining, result)
		return result, ErrTransformationRejected
	default:
		logger.Warnw("activation_authority_unavailable",
			"order_id", order.OrderID,
			"status", exchange.Status,
		)
		result.Error = exchange.Status
		result.CanRetry = exchange.Retryable() && remaining
		s.markQuotaExhausted(current, remaining, result)
		return result, ErrActivationUnavailable
	}
}

// IssueReplacement 在替换已开放时为订单发放一个基础码不同的新授权码，仅允许一次
func (s *ActivationService) IssueReplacement(ctx context.Context, input ReplacementInput) (*ReplacementResult, error) {
	order, resolved, err := s.loadActivatable(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}
	iid := digitsOnly(input.InstallationID)
	return s.issueReplacement(ctx, order, resolved, input.ProductCode, iid, "")
}

// IssueReplacementForOrder 后台补发替换授权码，跳过通道状态限制但仍只允许一次
func (s *ActivationService) IssueReplacementForOrder(ctx context.Context, orderID, productCode, note string) (*ReplacementResult, error) {
	order, err := s.orderRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	resolved, err := s.catalog.Resolve(ctx, order.ProductCode)
	if err != nil {
		return nil, err
	}
	if !resolved.IssuesKeys() {
		return nil, ErrProductRouteUnsupported
	}
	if !order.IsRedeemed {
		return nil, ErrOrderNotRedeemed
	}
	if note == "" {
		note = "manual"
	}
	return s.issueReplacement(ctx, order, resolved, productCode, "", note)
}

func (s *ActivationService) issueReplacement(ctx context.Context, order *models.MarketplaceOrder, resolved *ResolvedProduct, productCode, iid, note string) (*ReplacementResult, error) {
	state := order.CurrentActivationState()
	if state == constants.ActivationStateReplacementIssued || state == constants.ActivationStateConfirmed {
		return nil, ErrActivationClosed
	}
	maxAttempts := MaxActivationAttempts(order, resolved)
	from := []string{constants.ActivationStateReplacementOffered}
	if order.ActivationUsageCount >= maxAttempts || note != "" {
		from = append(from,
			constants.ActivationStateNotStarted,
			constants.ActivationStateInProgress,
			constants.ActivationStateQuotaExhausted,
		)
	}
	if !containsState(from, state) {
		return nil, ErrReplacementNotOffered
	}

	code := pickReplacementCode(resolved, productCode)
	current, err := s.keyRepo.ListByOrder(order.OrderID)
	if err != nil {
		return nil, err
	}
	bases := make(map[string]bool, len(current))
	var original *models.LicenseKey
	for i := range current {
		bases[BaseKey(current[i].Key)] = true
		if original == nil && current[i].ProductCode == code && !current[i].IsReplacement {
			original = &current[i]
		}
	}

	now := time.Now()
	var issued *models.LicenseKey
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.orderRepo.WithTx(tx).TransitionActivationState(order.ID, from, constants.ActivationStateReplacementIssued)
		if err != nil {
			return err
		}
		if !moved {
			return ErrActivationClosed
		}
		keyRepo := s.keyRepo.WithTx(tx)
		var slotIndex *int
		if original != nil && original.SlotIndex != nil {
			value := *original.SlotIndex
			slotIndex = &value
		}
		excluded := make([]uint, 0)
		for round := 0; round < replacementMaxRounds && issued == nil; round++ {
			rows, err := keyRepo.ListAvailableExcluding(code, excluded, replacementCandidateSize)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				break
			}
			for i := range rows {
				excluded = append(excluded, rows[i].ID)
				if bases[BaseKey(rows[i].Key)] {
					continue
				}
				ok, err := keyRepo.MarkRedeemed(rows[i].ID, order.OrderID, slotIndex, true, now)
				if err != nil {
					return err
				}
				if ok {
					issued = &rows[i]
					break
				}
			}
		}
		if issued == nil {
			return ErrInventoryExhausted
		}

		request := &models.ReplacementRequest{
			OrderID:        order.OrderID,
			ProductCode:    code,
			NewKeyID:       issued.ID,
			Source:         constants.ReplacementSourceInstant,
			Status:         constants.ReplacementStatusApproved,
			InstallationID: iid,
			Note:           note,
			CreatedAt:      now,
		}
		if original != nil {
			originalID := original.ID
			request.OriginalKeyID = &originalID
		}
		return s.replacementRepo.WithTx(tx).Create(request)
	})
	if err != nil {
		if errors.Is(err, ErrInventoryExhausted) {
			logger.Warnw("replacement_inventory_exhausted",
				"order_id", order.OrderID,
				"product_code", code,
			)
		}
		return nil, err
	}

	issued.IsRedeemed = true
	issued.IsReplacement = true
	issued.RedeemedAt = &now
	issued.SlotIndex = nil
	if original != nil {
		issued.SlotIndex = original.SlotIndex
	}
	logger.Infow("replacement_issued",
		"order_id", order.OrderID,
		"product_code", code,
		"license_key_id", issued.ID,
	)
	return &ReplacementResult{
		OrderID: order.OrderID,
		State:   constants.ActivationStateReplacementIssued,
		License: toLicenseView(issued),
	}, nil
}

// MaxActivationAttempts 订单电话激活次数上限：数量 x（套装 2，否则 1）
func MaxActivationAttempts(order *models.MarketplaceOrder, resolved *ResolvedProduct) int {
	perUnit := 1
	if resolved.IsCombo() {
		perUnit = comboSlotsPerUnit
	}
	return order.NormalizedQuantity() * perUnit
}

// BaseKey 去除授权码尾部标点后的基础码
func BaseKey(key string) string {
	return baseKeySuffixPattern.ReplaceAllString(strings.TrimSpace(key), "")
}

func (s *ActivationService) loadActivatable(ctx context.Context, identifier string) (*models.MarketplaceOrder, *ResolvedProduct, error) {
	outcome, err := s.eligibility.Check(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	if !outcome.CanProceed() {
		return nil, nil, outcome.Err()
	}
	order := outcome.Order()
	// 激活与替换只针对已交付的授权码，未兑换订单需先走兑换流程
	if outcome.Status != constants.EligibilityAlreadyRedeemed || !order.IsRedeemed {
		return nil, nil, ErrOrderNotRedeemed
	}
	resolved := outcome.Product()
	if resolved == nil {
		resolved, err = s.catalog.Resolve(ctx, order.ProductCode)
		if err != nil {
			return nil, nil, err
		}
	}
	if !resolved.IssuesKeys() {
		return nil, nil, ErrProductRouteUnsupported
	}
	return order, resolved, nil
}

func (s *ActivationService) offerReplacement(order *models.MarketplaceOrder, result *ConfirmationResult, cause error) (*ConfirmationResult, error) {
	moved, err := s.orderRepo.TransitionActivationState(order.ID, []string{
		constants.ActivationStateNotStarted,
		constants.ActivationStateInProgress,
		constants.ActivationStateQuotaExhausted,
	}, constants.ActivationStateReplacementOffered)
	if err != nil {
		return nil, err
	}
	if moved {
		logger.Infow("activation_replacement_offered", "order_id", order.OrderID, "cause", cause.Error())
	}
	if result.Error == "" {
		result.Error = constants.ActivationStateQuotaExhausted
	}
	result.State = constants.ActivationStateReplacementOffered
	result.CanRetry = false
	result.CanOfferReplacement = true
	return result, cause
}

func (s *ActivationService) markQuotaExhausted(order *models.MarketplaceOrder, remaining bool, result *ConfirmationResult) {
	if remaining {
		return
	}
	moved, err := s.orderRepo.TransitionActivationState(order.ID, []string{constants.ActivationStateInProgress}, constants.ActivationStateQuotaExhausted)
	if err != nil {
		logger.Warnw("activation_state_update_failed", "order_id", order.OrderID, "error", err)
		return
	}
	if moved {
		result.State = constants.ActivationStateQuotaExhausted
	}
}

func (s *ActivationService) recordAttempt(order *models.MarketplaceOrder, productCode string, input ConfirmationInput, iid string, result activation.Result) {
	raw := result.Raw
	if len(raw) > 1024 {
		raw = raw[:1024]
	}
	attempt := &models.ActivationAttempt{
		OrderID:        order.OrderID,
		ProductCode:    productCode,
		InstallationID: iid,
		ConfirmationID: result.ConfirmationID,
		Status:         result.Status,
		RawResponse:    raw,
		ClientIP:       input.ClientIP,
		UserAgent:      truncate(input.UserAgent, 512),
		CreatedAt:      time.Now(),
	}
	if err := s.attemptRepo.Create(attempt); err != nil {
		logger.Warnw("activation_attempt_record_failed", "order_id", order.OrderID, "error", err)
	}
}

func pickReplacementCode(resolved *ResolvedProduct, requested string) string {
	requested = strings.TrimSpace(requested)
	for _, code := range resolved.Components {
		if code == requested {
			return code
		}
	}
	if len(resolved.Components) > 0 {
		return resolved.Components[0]
	}
	return resolved.Product.Code
}

func isTerminalActivationState(state string) bool {
	return state == constants.ActivationStateConfirmed || state == constants.ActivationStateReplacementIssued
}

func containsState(states []string, target string) bool {
	for _, state := range states {
		if state == target {
			return true
		}
	}
	return false
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
