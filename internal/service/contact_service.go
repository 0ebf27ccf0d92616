package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/queue"
	"github.com/licensedesk/internal/repository"
)

var contactPhonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// ContactService 人工补发登记服务
type ContactService struct {
	orderRepo   repository.OrderRepository
	contactRepo repository.ContactRequestRepository
	eligibility *EligibilityService
	allocation  *AllocationService
	activation  *ActivationService
	queueClient *queue.Client
}

// NewContactService 创建人工补发登记服务
func NewContactService(
	orderRepo repository.OrderRepository,
	contactRepo repository.ContactRequestRepository,
	eligibility *EligibilityService,
	allocation *AllocationService,
	activation *ActivationService,
	queueClient *queue.Client,
) *ContactService {
	return &ContactService{
		orderRepo:   orderRepo,
		contactRepo: contactRepo,
		eligibility: eligibility,
		allocation:  allocation,
		activation:  activation,
		queueClient: queueClient,
	}
}

// ContactInput 客户登记联系方式
type ContactInput struct {
	Identifier string
	Email      string
	Phone      string
	Reason     string
}

// ContactListInput 后台登记列表查询
type ContactListInput struct {
	Page        int
	PageSize    int
	Status      string
	Reason      string
	ProductCode string
	Search      string
}

// RecordContactRequest 登记联系方式，同一订单同一原因仅保留一条待处理记录
func (s *ContactService) RecordContactRequest(ctx context.Context, input ContactInput) (*models.ContactRequest, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = constants.ContactReasonInventoryExhausted
	}
	if reason != constants.ContactReasonInventoryExhausted && reason != constants.ContactReasonReplacementUnavailable {
		return nil, ErrContactReasonInvalid
	}
	email, phone, err := NormalizeContact(input.Email, input.Phone)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseIdentifier(input.Identifier)
	if err != nil {
		return nil, err
	}
	var order *models.MarketplaceOrder
	if parsed.Kind == IdentifierKindSecretCode {
		order, err = s.orderRepo.GetBySecretCode(parsed.Value)
	} else {
		order, err = s.orderRepo.GetByOrderID(parsed.Value)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if err := s.orderRepo.UpdateContact(order.ID, email, phone); err != nil {
		return nil, err
	}

	existing, err := s.contactRepo.GetPending(order.OrderID, reason)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.contactRepo.UpdateContact(existing.ID, email, phone); err != nil {
			return nil, err
		}
		if email != "" {
			existing.Email = email
		}
		if phone != "" {
			existing.Phone = phone
		}
		return existing, nil
	}

	now := time.Now()
	request := &models.ContactRequest{
		OrderID:     order.OrderID,
		ProductCode: order.ProductCode,
		Email:       email,
		Phone:       phone,
		Reason:      reason,
		Status:      constants.ContactStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.contactRepo.Create(request); err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueueContactRequestCreated(queue.ContactRequestCreatedPayload{
		RequestID: request.ID,
		OrderID:   request.OrderID,
		Reason:    request.Reason,
	}); err != nil {
		logger.Warnw("contact_request_enqueue_failed", "request_id", request.ID, "error", err)
	}
	logger.Infow("contact_request_recorded",
		"request_id", request.ID,
		"order_id", request.OrderID,
		"reason", request.Reason,
	)
	return request, nil
}

// List 后台查询登记
func (s *ContactService) List(input ContactListInput) ([]models.ContactRequest, int64, error) {
	return s.contactRepo.List(repository.ContactRequestListFilter{
		Page:        input.Page,
		PageSize:    input.PageSize,
		Status:      strings.TrimSpace(input.Status),
		Reason:      strings.TrimSpace(input.Reason),
		ProductCode: strings.TrimSpace(input.ProductCode),
		Search:      strings.TrimSpace(input.Search),
	})
}

// EnqueueFulfill 提交补发任务；队列未启用时同步执行，返回是否已入队
func (s *ContactService) EnqueueFulfill(ctx context.Context, id, adminID uint) (bool, error) {
	request, err := s.contactRepo.GetByID(id)
	if err != nil {
		return false, err
	}
	if request == nil {
		return false, ErrContactRequestNotFound
	}
	if err := pendingStatusErr(request); err != nil {
		return false, err
	}
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueContactRequestFulfill(queue.ContactRequestFulfillPayload{
			RequestID: id,
			AdminID:   adminID,
		}, 0); err != nil {
			logger.Errorw("contact_request_fulfill_enqueue_failed", "request_id", id, "error", err)
			return false, ErrQueueUnavailable
		}
		return true, nil
	}
	if _, err := s.Fulfill(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Fulfill 重新评估订单资格后执行分配；库存仍不足或订单仍在等待期时登记保持待处理，
// 订单已被拦截（退款、欺诈、取消）时登记关闭且不发放授权码
func (s *ContactService) Fulfill(ctx context.Context, id uint) (*RedemptionResult, error) {
	request, err := s.contactRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrContactRequestNotFound
	}
	if err := pendingStatusErr(request); err != nil {
		return nil, err
	}
	if err := s.checkEligible(ctx, request); err != nil {
		return nil, err
	}

	result, err := s.allocation.Allocate(ctx, request.OrderID)
	if err != nil {
		return nil, err
	}
	if request.Reason == constants.ContactReasonReplacementUnavailable {
		replacement, err := s.activation.IssueReplacementForOrder(ctx, request.OrderID, request.ProductCode, "contact_request")
		if err != nil && !errors.Is(err, ErrActivationClosed) {
			return nil, err
		}
		if replacement == nil && len(result.Replacements) == 0 {
			return nil, ErrActivationClosed
		}
		if replacement != nil {
			result.Replacements = append(result.Replacements, replacement.License)
		}
	}

	ok, err := s.contactRepo.MarkFulfilled(request.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Infow("contact_request_fulfilled",
			"request_id", request.ID,
			"order_id", request.OrderID,
			"licenses", len(result.Licenses),
		)
	}
	return result, nil
}

func (s *ContactService) checkEligible(ctx context.Context, request *models.ContactRequest) error {
	order, err := s.orderRepo.GetByOrderID(request.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	outcome, err := s.eligibility.Evaluate(ctx, order)
	if err != nil {
		return err
	}
	if outcome.CanProceed() {
		return nil
	}
	if outcome.Status == constants.EligibilityBlocked {
		closed, err := s.contactRepo.MarkClosed(request.ID, outcome.Reason, time.Now())
		if err != nil {
			return err
		}
		if closed {
			logger.Warnw("contact_request_closed",
				"request_id", request.ID,
				"order_id", request.OrderID,
				"reason", outcome.Reason,
			)
		}
	}
	return outcome.Err()
}

func pendingStatusErr(request *models.ContactRequest) error {
	switch request.Status {
	case constants.ContactStatusFulfilled:
		return ErrContactRequestFulfilled
	case constants.ContactStatusClosed:
		return ErrContactRequestClosed
	default:
		return nil
	}
}

// NormalizeContact 校验并规范化邮箱与电话，至少需要一项
func NormalizeContact(email, phone string) (string, string, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return "", "", ErrContactInvalid
	}
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return "", "", ErrContactInvalid
		}
		email = strings.ToLower(addr.Address)
	}
	if phone != "" {
		phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(phone)
		if !contactPhonePattern.MatchString(phone) {
			return "", "", ErrContactInvalid
		}
	}
	return email, phone, nil
}
