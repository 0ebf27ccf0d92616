package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"gorm.io/gorm"
)

// AppealService 提前送达申诉服务
type AppealService struct {
	orderRepo   repository.OrderRepository
	appealRepo  repository.EarlyAppealRepository
	eligibility *EligibilityService
}

// NewAppealService 创建申诉服务
func NewAppealService(orderRepo repository.OrderRepository, appealRepo repository.EarlyAppealRepository, eligibility *EligibilityService) *AppealService {
	return &AppealService{
		orderRepo:   orderRepo,
		appealRepo:  appealRepo,
		eligibility: eligibility,
	}
}

// AppealInput 客户提交的申诉
type AppealInput struct {
	Identifier string
	Email      string
	Phone      string
	ProofURL   string
}

// Submit 提交提前送达申诉，仅在当前检查结果允许申诉时受理
func (s *AppealService) Submit(ctx context.Context, input AppealInput) (*models.EarlyAppeal, error) {
	proof, err := normalizeProofURL(input.ProofURL)
	if err != nil {
		return nil, err
	}
	email, phone, err := NormalizeContact(input.Email, input.Phone)
	if err != nil {
		return nil, err
	}
	outcome, err := s.eligibility.Check(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}
	if outcome.Status == constants.EligibilityNotFound {
		return nil, ErrOrderNotFound
	}
	if !outcome.CanAppeal {
		return nil, ErrAppealNotAllowed
	}
	order := outcome.Order()

	now := time.Now()
	appeal := &models.EarlyAppeal{
		OrderID:   order.OrderID,
		Email:     email,
		Phone:     phone,
		ProofURL:  proof,
		Status:    constants.AppealStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.orderRepo.WithTx(tx).TransitionAppealStatus(order.ID, []string{""}, constants.AppealStatusPending)
		if err != nil {
			return err
		}
		if !moved {
			return ErrAppealNotAllowed
		}
		return s.appealRepo.WithTx(tx).Create(appeal)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("early_appeal_submitted", "appeal_id", appeal.ID, "order_id", appeal.OrderID)
	return appeal, nil
}

// Review 审核申诉，申诉记录与订单状态同步更新
func (s *AppealService) Review(ctx context.Context, id uint, approve bool, adminID uint, note string) (*models.EarlyAppeal, error) {
	appeal, err := s.appealRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appeal == nil {
		return nil, ErrAppealNotFound
	}
	if appeal.Status != constants.AppealStatusPending {
		return nil, ErrAppealAlreadyReviewed
	}
	order, err := s.orderRepo.GetByOrderID(appeal.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	target := constants.AppealStatusRejected
	if approve {
		target = constants.AppealStatusApproved
	}
	note = strings.TrimSpace(note)
	now := time.Now()
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewed, err := s.appealRepo.WithTx(tx).Review(appeal.ID, constants.AppealStatusPending, target, adminID, note, now)
		if err != nil {
			return err
		}
		if !reviewed {
			return ErrAppealAlreadyReviewed
		}
		_, err = s.orderRepo.WithTx(tx).TransitionAppealStatus(order.ID, []string{constants.AppealStatusPending, ""}, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	appeal.Status = target
	appeal.ReviewedBy = &adminID
	appeal.ReviewNote = note
	appeal.ReviewedAt = &now
	logger.Infow("early_appeal_reviewed",
		"appeal_id", appeal.ID,
		"order_id", appeal.OrderID,
		"status", target,
		"admin_id", adminID,
	)
	return appeal, nil
}

func normalizeProofURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrAppealInvalid
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", ErrAppealInvalid
	}
	return parsed.String(), nil
}
