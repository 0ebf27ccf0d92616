package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/licensedesk/internal/activation/getcid"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"
)

const (
	minGetcidTokenLength     = 8
	getcidTokenAcquireRounds = 5
)

// GetcidTokenVerifier 令牌校验
type GetcidTokenVerifier interface {
	Verify(ctx context.Context, token string) (getcid.TokenInfo, error)
}

// GetcidTokenPool 基于数据库的 getcid 令牌池
type GetcidTokenPool struct {
	repo repository.GetcidTokenRepository
}

// NewGetcidTokenPool 创建令牌池
func NewGetcidTokenPool(repo repository.GetcidTokenRepository) *GetcidTokenPool {
	return &GetcidTokenPool{repo: repo}
}

// AcquireToken 按优先级取令牌并占用一次额度；并发下占用失败则重选
func (p *GetcidTokenPool) AcquireToken(ctx context.Context) (string, error) {
	for round := 0; round < getcidTokenAcquireRounds; round++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		token, err := p.repo.PickAvailable()
		if err != nil {
			return "", err
		}
		if token == nil {
			logger.Warnw("getcid_token_pool_exhausted")
			return "", ErrGetcidTokenExhausted
		}
		ok, err := p.repo.IncrementUsage(token.ID, time.Now())
		if err != nil {
			return "", err
		}
		if ok {
			logger.Debugw("getcid_token_acquired", "token_id", token.ID, "remaining", token.Remaining()-1)
			return token.Token, nil
		}
	}
	return "", ErrGetcidTokenExhausted
}

// GetcidTokenSummary 令牌池汇总
type GetcidTokenSummary struct {
	TotalTokens    int `json:"total_tokens"`
	TotalUsed      int `json:"total_used"`
	TotalAvailable int `json:"total_available"`
	TotalRemaining int `json:"total_remaining"`
}

// GetcidTokenOverview 令牌列表与汇总
type GetcidTokenOverview struct {
	Tokens  []models.GetcidToken `json:"tokens"`
	Summary GetcidTokenSummary   `json:"summary"`
}

// UpdateGetcidTokenInput 令牌调整参数
type UpdateGetcidTokenInput struct {
	IsActive *bool
	Priority *int
}

// GetcidTokenService 令牌池后台管理
type GetcidTokenService struct {
	repo     repository.GetcidTokenRepository
	verifier GetcidTokenVerifier
}

// NewGetcidTokenService 创建令牌管理服务，verifier 为空时不允许新增
func NewGetcidTokenService(repo repository.GetcidTokenRepository, verifier GetcidTokenVerifier) *GetcidTokenService {
	return &GetcidTokenService{repo: repo, verifier: verifier}
}

// List 列出令牌并汇总额度
func (s *GetcidTokenService) List() (*GetcidTokenOverview, error) {
	tokens, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	summary := GetcidTokenSummary{TotalTokens: len(tokens)}
	for _, token := range tokens {
		summary.TotalUsed += token.CountUsed
		summary.TotalAvailable += token.TotalAvailable
	}
	summary.TotalRemaining = summary.TotalAvailable - summary.TotalUsed
	if tokens == nil {
		tokens = []models.GetcidToken{}
	}
	return &GetcidTokenOverview{Tokens: tokens, Summary: summary}, nil
}

// Add 校验令牌后入池，优先级排在现有令牌之前
func (s *GetcidTokenService) Add(ctx context.Context, raw string) (*models.GetcidToken, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if len(value) < minGetcidTokenLength {
		return nil, ErrGetcidTokenInvalid
	}
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: getcid verifier not configured", ErrActivationUnavailable)
	}
	info, err := s.verifier.Verify(ctx, value)
	if err != nil {
		if errors.Is(err, getcid.ErrTokenRejected) {
			return nil, ErrGetcidTokenRejected
		}
		return nil, fmt.Errorf("%w: %v", ErrActivationUnavailable, err)
	}
	highest, err := s.repo.MaxPriority()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &models.GetcidToken{
		Token:          value,
		Email:          info.Email,
		CountUsed:      info.CountUsed,
		TotalAvailable: info.TotalAvailable,
		Priority:       highest + 1,
		IsActive:       true,
		LastVerifiedAt: &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Upsert(row); err != nil {
		return nil, err
	}
	stored, err := s.repo.GetByToken(value)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return row, nil
	}
	return stored, nil
}

// Update 启停令牌或调整优先级
func (s *GetcidTokenService) Update(id uint, input UpdateGetcidTokenInput) (*models.GetcidToken, error) {
	if input.IsActive == nil && input.Priority == nil {
		return nil, ErrGetcidTokenInvalid
	}
	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrGetcidTokenNotFound
	}
	updates := map[string]interface{}{"updated_at": time.Now()}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if err := s.repo.Update(id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}
