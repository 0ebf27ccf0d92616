package service

import (
	"context"
	"strings"
	"time"

	"github.com/licensedesk/internal/cache"
	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"
)

const (
	defaultDeliveryDelayHours = 96
	maxDeliveryDelayHours     = 24 * 60
)

// DeliveryDelayService 平台仓配送达延迟策略
type DeliveryDelayService struct {
	repo         repository.DeliveryDelayRepository
	defaultHours int
	cacheTTL     time.Duration
}

// NewDeliveryDelayService 创建送达延迟服务
func NewDeliveryDelayService(repo repository.DeliveryDelayRepository, defaultHours int, cacheTTL time.Duration) *DeliveryDelayService {
	if defaultHours <= 0 {
		defaultHours = defaultDeliveryDelayHours
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DeliveryDelayService{
		repo:         repo,
		defaultHours: defaultHours,
		cacheTTL:     cacheTTL,
	}
}

// DelayHours 获取州送达延迟：州配置 -> DEFAULT 配置 -> 系统默认
func (s *DeliveryDelayService) DelayHours(ctx context.Context, state string) (int, error) {
	table, err := s.table(ctx)
	if err != nil {
		return 0, err
	}
	normalized := normalizeStateName(state)
	if normalized != "" {
		if hours, ok := table[normalized]; ok {
			return hours, nil
		}
	}
	if hours, ok := table[constants.DeliveryDelayDefaultState]; ok {
		return hours, nil
	}
	return s.defaultHours, nil
}

// List 获取全部送达延迟配置
func (s *DeliveryDelayService) List() ([]models.DeliveryDelay, error) {
	return s.repo.List()
}

// Upsert 新增或覆盖州送达延迟并失效缓存
func (s *DeliveryDelayService) Upsert(ctx context.Context, state string, hours int) error {
	normalized := normalizeStateName(state)
	if normalized == "" || hours < 0 || hours > maxDeliveryDelayHours {
		return ErrDeliveryDelayInvalid
	}
	if err := s.repo.Upsert(normalized, hours); err != nil {
		return err
	}
	if err := cache.DelDeliveryDelays(ctx); err != nil {
		logger.Warnw("delivery_delay_cache_invalidate_failed", "state", normalized, "error", err)
	}
	return nil
}

func (s *DeliveryDelayService) table(ctx context.Context) (map[string]int, error) {
	cached, hit, err := cache.GetDeliveryDelays(ctx)
	if err != nil {
		logger.Warnw("delivery_delay_cache_read_failed", "error", err)
	} else if hit {
		return cached, nil
	}
	rows, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	table := make(map[string]int, len(rows))
	for _, row := range rows {
		table[normalizeStateName(row.StateName)] = row.DelayHours
	}
	if err := cache.SetDeliveryDelays(ctx, table, s.cacheTTL); err != nil {
		logger.Warnw("delivery_delay_cache_write_failed", "error", err)
	}
	return table, nil
}

func normalizeStateName(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}
