package activation

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// 确认码兑换结果状态
const (
	StatusSuccess     = "success"
	StatusWrongIID    = "wrong_iid"
	StatusBlockedIID  = "blocked_iid"
	StatusExceededIID = "exceeded_iid"
	StatusCallSupport = "call_support"
	StatusBlockedKey  = "blocked_key"
	StatusIPBlocked   = "ip_blocked"
	StatusIIDBlocked  = "iid_blocked"
	StatusTokenError  = "token_error"
	StatusServerBusy  = "server_busy"
	StatusError       = "error"
)

// ErrExchangerNotFound 未注册对应激活族的兑换器
var ErrExchangerNotFound = errors.New("activation exchanger not found")

// Result 一次安装 ID 兑换的结果
type Result struct {
	Status         string
	ConfirmationID string
	Raw            string
}

// Success 是否兑换成功
func (r Result) Success() bool {
	return r.Status == StatusSuccess && r.ConfirmationID != ""
}

// Retryable 是否允许客户重试
func (r Result) Retryable() bool {
	return IsRetryable(r.Status)
}

// IsRetryable 判断状态是否可重试
func IsRetryable(status string) bool {
	switch status {
	case StatusWrongIID, StatusServerBusy, StatusIPBlocked:
		return true
	default:
		return false
	}
}

// OffersReplacement 判断状态是否应转入即时替换
func OffersReplacement(status string) bool {
	return status == StatusBlockedIID || status == StatusExceededIID
}

// Exchanger 将安装 ID 兑换为确认 ID 的外部服务
type Exchanger interface {
	Exchange(ctx context.Context, installationID string) (Result, error)
}

// ExchangerFunc 函数适配器
type ExchangerFunc func(ctx context.Context, installationID string) (Result, error)

// Exchange 实现 Exchanger
func (f ExchangerFunc) Exchange(ctx context.Context, installationID string) (Result, error) {
	return f(ctx, installationID)
}

// Registry 按激活族索引兑换器
type Registry struct {
	mu       sync.RWMutex
	fallback Exchanger
	items    map[string]Exchanger
}

// NewRegistry 创建注册表，fallback 用于未声明激活族的商品
func NewRegistry(fallback Exchanger) *Registry {
	return &Registry{
		fallback: fallback,
		items:    make(map[string]Exchanger),
	}
}

// Register 注册激活族兑换器
func (r *Registry) Register(family string, exchanger Exchanger) {
	if r == nil || exchanger == nil {
		return
	}
	key := normalizeFamily(family)
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == "" {
		r.fallback = exchanger
		return
	}
	r.items[key] = exchanger
}

// Lookup 获取激活族兑换器
func (r *Registry) Lookup(family string) (Exchanger, error) {
	if r == nil {
		return nil, ErrExchangerNotFound
	}
	key := normalizeFamily(family)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if exchanger, ok := r.items[key]; ok {
		return exchanger, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, ErrExchangerNotFound
}

func normalizeFamily(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}
