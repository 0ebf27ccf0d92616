package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const captchaOpTimeout = time.Second

// CaptchaStore 基于 Redis 的图片验证码答案存储，多实例共享
type CaptchaStore struct {
	ttl time.Duration
}

// NewCaptchaStore 创建验证码存储
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CaptchaStore{ttl: ttl}
}

func captchaKey(id string) string {
	return "captcha:" + strings.TrimSpace(id)
}

// Set 写入验证码答案
func (s *CaptchaStore) Set(id string, value string) error {
	if !Enabled() {
		return errors.New("captcha store requires redis")
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	return redisClient.Set(ctx, buildKey(captchaKey(id)), value, s.ttl).Err()
}

// Get 读取验证码答案，clear 为真时一次性取出
func (s *CaptchaStore) Get(id string, clear bool) string {
	if !Enabled() || strings.TrimSpace(id) == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	key := buildKey(captchaKey(id))
	var (
		value string
		err   error
	)
	if clear {
		value, err = redisClient.GetDel(ctx, key).Result()
	} else {
		value, err = redisClient.Get(ctx, key).Result()
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return ""
	}
	return value
}

// Verify 校验答案，忽略大小写
func (s *CaptchaStore) Verify(id, answer string, clear bool) bool {
	stored := s.Get(id, clear)
	if stored == "" {
		return false
	}
	return strings.EqualFold(stored, strings.TrimSpace(answer))
}
