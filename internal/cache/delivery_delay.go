package cache

import (
	"context"
	"time"
)

const deliveryDelayKey = "delivery_delay:table"

// GetDeliveryDelays 获取州送达延迟配置快照（州名 -> 小时）
func GetDeliveryDelays(ctx context.Context) (map[string]int, bool, error) {
	table := map[string]int{}
	hit, err := GetJSON(ctx, deliveryDelayKey, &table)
	if err != nil || !hit {
		return nil, hit, err
	}
	return table, true, nil
}

// SetDeliveryDelays 写入州送达延迟配置快照
func SetDeliveryDelays(ctx context.Context, table map[string]int, ttl time.Duration) error {
	if table == nil {
		return nil
	}
	return SetJSON(ctx, deliveryDelayKey, table, ttl)
}

// DelDeliveryDelays 删除州送达延迟配置快照
func DelDeliveryDelays(ctx context.Context) error {
	return Del(ctx, deliveryDelayKey)
}
