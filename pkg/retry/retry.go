// Package retry 提供带指数退避的重试策略
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy 重试策略
type Policy struct {
	MaxAttempts  int           // 最大尝试次数（含首次）
	InitialDelay time.Duration // 首次重试延迟
	MaxDelay     time.Duration // 延迟上限
	Multiplier   float64       // 退避倍率
	Jitter       float64       // 抖动比例 [0,1]
}

// DefaultPolicy 默认策略：最多 3 次，1s 起步，倍率 2，上限 1 分钟
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Delay 计算第 attempt 次重试前的延迟（attempt 从 1 开始）
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.MaxDelay) {
			delay = float64(p.MaxDelay)
			break
		}
	}

	if p.Jitter > 0 {
		// 加入随机抖动避免惊群
		jitter := delay * p.Jitter * (rand.Float64()*2 - 1)
		delay += jitter
	}

	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do 按策略执行 fn，直到成功、尝试耗尽或 context 取消
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}
	return lastErr
}
