package recall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/rushteam/hybridrec/core"
)

// BreakerSettings 熔断器配置。
type BreakerSettings struct {
	// ConsecutiveFailures 连续失败多少次后熔断，默认 5
	ConsecutiveFailures uint32
	// OpenTimeout 熔断打开后多久进入半开状态，默认 30s
	OpenTimeout time.Duration
	// HalfOpenRequests 半开状态允许通过的请求数，默认 1
	HalfOpenRequests uint32
	// OnStateChange 状态变化回调（可选）
	OnStateChange func(name string, from, to gobreaker.State)
}

// Breaker 为候选源加上熔断：后端持续故障时直接返回 ErrSourceUnavailable，
// 不再占用请求的超时预算。调用方取消请求不计为失败。
type Breaker struct {
	src Source
	cb  *gobreaker.CircuitBreaker[[]*core.Item]
}

// NewBreaker 包装一个候选源。
func NewBreaker(src Source, s BreakerSettings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	threshold := s.ConsecutiveFailures
	settings := gobreaker.Settings{
		Name:        src.Name(),
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: s.OnStateChange,
	}
	return &Breaker{src: src, cb: gobreaker.NewCircuitBreaker[[]*core.Item](settings)}
}

func (b *Breaker) Name() string { return b.src.Name() }

// State 返回熔断器当前状态。
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	items, err := b.cb.Execute(func() ([]*core.Item, error) {
		return b.src.Recall(ctx, rctx, limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", b.src.Name(), core.ErrSourceUnavailable)
	}
	return items, err
}

var _ Source = (*Breaker)(nil)
