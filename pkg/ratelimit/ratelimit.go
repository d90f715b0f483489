package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter 速率限制器接口
type Limiter interface {
	Wait(ctx context.Context) error
	Allow() bool
}

// SlidingWindow 滑动窗口速率限制器：任意 windowSize 内最多 limit 次请求。
// limit <= 0 表示不限速。
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// PerSecond 每秒最多 n 次请求
func PerSecond(n int) *SlidingWindow {
	return NewSlidingWindow(n, time.Second)
}

func (sw *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	sw.requests = sw.requests[i:]
}

// Allow 检查是否允许请求（允许时记录本次请求）
func (sw *SlidingWindow) Allow() bool {
	if sw == nil || sw.limit <= 0 {
		return true
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.prune(now)
	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

// Wait 等待直到允许请求
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}

		sw.mu.Lock()
		waitTime := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.requests[0].Add(sw.windowSize).Sub(sw.now()); d > waitTime {
				waitTime = d
			}
		}
		sw.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// Remaining 当前窗口剩余可用次数
func (sw *SlidingWindow) Remaining() int {
	if sw == nil || sw.limit <= 0 {
		return -1
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.prune(sw.now())
	if n := sw.limit - len(sw.requests); n > 0 {
		return n
	}
	return 0
}
