package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
)

// ErrDuplicateInFlight 同一品种同方向的订单仍在去重窗口内
var ErrDuplicateInFlight = fmt.Errorf("duplicate in-flight")

// InFlightGuard 短时间窗口内的确定性去重，防止同一品种同方向被重复下单
// （例如输入列表里同一代码写了两次）。ttl<=0 时不做去重。
type InFlightGuard struct {
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
	m  map[string]time.Time // key -> expiresAt
}

func NewInFlightGuard(ttl time.Duration) *InFlightGuard {
	return &InFlightGuard{ttl: ttl, now: time.Now, m: make(map[string]time.Time)}
}

// Key 去重键：symbol|side
func Key(symbol string, side domain.Side) string {
	return symbol + "|" + string(side)
}

// TryAcquire 成功返回 nil；窗口内已有同 key 请求时返回 ErrDuplicateInFlight
func (g *InFlightGuard) TryAcquire(key string) error {
	if g == nil || g.ttl <= 0 || key == "" {
		return nil
	}
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()

	// 惰性清理过期项
	for k, exp := range g.m {
		if !exp.After(now) {
			delete(g.m, k)
		}
	}
	if exp, ok := g.m[key]; ok && exp.After(now) {
		return ErrDuplicateInFlight
	}
	g.m[key] = now.Add(g.ttl)
	return nil
}

// Release 提前释放（下单被拒或失败时允许重试）
func (g *InFlightGuard) Release(key string) {
	if g == nil || key == "" {
		return
	}
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
