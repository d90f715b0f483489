package momentum

import (
	"context"
	"fmt"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/ports"
	"github.com/betbot/gomomentum/internal/symbols"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "momentum")

// DefaultLookbackDays 未指定或非法时使用的回看天数
const DefaultLookbackDays = 3

// CalendarSpan 取数窗口（自然日）：ceil(lookback*1.5) + 5。
// 乘数与补齐用来覆盖周末和节假日，保证至少有 lookback+1 个交易日收盘价。
func CalendarSpan(lookbackDays int) int {
	return (3*lookbackDays+1)/2 + 5
}

// NormalizeLookback 非正数回退到 DefaultLookbackDays
func NormalizeLookback(n int) int {
	if n < 1 {
		return DefaultLookbackDays
	}
	return n
}

// Engine 动量计算：取数（含代码回退）+ 滞后差分。无内部可变状态，可并发调用。
type Engine struct {
	provider ports.PriceProvider
	resolver *symbols.Resolver
	now      func() time.Time
}

func NewEngine(provider ports.PriceProvider, resolver *symbols.Resolver) *Engine {
	if resolver == nil {
		resolver = symbols.NewResolver(nil, "")
	}
	return &Engine{provider: provider, resolver: resolver, now: time.Now}
}

// Fetch 拉取 symbol 的日线序列，返回实际使用的数据源代码。
// 首次取数为空时，用原始代码加外汇后缀重试且只重试一次。
func (e *Engine) Fetch(ctx context.Context, symbol string, lookbackDays int) (string, domain.PriceSeries, error) {
	end := e.now()
	start := end.AddDate(0, 0, -CalendarSpan(lookbackDays))

	ticker := e.resolver.Resolve(symbol)
	series, err := e.provider.History(ctx, ticker, start, end, ports.IntervalDaily)
	if err != nil {
		return ticker, nil, fmt.Errorf("%w: %s: %v", domain.ErrPriceFetch, ticker, err)
	}
	if !series.Empty() {
		return ticker, series, nil
	}

	fallback := e.resolver.Fallback(symbol)
	log.WithFields(logrus.Fields{"symbol": symbol, "ticker": ticker, "retry": fallback}).
		Infof("数据源无数据，改用外汇代码重试")
	series, err = e.provider.History(ctx, fallback, start, end, ports.IntervalDaily)
	if err != nil {
		return fallback, nil, fmt.Errorf("%w: %s: %v", domain.ErrPriceFetch, fallback, err)
	}
	return fallback, series, nil
}

// Compute 计算 lookbackDays 个交易日的动量：series[-1] - series[-(lookbackDays+1)]。
// 数据点不足时返回 *domain.NotEnoughDataError（errors.Is(err, domain.ErrNotEnoughData)）。
func (e *Engine) Compute(ctx context.Context, symbol string, lookbackDays int) (domain.MomentumResult, error) {
	if lookbackDays < 1 {
		return domain.MomentumResult{}, fmt.Errorf("lookback days must be >= 1, got %d", lookbackDays)
	}
	ticker, series, err := e.Fetch(ctx, symbol, lookbackDays)
	if err != nil {
		return domain.MomentumResult{}, err
	}
	return FromSeries(symbol, ticker, series, lookbackDays)
}

// FromSeries 纯计算部分，不做任何取数
func FromSeries(symbol, ticker string, series domain.PriceSeries, lookbackDays int) (domain.MomentumResult, error) {
	need := lookbackDays + 1
	current, ok1 := series.FromEnd(1)
	past, ok2 := series.FromEnd(need)
	if lookbackDays < 1 || !ok1 || !ok2 {
		return domain.MomentumResult{}, &domain.NotEnoughDataError{Symbol: symbol, Have: series.Len(), Need: need}
	}
	return domain.NewMomentumResult(symbol, ticker, lookbackDays, current.Close, past.Close), nil
}
