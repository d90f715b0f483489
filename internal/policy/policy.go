package policy

import (
	"fmt"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultStopLossPct     = 0.005 // 0.5%
	DefaultTakeProfitPct   = 0.01  // 1.0%
	DefaultDeviationPoints = 20
)

// Config 执行策略配置。
// 不同版本的脚本对是否取整、滑点默认值（10/20）不一致，这里都做成可配置项。
type Config struct {
	StopLossPct     decimal.Decimal
	TakeProfitPct   decimal.Decimal
	DeviationPoints int
	RoundLevels     bool // 止损/止盈是否按品种报价精度取整
}

// DefaultConfig 默认：0.5% 止损、1% 止盈、20 点滑点、取整
func DefaultConfig() Config {
	return Config{
		StopLossPct:     decimal.NewFromFloat(DefaultStopLossPct),
		TakeProfitPct:   decimal.NewFromFloat(DefaultTakeProfitPct),
		DeviationPoints: DefaultDeviationPoints,
		RoundLevels:     true,
	}
}

func (c Config) Validate() error {
	one := decimal.NewFromInt(1)
	if !c.StopLossPct.IsPositive() || c.StopLossPct.GreaterThanOrEqual(one) {
		return fmt.Errorf("stop_loss_pct 必须在 (0, 1) 之间: %s", c.StopLossPct)
	}
	if !c.TakeProfitPct.IsPositive() || c.TakeProfitPct.GreaterThanOrEqual(one) {
		return fmt.Errorf("take_profit_pct 必须在 (0, 1) 之间: %s", c.TakeProfitPct)
	}
	if c.DeviationPoints < 0 {
		return fmt.Errorf("deviation_points 不能为负数: %d", c.DeviationPoints)
	}
	return nil
}

// Policy 根据动量符号决定买/卖/不动，并计算保护价位。无状态。
type Policy struct {
	cfg Config
}

func New(cfg Config) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Policy{cfg: cfg}, nil
}

func (p *Policy) Config() Config { return p.cfg }

// Side value>0 买入，value<0 卖出，value==0 不动（ok=false）
func Side(m domain.MomentumResult) (domain.Side, bool) {
	switch m.Sign() {
	case 1:
		return domain.SideBuy, true
	case -1:
		return domain.SideSell, true
	default:
		return "", false
	}
}

// Levels 计算止损/止盈。先按百分比偏移，再取整到 precision 位小数。
func (p *Policy) Levels(side domain.Side, price decimal.Decimal, precision int32) (stopLoss, takeProfit decimal.Decimal) {
	slDist := price.Mul(p.cfg.StopLossPct)
	tpDist := price.Mul(p.cfg.TakeProfitPct)

	if side == domain.SideBuy {
		stopLoss = price.Sub(slDist)
		takeProfit = price.Add(tpDist)
	} else {
		stopLoss = price.Add(slDist)
		takeProfit = price.Sub(tpDist)
	}
	if p.cfg.RoundLevels {
		stopLoss = stopLoss.Round(precision)
		takeProfit = takeProfit.Round(precision)
		// 偏移不足半个最小价位时取整会落到参考价上，向外推一个最小价位
		tick := decimal.New(1, -precision)
		if side == domain.SideBuy {
			if stopLoss.GreaterThanOrEqual(price) {
				stopLoss = price.Sub(tick).Round(precision)
			}
			if takeProfit.LessThanOrEqual(price) {
				takeProfit = price.Add(tick).Round(precision)
			}
		} else {
			if stopLoss.LessThanOrEqual(price) {
				stopLoss = price.Add(tick).Round(precision)
			}
			if takeProfit.GreaterThanOrEqual(price) {
				takeProfit = price.Sub(tick).Round(precision)
			}
		}
	}
	return stopLoss, takeProfit
}

// Decide 动量为 0 时返回 nil（合法的终态，不是错误）；否则返回一个方向与动量符号一致的订单意图。
// 返回值尚未设置成交量与成交方式，由 execution.Builder 补全。
func (p *Policy) Decide(m domain.MomentumResult, instrumentPrice decimal.Decimal, precision int32) *domain.OrderIntent {
	side, ok := Side(m)
	if !ok {
		return nil
	}
	sl, tp := p.Levels(side, instrumentPrice, precision)
	return &domain.OrderIntent{
		Symbol:          m.Symbol,
		Side:            side,
		ReferencePrice:  instrumentPrice,
		StopLoss:        sl,
		TakeProfit:      tp,
		DeviationPoints: p.cfg.DeviationPoints,
	}
}
