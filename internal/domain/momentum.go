package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MomentumResult 动量计算结果（构造后不可变）。
type MomentumResult struct {
	Symbol       string          // 交易场所代码，例如 EURUSD
	Ticker       string          // 实际取到数据的数据源代码，例如 EURUSD=X
	LookbackDays int             // 回看交易日数
	CurrentPrice decimal.Decimal // 最新收盘价
	PastPrice    decimal.Decimal // lookback 个交易日之前的收盘价
	Value        decimal.Decimal // CurrentPrice - PastPrice
}

// NewMomentumResult 由首尾价格构造结果
func NewMomentumResult(symbol, ticker string, lookback int, current, past decimal.Decimal) MomentumResult {
	return MomentumResult{
		Symbol:       symbol,
		Ticker:       ticker,
		LookbackDays: lookback,
		CurrentPrice: current,
		PastPrice:    past,
		Value:        current.Sub(past),
	}
}

// Sign 返回动量符号：1 / 0 / -1
func (m MomentumResult) Sign() int { return m.Value.Sign() }

func (m MomentumResult) String() string {
	return fmt.Sprintf("%s momentum(%dd)=%s [%s -> %s]", m.Symbol, m.LookbackDays, m.Value, m.PastPrice, m.CurrentPrice)
}
