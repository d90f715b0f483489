package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint 单个交易日的收盘价
type PricePoint struct {
	Time  time.Time
	Close decimal.Decimal
}

// PriceSeries 按时间升序排列的日线收盘价序列（不含重复时间戳，允许存在周末/节假日缺口）。
type PriceSeries []PricePoint

// Len 返回数据点数量
func (s PriceSeries) Len() int { return len(s) }

// Empty 是否为空序列
func (s PriceSeries) Empty() bool { return len(s) == 0 }

// FromEnd 返回倒数第 n 个点（n=1 为最后一个点）。
func (s PriceSeries) FromEnd(n int) (PricePoint, bool) {
	if n < 1 || n > len(s) {
		return PricePoint{}, false
	}
	return s[len(s)-n], true
}

// Normalize 清洗序列：丢弃非正收盘价，按时间升序排序，相同时间戳保留最后出现的值。
// 返回新的序列，不修改入参。
func Normalize(points []PricePoint) PriceSeries {
	out := make(PriceSeries, 0, len(points))
	for _, p := range points {
		if !p.Close.IsPositive() {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(p.Time) {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}
