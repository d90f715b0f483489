package trader

import (
	"errors"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/execution"
	"github.com/shopspring/decimal"
)

// Status 单个品种的处理结果
type Status string

const (
	StatusPlaced        Status = "placed"
	StatusHold          Status = "hold"
	StatusNotEnoughData Status = "not-enough-data"
	StatusUnavailable   Status = "unavailable"
	StatusRejected      Status = "rejected"
	StatusDuplicate     Status = "duplicate"
	StatusFailed        Status = "failed"
)

// SymbolReport 单个品种的处理记录
type SymbolReport struct {
	Symbol      string                 `json:"symbol"`
	Status      Status                 `json:"status"`
	Momentum    *domain.MomentumResult `json:"momentum,omitempty"`
	Order       *domain.OrderIntent    `json:"order,omitempty"`
	TicketID    *int64                 `json:"ticket_id,omitempty"`
	BrokerPrice *decimal.Decimal       `json:"broker_price,omitempty"`
	Code        int                    `json:"code,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Err         error                  `json:"-"`
}

// BatchReport 一次批量运行的汇总
type BatchReport struct {
	RunID        string          `json:"run_id"`
	DryRun       bool            `json:"dry_run"`
	LookbackDays int             `json:"lookback_days"`
	Volume       decimal.Decimal `json:"volume"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Results      []SymbolReport  `json:"results"`
}

// Count 指定状态的品种数
func (r *BatchReport) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// classify 错误 -> 状态
func classify(err error) Status {
	switch {
	case errors.Is(err, domain.ErrNotEnoughData):
		return StatusNotEnoughData
	case errors.Is(err, domain.ErrSymbolUnavailable):
		return StatusUnavailable
	case errors.Is(err, domain.ErrGatewayRejected):
		return StatusRejected
	case errors.Is(err, execution.ErrDuplicateInFlight):
		return StatusDuplicate
	default:
		return StatusFailed
	}
}
