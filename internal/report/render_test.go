package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/trader"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	m := domain.NewMomentumResult("AAPL", "AAPL", 3, decimal.NewFromInt(14), decimal.NewFromInt(11))
	ticket := int64(9001)
	rep := &trader.BatchReport{
		RunID:        "run-42",
		DryRun:       true,
		LookbackDays: 3,
		Volume:       decimal.RequireFromString("0.1"),
		Results: []trader.SymbolReport{
			{
				Symbol:   "AAPL",
				Status:   trader.StatusPlaced,
				Momentum: &m,
				Order: &domain.OrderIntent{
					Symbol:         "AAPL",
					Side:           domain.SideBuy,
					ReferencePrice: decimal.NewFromInt(14),
					StopLoss:       decimal.RequireFromString("13.93"),
					TakeProfit:     decimal.RequireFromString("14.14"),
				},
				TicketID: &ticket,
			},
			{Symbol: "EURUSD", Status: trader.StatusRejected, Code: 10019, Message: "No money", Err: errors.New("rejected")},
			{Symbol: "FOO", Status: trader.StatusNotEnoughData, Message: "not enough data"},
		},
	}

	out := Render(rep)
	for _, want := range []string{"run-42", "dry-run", "AAPL", "13.93", "14.14", "9001", "EURUSD", "No money (10019)", "not-enough-data", "placed=1", "rejected=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderNil(t *testing.T) {
	assert.Empty(t, Render(nil))
}
