package gateway

import (
	"context"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/ports"
)

// DryRun 纸交易：会话、报价、选品种照常走真实网关，只拦截下单
type DryRun struct {
	ports.Gateway
}

func NewDryRun(inner ports.Gateway) *DryRun {
	return &DryRun{Gateway: inner}
}

func (d *DryRun) Submit(_ context.Context, intent domain.OrderIntent) (*domain.OrderOutcome, error) {
	log.WithField("symbol", intent.Symbol).Infof("📝 [纸交易] 模拟下单: side=%s volume=%s price=%s sl=%s tp=%s filling=%s",
		intent.Side, intent.Volume, intent.ReferencePrice, intent.StopLoss, intent.TakeProfit, intent.FillingMode)
	price := intent.ReferencePrice
	return &domain.OrderOutcome{
		Accepted:          true,
		BrokerPrice:       &price,
		DiagnosticCode:    TradeRetcodeDone,
		DiagnosticMessage: "dry-run",
	}, nil
}
