package execution

import (
	"context"
	"fmt"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/ports"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "execution")

// DefaultMagic 订单 magic 号，用来在终端里区分本程序下的单
const DefaultMagic int64 = 123456

// InstrumentOps 构建订单时需要的网关能力：取报价 + 激活品种
type InstrumentOps interface {
	ports.QuoteGetter
	ports.SymbolSelector
}

// Builder 把策略给出的订单意图补全为可提交的市价单。
//
// 每次下单都重新拉取品种元数据，不在同一批次内缓存可见性/成交方式：
// 同一批次中第一笔订单可能刚把品种切换为可见，之前的报价不可信。
type Builder struct {
	ops   InstrumentOps
	magic int64
}

func NewBuilder(ops InstrumentOps, magic int64) *Builder {
	if magic == 0 {
		magic = DefaultMagic
	}
	return &Builder{ops: ops, magic: magic}
}

// NegotiateFilling 成交方式协商：优先 IOC，其次 FOK，都未声明时默认 FOK
func NegotiateFilling(flags int) domain.FillingMode {
	switch {
	case flags&domain.SymbolFillingIOC != 0:
		return domain.FillingIOC
	case flags&domain.SymbolFillingFOK != 0:
		return domain.FillingFOK
	default:
		return domain.FillingFOK
	}
}

// Prepare 拉取最新报价；品种不可见时先尝试激活，激活后重新拉取。
// 品种不存在、激活失败或无有效报价时返回 domain.ErrSymbolUnavailable。
func (b *Builder) Prepare(ctx context.Context, symbol string) (*domain.InstrumentQuote, error) {
	q, err := b.ops.Quote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: quote: %v", domain.ErrSymbolUnavailable, symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrSymbolUnavailable, symbol)
	}

	if !q.Visible {
		log.WithField("symbol", symbol).Infof("品种不可见，尝试加入 Market Watch")
		ok, err := b.ops.SetVisible(ctx, symbol, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: select: %v", domain.ErrSymbolUnavailable, symbol, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s: select rejected", domain.ErrSymbolUnavailable, symbol)
		}
		q, err = b.ops.Quote(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: quote after select: %v", domain.ErrSymbolUnavailable, symbol, err)
		}
		if q == nil {
			return nil, fmt.Errorf("%w: %s not found after select", domain.ErrSymbolUnavailable, symbol)
		}
	}

	if !q.Ask.IsPositive() || !q.Bid.IsPositive() {
		return nil, fmt.Errorf("%w: %s: no live quote (ask=%s bid=%s)", domain.ErrSymbolUnavailable, symbol, q.Ask, q.Bid)
	}
	return q, nil
}

// Build 在策略意图上填入成交量、成交方式、magic 与备注，返回新的订单。
func (b *Builder) Build(intent domain.OrderIntent, volume decimal.Decimal, quote domain.InstrumentQuote) (domain.OrderIntent, error) {
	if !volume.IsPositive() {
		return domain.OrderIntent{}, fmt.Errorf("volume must be > 0, got %s", volume)
	}
	if intent.Side != domain.SideBuy && intent.Side != domain.SideSell {
		return domain.OrderIntent{}, fmt.Errorf("invalid side %q", intent.Side)
	}

	out := intent
	out.Symbol = quote.Symbol
	if out.Symbol == "" {
		out.Symbol = intent.Symbol
	}
	out.Volume = volume
	out.FillingMode = NegotiateFilling(quote.FillingFlags)
	out.Magic = b.magic
	out.Comment = Comment(intent.Side)
	return out, nil
}

// Comment 订单备注，例如 "Buy order by momentum"
func Comment(side domain.Side) string {
	return side.Title() + " order by momentum"
}
