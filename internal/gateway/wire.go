package gateway

import (
	"github.com/betbot/gomomentum/internal/domain"
	"github.com/shopspring/decimal"
)

// MT5 交易常量（与终端 Python 接口一致）
const (
	TradeActionDeal   = 1
	OrderTypeBuy      = 0
	OrderTypeSell     = 1
	OrderFillingFOK   = 0
	OrderFillingIOC   = 1
	OrderTimeGTC      = 0
	TradeRetcodeDone  = 10009
	TradeRetcodePlace = 10008
)

type connectRequest struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

// statusResponse 会话 / 选品种接口的通用应答
type statusResponse struct {
	OK      bool   `json:"ok"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// symbolInfo 对应 symbol_info + symbol_info_tick 的合并结果
type symbolInfo struct {
	Name        string  `json:"name"`
	Ask         float64 `json:"ask"`
	Bid         float64 `json:"bid"`
	Digits      int32   `json:"digits"`
	Visible     bool    `json:"visible"`
	FillingMode int     `json:"filling_mode"`
}

func (s symbolInfo) toDomain(symbol string) *domain.InstrumentQuote {
	name := s.Name
	if name == "" {
		name = symbol
	}
	return &domain.InstrumentQuote{
		Symbol:       name,
		Ask:          decimal.NewFromFloat(s.Ask),
		Bid:          decimal.NewFromFloat(s.Bid),
		Digits:       s.Digits,
		Visible:      s.Visible,
		FillingFlags: s.FillingMode,
	}
}

type selectRequest struct {
	Enable bool `json:"enable"`
}

// orderRequest 对应 order_send 的请求字典
type orderRequest struct {
	Action      int     `json:"action"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Type        int     `json:"type"`
	Price       float64 `json:"price"`
	SL          float64 `json:"sl"`
	TP          float64 `json:"tp"`
	Deviation   int     `json:"deviation"`
	Magic       int64   `json:"magic"`
	Comment     string  `json:"comment"`
	TypeTime    int     `json:"type_time"`
	TypeFilling int     `json:"type_filling"`
}

func newOrderRequest(in domain.OrderIntent) orderRequest {
	typ := OrderTypeBuy
	if in.Side == domain.SideSell {
		typ = OrderTypeSell
	}
	filling := OrderFillingFOK
	if in.FillingMode == domain.FillingIOC {
		filling = OrderFillingIOC
	}
	// 价位已在 decimal 中按 digits 取整，float64 只是 JSON 载体；终端侧下单前再按 digits 归一化
	return orderRequest{
		Action:      TradeActionDeal,
		Symbol:      in.Symbol,
		Volume:      in.Volume.InexactFloat64(),
		Type:        typ,
		Price:       in.ReferencePrice.InexactFloat64(),
		SL:          in.StopLoss.InexactFloat64(),
		TP:          in.TakeProfit.InexactFloat64(),
		Deviation:   in.DeviationPoints,
		Magic:       in.Magic,
		Comment:     in.Comment,
		TypeTime:    OrderTimeGTC,
		TypeFilling: filling,
	}
}

// orderResult 对应 order_send 的返回结构
type orderResult struct {
	Retcode int     `json:"retcode"`
	Order   int64   `json:"order"`
	Deal    int64   `json:"deal"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Comment string  `json:"comment"`
}

// toDomain 只有 TRADE_RETCODE_DONE 视为成交
func (r orderResult) toDomain() *domain.OrderOutcome {
	out := &domain.OrderOutcome{
		Accepted:          r.Retcode == TradeRetcodeDone,
		DiagnosticCode:    r.Retcode,
		DiagnosticMessage: r.Comment,
	}
	if r.Order != 0 {
		ticket := r.Order
		out.TicketID = &ticket
	}
	if r.Price != 0 {
		p := decimal.NewFromFloat(r.Price)
		out.BrokerPrice = &p
	}
	return out
}
