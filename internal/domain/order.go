package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Side 订单方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Title 首字母大写，用于订单备注
func (s Side) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// FillingMode 成交方式
type FillingMode string

const (
	FillingFOK FillingMode = "fok" // fill-or-kill：全部成交或撤销
	FillingIOC FillingMode = "ioc" // immediate-or-cancel：允许部分成交
)

// 品种声明的 filling 位掩码。终端 Python 接口没有导出这两个常量，这里手工定义。
const (
	SymbolFillingFOK = 1
	SymbolFillingIOC = 2
)

// InstrumentQuote 券商侧品种报价及元数据
type InstrumentQuote struct {
	Symbol       string
	Ask          decimal.Decimal
	Bid          decimal.Decimal
	Digits       int32 // 报价小数位
	Visible      bool  // 是否在 Market Watch 中可见（可报价）
	FillingFlags int   // SymbolFillingFOK | SymbolFillingIOC
}

// PriceFor 买单取 ask，卖单取 bid
func (q InstrumentQuote) PriceFor(side Side) decimal.Decimal {
	if side == SideBuy {
		return q.Ask
	}
	return q.Bid
}

// OrderIntent 市价单请求。每笔订单新建，提交后不再修改。
type OrderIntent struct {
	Symbol          string
	Side            Side
	Volume          decimal.Decimal
	ReferencePrice  decimal.Decimal
	StopLoss        decimal.Decimal
	TakeProfit      decimal.Decimal
	FillingMode     FillingMode
	DeviationPoints int
	Magic           int64
	Comment         string
}

// OrderOutcome 网关返回的下单结果
type OrderOutcome struct {
	Accepted          bool
	TicketID          *int64
	BrokerPrice       *decimal.Decimal
	DiagnosticCode    int
	DiagnosticMessage string
}

// Credentials 券商登录凭证
type Credentials struct {
	Login    int64
	Password string
	Server   string
}
