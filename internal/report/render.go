package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/betbot/gomomentum/internal/trader"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	upStyle   = cellStyle.Foreground(lipgloss.Color("2")) // 绿色
	downStyle = cellStyle.Foreground(lipgloss.Color("1")) // 红色
	dimStyle  = cellStyle.Foreground(lipgloss.Color("244"))
	warnStyle = cellStyle.Foreground(lipgloss.Color("3"))

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

var columns = []string{"SYMBOL", "MOMENTUM", "SIDE", "PRICE", "SL", "TP", "STATUS", "TICKET", "DETAIL"}

// Render 把批量报告渲染为终端表格
func Render(rep *trader.BatchReport) string {
	if rep == nil {
		return ""
	}
	var b strings.Builder

	mode := "live"
	if rep.DryRun {
		mode = "dry-run"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Momentum run %s (%s) lookback=%dd volume=%s",
		rep.RunID, mode, rep.LookbackDays, rep.Volume)))
	b.WriteString("\n")

	rows := make([][]string, 0, len(rep.Results))
	for _, r := range rep.Results {
		rows = append(rows, row(r))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(rowIdx, col int) lipgloss.Style {
			if rowIdx == table.HeaderRow {
				return headerStyle
			}
			if rowIdx < 0 || rowIdx >= len(rep.Results) {
				return cellStyle
			}
			return styleFor(rep.Results[rowIdx], col)
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("placed=%d hold=%d not-enough-data=%d unavailable=%d rejected=%d duplicate=%d failed=%d\n",
		rep.Count(trader.StatusPlaced), rep.Count(trader.StatusHold), rep.Count(trader.StatusNotEnoughData),
		rep.Count(trader.StatusUnavailable), rep.Count(trader.StatusRejected), rep.Count(trader.StatusDuplicate),
		rep.Count(trader.StatusFailed)))
	return b.String()
}

func row(r trader.SymbolReport) []string {
	momentum, side, price, sl, tp, ticket := "-", "-", "-", "-", "-", "-"
	if r.Momentum != nil {
		momentum = r.Momentum.Value.String()
	}
	if r.Order != nil {
		side = string(r.Order.Side)
		price = r.Order.ReferencePrice.String()
		sl = r.Order.StopLoss.String()
		tp = r.Order.TakeProfit.String()
	}
	if r.BrokerPrice != nil {
		price = r.BrokerPrice.String()
	}
	if r.TicketID != nil {
		ticket = strconv.FormatInt(*r.TicketID, 10)
	}
	detail := r.Message
	if r.Code != 0 {
		detail = fmt.Sprintf("%s (%d)", r.Message, r.Code)
	}
	return []string{r.Symbol, momentum, side, price, sl, tp, string(r.Status), ticket, detail}
}

func styleFor(r trader.SymbolReport, col int) lipgloss.Style {
	switch columns[col] {
	case "MOMENTUM":
		if r.Momentum != nil {
			switch r.Momentum.Sign() {
			case 1:
				return upStyle
			case -1:
				return downStyle
			}
		}
		return dimStyle
	case "STATUS":
		switch r.Status {
		case trader.StatusPlaced:
			return upStyle
		case trader.StatusHold, trader.StatusDuplicate:
			return dimStyle
		case trader.StatusRejected, trader.StatusFailed:
			return downStyle
		default:
			return warnStyle
		}
	}
	return cellStyle
}
