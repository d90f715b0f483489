package metrics

import "expvar"

// 批量运行计数，通过 /debug/vars 暴露
var (
	BatchRuns      = expvar.NewInt("batch_runs")
	BatchAborted   = expvar.NewInt("batch_aborted")
	OrdersPlaced   = expvar.NewInt("orders_placed")
	OrdersRejected = expvar.NewInt("orders_rejected")
	SymbolResults  = expvar.NewMap("symbol_results") // 按状态计数
	PreviewHits    = expvar.NewInt("preview_cache_hits")
)

// RecordResult 记录一个品种的处理结果
func RecordResult(status string) {
	SymbolResults.Add(status, 1)
	switch status {
	case "placed":
		OrdersPlaced.Add(1)
	case "rejected":
		OrdersRejected.Add(1)
	}
}
