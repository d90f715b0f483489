package metrics

import (
	"expvar"
	"net/http"
	"net/http/pprof"
)

// Handler 返回 debug 路由：expvar 在 /debug/vars，pprof 在 /debug/pprof。
// 显式注册到独立 mux，不依赖 DefaultServeMux。
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
