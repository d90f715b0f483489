package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/metrics"
	"github.com/betbot/gomomentum/internal/momentum"
	"github.com/betbot/gomomentum/internal/policy"
	"github.com/betbot/gomomentum/internal/symbols"
	"github.com/betbot/gomomentum/pkg/cache"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "api")

type Config struct {
	Addr            string
	DefaultLookback int
	CacheTTL        time.Duration // 动量结果缓存时间，0 表示不缓存
	EnableDebug     bool          // 挂载 /debug/vars 与 /debug/pprof
}

// Server 只读的信号预览接口：只算动量，不连接交易网关，不下单
type Server struct {
	cfg    Config
	engine *momentum.Engine
	cache  *cache.InMemoryCache[string, domain.MomentumResult]
}

func New(engine *momentum.Engine, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	cfg.DefaultLookback = momentum.NormalizeLookback(cfg.DefaultLookback)
	s := &Server{cfg: cfg, engine: engine}
	if cfg.CacheTTL > 0 {
		s.cache = cache.NewInMemoryCache[string, domain.MomentumResult](cfg.CacheTTL, time.Minute)
	}
	return s
}

// compute 先查缓存；只缓存成功结果
func (s *Server) compute(ctx context.Context, symbol string, lookback int) (domain.MomentumResult, error) {
	if s.cache == nil {
		return s.engine.Compute(ctx, symbol, lookback)
	}
	key := fmt.Sprintf("%s|%d", symbol, lookback)
	if m, ok := s.cache.Get(key); ok {
		metrics.PreviewHits.Add(1)
		return m, nil
	}
	m, err := s.engine.Compute(ctx, symbol, lookback)
	if err != nil {
		return m, err
	}
	s.cache.Set(key, m, 0)
	return m, nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.GET("/momentum", s.handleMomentumBatch)
	api.GET("/momentum/:symbol", s.handleMomentum)

	if s.cfg.EnableDebug {
		r.Any("/debug/*path", gin.WrapH(metrics.Handler()))
	}
	return r
}

// ListenAndServe 阻塞直到 ctx 取消，然后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errC := make(chan error, 1)
	go func() {
		log.Infof("信号预览服务启动: %s", s.cfg.Addr)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Infof("正在关闭信号预览服务...")
		if s.cache != nil {
			s.cache.Close()
		}
		return srv.Shutdown(shutdownCtx)
	}
}

type signalResponse struct {
	Symbol       string          `json:"symbol"`
	Ticker       string          `json:"ticker,omitempty"`
	LookbackDays int             `json:"lookback_days"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PastPrice    decimal.Decimal `json:"past_price"`
	Value        decimal.Decimal `json:"value"`
	Signal       string          `json:"signal"`
}

type errorResponse struct {
	Symbol string `json:"symbol,omitempty"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

func toSignal(m domain.MomentumResult) signalResponse {
	signal := "hold"
	if side, ok := policy.Side(m); ok {
		signal = string(side)
	}
	return signalResponse{
		Symbol:       m.Symbol,
		Ticker:       m.Ticker,
		LookbackDays: m.LookbackDays,
		CurrentPrice: m.CurrentPrice,
		PastPrice:    m.PastPrice,
		Value:        m.Value,
		Signal:       signal,
	}
}

// lookback 参数非法时回退到默认值
func (s *Server) lookback(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("lookback"))
	if err != nil || n < 1 {
		return s.cfg.DefaultLookback
	}
	return n
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotEnoughData):
		return http.StatusUnprocessableEntity, "not_enough_data"
	case errors.Is(err, domain.ErrPriceFetch):
		return http.StatusBadGateway, "price_fetch_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) handleMomentum(c *gin.Context) {
	list := symbols.ParseList(c.Param("symbol"))
	if len(list) != 1 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "exactly one symbol expected", Code: "bad_request"})
		return
	}
	m, err := s.compute(c.Request.Context(), list[0], s.lookback(c))
	if err != nil {
		status, code := errorStatus(err)
		c.JSON(status, errorResponse{Symbol: list[0], Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, toSignal(m))
}

// handleMomentumBatch GET /api/momentum?symbols=EURUSD,XAUUSD
func (s *Server) handleMomentumBatch(c *gin.Context) {
	list := symbols.ParseList(c.Query("symbols"))
	if len(list) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "symbols query parameter is required", Code: "bad_request"})
		return
	}
	lookback := s.lookback(c)

	signals := make([]signalResponse, 0, len(list))
	failures := make([]errorResponse, 0)
	for _, sym := range list {
		m, err := s.compute(c.Request.Context(), sym, lookback)
		if err != nil {
			_, code := errorStatus(err)
			failures = append(failures, errorResponse{Symbol: sym, Error: err.Error(), Code: code})
			continue
		}
		signals = append(signals, toSignal(m))
	}
	c.JSON(http.StatusOK, gin.H{"lookback_days": lookback, "signals": signals, "errors": failures})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		}).Debugf("http request")
	}
}
