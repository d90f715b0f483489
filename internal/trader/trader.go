package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/execution"
	"github.com/betbot/gomomentum/internal/metrics"
	"github.com/betbot/gomomentum/internal/momentum"
	"github.com/betbot/gomomentum/internal/policy"
	"github.com/betbot/gomomentum/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "trader")

// DefaultVolume 未指定或非法时的下单手数
var DefaultVolume = decimal.RequireFromString("0.1")

// Request 一次批量运行的输入
type Request struct {
	Symbols      []string
	Volume       decimal.Decimal
	LookbackDays int
	Credentials  domain.Credentials
}

type Options struct {
	Magic        int64
	DedupeWindow time.Duration // 同品种同方向去重窗口，0 表示不去重
	DryRun       bool          // 只用于报告标记；纸交易由 gateway.DryRun 实现
}

// Trader 批量流程：一个会话，按输入顺序逐个品种处理。
// 单个品种失败只影响该品种，只有会话失败会终止整批。
type Trader struct {
	engine  *momentum.Engine
	policy  *policy.Policy
	builder *execution.Builder
	gateway ports.Gateway
	guard   *execution.InFlightGuard
	opts    Options
	newID   func() string
}

func New(engine *momentum.Engine, pol *policy.Policy, gw ports.Gateway, opts Options) *Trader {
	return &Trader{
		engine:  engine,
		policy:  pol,
		builder: execution.NewBuilder(gw, opts.Magic),
		gateway: gw,
		guard:   execution.NewInFlightGuard(opts.DedupeWindow),
		opts:    opts,
		newID:   uuid.NewString,
	}
}

// Run 执行一批。返回的报告总是非 nil；error 只在整批无法进行时返回（会话失败、输入为空）。
func (t *Trader) Run(ctx context.Context, req Request) (*BatchReport, error) {
	report := &BatchReport{
		RunID:        t.newID(),
		DryRun:       t.opts.DryRun,
		LookbackDays: momentum.NormalizeLookback(req.LookbackDays),
		Volume:       req.Volume,
		StartedAt:    time.Now(),
	}
	if !report.Volume.IsPositive() {
		report.Volume = DefaultVolume
	}
	runLog := log.WithField("run_id", report.RunID)
	defer func() { report.FinishedAt = time.Now() }()

	if len(req.Symbols) == 0 {
		return report, errors.New("no symbols to process")
	}

	metrics.BatchRuns.Add(1)
	if err := t.gateway.Connect(ctx, req.Credentials); err != nil {
		metrics.BatchAborted.Add(1)
		t.disconnect(ctx, runLog)
		if !errors.Is(err, domain.ErrSessionFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrSessionFailure, err)
		}
		runLog.Errorf("❌ 会话建立失败: %v", err)
		return report, err
	}
	defer t.disconnect(ctx, runLog)

	runLog.Infof("开始处理 %d 个品种: lookback=%d volume=%s dry_run=%v",
		len(req.Symbols), report.LookbackDays, report.Volume, t.opts.DryRun)

	for _, symbol := range req.Symbols {
		res := t.processSymbol(ctx, symbol, report.Volume, report.LookbackDays)
		report.Results = append(report.Results, res)
		metrics.RecordResult(string(res.Status))

		fields := logrus.Fields{"symbol": symbol, "status": res.Status}
		if res.Err != nil {
			fields["reason"] = res.Err.Error()
			if domain.IsFatal(res.Err) {
				runLog.WithFields(fields).Errorf("❌ 会话失效，终止本批")
				metrics.BatchAborted.Add(1)
				return report, res.Err
			}
			runLog.WithFields(fields).Warnf("⚠️ 跳过品种")
			continue
		}
		runLog.WithFields(fields).Infof("品种处理完成")
	}

	runLog.Infof("✅ 本批完成: placed=%d hold=%d skipped=%d",
		report.Count(StatusPlaced), report.Count(StatusHold),
		len(report.Results)-report.Count(StatusPlaced)-report.Count(StatusHold))
	return report, nil
}

// disconnect 释放会话；使用独立 context，保证调用方取消后仍能断开
func (t *Trader) disconnect(ctx context.Context, l *logrus.Entry) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := t.gateway.Disconnect(dctx); err != nil {
		l.Warnf("断开会话失败: %v", err)
	}
}

func (t *Trader) processSymbol(ctx context.Context, symbol string, volume decimal.Decimal, lookback int) SymbolReport {
	res := SymbolReport{Symbol: symbol}
	fail := func(err error) SymbolReport {
		res.Err = err
		res.Status = classify(err)
		if res.Message == "" {
			res.Message = err.Error()
		}
		return res
	}

	m, err := t.engine.Compute(ctx, symbol, lookback)
	if err != nil {
		return fail(err)
	}
	res.Momentum = &m
	log.WithField("symbol", symbol).Infof("动量: %s", m)

	side, ok := policy.Side(m)
	if !ok {
		res.Status = StatusHold
		res.Message = "momentum is zero"
		return res
	}

	key := execution.Key(symbol, side)
	if err := t.guard.TryAcquire(key); err != nil {
		return fail(fmt.Errorf("%s %s: %w", symbol, side, err))
	}

	quote, err := t.builder.Prepare(ctx, symbol)
	if err != nil {
		t.guard.Release(key)
		return fail(err)
	}
	intent := t.policy.Decide(m, quote.PriceFor(side), quote.Digits)
	order, err := t.builder.Build(*intent, volume, *quote)
	if err != nil {
		t.guard.Release(key)
		return fail(err)
	}
	res.Order = &order

	outcome, err := t.gateway.Submit(ctx, order)
	if err != nil {
		t.guard.Release(key)
		if !errors.Is(err, domain.ErrSubmitFailed) && !domain.IsFatal(err) {
			err = fmt.Errorf("%w: %s: %v", domain.ErrSubmitFailed, symbol, err)
		}
		return fail(err)
	}
	if outcome == nil {
		t.guard.Release(key)
		return fail(fmt.Errorf("%w: %s: gateway returned no outcome", domain.ErrSubmitFailed, symbol))
	}
	res.TicketID = outcome.TicketID
	res.BrokerPrice = outcome.BrokerPrice
	res.Code = outcome.DiagnosticCode
	res.Message = outcome.DiagnosticMessage
	if !outcome.Accepted {
		t.guard.Release(key)
		return fail(&domain.RejectedError{Symbol: symbol, Code: outcome.DiagnosticCode, Message: outcome.DiagnosticMessage})
	}

	res.Status = StatusPlaced
	log.WithFields(logrus.Fields{"symbol": symbol, "side": order.Side, "volume": order.Volume}).
		Infof("✅ 下单成功: sl=%s tp=%s filling=%s", order.StopLoss, order.TakeProfit, order.FillingMode)
	return res
}
