package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/gateway"
	"github.com/betbot/gomomentum/internal/policy"
	"github.com/betbot/gomomentum/internal/ports"
	"github.com/betbot/gomomentum/internal/report"
	"github.com/betbot/gomomentum/internal/symbols"
	"github.com/betbot/gomomentum/internal/trader"
	"github.com/betbot/gomomentum/pkg/logger"
	"github.com/betbot/gomomentum/pkg/shutdown"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		symbolList string
		volume     string
		lookback   int
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute momentum for each symbol and place orders",
		Example: `  gomomentum run --symbols EURUSD,XAUUSD --volume 0.1 --lookback 3
  gomomentum run -c config.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			// 命令行参数覆盖配置
			if cmd.Flags().Changed("symbols") {
				cfg.Trading.Symbols = symbols.ParseList(symbolList)
			}
			if cmd.Flags().Changed("volume") {
				// 非法手数交给 trader 回退到默认值
				v, err := decimal.NewFromString(volume)
				if err != nil {
					logger.Warnf("非法的 volume %q，使用默认值 %s", volume, trader.DefaultVolume)
					v = decimal.Zero
				}
				cfg.Trading.Volume = v
			}
			if cmd.Flags().Changed("lookback") {
				cfg.Trading.LookbackDays = lookback
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.Gateway.DryRun = dryRun
			}
			if len(cfg.Trading.Symbols) == 0 {
				return fmt.Errorf("no symbols given: use --symbols or trading.symbols in config")
			}

			if err := cfg.FillCredentialsFromStore(); err != nil {
				return err
			}
			if err := cfg.ValidateCredentials(); err != nil {
				return err
			}

			pol, err := policy.New(policy.Config{
				StopLossPct:     cfg.Trading.StopLossPct,
				TakeProfitPct:   cfg.Trading.TakeProfitPct,
				DeviationPoints: cfg.Trading.DeviationPoints,
				RoundLevels:     cfg.Trading.RoundLevels,
			})
			if err != nil {
				return err
			}

			var gw ports.Gateway = gateway.NewBridge(newGatewayConfig(cfg))
			if cfg.Gateway.DryRun {
				gw = gateway.NewDryRun(gw)
			}

			// 收到信号时取消传给行情/网关调用的 ctx：循环照常走完（剩余品种快速失败并计入报告），
			// 会话由 trader 用独立 ctx 释放
			runCtx, cancelRun := context.WithCancel(context.Background())
			defer cancelRun()
			finished := make(chan struct{})
			sm := shutdown.NewManager()
			sm.OnShutdown("batch", func(ctx context.Context) error {
				cancelRun()
				select {
				case <-finished:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			sigCtx, stop := shutdown.NotifyContext(context.Background())
			defer stop()
			go func() {
				select {
				case <-sigCtx.Done():
					logger.Warnf("收到退出信号，中止进行中的请求")
					ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
					defer cancel()
					sm.Shutdown(ctx)
				case <-finished:
				}
			}()

			tr := trader.New(newEngine(cfg), pol, gw, trader.Options{
				Magic:        cfg.Trading.Magic,
				DedupeWindow: cfg.Trading.DedupeWindow,
				DryRun:       cfg.Gateway.DryRun,
			})
			rep, runErr := tr.Run(runCtx, trader.Request{
				Symbols:      cfg.Trading.Symbols,
				Volume:       cfg.Trading.Volume,
				LookbackDays: cfg.Trading.LookbackDays,
				Credentials: domain.Credentials{
					Login:    cfg.Broker.Login,
					Password: cfg.Broker.Password,
					Server:   cfg.Broker.Server,
				},
			})
			close(finished)
			fmt.Fprintln(os.Stdout, report.Render(rep))
			return runErr
		},
	}

	cmd.Flags().StringVarP(&symbolList, "symbols", "s", "", "Comma-separated venue symbols, e.g. EURUSD,XAUUSD")
	cmd.Flags().StringVar(&volume, "volume", "0.1", "Order volume in lots")
	cmd.Flags().IntVar(&lookback, "lookback", 3, "Momentum lookback in trading days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log orders instead of submitting them")
	return cmd
}
