// gomomentum - 动量信号下单工具
package main

import (
	"fmt"
	"os"

	"github.com/betbot/gomomentum/internal/gateway"
	"github.com/betbot/gomomentum/internal/marketdata/yahoo"
	"github.com/betbot/gomomentum/internal/momentum"
	"github.com/betbot/gomomentum/internal/symbols"
	"github.com/betbot/gomomentum/pkg/config"
	"github.com/betbot/gomomentum/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
	envFile    string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gomomentum",
		Short: "Momentum signal trader",
		Long: `gomomentum computes an N-day momentum signal from daily closes and
places market orders with stop-loss/take-profit through a terminal gateway.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml/.yml/.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config (best-effort)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level: debug/info/warn/error")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(credentialsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gomomentum version %s\n", version)
		},
	}
}

// setup 加载 .env、配置文件并初始化日志
func setup() (*config.Config, error) {
	config.LoadDotEnv(envFile)
	config.SetConfigPath(configPath)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}

// newEngine 行情源 + 代码映射 -> 动量引擎
func newEngine(cfg *config.Config) *momentum.Engine {
	mapping := symbols.MergeMapping(symbols.DefaultMapping(), cfg.Data.SymbolMap)
	provider := yahoo.New(yahoo.Config{
		BaseURL:           cfg.Data.BaseURL,
		Timeout:           cfg.Data.Timeout,
		RetryCount:        cfg.Data.RetryCount,
		RequestsPerSecond: cfg.Data.RequestsPerSecond,
	})
	return momentum.NewEngine(provider, symbols.NewResolver(mapping, cfg.Data.ForexSuffix))
}

func newGatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		Token:      cfg.Gateway.Token,
		Timeout:    cfg.Gateway.Timeout,
		RetryCount: cfg.Gateway.RetryCount,
	}
}
