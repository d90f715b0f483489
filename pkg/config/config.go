package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/gomomentum/pkg/secretstore"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultLookbackDays    = 3
	DefaultVolume          = 0.1
	DefaultStopLossPct     = 0.005
	DefaultTakeProfitPct   = 0.01
	DefaultDeviationPoints = 20
	DefaultMagic           = 123456
	DefaultForexSuffix     = "=X"
	DefaultYahooBaseURL    = "https://query1.finance.yahoo.com"
	DefaultGatewayURL      = "http://127.0.0.1:8765"
	DefaultServerAddr      = ":8080"
)

// BrokerConfig 券商登录凭证。密码可来自配置文件、环境变量（含 .env）或加密凭证库。
type BrokerConfig struct {
	Login     int64
	Password  string
	Server    string
	StorePath string // Badger 凭证库目录（可选）
	StoreKey  string // 凭证库加密 key（hex/base64，32 字节，可选）
}

// GatewayConfig 交易终端桥接服务
type GatewayConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
	DryRun     bool // 纸交易：不真实下单
}

// DataConfig 行情数据源
type DataConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RetryCount        int
	RequestsPerSecond int
	ForexSuffix       string
	SymbolMap         map[string]string // 交易场所代码 -> 数据源代码，与内置映射合并
}

// TradingConfig 交易参数
type TradingConfig struct {
	Symbols         []string
	Volume          decimal.Decimal
	LookbackDays    int
	StopLossPct     decimal.Decimal
	TakeProfitPct   decimal.Decimal
	DeviationPoints int
	RoundLevels     bool
	Magic           int64
	DedupeWindow    time.Duration
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// ServerConfig 信号预览服务
type ServerConfig struct {
	Addr        string
	CacheTTL    time.Duration
	EnableDebug bool // /debug/vars 与 /debug/pprof
}

// Config 应用配置
type Config struct {
	Broker  BrokerConfig
	Gateway GatewayConfig
	Data    DataConfig
	Trading TradingConfig
	Log     LogConfig
	Server  ServerConfig
}

var globalConfig *Config
var configFilePath string

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configFilePath = path
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	return configFilePath
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	Broker struct {
		Login     int64  `yaml:"login" json:"login"`
		Password  string `yaml:"password" json:"password"`
		Server    string `yaml:"server" json:"server"`
		StorePath string `yaml:"store_path" json:"store_path"`
		StoreKey  string `yaml:"store_key" json:"store_key"`
	} `yaml:"broker" json:"broker"`
	Gateway struct {
		BaseURL        string `yaml:"base_url" json:"base_url"`
		Token          string `yaml:"token" json:"token"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		RetryCount     *int   `yaml:"retry_count" json:"retry_count"`
		DryRun         *bool  `yaml:"dry_run" json:"dry_run"`
	} `yaml:"gateway" json:"gateway"`
	Data struct {
		BaseURL           string            `yaml:"base_url" json:"base_url"`
		TimeoutSeconds    int               `yaml:"timeout_seconds" json:"timeout_seconds"`
		RetryCount        *int              `yaml:"retry_count" json:"retry_count"`
		RequestsPerSecond int               `yaml:"requests_per_second" json:"requests_per_second"`
		ForexSuffix       string            `yaml:"forex_suffix" json:"forex_suffix"`
		SymbolMap         map[string]string `yaml:"symbol_map" json:"symbol_map"`
	} `yaml:"data" json:"data"`
	Trading struct {
		Symbols             []string `yaml:"symbols" json:"symbols"`
		Volume              float64  `yaml:"volume" json:"volume"`
		LookbackDays        int      `yaml:"lookback_days" json:"lookback_days"`
		StopLossPct         float64  `yaml:"stop_loss_pct" json:"stop_loss_pct"`
		TakeProfitPct       float64  `yaml:"take_profit_pct" json:"take_profit_pct"`
		DeviationPoints     *int     `yaml:"deviation_points" json:"deviation_points"`
		RoundLevels         *bool    `yaml:"round_levels" json:"round_levels"`
		Magic               int64    `yaml:"magic" json:"magic"`
		DedupeWindowSeconds int      `yaml:"dedupe_window_seconds" json:"dedupe_window_seconds"`
	} `yaml:"trading" json:"trading"`
	Log struct {
		Level      string `yaml:"level" json:"level"`
		File       string `yaml:"file" json:"file"`
		MaxSize    int    `yaml:"max_size" json:"max_size"`
		MaxBackups int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age"`
		Compress   *bool  `yaml:"compress" json:"compress"`
	} `yaml:"log" json:"log"`
	Server struct {
		Addr            string `yaml:"addr" json:"addr"`
		CacheTTLSeconds *int   `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
		EnableDebug     *bool  `yaml:"enable_debug" json:"enable_debug"`
	} `yaml:"server" json:"server"`
}

// LoadDotEnv 尽力加载 .env（文件不存在不是错误），已存在的环境变量不会被覆盖
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// Load 从已设置的配置文件路径加载；路径为空时只使用环境变量和默认值
func Load() (*Config, error) {
	return LoadFromFile(configFilePath)
}

// LoadFromFile 加载配置。优先级：配置文件 > 环境变量 > 默认值。
func LoadFromFile(filePath string) (*Config, error) {
	var cf *ConfigFile
	if filePath != "" {
		var err error
		cf, err = loadConfigFile(filePath)
		if err != nil {
			return nil, err
		}
	} else {
		cf = &ConfigFile{}
	}

	config := &Config{
		Broker: BrokerConfig{
			Login:     pickInt64(cf.Broker.Login, parseInt64Env("BROKER_LOGIN", 0)),
			Password:  pickString(cf.Broker.Password, getEnv("BROKER_PASSWORD", "")),
			Server:    pickString(cf.Broker.Server, getEnv("BROKER_SERVER", "")),
			StorePath: pickString(cf.Broker.StorePath, getEnv("SECRET_STORE_PATH", "")),
			StoreKey:  pickString(cf.Broker.StoreKey, getEnv("SECRET_STORE_KEY", "")),
		},
		Gateway: GatewayConfig{
			BaseURL:    pickString(cf.Gateway.BaseURL, getEnv("GATEWAY_URL", DefaultGatewayURL)),
			Token:      pickString(cf.Gateway.Token, getEnv("GATEWAY_TOKEN", "")),
			Timeout:    seconds(pickInt(cf.Gateway.TimeoutSeconds, parseIntEnv("GATEWAY_TIMEOUT_SECONDS", 30))),
			RetryCount: pickIntPtr(cf.Gateway.RetryCount, parseIntEnv("GATEWAY_RETRY_COUNT", 0)),
			DryRun:     pickBoolPtr(cf.Gateway.DryRun, parseBoolEnv("DRY_RUN", false)),
		},
		Data: DataConfig{
			BaseURL:           pickString(cf.Data.BaseURL, getEnv("YAHOO_BASE_URL", DefaultYahooBaseURL)),
			Timeout:           seconds(pickInt(cf.Data.TimeoutSeconds, parseIntEnv("DATA_TIMEOUT_SECONDS", 20))),
			RetryCount:        pickIntPtr(cf.Data.RetryCount, parseIntEnv("DATA_RETRY_COUNT", 2)),
			RequestsPerSecond: pickInt(cf.Data.RequestsPerSecond, parseIntEnv("DATA_REQUESTS_PER_SECOND", 2)),
			ForexSuffix:       pickString(cf.Data.ForexSuffix, getEnv("FOREX_SUFFIX", DefaultForexSuffix)),
			SymbolMap:         cf.Data.SymbolMap,
		},
		Trading: TradingConfig{
			Symbols:         parseSymbols(cf.Trading.Symbols, getEnv("SYMBOLS", "")),
			Volume:          decimal.NewFromFloat(pickFloat(cf.Trading.Volume, parseFloatEnv("VOLUME", DefaultVolume))),
			LookbackDays:    pickInt(cf.Trading.LookbackDays, parseIntEnv("LOOKBACK_DAYS", DefaultLookbackDays)),
			StopLossPct:     decimal.NewFromFloat(pickFloat(cf.Trading.StopLossPct, parseFloatEnv("STOP_LOSS_PCT", DefaultStopLossPct))),
			TakeProfitPct:   decimal.NewFromFloat(pickFloat(cf.Trading.TakeProfitPct, parseFloatEnv("TAKE_PROFIT_PCT", DefaultTakeProfitPct))),
			DeviationPoints: pickIntPtr(cf.Trading.DeviationPoints, parseIntEnv("DEVIATION_POINTS", DefaultDeviationPoints)),
			RoundLevels:     pickBoolPtr(cf.Trading.RoundLevels, parseBoolEnv("ROUND_LEVELS", true)),
			Magic:           pickInt64(cf.Trading.Magic, parseInt64Env("MAGIC", DefaultMagic)),
			DedupeWindow:    seconds(pickInt(cf.Trading.DedupeWindowSeconds, parseIntEnv("DEDUPE_WINDOW_SECONDS", 0))),
		},
		Log: LogConfig{
			Level:      pickString(cf.Log.Level, getEnv("LOG_LEVEL", "info")),
			File:       pickString(cf.Log.File, getEnv("LOG_FILE", "logs/gomomentum.log")),
			MaxSize:    pickInt(cf.Log.MaxSize, 100),
			MaxBackups: pickInt(cf.Log.MaxBackups, 3),
			MaxAge:     pickInt(cf.Log.MaxAge, 28),
			Compress:   pickBoolPtr(cf.Log.Compress, true),
		},
		Server: ServerConfig{
			Addr:        pickString(cf.Server.Addr, getEnv("SERVER_ADDR", DefaultServerAddr)),
			CacheTTL:    seconds(pickIntPtr(cf.Server.CacheTTLSeconds, parseIntEnv("SERVER_CACHE_TTL_SECONDS", 60))),
			EnableDebug: pickBoolPtr(cf.Server.EnableDebug, parseBoolEnv("SERVER_DEBUG", false)),
		},
	}

	config.normalize()

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	globalConfig = config
	configFilePath = filePath
	return config, nil
}

// normalize 操作员输入容错：回看天数/手数非法时回退到默认值
func (c *Config) normalize() {
	if c.Trading.LookbackDays < 1 {
		c.Trading.LookbackDays = DefaultLookbackDays
	}
	if !c.Trading.Volume.IsPositive() {
		c.Trading.Volume = decimal.NewFromFloat(DefaultVolume)
	}
	if c.Trading.Magic == 0 {
		c.Trading.Magic = DefaultMagic
	}
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

// Get 获取全局配置（如果已加载）
func Get() *Config {
	return globalConfig
}

// Validate 验证配置。凭证在下单前由 ValidateCredentials 单独检查（serve 不需要凭证）。
func (c *Config) Validate() error {
	one := decimal.NewFromInt(1)
	if !c.Trading.StopLossPct.IsPositive() || c.Trading.StopLossPct.GreaterThanOrEqual(one) {
		return fmt.Errorf("STOP_LOSS_PCT 必须在 0 到 1 之间")
	}
	if !c.Trading.TakeProfitPct.IsPositive() || c.Trading.TakeProfitPct.GreaterThanOrEqual(one) {
		return fmt.Errorf("TAKE_PROFIT_PCT 必须在 0 到 1 之间")
	}
	if c.Trading.DeviationPoints < 0 {
		return fmt.Errorf("DEVIATION_POINTS 不能为负数")
	}
	if c.Trading.DedupeWindow < 0 {
		return fmt.Errorf("DEDUPE_WINDOW_SECONDS 不能为负数")
	}
	if c.Data.BaseURL == "" {
		return fmt.Errorf("数据源地址不能为空")
	}
	if c.Data.RequestsPerSecond < 0 {
		return fmt.Errorf("DATA_REQUESTS_PER_SECOND 不能为负数")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("GATEWAY_URL 不能为空")
	}
	return nil
}

// ValidateCredentials 下单前检查登录信息是否齐全
func (c *Config) ValidateCredentials() error {
	if c.Broker.Login == 0 {
		return fmt.Errorf("BROKER_LOGIN 未配置")
	}
	if c.Broker.Password == "" {
		return fmt.Errorf("BROKER_PASSWORD 未配置")
	}
	if c.Broker.Server == "" {
		return fmt.Errorf("BROKER_SERVER 未配置")
	}
	return nil
}

// FillCredentialsFromStore 配置/环境变量缺失的凭证项从加密凭证库补齐；未配置凭证库时不做任何事
func (c *Config) FillCredentialsFromStore() error {
	if c.Broker.StorePath == "" {
		return nil
	}
	key, err := secretstore.ParseKey(c.Broker.StoreKey)
	if err != nil {
		return fmt.Errorf("解析凭证库 key 失败: %w", err)
	}
	store, err := secretstore.Open(secretstore.OpenOptions{Path: c.Broker.StorePath, EncryptionKey: key})
	if err != nil {
		return fmt.Errorf("打开凭证库失败: %w", err)
	}
	defer store.Close()

	if c.Broker.Login == 0 {
		v, ok, err := store.GetString(secretstore.KeyBrokerLogin)
		if err != nil {
			return err
		}
		if ok {
			login, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("凭证库中的 login 非法: %w", err)
			}
			c.Broker.Login = login
		}
	}
	if c.Broker.Password == "" {
		v, ok, err := store.GetString(secretstore.KeyBrokerPassword)
		if err != nil {
			return err
		}
		if ok {
			c.Broker.Password = v
		}
	}
	if c.Broker.Server == "" {
		v, ok, err := store.GetString(secretstore.KeyBrokerServer)
		if err != nil {
			return err
		}
		if ok {
			c.Broker.Server = v
		}
	}
	return nil
}

// parseSymbols 配置文件列表优先，否则解析逗号分隔的环境变量；统一去空白、转大写
func parseSymbols(fromFile []string, fromEnv string) []string {
	raw := fromFile
	if len(raw) == 0 {
		raw = strings.Split(fromEnv, ",")
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func pickString(fileValue, fallback string) string {
	if fileValue != "" {
		return fileValue
	}
	return fallback
}

func pickInt(fileValue, fallback int) int {
	if fileValue > 0 {
		return fileValue
	}
	return fallback
}

func pickInt64(fileValue, fallback int64) int64 {
	if fileValue > 0 {
		return fileValue
	}
	return fallback
}

func pickFloat(fileValue, fallback float64) float64 {
	if fileValue > 0 {
		return fileValue
	}
	return fallback
}

// pickIntPtr 配置文件显式给出（包括 0）时使用配置文件的值
func pickIntPtr(fileValue *int, fallback int) int {
	if fileValue != nil {
		return *fileValue
	}
	return fallback
}

func pickBoolPtr(fileValue *bool, fallback bool) bool {
	if fileValue != nil {
		return *fileValue
	}
	return fallback
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseInt64Env(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseFloatEnv 解析浮点数环境变量
func parseFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
