// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Swap      SwapConfig      `mapstructure:"swap"`
	PriceFeed PriceFeedConfig `mapstructure:"price_feed"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL     string        `mapstructure:"http_url"`
	ChainID     uint64        `mapstructure:"chain_id"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	ReadsPerMin int           `mapstructure:"reads_per_minute"`
}

// WalletConfig holds the signing key configuration.
// The key comes from the environment, never from the config file.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// UniswapConfig holds Uniswap V3 contract addresses.
type UniswapConfig struct {
	QuoterAddress  string `mapstructure:"quoter_address"`
	RouterAddress  string `mapstructure:"router_address"`
	DefaultFeeTier int    `mapstructure:"default_fee_tier"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *UniswapConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// SwapConfig holds swap orchestration settings.
type SwapConfig struct {
	Pairs           []string      `mapstructure:"pairs"`
	SlippageBps     int64         `mapstructure:"slippage_bps"`
	DeadlineSeconds int64         `mapstructure:"deadline_seconds"`
	QuoteDebounce   time.Duration `mapstructure:"quote_debounce"`
	HistoryPath     string        `mapstructure:"history_path"`
	HistoryCap      int           `mapstructure:"history_cap"`
	TUIMode         bool          `mapstructure:"-"` // set at runtime, not from config file
}

// PriceFeedConfig holds the reference price feed settings.
// The feed is advisory only (price impact display).
type PriceFeedConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	WebSocketURL string        `mapstructure:"websocket_url"`
	SnapshotURL  string        `mapstructure:"snapshot_url"`
	Symbols      []string      `mapstructure:"symbols"`
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceExporter  string `mapstructure:"trace_exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("DEX")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "DEX_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DEX_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DEX_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "DEX_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "DEX_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Wallet
	v.BindEnv("wallet.private_key", "DEX_WALLET_PRIVATE_KEY", "WALLET_PRIVATE_KEY")

	// Uniswap
	v.BindEnv("uniswap.quoter_address", "DEX_UNISWAP_QUOTER", "UNISWAP_QUOTER")
	v.BindEnv("uniswap.router_address", "DEX_UNISWAP_ROUTER", "UNISWAP_ROUTER")

	// Swap
	v.BindEnv("swap.pairs", "DEX_PAIRS")
	v.BindEnv("swap.slippage_bps", "DEX_SLIPPAGE_BPS")
	v.BindEnv("swap.deadline_seconds", "DEX_DEADLINE_SECONDS")
	v.BindEnv("swap.history_path", "DEX_HISTORY_PATH")

	// Price feed
	v.BindEnv("price_feed.websocket_url", "DEX_PRICE_FEED_WS_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "DEX_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DEX_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_exporter", "DEX_OTEL_TRACE_EXPORTER")
	v.BindEnv("telemetry.otlp_endpoint", "DEX_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "darknodedex")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.call_timeout", "15s")
	v.SetDefault("ethereum.reads_per_minute", 120)

	// Uniswap V3 Mainnet defaults (QuoterV2 and SwapRouter)
	v.SetDefault("uniswap.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("uniswap.router_address", "0xE592427A0AEce92De3Edee1F18E0157C05861564")
	v.SetDefault("uniswap.default_fee_tier", 3000) // 0.3%

	// Swap defaults
	v.SetDefault("swap.pairs", []string{"ETH-USDC", "ETH-DAI", "WBTC-USDC", "UNI-USDC"})
	v.SetDefault("swap.slippage_bps", 50)        // 0.5%
	v.SetDefault("swap.deadline_seconds", 1200)  // 20 minutes
	v.SetDefault("swap.quote_debounce", "400ms")
	v.SetDefault("swap.history_path", "")        // empty: ~/.darknodedex/history
	v.SetDefault("swap.history_cap", 200)

	// Price feed defaults
	v.SetDefault("price_feed.enabled", true)
	v.SetDefault("price_feed.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("price_feed.snapshot_url", "https://api.binance.com")
	v.SetDefault("price_feed.symbols", []string{"ETHUSDC"})
	v.SetDefault("price_feed.stale_timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "darknodedex")
	v.SetDefault("telemetry.trace_exporter", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Uniswap.QuoterAddress) {
		return fmt.Errorf("invalid uniswap.quoter_address: %s", c.Uniswap.QuoterAddress)
	}
	if !common.IsHexAddress(c.Uniswap.RouterAddress) {
		return fmt.Errorf("invalid uniswap.router_address: %s", c.Uniswap.RouterAddress)
	}
	if c.Swap.SlippageBps < 0 || c.Swap.SlippageBps > 10000 {
		return fmt.Errorf("swap.slippage_bps must be in [0, 10000], got %d", c.Swap.SlippageBps)
	}
	if c.Swap.DeadlineSeconds <= 0 {
		return fmt.Errorf("swap.deadline_seconds must be positive, got %d", c.Swap.DeadlineSeconds)
	}
	if len(c.Swap.Pairs) == 0 {
		return fmt.Errorf("swap.pairs cannot be empty")
	}
	if c.Swap.HistoryCap <= 0 {
		return fmt.Errorf("swap.history_cap must be positive, got %d", c.Swap.HistoryCap)
	}
	return nil
}
