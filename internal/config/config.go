// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// ProvidersConfig holds the tiered read-endpoint pool.
type ProvidersConfig struct {
	Premium        []string      `mapstructure:"premium"`
	Backup         []string      `mapstructure:"backup"`
	Public         []string      `mapstructure:"public"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Endpoints returns all configured endpoints in tier priority order.
func (c *ProvidersConfig) Endpoints() []string {
	all := make([]string, 0, len(c.Premium)+len(c.Backup)+len(c.Public))
	all = append(all, c.Premium...)
	all = append(all, c.Backup...)
	all = append(all, c.Public...)
	return all
}

// SourcesConfig holds external HTTP price/gas source settings.
type SourcesConfig struct {
	EtherscanBaseURL string  `mapstructure:"etherscan_base_url"`
	EtherscanAPIKey  string  `mapstructure:"etherscan_api_key"`
	InfuraGasAPIURL  string  `mapstructure:"infura_gas_api_url"`
	FiatDefaultUSD   float64 `mapstructure:"fiat_default_usd"`
}

// TokensConfig holds the token universe to scan pairwise.
type TokensConfig struct {
	Universe []string `mapstructure:"universe"`
}

// UniverseAddresses returns the token universe as common.Address values.
func (c *TokensConfig) UniverseAddresses() []common.Address {
	out := make([]common.Address, len(c.Universe))
	for i, t := range c.Universe {
		out[i] = common.HexToAddress(t)
	}
	return out
}

// VenuesConfig holds DEX registry addresses.
type VenuesConfig struct {
	PairVenues  []PairVenueConfig `mapstructure:"pair_venues"`
	TieredVenue TieredVenueConfig `mapstructure:"tiered_venue"`
	RPSLimit    int               `mapstructure:"rps_limit"`
}

// PairVenueConfig describes one pair-registry venue (Uniswap V2 family).
type PairVenueConfig struct {
	Name    string `mapstructure:"name"`
	Factory string `mapstructure:"factory"`
	FeeBps  uint32 `mapstructure:"fee_bps"`
}

// FactoryAddress returns the factory address as common.Address.
func (c *PairVenueConfig) FactoryAddress() common.Address {
	return common.HexToAddress(c.Factory)
}

// TieredVenueConfig describes the fee-tiered venue (Uniswap V3).
type TieredVenueConfig struct {
	Name     string `mapstructure:"name"`
	Enabled  bool   `mapstructure:"enabled"`
	Factory  string `mapstructure:"factory"`
	FeeTiers []int  `mapstructure:"fee_tiers"`
}

// FactoryAddress returns the factory address as common.Address.
func (c *TieredVenueConfig) FactoryAddress() common.Address {
	return common.HexToAddress(c.Factory)
}

// EngineConfig holds detection and profitability thresholds.
type EngineConfig struct {
	MinProfitUSD       float64 `mapstructure:"min_profit_usd"`
	MaxGasPriceGwei    float64 `mapstructure:"max_gas_price_gwei"`
	SpreadThresholdBps int64   `mapstructure:"spread_threshold_bps"`
	ScanIntervalMs     int     `mapstructure:"scan_interval_ms"`
	MinLiquidityWei    string  `mapstructure:"min_liquidity_wei"`
	MinBorrowWei       string  `mapstructure:"min_borrow_wei"`
	MaxBorrowWei       string  `mapstructure:"max_borrow_wei"`
	GasUnits           uint64  `mapstructure:"gas_units"`
	TopN               int     `mapstructure:"top_n"`
	KeepUnprofitable   bool    `mapstructure:"keep_unprofitable"`
	PriceRefreshCycles int     `mapstructure:"price_refresh_cycles"`
}

// ScanInterval returns the scan interval as a duration.
func (c *EngineConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMs) * time.Millisecond
}

// MinProfitUSDDecimal returns the minimum profit as decimal.Decimal.
func (c *EngineConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// MinLiquidityFloor returns the minimum reserve floor in wei.
func (c *EngineConfig) MinLiquidityFloor() *big.Int {
	return mustBig(c.MinLiquidityWei)
}

// MinBorrow returns the borrow floor in wei.
func (c *EngineConfig) MinBorrow() *big.Int {
	return mustBig(c.MinBorrowWei)
}

// MaxBorrow returns the borrow cap in wei.
func (c *EngineConfig) MaxBorrow() *big.Int {
	return mustBig(c.MaxBorrowWei)
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		// Validate catches malformed values before the engine starts.
		return big.NewInt(0)
	}
	return v
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// A config file is optional; env vars and defaults may carry everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
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
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Providers
	v.BindEnv("providers.premium", "ARB_PROVIDERS_PREMIUM")
	v.BindEnv("providers.backup", "ARB_PROVIDERS_BACKUP")
	v.BindEnv("providers.public", "ARB_PROVIDERS_PUBLIC")
	v.BindEnv("providers.websocket_url", "ARB_ETH_WS_URL", "ETH_WS_URL")

	// Sources
	v.BindEnv("sources.etherscan_api_key", "ARB_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY")
	v.BindEnv("sources.infura_gas_api_url", "ARB_INFURA_GAS_API_URL")

	// Engine
	v.BindEnv("engine.min_profit_usd", "ARB_MIN_PROFIT_USD")
	v.BindEnv("engine.max_gas_price_gwei", "ARB_MAX_GAS_PRICE_GWEI")
	v.BindEnv("engine.spread_threshold_bps", "ARB_SPREAD_THRESHOLD_BPS")
	v.BindEnv("engine.scan_interval_ms", "ARB_SCAN_INTERVAL_MS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "dex-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	// Provider defaults (public tier only; premium/backup come from env)
	v.SetDefault("providers.public", []string{
		"https://eth.llamarpc.com",
		"https://rpc.ankr.com/eth",
		"https://ethereum.publicnode.com",
	})
	v.SetDefault("providers.dial_timeout", "10s")
	v.SetDefault("providers.request_timeout", "15s")

	// Source defaults
	v.SetDefault("sources.etherscan_base_url", "https://api.etherscan.io/api")
	v.SetDefault("sources.fiat_default_usd", 3500.0)

	// Token universe defaults (mainnet majors)
	v.SetDefault("tokens.universe", []string{
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
		"0xdAC17F958D2ee523a2206206994597C13D831ec7", // USDT
		"0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
		"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", // WBTC
		"0x514910771AF9Ca656af840dff83E8264EcF986CA", // LINK
		"0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", // UNI
	})

	// Venue defaults: Uniswap V2, SushiSwap, Uniswap V3 (mainnet)
	v.SetDefault("venues.pair_venues", []map[string]any{
		{
			"name":    "uniswap-v2",
			"factory": "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f",
			"fee_bps": 30,
		},
		{
			"name":    "sushiswap",
			"factory": "0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac",
			"fee_bps": 30,
		},
	})
	v.SetDefault("venues.tiered_venue.name", "uniswap-v3")
	v.SetDefault("venues.tiered_venue.enabled", true)
	v.SetDefault("venues.tiered_venue.factory", "0x1F98431c8aD98523631AE4a59f267346ea31F984")
	v.SetDefault("venues.tiered_venue.fee_tiers", []int{100, 500, 3000, 10000})
	v.SetDefault("venues.rps_limit", 20)

	// Engine defaults
	v.SetDefault("engine.min_profit_usd", 50.0)
	v.SetDefault("engine.max_gas_price_gwei", 100.0)
	v.SetDefault("engine.spread_threshold_bps", 65)
	v.SetDefault("engine.scan_interval_ms", 2000)
	v.SetDefault("engine.min_liquidity_wei", "1000000000000000") // 0.001 tokens at 18 decimals
	v.SetDefault("engine.min_borrow_wei", "10000000000000000")   // 0.01 tokens
	v.SetDefault("engine.max_borrow_wei", "100000000000000000000") // 100 tokens
	v.SetDefault("engine.gas_units", 500000)
	v.SetDefault("engine.top_n", 20)
	v.SetDefault("engine.keep_unprofitable", false)
	v.SetDefault("engine.price_refresh_cycles", 5)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dex-scanner")
	v.SetDefault("telemetry.trace_provider", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration. Failures here are fatal and must
// surface before the first scan tick.
func (c *Config) Validate() error {
	if len(c.Providers.Endpoints()) == 0 {
		return fmt.Errorf("providers: at least one endpoint is required")
	}

	if len(c.Tokens.Universe) < 2 {
		return fmt.Errorf("tokens.universe: at least two tokens are required")
	}
	for _, t := range c.Tokens.Universe {
		if !common.IsHexAddress(t) {
			return fmt.Errorf("tokens.universe: invalid address %q", t)
		}
	}

	if len(c.Venues.PairVenues) == 0 && !c.Venues.TieredVenue.Enabled {
		return fmt.Errorf("venues: at least one venue must be configured")
	}
	for _, pv := range c.Venues.PairVenues {
		if pv.Name == "" {
			return fmt.Errorf("venues.pair_venues: name is required")
		}
		if !common.IsHexAddress(pv.Factory) {
			return fmt.Errorf("venues.pair_venues[%s]: invalid factory %q", pv.Name, pv.Factory)
		}
	}
	if c.Venues.TieredVenue.Enabled {
		if !common.IsHexAddress(c.Venues.TieredVenue.Factory) {
			return fmt.Errorf("venues.tiered_venue: invalid factory %q", c.Venues.TieredVenue.Factory)
		}
		if len(c.Venues.TieredVenue.FeeTiers) == 0 {
			return fmt.Errorf("venues.tiered_venue: fee_tiers cannot be empty")
		}
	}

	if c.Engine.SpreadThresholdBps <= 0 {
		return fmt.Errorf("engine.spread_threshold_bps must be positive")
	}
	if c.Engine.ScanIntervalMs <= 0 {
		return fmt.Errorf("engine.scan_interval_ms must be positive")
	}
	for name, val := range map[string]string{
		"engine.min_liquidity_wei": c.Engine.MinLiquidityWei,
		"engine.min_borrow_wei":    c.Engine.MinBorrowWei,
		"engine.max_borrow_wei":    c.Engine.MaxBorrowWei,
	} {
		if _, ok := new(big.Int).SetString(val, 10); !ok {
			return fmt.Errorf("%s: not a base-10 integer: %q", name, val)
		}
	}

	return nil
}
