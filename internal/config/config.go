package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Somnia testnet defaults.
const (
	DefaultRPCURL               = "https://dream-rpc.somnia.network"
	DefaultChainID              = 50312
	DefaultRouterAddress        = "0xb98c15a0dC1e271132e341250703c7e94c059e8D"
	DefaultWrappedNativeAddress = "0xf22ef0085f6511f70b01a68f360dcc56261f768a" // WSTT
	DefaultStablecoinAddress    = "0xda4fde38be7a2b959bf46e032ecfa21e64019b76" // USDT.g
	DefaultStablecoinDecimals   = 18
	DefaultDuelContractAddress  = "0x0F98B3c8C7C5E5D5f02B7D725267ada38168728E"
	DefaultBalanceAPIURL        = "https://api.subgraph.somnia.network/public_api/data_api/somnia/v1"
	DefaultExplorerAPIURL       = "https://somnia.w3us.site/api/v2"
	DefaultCacheDurationMs      = 60000
	DefaultRequestTimeoutMs     = 20000
)

// Config holds the overall configuration for the application.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Chain        ChainConfig        `yaml:"chain"`
	BalanceAPI   BalanceAPIConfig   `yaml:"balanceApi"`
	TokenCatalog TokenCatalogConfig `yaml:"tokenCatalog"`
	Cache        CacheConfig        `yaml:"cache"`
	Portfolio    PortfolioConfig    `yaml:"portfolioService"`
	LiveStats    LiveStatsConfig    `yaml:"liveStats"`
	Admin        AdminConfig        `yaml:"admin"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the server-specific configuration. Timeouts are in seconds.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
	EnablePprof  bool   `yaml:"enablePprof"`
}

// ChainConfig describes the chain endpoint and the contracts the valuation depends on.
type ChainConfig struct {
	ChainID              int64    `yaml:"chainID"`
	RPCURL               string   `yaml:"rpcURL"`
	FallbackRPCURLs      []string `yaml:"fallbackRpcURLs"`
	RouterAddress        string   `yaml:"routerAddress"`
	WrappedNativeAddress string   `yaml:"wrappedNativeAddress"`
	StablecoinAddress    string   `yaml:"stablecoinAddress"`
	StablecoinDecimals   uint8    `yaml:"stablecoinDecimals"`
	DuelContractAddress  string   `yaml:"duelContractAddress"`
	ConnectionTimeoutMs  int64    `yaml:"connectionTimeoutMs"`
	RPCCallTimeoutMs     int64    `yaml:"rpcCallTimeoutMs"`
	RateLimit            float64  `yaml:"rateLimit"` // calls per second, 0 disables the limiter
	BurstLimit           int      `yaml:"burstLimit"`
}

// BalanceAPIConfig configures the ERC-20 balance indexer.
type BalanceAPIConfig struct {
	BaseURL              string `yaml:"baseURL"`
	BearerToken          string `yaml:"bearerToken"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TokenCatalogConfig configures the explorer token list.
type TokenCatalogConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CacheTTLSeconds      int    `yaml:"cacheTTLSeconds"`
}

// CacheConfig holds configuration for the portfolio cache.
type CacheConfig struct {
	DurationMs int64       `yaml:"durationMs"`
	Backend    string      `yaml:"backend"` // memory | redis
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig is only read when Cache.Backend is redis.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// PortfolioConfig holds configuration for the aggregator.
type PortfolioConfig struct {
	MaxConcurrentValuations int `yaml:"maxConcurrentValuations"` // negative means unlimited
}

// LiveStatsConfig configures the websocket push.
type LiveStatsConfig struct {
	PushIntervalSeconds int `yaml:"pushIntervalSeconds"`
}

// AdminConfig protects the administrative routes. An empty secret disables them.
type AdminConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// CacheDuration returns the cache freshness window.
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.Cache.DurationMs) * time.Millisecond
}

// LoadConfig loads configuration from a YAML file, then applies environment overrides and defaults.
// A missing file is not an error: the service can run purely from the environment.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logrus.Warnf("Config file %s not found, using environment and defaults", path)
	case err != nil:
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("RPC_URL", &cfg.Chain.RPCURL)
	str("ROUTER_ADDRESS", &cfg.Chain.RouterAddress)
	str("WRAPPED_NATIVE_ADDRESS", &cfg.Chain.WrappedNativeAddress)
	str("STABLECOIN_ADDRESS", &cfg.Chain.StablecoinAddress)
	str("DUEL_CONTRACT_ADDRESS", &cfg.Chain.DuelContractAddress)
	str("BALANCE_API_URL", &cfg.BalanceAPI.BaseURL)
	str("SOMNIA_BEARER_TOKEN", &cfg.BalanceAPI.BearerToken)
	str("EXPLORER_API_URL", &cfg.TokenCatalog.BaseURL)
	str("SERVER_PORT", &cfg.Server.Port)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("REDIS_ADDR", &cfg.Cache.Redis.Addr)
	str("ADMIN_JWT_SECRET", &cfg.Admin.JWTSecret)

	if v, ok := os.LookupEnv("STABLECOIN_DECIMALS"); ok && v != "" {
		d, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid STABLECOIN_DECIMALS %q: %w", v, err)
		}
		cfg.Chain.StablecoinDecimals = uint8(d)
	}
	if v, ok := os.LookupEnv("CACHE_DURATION_MS"); ok && v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CACHE_DURATION_MS %q: %w", v, err)
		}
		cfg.Cache.DurationMs = ms
	}
	if cfg.Cache.Redis.Addr != "" && cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "redis"
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	} else if !strings.HasPrefix(cfg.Server.Port, ":") && !strings.Contains(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120
	}

	if cfg.Chain.ChainID == 0 {
		cfg.Chain.ChainID = DefaultChainID
	}
	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = DefaultRPCURL
	}
	if cfg.Chain.RouterAddress == "" {
		cfg.Chain.RouterAddress = DefaultRouterAddress
	}
	if cfg.Chain.WrappedNativeAddress == "" {
		cfg.Chain.WrappedNativeAddress = DefaultWrappedNativeAddress
	}
	if cfg.Chain.StablecoinAddress == "" {
		cfg.Chain.StablecoinAddress = DefaultStablecoinAddress
	}
	if cfg.Chain.StablecoinDecimals == 0 {
		cfg.Chain.StablecoinDecimals = DefaultStablecoinDecimals
	}
	if cfg.Chain.DuelContractAddress == "" {
		cfg.Chain.DuelContractAddress = DefaultDuelContractAddress
	}
	if cfg.Chain.ConnectionTimeoutMs == 0 {
		cfg.Chain.ConnectionTimeoutMs = 10000
	}
	if cfg.Chain.RPCCallTimeoutMs == 0 {
		cfg.Chain.RPCCallTimeoutMs = DefaultRequestTimeoutMs
	}
	if cfg.Chain.RateLimit > 0 && cfg.Chain.BurstLimit <= 0 {
		cfg.Chain.BurstLimit = 1
	}

	if cfg.BalanceAPI.BaseURL == "" {
		cfg.BalanceAPI.BaseURL = DefaultBalanceAPIURL
	}
	if cfg.BalanceAPI.RequestTimeoutMillis == 0 {
		cfg.BalanceAPI.RequestTimeoutMillis = DefaultRequestTimeoutMs
	}

	if cfg.TokenCatalog.BaseURL == "" {
		cfg.TokenCatalog.BaseURL = DefaultExplorerAPIURL
	}
	if cfg.TokenCatalog.RequestTimeoutMillis == 0 {
		cfg.TokenCatalog.RequestTimeoutMillis = DefaultRequestTimeoutMs
	}
	if cfg.TokenCatalog.CacheTTLSeconds == 0 {
		cfg.TokenCatalog.CacheTTLSeconds = 300
	}

	if cfg.Cache.DurationMs == 0 {
		cfg.Cache.DurationMs = DefaultCacheDurationMs
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = "portfolio:"
	}

	if cfg.Portfolio.MaxConcurrentValuations == 0 {
		cfg.Portfolio.MaxConcurrentValuations = 16
	}
	if cfg.LiveStats.PushIntervalSeconds == 0 {
		cfg.LiveStats.PushIntervalSeconds = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that addresses are well formed and durations make sense.
func (c *Config) Validate() error {
	addresses := map[string]string{
		"chain.routerAddress":        c.Chain.RouterAddress,
		"chain.wrappedNativeAddress": c.Chain.WrappedNativeAddress,
		"chain.stablecoinAddress":    c.Chain.StablecoinAddress,
		"chain.duelContractAddress":  c.Chain.DuelContractAddress,
	}
	for field, addr := range addresses {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s: %q is not a hex address", field, addr)
		}
	}
	if c.Cache.DurationMs <= 0 {
		return fmt.Errorf("cache.durationMs must be positive, got %d", c.Cache.DurationMs)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	return nil
}
