package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the runtime environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
	EnvTest        Environment = "test"
)

// Config holds all facilitator configuration
type Config struct {
	Environment Environment
	Server      ServerConfig
	Miden       MidenConfig
	RateLimit   RateLimitConfig
	Monitoring  MonitoringConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	BodyLimit          int // request body cap for verify/settle, bytes
	ProxyHeader        string
	TrustedProxies     []string
	CORSAllowedOrigins []string
	AdminMetricsKey    string // optional bearer token protecting /metrics
}

// MidenConfig holds Miden chain configuration
type MidenConfig struct {
	Network        string // "testnet" or "mainnet"
	RPCURL         string // Miden node RPC endpoint
	FaucetID       string // hex account id of the advertised fungible faucet
	TokenDecimals  uint8
	RPCTimeout     time.Duration
	VerifierLevel  uint32 // STARK verifier security level
	ProofsDisabled bool   // reject everything: no cryptographic backend
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	MaxRequests   int // per caller per window on /verify and /settle
	GlobalMax     int // ceiling across all callers
}

// MonitoringConfig holds balance monitoring configuration
type MonitoringConfig struct {
	LowBalanceAlertURL  string
	WatchedAccount      string
	LowBalanceThreshold uint64
	CheckInterval       time.Duration
	Timeout             time.Duration
}

// Load loads configuration from environment variables. A .env file is
// honored when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load() // no-op if .env absent (production uses real env vars)

	env := Environment(getEnv("ENV", "production"))
	if env != EnvDevelopment && env != EnvProduction && env != EnvTest {
		env = EnvProduction
	}

	return &Config{
		Environment: env,
		Server: ServerConfig{
			Address:            bindAddress(),
			ReadTimeout:        getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			BodyLimit:          getInt("SERVER_BODY_LIMIT", 2*1024*1024),
			ProxyHeader:        getEnv("PROXY_HEADER", ""),
			TrustedProxies:     getEnvSlice("TRUSTED_PROXIES", nil),
			CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", nil),
			AdminMetricsKey:    getEnv("ADMIN_METRICS_API_KEY", ""),
		},
		Miden: MidenConfig{
			Network:        getEnv("MIDEN_NETWORK", "testnet"),
			RPCURL:         getEnv("MIDEN_RPC_URL", "https://rpc.testnet.miden.io"),
			FaucetID:       getEnv("FAUCET_ID", "0x37d5977a8e16d8205a360820f0230f"),
			TokenDecimals:  uint8(getInt("TOKEN_DECIMALS", 6)),
			RPCTimeout:     getDuration("MIDEN_RPC_TIMEOUT", 30*time.Second),
			VerifierLevel:  uint32(getInt("MIDEN_VERIFIER_LEVEL", 96)),
			ProofsDisabled: getBool("MIDEN_PROOFS_DISABLED", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds: getInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			MaxRequests:   getInt("RATE_LIMIT_MAX_REQUESTS", 100),
			GlobalMax:     getInt("RATE_LIMIT_GLOBAL_MAX", 1000),
		},
		Monitoring: MonitoringConfig{
			LowBalanceAlertURL:  getEnv("MONITORING_LOW_BALANCE_ALERT_URL", ""),
			WatchedAccount:      getEnv("MONITORING_WATCHED_ACCOUNT", ""),
			LowBalanceThreshold: getUint64("MONITORING_LOW_BALANCE_THRESHOLD", 0),
			CheckInterval:       getDuration("MONITORING_CHECK_INTERVAL", 15*time.Minute),
			Timeout:             getDuration("MONITORING_TIMEOUT", 5*time.Second),
		},
	}
}

// bindAddress resolves the listen address. BIND_ADDR wins; HOST and PORT
// are kept for backward compatibility, defaulting to 0.0.0.0:4020.
func bindAddress() string {
	if addr := os.Getenv("BIND_ADDR"); addr != "" {
		return addr
	}
	host := getEnv("HOST", "0.0.0.0")
	port := getEnv("PORT", "4020")
	return host + ":" + port
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the configuration for invalid or inconsistent values
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("config: server address required")
	}

	switch c.Miden.Network {
	case "testnet", "mainnet":
	default:
		return fmt.Errorf("config: invalid MIDEN_NETWORK %q: must be 'testnet' or 'mainnet'", c.Miden.Network)
	}

	if c.Miden.RPCURL == "" {
		return errors.New("config: MIDEN_RPC_URL required")
	}
	if u, err := url.Parse(c.Miden.RPCURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: MIDEN_RPC_URL %q is not a valid http(s) URL", c.Miden.RPCURL)
	}

	if err := validateAccountHex(c.Miden.FaucetID); err != nil {
		return fmt.Errorf("config: FAUCET_ID: %w", err)
	}
	if c.Monitoring.WatchedAccount != "" {
		if err := validateAccountHex(c.Monitoring.WatchedAccount); err != nil {
			return fmt.Errorf("config: MONITORING_WATCHED_ACCOUNT: %w", err)
		}
	}

	if c.Miden.VerifierLevel == 0 {
		c.Miden.VerifierLevel = 96
	}
	if c.RateLimit.Enabled && c.RateLimit.MaxRequests <= 0 {
		return errors.New("config: RATE_LIMIT_MAX_REQUESTS must be positive when rate limiting is enabled")
	}

	return nil
}

// validateAccountHex checks the canonical account id form: 0x + 30 lowercase hex digits.
func validateAccountHex(s string) error {
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("account id %q must start with 0x", s)
	}
	digits := s[2:]
	if len(digits) != 30 {
		return fmt.Errorf("account id %q must have exactly 30 hex digits", s)
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("account id %q contains non-lowercase-hex characters", s)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseUint(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}
