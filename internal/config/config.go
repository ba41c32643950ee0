package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultGatewaySecret = "change-me-gateway-secret"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Policy    PolicyConfig    `yaml:"policy"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Mode           string        `yaml:"mode"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig enables the distributed room lock when Address is set.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTAccessTTL time.Duration `yaml:"jwt_access_ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// GatewayConfig configures the payment provider. An empty BaseURL selects the sandbox gateway.
type GatewayConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	Merchant string        `yaml:"merchant"`
	Secret   string        `yaml:"secret"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (g GatewayConfig) Sandbox() bool { return strings.TrimSpace(g.BaseURL) == "" }

type PolicyConfig struct {
	TaxRate              float64       `yaml:"tax_rate"`
	ServiceFeeRate       float64       `yaml:"service_fee_rate"`
	DailyThreshold       time.Duration `yaml:"daily_threshold"`
	MonthlyThreshold     time.Duration `yaml:"monthly_threshold"`
	MinLeadTime          time.Duration `yaml:"min_lead_time"`
	MaxAdvanceDays       int           `yaml:"max_advance_days"`
	RefundHighTierWindow time.Duration `yaml:"refund_high_tier_window"`
	RefundHighPercentage float64       `yaml:"refund_high_percentage"`
	RefundLowPercentage  float64       `yaml:"refund_low_percentage"`
	RefundMaxElapsed     float64       `yaml:"refund_max_elapsed_ratio"`
	OwnerApprovalTimeout time.Duration `yaml:"owner_approval_timeout"`
	OpeningHour          int           `yaml:"opening_hour"`
	ClosingHour          int           `yaml:"closing_hour"`
}

// Load reads a YAML file, expanding ${VAR} references from the environment and an optional .env file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if c.Auth.JWTAccessTTL <= 0 {
		return errors.New("auth.jwt_access_ttl must be > 0")
	}
	p := c.Policy
	if p.TaxRate < 0 || p.ServiceFeeRate < 0 {
		return errors.New("policy tax and service fee rates must be >= 0")
	}
	if p.RefundHighPercentage <= 0 || p.RefundHighPercentage > 1 || p.RefundLowPercentage <= 0 || p.RefundLowPercentage > 1 {
		return errors.New("policy refund percentages must be in (0, 1]")
	}
	if p.RefundMaxElapsed <= 0 || p.RefundMaxElapsed > 1 {
		return errors.New("policy.refund_max_elapsed_ratio must be in (0, 1]")
	}
	if p.OpeningHour < 0 || p.ClosingHour > 24 || p.ClosingHour <= p.OpeningHour {
		return errors.New("policy opening hours are invalid")
	}

	if isProdLike(c.App.Environment) {
		if isEmptyOrDefault(c.Auth.JWTSecret, defaultJWTSecret) {
			return errors.New("in prod/release auth.jwt_secret must be set and not default")
		}
		if !c.Gateway.Sandbox() && isEmptyOrDefault(c.Gateway.Secret, defaultGatewaySecret) {
			return errors.New("in prod/release gateway.secret must be set and not default")
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "coworking"
	}
	if c.App.Environment == "" {
		c.App.Environment = "dev"
	}
	c.App.Environment = strings.ToLower(strings.TrimSpace(c.App.Environment))
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.Mode == "" {
		c.HTTP.Mode = "debug"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = defaultJWTSecret
	}
	if c.Auth.JWTAccessTTL == 0 {
		c.Auth.JWTAccessTTL = 24 * time.Hour
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 40
	}
	if c.Gateway.Provider == "" {
		c.Gateway.Provider = "sandbox"
	}
	if c.Gateway.Secret == "" {
		c.Gateway.Secret = defaultGatewaySecret
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 30 * time.Second
	}
	c.Policy.applyDefaults()
}

func (p *PolicyConfig) applyDefaults() {
	if p.TaxRate == 0 {
		p.TaxRate = 0.10
	}
	if p.ServiceFeeRate == 0 {
		p.ServiceFeeRate = 0.05
	}
	if p.DailyThreshold == 0 {
		p.DailyThreshold = 24 * time.Hour
	}
	if p.MonthlyThreshold == 0 {
		p.MonthlyThreshold = 30 * 24 * time.Hour
	}
	if p.MinLeadTime == 0 {
		p.MinLeadTime = 15 * time.Minute
	}
	if p.MaxAdvanceDays == 0 {
		p.MaxAdvanceDays = 365
	}
	if p.RefundHighTierWindow == 0 {
		p.RefundHighTierWindow = 24 * time.Hour
	}
	if p.RefundHighPercentage == 0 {
		p.RefundHighPercentage = 0.80
	}
	if p.RefundLowPercentage == 0 {
		p.RefundLowPercentage = 0.50
	}
	if p.RefundMaxElapsed == 0 {
		p.RefundMaxElapsed = 0.50
	}
	if p.OwnerApprovalTimeout == 0 {
		p.OwnerApprovalTimeout = 5 * time.Hour
	}
	if p.OpeningHour == 0 && p.ClosingHour == 0 {
		p.OpeningHour = 8
		p.ClosingHour = 22
	}
}
