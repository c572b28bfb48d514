package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
	BCryptCost          int           `mapstructure:"bcrypt_cost"`
}

// GatewayConfig holds credentials and endpoints for the external payment
// processor: the checkout/charge API for collecting trip payments and the
// payout API for guide withdrawals.
type GatewayConfig struct {
	ServerKey   string        `mapstructure:"server_key"`
	ChargeURL   string        `mapstructure:"charge_url"`
	PayoutURL   string        `mapstructure:"payout_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CallbackURL string        `mapstructure:"callback_url"`
}

// PaymentConfig controls revenue split and withdrawal policy. Injected
// explicitly into the settlement and withdrawal services, never read from
// globals.
type PaymentConfig struct {
	GuideSharePercentage int64         `mapstructure:"guide_share_percentage"`
	MinimumWithdrawal    int64         `mapstructure:"minimum_withdrawal"`
	CheckoutExpiry       time.Duration `mapstructure:"checkout_expiry"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DefaultGuideSharePercentage = 80
	DefaultMinimumWithdrawal    = 100000
	DefaultCheckoutExpiry       = 24 * time.Hour
	DefaultGatewayTimeout       = 15 * time.Second
)

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if err := c.Payment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *GatewayConfig) Validate() error {
	if c.ServerKey == "" {
		return errors.New("server_key is required")
	}
	if c.ChargeURL == "" {
		return errors.New("charge_url is required")
	}
	if c.PayoutURL == "" {
		return errors.New("payout_url is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultGatewayTimeout
	}
	return nil
}

func (c *PaymentConfig) Validate() error {
	if c.GuideSharePercentage == 0 {
		c.GuideSharePercentage = DefaultGuideSharePercentage
	}
	if c.GuideSharePercentage < 0 || c.GuideSharePercentage > 100 {
		return errors.New("guide_share_percentage must be between 0 and 100")
	}
	if c.MinimumWithdrawal == 0 {
		c.MinimumWithdrawal = DefaultMinimumWithdrawal
	}
	if c.MinimumWithdrawal < 0 {
		return errors.New("minimum_withdrawal cannot be negative")
	}
	if c.CheckoutExpiry <= 0 {
		c.CheckoutExpiry = DefaultCheckoutExpiry
	}
	return nil
}
