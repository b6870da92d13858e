package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CompanyConfig lists one instrument with its immutable initial price.
type CompanyConfig struct {
	Symbol       string          `yaml:"symbol"`
	InitialPrice decimal.Decimal `yaml:"initial_price"`
}

// ParticipantConfig seeds one trading account.
type ParticipantConfig struct {
	Name     string           `yaml:"name"`
	Cash     decimal.Decimal  `yaml:"cash"`
	Holdings map[string]int64 `yaml:"holdings"`
}

// Config holds all application settings. After loading, selected values can
// be overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Market struct {
		MinOrderValue        decimal.Decimal `yaml:"min_order_value"`
		CircuitPct           decimal.Decimal `yaml:"circuit_pct"`
		JitterPct            float64         `yaml:"jitter_pct"`
		JitterAbs            float64         `yaml:"jitter_abs"`
		PriceFloor           decimal.Decimal `yaml:"price_floor"`
		CycleIntervalSec     int             `yaml:"cycle_interval_sec"`
		ClampToPreviousClose bool            `yaml:"clamp_to_previous_close"`
		Seed                 uint64          `yaml:"seed"` // 0 = non-deterministic
	} `yaml:"market"`

	Companies    []CompanyConfig     `yaml:"companies"`
	Participants []ParticipantConfig `yaml:"participants"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// normalize uppercases symbols so the registry and ledgers key consistently.
func (c *Config) normalize() {
	for i := range c.Companies {
		c.Companies[i].Symbol = strings.ToUpper(strings.TrimSpace(c.Companies[i].Symbol))
	}
	for i := range c.Participants {
		normalized := make(map[string]int64, len(c.Participants[i].Holdings))
		for symbol, qty := range c.Participants[i].Holdings {
			normalized[strings.ToUpper(strings.TrimSpace(symbol))] = qty
		}
		c.Participants[i].Holdings = normalized
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if len(c.Companies) == 0 {
		return fmt.Errorf("at least one company is required")
	}
	seen := make(map[string]bool)
	for _, company := range c.Companies {
		if company.Symbol == "" {
			return fmt.Errorf("company symbol must not be empty")
		}
		if seen[company.Symbol] {
			return fmt.Errorf("duplicate company symbol: %s", company.Symbol)
		}
		seen[company.Symbol] = true
		if !company.InitialPrice.IsPositive() {
			return fmt.Errorf("initial price for %s must be positive", company.Symbol)
		}
	}

	if c.Market.CycleIntervalSec <= 0 {
		return fmt.Errorf("cycle interval must be positive")
	}
	if c.Market.MinOrderValue.IsNegative() {
		return fmt.Errorf("minimum order value must not be negative")
	}
	if !c.Market.CircuitPct.IsPositive() || c.Market.CircuitPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("circuit percentage must be in (0, 1)")
	}
	if !c.Market.PriceFloor.IsPositive() {
		return fmt.Errorf("price floor must be positive")
	}

	for _, p := range c.Participants {
		if p.Name == "" {
			return fmt.Errorf("participant name must not be empty")
		}
		if p.Cash.IsNegative() {
			return fmt.Errorf("opening cash for %s must not be negative", p.Name)
		}
		for symbol, qty := range p.Holdings {
			if !seen[symbol] {
				return fmt.Errorf("participant %s holds unlisted company %s", p.Name, symbol)
			}
			if qty < 0 {
				return fmt.Errorf("participant %s holds negative quantity of %s", p.Name, symbol)
			}
		}
	}

	return nil
}

// overrideWithEnv overrides configuration values when environment
// variables are present.
func overrideWithEnv(cfg *Config) {
	if path := os.Getenv("STOCK_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if addr := os.Getenv("STOCK_HTTP_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("STOCK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
