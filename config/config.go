package config

import (
	"os"
	"time"

	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	EnvLogLevel   = "ORBITLEN_LOG_LEVEL"
	EnvSQLitePath = "ORBITLEN_SQLITE_PATH"

	DefaultLogLevel = "info"
)

// Config holds the pool configuration: logging, persistence, oracle settings
// and the bank set.
type Config struct {
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Oracle struct {
		Window time.Duration `yaml:"window"`
		MaxAge time.Duration `yaml:"max_age"`
	} `yaml:"oracle"`
	Banks []BankSpec `yaml:"banks"`
}

// BankSpec describes one bank. Decimal fields are strings so that no value
// passes through a float.
type BankSpec struct {
	Mint      string `yaml:"mint"`
	Decimals  uint8  `yaml:"decimals"`
	OracleKey string `yaml:"oracle_key"`

	AssetWeightInit      string `yaml:"asset_weight_init"`
	AssetWeightMaint     string `yaml:"asset_weight_maint"`
	LiabilityWeightInit  string `yaml:"liability_weight_init"`
	LiabilityWeightMaint string `yaml:"liability_weight_maint"`

	InterestRate struct {
		OptimalUtilizationRate string `yaml:"optimal_utilization_rate"`
		PlateauInterestRate    string `yaml:"plateau_interest_rate"`
		MaxInterestRate        string `yaml:"max_interest_rate"`
	} `yaml:"interest_rate"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.Database.SQLitePath = v
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Oracle.Window == 0 {
		c.Oracle.Window = time.Hour
	}
}

// Validate checks every bank, including its curve and weights.
func (c *Config) Validate() error {
	if c.Oracle.Window < 0 || c.Oracle.MaxAge < 0 {
		return errors.New("oracle.window and oracle.max_age must not be negative")
	}

	seen := make(map[string]bool, len(c.Banks))
	for i := range c.Banks {
		bank := &c.Banks[i]
		if bank.Mint == "" {
			return errors.Errorf("banks[%d].mint is required", i)
		}
		if seen[bank.Mint] {
			return errors.Errorf("banks[%d]: duplicate mint %s", i, bank.Mint)
		}
		seen[bank.Mint] = true

		bankConfig, err := bank.BankConfig()
		if err != nil {
			return errors.Wrapf(err, "banks[%d]", i)
		}
		if err := bankConfig.Validate(); err != nil {
			return errors.Wrapf(err, "banks[%d] %s", i, bank.Mint)
		}
	}
	return nil
}

// BankConfig parses the decimal fields of s. Empty weights stay zero.
func (s *BankSpec) BankConfig() (core.BankConfig, error) {
	var (
		bc  core.BankConfig
		err error
	)

	fields := []struct {
		name     string
		value    string
		dst      *decimal.Decimal
		required bool
	}{
		{"asset_weight_init", s.AssetWeightInit, &bc.AssetWeightInit, false},
		{"asset_weight_maint", s.AssetWeightMaint, &bc.AssetWeightMaint, false},
		{"liability_weight_init", s.LiabilityWeightInit, &bc.LiabilityWeightInit, false},
		{"liability_weight_maint", s.LiabilityWeightMaint, &bc.LiabilityWeightMaint, false},
		{"interest_rate.optimal_utilization_rate", s.InterestRate.OptimalUtilizationRate, &bc.OptimalUtilizationRate, true},
		{"interest_rate.plateau_interest_rate", s.InterestRate.PlateauInterestRate, &bc.PlateauInterestRate, true},
		{"interest_rate.max_interest_rate", s.InterestRate.MaxInterestRate, &bc.MaxInterestRate, true},
	}
	for _, f := range fields {
		if f.value == "" {
			if f.required {
				return bc, errors.Wrapf(core.InvalidConfig, "%s is required", f.name)
			}
			*f.dst = decimal.Zero
			continue
		}
		if *f.dst, err = decimal.NewFromString(f.value); err != nil {
			return bc, errors.Wrapf(core.InvalidConfig, "%s: %v", f.name, err)
		}
	}

	bc.OracleKey = s.OracleKey
	return bc, nil
}
