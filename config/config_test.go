package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orbitlen/core/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log:
  level: debug
oracle:
  window: 30m
banks:
  - mint: sol
    decimals: 9
    oracle_key: sol/usd
    asset_weight_init: "0.8"
    asset_weight_maint: "0.9"
    liability_weight_init: "1.2"
    liability_weight_maint: "1.1"
    interest_rate:
      optimal_utilization_rate: "0.8"
      plateau_interest_rate: "0.1"
      max_interest_rate: "1"
  - mint: usdc
    decimals: 6
    oracle_key: usdc/usd
    interest_rate:
      optimal_utilization_rate: "0.9"
      plateau_interest_rate: "0.05"
      max_interest_rate: "0.6"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", testConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Oracle.Window)
	require.Len(t, cfg.Banks, 2)

	sol, err := cfg.Banks[0].BankConfig()
	require.NoError(t, err)
	assert.Equal(t, "sol/usd", sol.OracleKey)
	assert.Equal(t, "0.9", sol.AssetWeightMaint.String())
	assert.Equal(t, "0.8", sol.OptimalUtilizationRate.String())

	usdc, err := cfg.Banks[1].BankConfig()
	require.NoError(t, err)
	assert.True(t, usdc.AssetWeightInit.IsZero())
	assert.Equal(t, "0.6", usdc.MaxInterestRate.String())
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Oracle.Window)
	assert.Empty(t, cfg.Database.SQLitePath)

	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvSQLitePath, "orbitlen.db")
	cfg, err = Load(writeFile(t, "config.yaml", testConfig))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "orbitlen.db", cfg.Database.SQLitePath)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "banks: [\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(b *BankSpec)
		wantErr string
	}{
		{"missing mint", func(b *BankSpec) { b.Mint = "" }, "banks[0].mint is required"},
		{"bad decimal", func(b *BankSpec) { b.AssetWeightInit = "0.8x" }, "asset_weight_init"},
		{"missing curve", func(b *BankSpec) { b.InterestRate.MaxInterestRate = "" }, "interest_rate.max_interest_rate is required"},
		{"optimal out of range", func(b *BankSpec) { b.InterestRate.OptimalUtilizationRate = "1" }, "optimal utilization rate"},
		{"weight out of range", func(b *BankSpec) { b.AssetWeightInit = "1.5" }, "asset weight init"},
		{"missing oracle", func(b *BankSpec) { b.OracleKey = "" }, "oracle key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, "config.yaml", testConfig))
			require.NoError(t, err)
			tt.modify(&cfg.Banks[0])

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg, err := Load(writeFile(t, "config.yaml", testConfig))
	require.NoError(t, err)
	cfg.Banks[1].Mint = "sol"
	assert.ErrorContains(t, cfg.Validate(), "duplicate mint sol")

	cfg.Banks[1].Mint = "usdc"
	cfg.Banks[1].InterestRate.PlateauInterestRate = "0.7"
	assert.ErrorIs(t, cfg.Validate(), core.InvalidConfig)
}
