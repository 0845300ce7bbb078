package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInterestRateConfig() InterestRateConfig {
	return InterestRateConfig{
		OptimalUtilizationRate: decimal.RequireFromString("0.8"),
		PlateauInterestRate:    decimal.RequireFromString("0.1"),
		MaxInterestRate:        decimal.RequireFromString("1"),
	}
}

func TestCalcInterestRate(t *testing.T) {
	tests := []struct {
		name        string
		utilization string
		lending     string
		borrowing   string
	}{
		{"empty pool", "0", "0", "0"},
		{"below optimal", "0.5", "0.03125", "0.0625"},
		{"at optimal", "0.8", "0.08", "0.1"},
		{"above optimal", "0.9", "0.495", "0.55"},
		{"fully utilized", "1", "1", "1"},
	}

	config := testInterestRateConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lending, borrowing, err := config.CalcInterestRate(decimal.RequireFromString(tt.utilization))
			require.NoError(t, err)
			assert.Equal(t, tt.lending, lending.String())
			assert.Equal(t, tt.borrowing, borrowing.String())
		})
	}
}

func TestInterestRateCurveMonotonic(t *testing.T) {
	config := testInterestRateConfig()
	prev := decimal.Zero
	for i := 0; i <= 100; i++ {
		rate, err := config.InterestRateCurve(decimal.New(int64(i), -2))
		require.NoError(t, err)
		assert.True(t, rate.GreaterThanOrEqual(prev), "rate at %d%% dropped to %s", i, rate)
		prev = rate
	}
}

func TestInterestRateCurveInvalidOptimal(t *testing.T) {
	for _, optimal := range []string{"0", "1", "-0.5", "1.5"} {
		config := testInterestRateConfig()
		config.OptimalUtilizationRate = decimal.RequireFromString(optimal)

		_, _, err := config.CalcInterestRate(decimal.RequireFromString("0.5"))
		assert.True(t, errors.Is(err, MathError), "optimal %s: %v", optimal, err)
	}
}

func TestInterestRateConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *InterestRateConfig)
		wantErr error
	}{
		{"valid", func(c *InterestRateConfig) {}, nil},
		{"optimal zero", func(c *InterestRateConfig) { c.OptimalUtilizationRate = decimal.Zero }, ErrOptimalUr},
		{"optimal one", func(c *InterestRateConfig) { c.OptimalUtilizationRate = ONE }, ErrOptimalUr},
		{"plateau zero", func(c *InterestRateConfig) { c.PlateauInterestRate = decimal.Zero }, ErrPlateauIr},
		{"max zero", func(c *InterestRateConfig) { c.MaxInterestRate = decimal.Zero }, ErrMaxIr},
		{"plateau above max", func(c *InterestRateConfig) { c.PlateauInterestRate = decimal.NewFromInt(2) }, ErrPlateauGreaterThanMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testInterestRateConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantErr, err)
			assert.True(t, errors.Is(err, InvalidConfig))
		})
	}
}
