package main

import (
	"github.com/orbitlen/core/config"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type (
	ratePoint struct {
		Utilization  decimal.Decimal `json:"utilization"`
		LendingApr   decimal.Decimal `json:"lendingApr"`
		BorrowingApr decimal.Decimal `json:"borrowingApr"`
		LendingApy   decimal.Decimal `json:"lendingApy"`
		BorrowingApy decimal.Decimal `json:"borrowingApy"`
	}

	rateCurve struct {
		Mint   string      `json:"mint"`
		Points []ratePoint `json:"points"`
	}
)

func ratesCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "rates",
		Short: "Prints the interest rate curve of every configured bank",
		RunE:  ratesFunc,
	}
	c.Flags().String("step", "0.1", "utilization step between points")
	return c
}

func ratesFunc(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	stepFlag, err := c.Flags().GetString("step")
	if err != nil {
		return err
	}
	step, err := decimal.NewFromString(stepFlag)
	if err != nil || !step.IsPositive() || step.GreaterThan(core.ONE) {
		return errors.Errorf("step must be in (0, 1], got %q", stepFlag)
	}

	curves, err := rateCurves(cfg.Banks, step)
	if err != nil {
		return err
	}
	return writeJSON(c.OutOrStdout(), curves)
}

// rateCurves samples each bank's curve from zero to full utilization.
func rateCurves(banks []config.BankSpec, step decimal.Decimal) ([]rateCurve, error) {
	curves := make([]rateCurve, 0, len(banks))
	for i := range banks {
		bankConfig, err := banks[i].BankConfig()
		if err != nil {
			return nil, err
		}

		curve := rateCurve{Mint: banks[i].Mint}
		for u := decimal.Zero; u.LessThanOrEqual(core.ONE); u = u.Add(step) {
			lendingApr, borrowingApr, err := bankConfig.CalcInterestRate(u)
			if err != nil {
				return nil, errors.Wrapf(err, "%s at %s", banks[i].Mint, u)
			}
			curve.Points = append(curve.Points, ratePoint{
				Utilization:  u,
				LendingApr:   lendingApr,
				BorrowingApr: borrowingApr,
				LendingApy:   core.AprToApy(lendingApr),
				BorrowingApy: core.AprToApy(borrowingApr),
			})
		}
		curves = append(curves, curve)
	}
	return curves, nil
}
