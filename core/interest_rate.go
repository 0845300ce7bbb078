package core

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// InterestRateConfig describes the kinked borrow curve of a bank. All rates are
// annualized fractions, e.g. 0.1 for 10% APR.
type InterestRateConfig struct {
	OptimalUtilizationRate decimal.Decimal `json:"optimalUtilizationRate"`
	PlateauInterestRate    decimal.Decimal `json:"plateauInterestRate"`
	MaxInterestRate        decimal.Decimal `json:"maxInterestRate"`
}

// CalcInterestRate returns the lending and borrowing APR for the given
// utilization ratio. Lenders earn the borrow rate scaled by utilization.
func (i *InterestRateConfig) CalcInterestRate(utilizationRatio decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	baseRate, err := i.InterestRateCurve(utilizationRatio)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	lendingRate := baseRate.Mul(utilizationRatio).Truncate(RATE_PRECISION)
	borrowingRate := baseRate

	if lendingRate.IsNegative() || borrowingRate.IsNegative() {
		return decimal.Zero, decimal.Zero, errors.Wrapf(InterestRateConfigMathError, "negative rate at utilization %s", utilizationRatio)
	}

	return lendingRate, borrowingRate, nil
}

func (i *InterestRateConfig) InterestRateCurve(utilizationRatio decimal.Decimal) (decimal.Decimal, error) {
	optimalUr := i.OptimalUtilizationRate
	plateauIr := i.PlateauInterestRate
	maxIr := i.MaxInterestRate

	if !optimalUr.IsPositive() || optimalUr.GreaterThanOrEqual(ONE) {
		return decimal.Zero, errors.Wrapf(InterestRateConfigMathError, "optimal utilization rate %s", optimalUr)
	}

	if utilizationRatio.LessThanOrEqual(optimalUr) {
		// ur / optimal_ur * plateau_ir
		return utilizationRatio.Mul(plateauIr).DivRound(optimalUr, RATE_PRECISION), nil
	}

	// (ur - optimal_ur) / (1 - optimal_ur) * (max_ir - plateau_ir) + plateau_ir
	oneMinusOptimalUr := ONE.Sub(optimalUr)
	maxIrMinusPlateau := maxIr.Sub(plateauIr)
	utilizationRatioMinusOptimalUr := utilizationRatio.Sub(optimalUr)

	return utilizationRatioMinusOptimalUr.Mul(maxIrMinusPlateau).DivRound(oneMinusOptimalUr, RATE_PRECISION).Add(plateauIr), nil
}

func (i *InterestRateConfig) Validate() error {
	optimalUr := i.OptimalUtilizationRate
	plateauIr := i.PlateauInterestRate
	maxIr := i.MaxInterestRate

	if optimalUr.LessThanOrEqual(decimal.Zero) || optimalUr.GreaterThanOrEqual(ONE) {
		return ErrOptimalUr
	}
	if plateauIr.LessThanOrEqual(decimal.Zero) {
		return ErrPlateauIr
	}
	if maxIr.LessThanOrEqual(decimal.Zero) {
		return ErrMaxIr
	}
	if plateauIr.GreaterThanOrEqual(maxIr) {
		return ErrPlateauGreaterThanMax
	}

	return nil
}
