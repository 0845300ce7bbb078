package core

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const HOURS_PER_YEAR = 8760

// CalcValue converts a base-unit amount into quote value: amount * price / 10^decimals,
// scaled by the optional risk weight.
func CalcValue(amount decimal.Decimal, price decimal.Decimal, mintDecimals uint8, weight *decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	weightedAmount := amount
	if weight != nil {
		weightedAmount = amount.Mul(*weight)
	}

	return weightedAmount.Mul(price).Shift(-int32(mintDecimals)), nil
}

// CalcAmount is the inverse of CalcValue, truncated to whole base units.
func CalcAmount(value decimal.Decimal, price decimal.Decimal, mintDecimals uint8) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, errors.Wrapf(MathError, "price %s", price)
	}
	return value.Shift(int32(mintDecimals)).DivRound(price, SHARE_VALUE_PRECISION).Truncate(0), nil
}

// AprToApy compounds apr hourly over one year.
func AprToApy(apr decimal.Decimal) decimal.Decimal {
	hourly := ONE.Add(apr.DivRound(decimal.NewFromInt(HOURS_PER_YEAR), RATE_PRECISION))
	apy := ONE
	for i := 0; i < HOURS_PER_YEAR; i++ {
		apy = apy.Mul(hourly).Truncate(RATE_PRECISION)
	}
	return apy.Sub(ONE).Round(8)
}

func CalcInterestRateAccrualStateChanges(log Log, timeDelta uint64, totalAssetsAmount decimal.Decimal, totalLiabilitiesAmount decimal.Decimal, interestRateConfig InterestRateConfig, assetShareValue decimal.Decimal, liabilityShareValue decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !totalAssetsAmount.IsPositive() {
		return decimal.Zero, decimal.Zero, errors.Wrapf(MathError, "total assets %s", totalAssetsAmount)
	}
	utilizationRate := totalLiabilitiesAmount.DivRound(totalAssetsAmount, RATE_PRECISION)

	lendingApr, borrowingApr, err := interestRateConfig.CalcInterestRate(utilizationRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	log.Info().Msgf("timeDelta: %d, utilizationRate: %s, lendingApr: %s, borrowingApr: %s", timeDelta, utilizationRate, lendingApr, borrowingApr)

	accruedAssetShareValue, err := CalcAccruedInterestPaymentPerPeriod(lendingApr, timeDelta, assetShareValue)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	accruedLiabilityShareValue, err := CalcAccruedInterestPaymentPerPeriod(borrowingApr, timeDelta, liabilityShareValue)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return accruedAssetShareValue, accruedLiabilityShareValue, nil
}

// CalcAccruedInterestPaymentPerPeriod applies simple interest for one period:
// value * (1 + apr * dt / SECONDS_PER_YEAR).
func CalcAccruedInterestPaymentPerPeriod(apr decimal.Decimal, timeDelta uint64, value decimal.Decimal) (decimal.Decimal, error) {
	if apr.IsNegative() {
		return decimal.Zero, errors.Wrapf(MathError, "negative apr %s", apr)
	}
	irPerPeriod := apr.Mul(decimal.NewFromInt(int64(timeDelta))).DivRound(decimal.NewFromInt(SECONDS_PER_YEAR), RATE_PRECISION)
	newValue := value.Mul(ONE.Add(irPerPeriod)).Truncate(SHARE_VALUE_PRECISION)
	if newValue.LessThan(value) {
		return decimal.Zero, errors.Wrapf(MathError, "share value decreased from %s to %s", value, newValue)
	}
	return newValue, nil
}

func GetAccountHealth(totalAssets, totalLiabilities decimal.Decimal) decimal.Decimal {
	health := ONE

	if totalLiabilities.IsZero() {
		return health
	}

	if totalAssets.IsPositive() {
		health = totalAssets.Sub(totalLiabilities).DivRound(totalAssets, RATE_PRECISION)
	} else {
		health = decimal.Zero
	}
	return health
}
