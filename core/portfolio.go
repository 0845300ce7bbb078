package core

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// ComputeNetApy is the yield of the account on its equity: every position
// earns its bank's lending rate or pays its borrowing rate on its equity value.
// An account without positive equity yields zero.
func (r *RiskEngine) ComputeNetApy() (decimal.Decimal, error) {
	totalAssets, totalLiabilities, err := r.GetAccountHealthComponents(Equity)
	if err != nil {
		return decimal.Zero, err
	}
	netValue := totalAssets.Sub(totalLiabilities)
	if !netValue.IsPositive() {
		return decimal.Zero, nil
	}

	weightedApr := decimal.Zero
	for _, ba := range r.BankAccountsWithPrice {
		lendingApr, borrowingApr, err := ba.Bank.ComputeRates()
		if err != nil {
			return decimal.Zero, err
		}
		assets, liabilities, err := ba.CalcWeightedAssetsAndLiabsValues(Equity)
		if err != nil {
			return decimal.Zero, err
		}
		weightedApr = weightedApr.Add(lendingApr.Mul(assets)).Sub(borrowingApr.Mul(liabilities))
	}

	return AprToApy(weightedApr.DivRound(netValue, RATE_PRECISION)), nil
}

// ComputeLiquidationPrice is the price of bankId's mint at which the account's
// health under requirementType reaches zero, every other price held. It is zero
// when the account holds nothing in the bank or no positive price gets there.
func (r *RiskEngine) ComputeLiquidationPrice(bankId uuid.UUID, requirementType RequirementType) (decimal.Decimal, error) {
	var target *BankAccountWithPriceFeed
	otherAssets := decimal.Zero
	otherLiabilities := decimal.Zero
	for _, ba := range r.BankAccountsWithPrice {
		if ba.Bank.Id == bankId {
			target = ba
			continue
		}
		assets, liabilities, err := ba.CalcWeightedAssetsAndLiabsValues(requirementType)
		if err != nil {
			return decimal.Zero, err
		}
		otherAssets = otherAssets.Add(assets)
		otherLiabilities = otherLiabilities.Add(liabilities)
	}
	if target == nil {
		return decimal.Zero, nil
	}

	bank := target.Bank
	side, err := target.Balance.GetSide()
	if err != nil {
		return decimal.Zero, err
	}

	var quantity, gap decimal.Decimal
	switch side {
	case BalanceSideAssets:
		if quantity, err = bank.GetAssetAmount(target.Balance.AssetShares); err != nil {
			return decimal.Zero, err
		}
		gap = otherLiabilities.Sub(otherAssets)
	case BalanceSideLiabilities:
		if quantity, err = bank.GetLiabilityAmount(target.Balance.LiabilityShares); err != nil {
			return decimal.Zero, err
		}
		gap = otherAssets.Sub(otherLiabilities)
	default:
		return decimal.Zero, nil
	}

	denominator := quantity.Mul(bank.GetWeight(requirementType, side))
	if !denominator.IsPositive() || !gap.IsPositive() {
		return decimal.Zero, nil
	}
	return gap.Shift(int32(bank.MintDecimals)).DivRound(denominator, SHARE_VALUE_PRECISION), nil
}
