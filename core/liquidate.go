package core

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type LiquidateArgs struct {
	Now int64

	AssetBank     *Bank
	LiabilityBank *Bank
	Liquidator    *Account
	Liquidatee    *Account

	// AssetAmount is the collateral, in asset mint base units, the liquidator
	// takes over.
	AssetAmount decimal.Decimal

	AssetFeedKey     string
	LiabilityFeedKey string
	PriceFeedMgr     PriceAdapterMgr
}

type BalanceSnapshot struct {
	AssetAmount     decimal.Decimal `json:"assetAmount"`
	LiabilityAmount decimal.Decimal `json:"liabilityAmount"`
}

type LiquidationBalances struct {
	LiquidatorAssetBalance     BalanceSnapshot `json:"liquidatorAssetBalance"`
	LiquidatorLiabilityBalance BalanceSnapshot `json:"liquidatorLiabilityBalance"`
	LiquidateeAssetBalance     BalanceSnapshot `json:"liquidateeAssetBalance"`
	LiquidateeLiabilityBalance BalanceSnapshot `json:"liquidateeLiabilityBalance"`
}

// LiquidateResult carries the post-liquidation state of both banks and both
// accounts. Nothing passed in LiquidateArgs is modified; the caller persists
// the result.
type LiquidateResult struct {
	PreBalances          *LiquidationBalances `json:"preBalances"`
	PostBalances         *LiquidationBalances `json:"postBalances"`
	LiquidateePreHealth  decimal.Decimal      `json:"liquidateePreHealth"`
	LiquidateePostHealth decimal.Decimal      `json:"liquidateePostHealth"`

	AssetAmount     decimal.Decimal `json:"assetAmount"`
	LiabilityAmount decimal.Decimal `json:"liabilityAmount"`
	AssetPrice      decimal.Decimal `json:"assetPrice"`
	LiabilityPrice  decimal.Decimal `json:"liabilityPrice"`

	AssetBank     *Bank    `json:"assetBank"`
	LiabilityBank *Bank    `json:"liabilityBank"`
	Liquidator    *Account `json:"liquidator"`
	Liquidatee    *Account `json:"liquidatee"`
}

// Liquidate moves AssetAmount of collateral from the liquidatee to the
// liquidator, and the equivalent liability, at oracle prices, the other way.
//
//  1. liquidator pays liabAmount on the liability bank
//  2. liquidatee loses the collateral on the asset bank
//  3. liquidator gains the collateral on the asset bank
//  4. liquidatee's debt on the liability bank is credited with liabAmount
func Liquidate(log Log, args LiquidateArgs) (*LiquidateResult, error) {
	if !args.AssetAmount.IsPositive() {
		return nil, errors.Wrapf(IllegalLiquidation, "asset amount %s", args.AssetAmount)
	}
	if args.AssetBank.Id == args.LiabilityBank.Id {
		return nil, errors.Wrap(IllegalLiquidation, "asset bank and liability bank are the same")
	}
	if args.Liquidator.Id == args.Liquidatee.Id {
		return nil, errors.Wrap(IllegalLiquidation, "liquidator and liquidatee are the same")
	}

	assetBank := args.AssetBank.Clone()
	liabBank := args.LiabilityBank.Clone()
	liquidator := args.Liquidator.Clone()
	liquidatee := args.Liquidatee.Clone()

	if err := assetBank.AccrueInterest(log, args.Now); err != nil {
		return nil, err
	}
	if err := liabBank.AccrueInterest(log, args.Now); err != nil {
		return nil, err
	}

	assetPrice, err := FetchFeedPrice(args.PriceFeedMgr, assetBank, args.AssetFeedKey, RealTime)
	if err != nil {
		return nil, err
	}
	liabPrice, err := FetchFeedPrice(args.PriceFeedMgr, liabBank, args.LiabilityFeedKey, RealTime)
	if err != nil {
		return nil, err
	}

	collateralValue, err := CalcValue(args.AssetAmount, assetPrice, assetBank.MintDecimals, nil)
	if err != nil {
		return nil, err
	}
	liabAmount, err := CalcAmount(collateralValue, liabPrice, liabBank.MintDecimals)
	if err != nil {
		return nil, err
	}
	if !liabAmount.IsPositive() {
		return nil, errors.Wrapf(IllegalLiquidation, "asset amount %s is worth no liability", args.AssetAmount)
	}

	log.Info().
		Str("assetBank", assetBank.Id.String()).
		Str("liabilityBank", liabBank.Id.String()).
		Str("liquidator", liquidator.Id.String()).
		Str("liquidatee", liquidatee.Id.String()).
		Str("assetAmount", args.AssetAmount.String()).
		Str("liabilityAmount", liabAmount.String()).
		Msg("liquidate")

	liquidateeAsset, err := FindBankAccountWrapper(args.Now, assetBank, &liquidatee.LendingAccount)
	if err != nil {
		return nil, err
	}
	seizable, err := liquidateeAsset.GetAssetAmount()
	if err != nil {
		return nil, err
	}
	if seizable.LessThan(args.AssetAmount) {
		return nil, errors.Wrapf(IllegalLiquidation, "liquidatee holds %s collateral, %s requested", seizable, args.AssetAmount)
	}

	preBalances, err := snapshotLiquidationBalances(assetBank, liabBank, liquidator, liquidatee)
	if err != nil {
		return nil, err
	}

	liquidatorLiab, err := FindOrCreateBankAccountWrapper(args.Now, liabBank, &liquidator.LendingAccount)
	if err != nil {
		return nil, err
	}
	if err := liquidatorLiab.DecreaseBalanceInLiquidation(log, liabAmount); err != nil {
		return nil, err
	}

	if err := liquidateeAsset.DecreaseBalanceInLiquidation(log, args.AssetAmount); err != nil {
		return nil, err
	}

	liquidatorAsset, err := FindOrCreateBankAccountWrapper(args.Now, assetBank, &liquidator.LendingAccount)
	if err != nil {
		return nil, err
	}
	if err := liquidatorAsset.IncreaseBalanceInLiquidation(log, args.AssetAmount); err != nil {
		return nil, err
	}

	liquidateeLiab, err := FindOrCreateBankAccountWrapper(args.Now, liabBank, &liquidatee.LendingAccount)
	if err != nil {
		return nil, err
	}
	if err := liquidateeLiab.IncreaseBalance(log, liabAmount); err != nil {
		return nil, err
	}

	postBalances, err := snapshotLiquidationBalances(assetBank, liabBank, liquidator, liquidatee)
	if err != nil {
		return nil, err
	}

	liquidator.UpdatedAt = args.Now
	liquidatee.UpdatedAt = args.Now

	return &LiquidateResult{
		PreBalances:     preBalances,
		PostBalances:    postBalances,
		AssetAmount:     args.AssetAmount,
		LiabilityAmount: liabAmount,
		AssetPrice:      assetPrice,
		LiabilityPrice:  liabPrice,
		AssetBank:       assetBank,
		LiabilityBank:   liabBank,
		Liquidator:      liquidator,
		Liquidatee:      liquidatee,
	}, nil
}

func snapshotLiquidationBalances(assetBank, liabBank *Bank, liquidator, liquidatee *Account) (*LiquidationBalances, error) {
	var (
		snapshot LiquidationBalances
		err      error
	)
	if snapshot.LiquidatorAssetBalance, err = snapshotBalance(assetBank, &liquidator.LendingAccount); err != nil {
		return nil, err
	}
	if snapshot.LiquidatorLiabilityBalance, err = snapshotBalance(liabBank, &liquidator.LendingAccount); err != nil {
		return nil, err
	}
	if snapshot.LiquidateeAssetBalance, err = snapshotBalance(assetBank, &liquidatee.LendingAccount); err != nil {
		return nil, err
	}
	if snapshot.LiquidateeLiabilityBalance, err = snapshotBalance(liabBank, &liquidatee.LendingAccount); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func snapshotBalance(bank *Bank, lendingAccount *LendingAccount) (BalanceSnapshot, error) {
	balance := lendingAccount.GetBalance(bank.Id)
	if balance == nil {
		return BalanceSnapshot{AssetAmount: decimal.Zero, LiabilityAmount: decimal.Zero}, nil
	}
	assetAmount, liabilityAmount, err := balance.ComputeQuantity(bank)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	return BalanceSnapshot{AssetAmount: assetAmount, LiabilityAmount: liabilityAmount}, nil
}
