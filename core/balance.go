package core

import (
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Balance is one position slot of a lending account. Active marks the slot as
// occupied; an inactive slot is free regardless of its other fields.
type Balance struct {
	Active          bool            `json:"active"`
	BankId          uuid.UUID       `json:"bankId"`
	AssetShares     decimal.Decimal `json:"assetShares"`
	LiabilityShares decimal.Decimal `json:"liabilityShares"`
	LastUpdate      int64           `json:"lastUpdate"`
}

func NewBalance(bankId uuid.UUID, now int64) Balance {
	return Balance{
		Active:          true,
		BankId:          bankId,
		AssetShares:     decimal.Zero,
		LiabilityShares: decimal.Zero,
		LastUpdate:      now,
	}
}

func (b *Balance) Clone() *Balance {
	c := *b
	return &c
}

func (b *Balance) IsEmpty(side BalanceSide) bool {
	switch side {
	case BalanceSideAssets:
		return !b.AssetShares.GreaterThan(ZERO_AMOUNT_THRESHOLD)
	case BalanceSideLiabilities:
		return !b.LiabilityShares.GreaterThan(ZERO_AMOUNT_THRESHOLD)
	default:
		return true
	}
}

func (b *Balance) ChangeAssetShares(delta decimal.Decimal) error {
	assetShares := b.AssetShares.Add(delta)
	if assetShares.IsNegative() {
		return errors.Wrapf(MathError, "asset shares would become %s", assetShares)
	}
	b.AssetShares = assetShares
	return nil
}

func (b *Balance) ChangeLiabilityShares(delta decimal.Decimal) error {
	liabilityShares := b.LiabilityShares.Add(delta)
	if liabilityShares.IsNegative() {
		return errors.Wrapf(MathError, "liability shares would become %s", liabilityShares)
	}
	b.LiabilityShares = liabilityShares
	return nil
}

func (b *Balance) GetSide() (BalanceSide, error) {
	hasAssets := b.AssetShares.GreaterThan(ZERO_AMOUNT_THRESHOLD)
	hasLiabilities := b.LiabilityShares.GreaterThan(ZERO_AMOUNT_THRESHOLD)

	switch {
	case hasAssets && hasLiabilities:
		return BalanceSideEmpty, IllegalBalanceState
	case hasAssets:
		return BalanceSideAssets, nil
	case hasLiabilities:
		return BalanceSideLiabilities, nil
	default:
		return BalanceSideEmpty, nil
	}
}

// Close frees the slot.
func (b *Balance) Close(now int64) {
	b.Active = false
	b.BankId = uuid.Nil
	b.AssetShares = decimal.Zero
	b.LiabilityShares = decimal.Zero
	b.LastUpdate = now
}

func (b *Balance) ComputeQuantity(bank *Bank) (decimal.Decimal, decimal.Decimal, error) {
	assetsQuantity, err := bank.GetAssetAmount(b.AssetShares)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	liabilitiesQuantity, err := bank.GetLiabilityAmount(b.LiabilityShares)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return assetsQuantity, liabilitiesQuantity, nil
}

type BalanceIncreaseType uint8

const (
	BalanceIncreaseTypeAny             BalanceIncreaseType = 1 << 0
	BalanceIncreaseTypeRepayOnly       BalanceIncreaseType = 1 << 1
	BalanceIncreaseTypeLiquidationGain BalanceIncreaseType = 1 << 2
)

func (b BalanceIncreaseType) String() string {
	switch b {
	case BalanceIncreaseTypeAny:
		return "Any"
	case BalanceIncreaseTypeRepayOnly:
		return "RepayOnly"
	case BalanceIncreaseTypeLiquidationGain:
		return "LiquidationGain"
	default:
		return "Unknown"
	}
}

type BalanceDecreaseType uint8

const (
	BalanceDecreaseTypeAny             BalanceDecreaseType = 1 << 0
	BalanceDecreaseTypeWithdrawOnly    BalanceDecreaseType = 1 << 1
	BalanceDecreaseTypeLiquidationLoss BalanceDecreaseType = 1 << 2
)

func (b BalanceDecreaseType) String() string {
	switch b {
	case BalanceDecreaseTypeAny:
		return "Any"
	case BalanceDecreaseTypeWithdrawOnly:
		return "WithdrawOnly"
	case BalanceDecreaseTypeLiquidationLoss:
		return "LiquidationLoss"
	default:
		return "Unknown"
	}
}
