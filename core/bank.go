package core

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/utils"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type (
	BankStore interface {
		CreateBank(ctx context.Context, bank *Bank) error
		UpsertBank(ctx context.Context, bank *Bank) error
		GetBankById(ctx context.Context, bankId uuid.UUID) (*Bank, error)
		ListBank(ctx context.Context) ([]*Bank, error)
	}

	Bank struct {
		Id           uuid.UUID `json:"id"`
		Mint         string    `json:"mint"`
		MintDecimals uint8     `json:"mintDecimals"`

		AssetShareValue     decimal.Decimal `json:"assetShareValue"`
		LiabilityShareValue decimal.Decimal `json:"liabilityShareValue"`

		LiquidityVault          uuid.UUID `json:"liquidityVault"`
		LiquidityVaultAuthority uuid.UUID `json:"liquidityVaultAuthority"`
		InsuranceVault          uuid.UUID `json:"insuranceVault"`
		InsuranceVaultAuthority uuid.UUID `json:"insuranceVaultAuthority"`

		TotalLiabilityShares decimal.Decimal `json:"totalLiabilityShares"`
		TotalAssetShares     decimal.Decimal `json:"totalAssetShares"`

		BankConfig `json:"bankConfig"`

		CreatedAt  int64 `gorm:"autoCreateTime:false" json:"createdAt"`
		LastUpdate int64 `json:"lastUpdate"`
	}

	BankConfig struct {
		AssetWeightInit  decimal.Decimal `json:"assetWeightInit"`
		AssetWeightMaint decimal.Decimal `json:"assetWeightMaint"`

		LiabilityWeightInit  decimal.Decimal `json:"liabilityWeightInit"`
		LiabilityWeightMaint decimal.Decimal `json:"liabilityWeightMaint"`

		InterestRateConfig `json:"interestRateConfig"`

		OracleKey string `json:"oracleKey"`
	}
)

type BalanceSide uint8

const (
	BalanceSideAssets BalanceSide = iota
	BalanceSideLiabilities
	BalanceSideEmpty
)

func (bs BalanceSide) String() string {
	switch bs {
	case BalanceSideAssets:
		return "Assets"
	case BalanceSideLiabilities:
		return "Liabilities"
	case BalanceSideEmpty:
		return "Empty"
	default:
		return "Unknown"
	}
}

func (bc *BankConfig) GetWeight(requirementType RequirementType, balanceSide BalanceSide) decimal.Decimal {
	switch {
	case requirementType == Initial && balanceSide == BalanceSideAssets:
		return bc.AssetWeightInit
	case requirementType == Initial && balanceSide == BalanceSideLiabilities:
		return bc.LiabilityWeightInit
	case requirementType == Maintenance && balanceSide == BalanceSideAssets:
		return bc.AssetWeightMaint
	case requirementType == Maintenance && balanceSide == BalanceSideLiabilities:
		return bc.LiabilityWeightMaint
	case requirementType == Equity:
		return ONE
	default:
		return decimal.Zero
	}
}

// Validate checks the interest curve and, when set, the risk weights. Weights
// are optional: a zero weight means the generation of config did not carry it.
func (bc *BankConfig) Validate() error {
	if bc.OracleKey == "" {
		return errors.Wrap(InvalidConfig, "oracle key is required")
	}

	assetInitW := bc.AssetWeightInit
	assetMaintW := bc.AssetWeightMaint
	if assetInitW.IsNegative() || assetInitW.GreaterThan(ONE) {
		return errors.Wrapf(InvalidConfig, "asset weight init %s", assetInitW)
	}
	if !assetMaintW.IsZero() && (assetMaintW.LessThan(assetInitW) || assetMaintW.GreaterThan(ONE)) {
		return errors.Wrapf(InvalidConfig, "asset weight maint %s", assetMaintW)
	}

	liabInitW := bc.LiabilityWeightInit
	liabMaintW := bc.LiabilityWeightMaint
	if !liabInitW.IsZero() && liabInitW.LessThan(ONE) {
		return errors.Wrapf(InvalidConfig, "liability weight init %s", liabInitW)
	}
	if !liabMaintW.IsZero() && (liabMaintW.LessThan(ONE) || (!liabInitW.IsZero() && liabMaintW.GreaterThan(liabInitW))) {
		return errors.Wrapf(InvalidConfig, "liability weight maint %s", liabMaintW)
	}

	return bc.InterestRateConfig.Validate()
}

func NewBank(clk clock.Clock, mint string, mintDecimals uint8, bankConfig BankConfig) *Bank {
	return NewBankWithCreateTime(mint, mintDecimals, bankConfig, clk.Now())
}

func NewBankWithCreateTime(mint string, mintDecimals uint8, bankConfig BankConfig, createTime time.Time) *Bank {
	id := utils.DeriveId(BANK_SEED, mint)
	return &Bank{
		Id:                      id,
		Mint:                    mint,
		MintDecimals:            mintDecimals,
		AssetShareValue:         ONE,
		LiabilityShareValue:     ONE,
		LiquidityVault:          utils.DeriveId(LIQUIDITY_VAULT_SEED, id.String()),
		LiquidityVaultAuthority: utils.DeriveId(LIQUIDITY_VAULT_AUTHORITY_SEED, id.String()),
		InsuranceVault:          utils.DeriveId(INSURANCE_VAULT_SEED, id.String()),
		InsuranceVaultAuthority: utils.DeriveId(INSURANCE_VAULT_AUTHORITY_SEED, id.String()),
		TotalLiabilityShares:    decimal.Zero,
		TotalAssetShares:        decimal.Zero,
		BankConfig:              bankConfig,
		CreatedAt:               createTime.Unix(),
		LastUpdate:              createTime.Unix(),
	}
}

func (b *Bank) Clone() *Bank {
	c := *b
	return &c
}

func (b *Bank) GetLiabilityAmount(shares decimal.Decimal) (decimal.Decimal, error) {
	return shares.Mul(b.LiabilityShareValue), nil
}

func (b *Bank) GetAssetAmount(shares decimal.Decimal) (decimal.Decimal, error) {
	return shares.Mul(b.AssetShareValue), nil
}

// GetAssetShares converts an amount to asset shares, rounding down.
func (b *Bank) GetAssetShares(value decimal.Decimal) (decimal.Decimal, error) {
	return amountToShares(value, b.AssetShareValue, false)
}

// GetAssetSharesRoundUp converts an amount to asset shares, rounding up.
func (b *Bank) GetAssetSharesRoundUp(value decimal.Decimal) (decimal.Decimal, error) {
	return amountToShares(value, b.AssetShareValue, true)
}

func (b *Bank) GetLiabilityShares(value decimal.Decimal) (decimal.Decimal, error) {
	return amountToShares(value, b.LiabilityShareValue, false)
}

func (b *Bank) GetLiabilitySharesRoundUp(value decimal.Decimal) (decimal.Decimal, error) {
	return amountToShares(value, b.LiabilityShareValue, true)
}

func amountToShares(value, shareValue decimal.Decimal, roundUp bool) (decimal.Decimal, error) {
	if !shareValue.IsPositive() {
		return decimal.Zero, errors.Wrapf(MathError, "share value %s", shareValue)
	}
	shares, remainder := value.QuoRem(shareValue, SHARE_PRECISION)
	if roundUp && remainder.IsPositive() {
		shares = shares.Add(SHARE_UNIT)
	}
	return shares, nil
}

func (b *Bank) ChangeAssetShares(shares decimal.Decimal) error {
	totalAssetShares := b.TotalAssetShares.Add(shares)
	if totalAssetShares.IsNegative() {
		return errors.Wrapf(MathError, "total asset shares would become %s", totalAssetShares)
	}
	b.TotalAssetShares = totalAssetShares
	return nil
}

func (b *Bank) ChangeLiabilityShares(shares decimal.Decimal) error {
	totalLiabilityShares := b.TotalLiabilityShares.Add(shares)
	if totalLiabilityShares.IsNegative() {
		return errors.Wrapf(MathError, "total liability shares would become %s", totalLiabilityShares)
	}
	b.TotalLiabilityShares = totalLiabilityShares
	return nil
}

func (b *Bank) CheckUtilizationRatio() error {
	totalAssets, err := b.GetAssetAmount(b.TotalAssetShares)
	if err != nil {
		return err
	}
	totalLiabilities, err := b.GetLiabilityAmount(b.TotalLiabilityShares)
	if err != nil {
		return err
	}
	if totalAssets.LessThan(totalLiabilities) {
		return errors.Wrapf(IllegalUtilizationRatio, "assets %s < liabilities %s", totalAssets, totalLiabilities)
	}

	return nil
}

// AccrueInterest compounds both share values for the time elapsed since the
// last update. Nothing is written unless every step succeeds.
func (b *Bank) AccrueInterest(log Log, currentTimestamp int64) error {
	timeDelta := currentTimestamp - b.LastUpdate

	if timeDelta < 0 {
		return errors.Wrapf(MathError, "clock moved backwards: last update %d, now %d", b.LastUpdate, currentTimestamp)
	}
	if timeDelta == 0 {
		return nil
	}

	totalAssets, err := b.GetAssetAmount(b.TotalAssetShares)
	if err != nil {
		return err
	}
	totalLiabilities, err := b.GetLiabilityAmount(b.TotalLiabilityShares)
	if err != nil {
		return err
	}
	if totalAssets.IsZero() || totalLiabilities.IsZero() {
		b.LastUpdate = currentTimestamp
		return nil
	}

	accruedAssetShareValue, accruedLiabilityShareValue, err :=
		CalcInterestRateAccrualStateChanges(log, uint64(timeDelta), totalAssets, totalLiabilities, b.BankConfig.InterestRateConfig, b.AssetShareValue, b.LiabilityShareValue)
	if err != nil {
		return err
	}

	log.Debug().
		Str("bank", b.Id.String()).
		Str("assetShareValue", accruedAssetShareValue.String()).
		Str("liabilityShareValue", accruedLiabilityShareValue.String()).
		Msg("interest accrued")

	b.AssetShareValue = accruedAssetShareValue
	b.LiabilityShareValue = accruedLiabilityShareValue
	b.LastUpdate = currentTimestamp

	return nil
}

func (b *Bank) GetTotalAssetQuantity() decimal.Decimal {
	return b.TotalAssetShares.Mul(b.AssetShareValue)
}

func (b *Bank) GetTotalLiabilityQuantity() decimal.Decimal {
	return b.TotalLiabilityShares.Mul(b.LiabilityShareValue)
}

func (b *Bank) ComputeUtilizationRate() decimal.Decimal {
	totalDeposits := b.GetTotalAssetQuantity()
	if totalDeposits.IsZero() {
		return decimal.Zero
	}
	return b.GetTotalLiabilityQuantity().DivRound(totalDeposits, RATE_PRECISION)
}

// ComputeRates returns the lending and borrowing APR at the current utilization.
func (b *Bank) ComputeRates() (decimal.Decimal, decimal.Decimal, error) {
	return b.BankConfig.InterestRateConfig.CalcInterestRate(b.ComputeUtilizationRate())
}

func (b *Bank) ComputeAssetValue(oraclePrice decimal.Decimal, assetShares decimal.Decimal, requirementType RequirementType) (decimal.Decimal, error) {
	amount, err := b.GetAssetAmount(assetShares)
	if err != nil {
		return decimal.Zero, err
	}
	weight := b.BankConfig.GetWeight(requirementType, BalanceSideAssets)
	return CalcValue(amount, oraclePrice, b.MintDecimals, &weight)
}

func (b *Bank) ComputeLiabilityValue(oraclePrice decimal.Decimal, liabilityShares decimal.Decimal, requirementType RequirementType) (decimal.Decimal, error) {
	amount, err := b.GetLiabilityAmount(liabilityShares)
	if err != nil {
		return decimal.Zero, err
	}
	weight := b.BankConfig.GetWeight(requirementType, BalanceSideLiabilities)
	return CalcValue(amount, oraclePrice, b.MintDecimals, &weight)
}
