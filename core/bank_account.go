package core

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BankAccountWrapper pairs one balance slot with the bank it points at. Every
// mutation is computed on copies and written back only when it succeeds.
type BankAccountWrapper struct {
	Balance *Balance `json:"balance"`
	Bank    *Bank    `json:"bank"`

	now int64
	// slot is the free slot a freshly created balance is written to on its
	// first successful mutation. nil for balances that already exist.
	slot *Balance
}

func NewBankAccountWrapper(now int64, balance *Balance, bank *Bank) *BankAccountWrapper {
	return &BankAccountWrapper{
		Balance: balance,
		Bank:    bank,
		now:     now,
	}
}

// FindBankAccountWrapper only resolves an existing balance.
func FindBankAccountWrapper(now int64, bank *Bank, lendingAccount *LendingAccount) (*BankAccountWrapper, error) {
	balance := lendingAccount.GetBalance(bank.Id)
	if balance == nil {
		return nil, errors.Wrapf(LendingAccountBalanceNotFound, "bank %s", bank.Id)
	}
	return NewBankAccountWrapper(now, balance, bank), nil
}

func FindOrCreateBankAccountWrapper(now int64, bank *Bank, lendingAccount *LendingAccount) (*BankAccountWrapper, error) {
	if balance := lendingAccount.GetBalance(bank.Id); balance != nil {
		return NewBankAccountWrapper(now, balance, bank), nil
	}

	idx, ok := lendingAccount.GetFirstEmptyBalance()
	if !ok {
		return nil, LendingAccountBalanceSlotsFull
	}

	balance := NewBalance(bank.Id, now)
	ba := NewBankAccountWrapper(now, &balance, bank)
	ba.slot = &lendingAccount.Balances[idx]
	return ba, nil
}

func (ba *BankAccountWrapper) Deposit(log Log, amount decimal.Decimal) error {
	return ba.IncreaseBalanceInternal(log, amount, BalanceIncreaseTypeAny)
}

func (ba *BankAccountWrapper) Repay(log Log, amount decimal.Decimal) error {
	return ba.IncreaseBalanceInternal(log, amount, BalanceIncreaseTypeRepayOnly)
}

func (ba *BankAccountWrapper) Withdraw(log Log, amount decimal.Decimal) error {
	return ba.DecreaseBalanceInternal(log, amount, BalanceDecreaseTypeWithdrawOnly)
}

func (ba *BankAccountWrapper) Borrow(log Log, amount decimal.Decimal) error {
	return ba.DecreaseBalanceInternal(log, amount, BalanceDecreaseTypeAny)
}

// ------------ Hybrid operations for seamless repay + deposit / withdraw + borrow

func (ba *BankAccountWrapper) IncreaseBalance(log Log, amount decimal.Decimal) error {
	return ba.IncreaseBalanceInternal(log, amount, BalanceIncreaseTypeAny)
}

func (ba *BankAccountWrapper) DecreaseBalance(log Log, amount decimal.Decimal) error {
	return ba.DecreaseBalanceInternal(log, amount, BalanceDecreaseTypeAny)
}

func (ba *BankAccountWrapper) IncreaseBalanceInLiquidation(log Log, amount decimal.Decimal) error {
	return ba.IncreaseBalanceInternal(log, amount, BalanceIncreaseTypeLiquidationGain)
}

func (ba *BankAccountWrapper) DecreaseBalanceInLiquidation(log Log, amount decimal.Decimal) error {
	return ba.DecreaseBalanceInternal(log, amount, BalanceDecreaseTypeLiquidationLoss)
}

// WithdrawAll burns every asset share of the balance, frees the slot and
// returns the whole base units owed to the user. The sub-unit remainder
// stays in the pool.
func (ba *BankAccountWrapper) WithdrawAll(log Log) (decimal.Decimal, error) {
	balance := ba.Balance.Clone()
	bank := ba.Bank.Clone()

	if !balance.IsEmpty(BalanceSideLiabilities) {
		return decimal.Zero, NoAssetFound
	}

	totalAssetShares := balance.AssetShares
	currentAssetAmount, err := bank.GetAssetAmount(totalAssetShares)
	if err != nil {
		return decimal.Zero, err
	}

	log.Debug().Msgf("Withdrawing All: %s", currentAssetAmount)

	if !currentAssetAmount.GreaterThan(ZERO_AMOUNT_THRESHOLD) {
		return decimal.Zero, NoAssetFound
	}

	if err := bank.ChangeAssetShares(totalAssetShares.Neg()); err != nil {
		return decimal.Zero, err
	}
	if err := bank.CheckUtilizationRatio(); err != nil {
		return decimal.Zero, err
	}
	balance.Close(ba.now)

	ba.commit(balance, bank)
	return currentAssetAmount.Truncate(0), nil
}

// RepayAll burns every liability share of the balance, frees the slot and
// returns the whole base units the user has to pay in, rounded up.
func (ba *BankAccountWrapper) RepayAll(log Log) (decimal.Decimal, error) {
	balance := ba.Balance.Clone()
	bank := ba.Bank.Clone()

	totalLiabilityShares := balance.LiabilityShares
	currentLiabilityAmount, err := bank.GetLiabilityAmount(totalLiabilityShares)
	if err != nil {
		return decimal.Zero, err
	}

	if !currentLiabilityAmount.GreaterThan(ZERO_AMOUNT_THRESHOLD) {
		return decimal.Zero, NoLiabilityFound
	}
	if !balance.IsEmpty(BalanceSideAssets) {
		return decimal.Zero, NoAssetFound
	}

	log.Debug().Msgf("Repaying All: %s", currentLiabilityAmount)

	if err := bank.ChangeLiabilityShares(totalLiabilityShares.Neg()); err != nil {
		return decimal.Zero, err
	}
	balance.Close(ba.now)

	ba.commit(balance, bank)
	return currentLiabilityAmount.RoundCeil(0), nil
}

func (ba *BankAccountWrapper) CloseBalance(log Log) error {
	balance := ba.Balance

	if !balance.IsEmpty(BalanceSideLiabilities) {
		log.Error().Msgf("Balance has existing debt")
		return IllegalBalanceState
	}

	if !balance.IsEmpty(BalanceSideAssets) {
		log.Error().Msgf("Balance has existing asset")
		return IllegalBalanceState
	}

	// a balance that was never written has nothing to free
	if ba.slot != nil {
		return nil
	}

	balance.Close(ba.now)
	return nil
}

// IncreaseBalanceInternal credits balanceDelta to the balance: outstanding debt
// on this bank is paid off first, the remainder becomes new asset shares.
func (ba *BankAccountWrapper) IncreaseBalanceInternal(log Log, balanceDelta decimal.Decimal, operationType BalanceIncreaseType) error {
	log.Info().Msgf("Balance increase: %s of (type: %s)", balanceDelta, operationType.String())

	if !balanceDelta.IsPositive() {
		return errors.Wrapf(InvalidAmount, "balance increase %s", balanceDelta)
	}

	balance := ba.Balance.Clone()
	bank := ba.Bank.Clone()

	currentLiabilityShares := balance.LiabilityShares
	currentLiabilityAmount, err := bank.GetLiabilityAmount(currentLiabilityShares)
	if err != nil {
		return err
	}
	liabilityAmountDecrease, assetAmountIncrease := decimal.Min(currentLiabilityAmount, balanceDelta), decimal.Max(balanceDelta.Sub(currentLiabilityAmount), decimal.Zero)

	switch operationType {
	case BalanceIncreaseTypeRepayOnly:
		if !assetAmountIncrease.IsZero() {
			return OperationRepayOnly
		}
	default:
	}

	assetSharesIncrease, err := bank.GetAssetShares(assetAmountIncrease)
	if err != nil {
		return err
	}
	if assetAmountIncrease.IsPositive() && !assetSharesIncrease.IsPositive() {
		return errors.Wrapf(MathError, "%s mints no asset shares", assetAmountIncrease)
	}

	if err := balance.ChangeAssetShares(assetSharesIncrease); err != nil {
		return err
	}
	if err := bank.ChangeAssetShares(assetSharesIncrease); err != nil {
		return err
	}

	liabilitySharesDecrease := currentLiabilityShares
	if liabilityAmountDecrease.LessThan(currentLiabilityAmount) {
		liabilitySharesDecrease, err = bank.GetLiabilityShares(liabilityAmountDecrease)
		if err != nil {
			return err
		}
		if liabilityAmountDecrease.IsPositive() && !liabilitySharesDecrease.IsPositive() {
			return errors.Wrapf(MathError, "%s burns no liability shares", liabilityAmountDecrease)
		}
	}

	if err := balance.ChangeLiabilityShares(liabilitySharesDecrease.Neg()); err != nil {
		return err
	}
	if err := bank.ChangeLiabilityShares(liabilitySharesDecrease.Neg()); err != nil {
		return err
	}

	ba.commit(balance, bank)
	return nil
}

// DecreaseBalanceInternal debits balanceDelta from the balance: existing asset
// shares are drawn down first, the remainder becomes new liability shares. The
// bank must stay solvent afterwards.
func (ba *BankAccountWrapper) DecreaseBalanceInternal(log Log, balanceDelta decimal.Decimal, operationType BalanceDecreaseType) error {
	log.Info().Msgf("Balance decrease: %s of (type: %s)", balanceDelta, operationType.String())

	if !balanceDelta.IsPositive() {
		return errors.Wrapf(InvalidAmount, "balance decrease %s", balanceDelta)
	}

	balance := ba.Balance.Clone()
	bank := ba.Bank.Clone()

	currentAssetShares := balance.AssetShares
	currentAssetAmount, err := bank.GetAssetAmount(currentAssetShares)
	if err != nil {
		return err
	}

	assetAmountDecrease, liabilityAmountIncrease := decimal.Min(currentAssetAmount, balanceDelta), decimal.Max(balanceDelta.Sub(currentAssetAmount), decimal.Zero)

	switch operationType {
	case BalanceDecreaseTypeWithdrawOnly:
		if !liabilityAmountIncrease.IsZero() {
			return OperationWithdrawOnly
		}
	default:
	}

	assetSharesDecrease := currentAssetShares
	if assetAmountDecrease.LessThan(currentAssetAmount) {
		assetSharesDecrease, err = bank.GetAssetSharesRoundUp(assetAmountDecrease)
		if err != nil {
			return err
		}
		assetSharesDecrease = decimal.Min(assetSharesDecrease, currentAssetShares)
	}

	if err := balance.ChangeAssetShares(assetSharesDecrease.Neg()); err != nil {
		return err
	}
	if err := bank.ChangeAssetShares(assetSharesDecrease.Neg()); err != nil {
		return err
	}

	liabilitySharesIncrease, err := bank.GetLiabilitySharesRoundUp(liabilityAmountIncrease)
	if err != nil {
		return err
	}

	if err := balance.ChangeLiabilityShares(liabilitySharesIncrease); err != nil {
		return err
	}
	if err := bank.ChangeLiabilityShares(liabilitySharesIncrease); err != nil {
		return err
	}

	if err := bank.CheckUtilizationRatio(); err != nil {
		return err
	}

	ba.commit(balance, bank)
	return nil
}

func (ba *BankAccountWrapper) commit(balance *Balance, bank *Bank) {
	balance.LastUpdate = ba.now
	*ba.Bank = *bank

	if ba.slot != nil {
		// first write of a fresh balance claims the slot
		if balance.Active {
			*ba.slot = *balance
			ba.Balance = ba.slot
			ba.slot = nil
			return
		}
	}
	*ba.Balance = *balance
}

func (ba *BankAccountWrapper) GetAssetAmount() (decimal.Decimal, error) {
	return ba.Bank.GetAssetAmount(ba.Balance.AssetShares)
}

func (ba *BankAccountWrapper) GetLiabilityAmount() (decimal.Decimal, error) {
	return ba.Bank.GetLiabilityAmount(ba.Balance.LiabilityShares)
}
