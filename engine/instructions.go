package engine

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CreateBank validates config and registers a bank for mint, opening its vaults
// when the transfer backend holds token accounts.
func (e *Engine) CreateBank(ctx context.Context, mint string, mintDecimals uint8, config core.BankConfig) (*core.Bank, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mint == "" {
		return nil, errors.Wrap(core.InvalidConfig, "mint is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	bank := core.NewBank(e.clk, mint, mintDecimals, config)
	if vaults, ok := e.transfer.(Vaults); ok {
		if err := vaults.OpenBankVaults(bank); err != nil {
			return nil, err
		}
	}
	if err := e.store.CreateBank(ctx, bank); err != nil {
		return nil, err
	}

	e.log.Info().Str("bank", bank.Id.String()).Str("mint", mint).Uint8("decimals", mintDecimals).Msg("bank created")
	return bank, nil
}

func (e *Engine) CreateAccount(ctx context.Context, authority string) (*core.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if authority == "" {
		return nil, core.InvalidAuthority
	}

	account := core.NewAccount(e.clk, authority)
	if err := e.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	e.log.Info().Str("account", account.Id.String()).Str("authority", authority).Msg("account created")
	return account, nil
}

// positionOp is the shape shared by the single-bank instructions.
type positionOp struct {
	action    core.ActionType
	authority string
	bankId    uuid.UUID
	// create allows a fresh slot for a bank the account has no balance in.
	create bool
	// apply mutates the balance and returns the amount that changed hands.
	apply func(ba *core.BankAccountWrapper) (decimal.Decimal, error)
	// settle moves the tokens for amount and returns the transfer back.
	settle settleFunc
}

type settleFunc func(ba *core.BankAccountWrapper, wallet uuid.UUID, amount decimal.Decimal) (undo func() error, err error)

// checkAmount rejects amounts that are not whole base units.
func checkAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(0)) {
		return errors.Wrapf(core.InvalidAmount, "%s is not a whole number of base units", amount)
	}
	return nil
}

func (e *Engine) runPositionOp(ctx context.Context, op positionOp) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	account, err := e.loadAccount(ctx, op.authority)
	if err != nil {
		return decimal.Zero, err
	}
	bank, err := e.loadBank(ctx, op.bankId)
	if err != nil {
		return decimal.Zero, err
	}

	now, err := e.now()
	if err != nil {
		return decimal.Zero, err
	}
	if err := bank.AccrueInterest(e.log, now); err != nil {
		return decimal.Zero, err
	}

	var ba *core.BankAccountWrapper
	if op.create {
		ba, err = core.FindOrCreateBankAccountWrapper(now, bank, &account.LendingAccount)
	} else {
		ba, err = core.FindBankAccountWrapper(now, bank, &account.LendingAccount)
	}
	if err != nil {
		return decimal.Zero, err
	}

	amount, err := op.apply(ba)
	if err != nil {
		return decimal.Zero, err
	}

	var undo func() error
	if op.settle != nil && amount.IsPositive() {
		wallet, err := e.wallet(op.authority, bank.Mint)
		if err != nil {
			return decimal.Zero, err
		}
		if undo, err = op.settle(ba, wallet, amount); err != nil {
			return decimal.Zero, err
		}
	}

	account.UpdatedAt = now
	operate := core.NewOperate(now, account.Id, op.action, core.ActionDetail{
		AccountId:  account.Id,
		ActionType: op.action,
		BankId:     bank.Id,
		Amount:     amount,
	})
	if err := e.persist(ctx, []*core.Bank{bank}, []*core.Account{account}, operate, undo); err != nil {
		return decimal.Zero, err
	}

	e.log.Info().
		Str("action", op.action.String()).
		Str("authority", op.authority).
		Str("bank", bank.Id.String()).
		Str("amount", amount.String()).
		Msg("instruction")
	return amount, nil
}

// depositTransfer moves tokens from the authority's wallet into the
// liquidity vault; the vault pays them back on undo.
func (e *Engine) depositTransfer(authority string) settleFunc {
	return func(ba *core.BankAccountWrapper, wallet uuid.UUID, amount decimal.Decimal) (func() error, error) {
		if err := ba.DepositSplTransfer(e.transfer, amount, wallet, ba.Bank.LiquidityVault, authority); err != nil {
			return nil, err
		}
		return func() error {
			return ba.WithdrawSplTransfer(e.transfer, amount, wallet)
		}, nil
	}
}

// withdrawTransfer pays tokens out of the liquidity vault to the authority's
// wallet; the wallet returns them on undo.
func (e *Engine) withdrawTransfer(authority string) settleFunc {
	return func(ba *core.BankAccountWrapper, wallet uuid.UUID, amount decimal.Decimal) (func() error, error) {
		if err := ba.WithdrawSplTransfer(e.transfer, amount, wallet); err != nil {
			return nil, err
		}
		return func() error {
			return ba.DepositSplTransfer(e.transfer, amount, wallet, ba.Bank.LiquidityVault, authority)
		}, nil
	}
}

// Deposit pays down any debt the account has in the bank, then supplies the rest.
func (e *Engine) Deposit(ctx context.Context, authority string, bankId uuid.UUID, amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	_, err := e.runPositionOp(ctx, positionOp{
		action:    core.ActionSupply,
		authority: authority,
		bankId:    bankId,
		create:    true,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return amount, ba.Deposit(e.log, amount)
		},
		settle: e.depositTransfer(authority),
	})
	return err
}

// Borrow draws down any deposit the account has in the bank, then borrows the rest.
func (e *Engine) Borrow(ctx context.Context, authority string, bankId uuid.UUID, amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	_, err := e.runPositionOp(ctx, positionOp{
		action:    core.ActionBorrow,
		authority: authority,
		bankId:    bankId,
		create:    true,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return amount, ba.Borrow(e.log, amount)
		},
		settle: e.withdrawTransfer(authority),
	})
	return err
}

func (e *Engine) Withdraw(ctx context.Context, authority string, bankId uuid.UUID, amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	_, err := e.runPositionOp(ctx, positionOp{
		action:    core.ActionWithdraw,
		authority: authority,
		bankId:    bankId,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return amount, ba.Withdraw(e.log, amount)
		},
		settle: e.withdrawTransfer(authority),
	})
	return err
}

func (e *Engine) Repay(ctx context.Context, authority string, bankId uuid.UUID, amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	_, err := e.runPositionOp(ctx, positionOp{
		action:    core.ActionRepay,
		authority: authority,
		bankId:    bankId,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return amount, ba.Repay(e.log, amount)
		},
		settle: e.depositTransfer(authority),
	})
	return err
}

// WithdrawAll closes the deposit and returns the base units paid out.
func (e *Engine) WithdrawAll(ctx context.Context, authority string, bankId uuid.UUID) (decimal.Decimal, error) {
	return e.runPositionOp(ctx, positionOp{
		action:    core.ActionWithdrawAll,
		authority: authority,
		bankId:    bankId,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return ba.WithdrawAll(e.log)
		},
		settle: e.withdrawTransfer(authority),
	})
}

// RepayAll closes the debt and returns the base units paid in.
func (e *Engine) RepayAll(ctx context.Context, authority string, bankId uuid.UUID) (decimal.Decimal, error) {
	return e.runPositionOp(ctx, positionOp{
		action:    core.ActionRepayAll,
		authority: authority,
		bankId:    bankId,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return ba.RepayAll(e.log)
		},
		settle: e.depositTransfer(authority),
	})
}

// CloseBalance frees the slot of an empty balance.
func (e *Engine) CloseBalance(ctx context.Context, authority string, bankId uuid.UUID) error {
	_, err := e.runPositionOp(ctx, positionOp{
		action:    core.ActionCloseBalance,
		authority: authority,
		bankId:    bankId,
		apply: func(ba *core.BankAccountWrapper) (decimal.Decimal, error) {
			return decimal.Zero, ba.CloseBalance(e.log)
		},
	})
	return err
}

// AccrueBankInterest brings the bank's share values up to now.
func (e *Engine) AccrueBankInterest(ctx context.Context, bankId uuid.UUID) (*core.Bank, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bank, err := e.loadBank(ctx, bankId)
	if err != nil {
		return nil, err
	}
	now, err := e.now()
	if err != nil {
		return nil, err
	}
	if err := bank.AccrueInterest(e.log, now); err != nil {
		return nil, err
	}

	operate := core.NewOperate(now, uuid.Nil, core.ActionAccrueBankInterest, core.ActionDetail{
		ActionType: core.ActionAccrueBankInterest,
		BankId:     bank.Id,
		Amount:     decimal.Zero,
	})
	if err := e.persist(ctx, []*core.Bank{bank}, nil, operate, nil); err != nil {
		return nil, err
	}
	return bank, nil
}

// Liquidate has liquidatorAuthority take assetAmount of collateral in
// assetBankId from liquidateeAuthority, paying the equivalent debt in
// liabilityBankId. No tokens move; only positions change.
func (e *Engine) Liquidate(ctx context.Context, liquidatorAuthority, liquidateeAuthority string, assetBankId, liabilityBankId uuid.UUID, assetAmount decimal.Decimal) (*core.LiquidateResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkAmount(assetAmount); err != nil {
		return nil, err
	}

	liquidator, err := e.loadAccount(ctx, liquidatorAuthority)
	if err != nil {
		return nil, err
	}
	liquidatee, err := e.loadAccount(ctx, liquidateeAuthority)
	if err != nil {
		return nil, err
	}
	assetBank, err := e.loadBank(ctx, assetBankId)
	if err != nil {
		return nil, err
	}
	liabBank, err := e.loadBank(ctx, liabilityBankId)
	if err != nil {
		return nil, err
	}

	now, err := e.now()
	if err != nil {
		return nil, err
	}
	result, err := core.Liquidate(e.log, core.LiquidateArgs{
		Now:              now,
		AssetBank:        assetBank,
		LiabilityBank:    liabBank,
		Liquidator:       liquidator,
		Liquidatee:       liquidatee,
		AssetAmount:      assetAmount,
		AssetFeedKey:     assetBank.OracleKey,
		LiabilityFeedKey: liabBank.OracleKey,
		PriceFeedMgr:     e.prices,
	})
	if err != nil {
		return nil, err
	}

	e.fillLiquidationHealth(ctx, now, liquidatee, result)

	operate := core.NewOperate(now, result.Liquidator.Id, core.ActionLiquidate, result.LiquidationActions()...)
	banks := []*core.Bank{result.AssetBank, result.LiabilityBank}
	accounts := []*core.Account{result.Liquidator, result.Liquidatee}
	if err := e.persist(ctx, banks, accounts, operate, nil); err != nil {
		return nil, err
	}
	return result, nil
}

// fillLiquidationHealth records the liquidatee's maintenance health around the
// liquidation. It is informational; a valuation failure leaves it zero.
func (e *Engine) fillLiquidationHealth(ctx context.Context, now int64, before *core.Account, result *core.LiquidateResult) {
	banks, err := e.loadBanks(ctx, now)
	if err != nil {
		e.log.Warn().Err(err).Msg("liquidation health: load banks")
		return
	}

	if health, err := e.health(before, banks, core.Maintenance); err == nil {
		result.LiquidateePreHealth = health
	} else {
		e.log.Warn().Err(err).Msg("liquidation health: before")
	}

	banks[result.AssetBank.Id] = result.AssetBank
	banks[result.LiabilityBank.Id] = result.LiabilityBank
	if health, err := e.health(result.Liquidatee, banks, core.Maintenance); err == nil {
		result.LiquidateePostHealth = health
	} else {
		e.log.Warn().Err(err).Msg("liquidation health: after")
	}
}

func (e *Engine) health(account *core.Account, banks map[uuid.UUID]*core.Bank, requirementType core.RequirementType) (decimal.Decimal, error) {
	riskEngine, err := core.NewRiskEngine(account, banks, e.prices)
	if err != nil {
		return decimal.Zero, err
	}
	return riskEngine.GetAccountHealth(requirementType)
}
