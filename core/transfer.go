package core

import (
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/utils"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TokenTransfer moves amount of mint between two token accounts. authority must
// own the source account.
type TokenTransfer interface {
	Transfer(mint string, from, to uuid.UUID, authority string, amount decimal.Decimal) error
}

// TokenAccountId is the token account of authority for mint.
func TokenAccountId(authority, mint string) uuid.UUID {
	return utils.DeriveId(TOKEN_ACCOUNT_SEED, authority, mint)
}

func (b *Bank) DepositSplTransfer(transfer TokenTransfer, amount decimal.Decimal, from, to uuid.UUID, authority string) error {
	if to != b.LiquidityVault {
		return errors.Wrapf(InvalidTransfer, "destination %s is not the liquidity vault of bank %s", to, b.Id)
	}
	return transfer.Transfer(b.Mint, from, to, authority, amount)
}

func (b *Bank) WithdrawSplTransfer(transfer TokenTransfer, amount decimal.Decimal, to uuid.UUID) error {
	return transfer.Transfer(b.Mint, b.LiquidityVault, to, b.LiquidityVaultAuthority.String(), amount)
}

func (ba *BankAccountWrapper) DepositSplTransfer(transfer TokenTransfer, amount decimal.Decimal, from, to uuid.UUID, authority string) error {
	return ba.Bank.DepositSplTransfer(transfer, amount, from, to, authority)
}

func (ba *BankAccountWrapper) WithdrawSplTransfer(transfer TokenTransfer, amount decimal.Decimal, to uuid.UUID) error {
	return ba.Bank.WithdrawSplTransfer(transfer, amount, to)
}
