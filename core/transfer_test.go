package core

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedTransfer struct {
	mint      string
	from, to  uuid.UUID
	authority string
	amount    decimal.Decimal
}

type recordingTransfer struct {
	transfers []recordedTransfer
}

func (r *recordingTransfer) Transfer(mint string, from, to uuid.UUID, authority string, amount decimal.Decimal) error {
	r.transfers = append(r.transfers, recordedTransfer{mint, from, to, authority, amount})
	return nil
}

func TestDepositSplTransfer(t *testing.T) {
	bank := newTestBank("usdc", 6)
	transfer := &recordingTransfer{}
	wallet := TokenAccountId("alice", "usdc")

	err := bank.DepositSplTransfer(transfer, d("10"), wallet, bank.InsuranceVault, "alice")
	assert.ErrorIs(t, err, InvalidTransfer)
	assert.Empty(t, transfer.transfers)

	require.NoError(t, bank.DepositSplTransfer(transfer, d("10"), wallet, bank.LiquidityVault, "alice"))
	require.Len(t, transfer.transfers, 1)
	assert.Equal(t, recordedTransfer{"usdc", wallet, bank.LiquidityVault, "alice", d("10")}, transfer.transfers[0])
}

func TestWithdrawSplTransfer(t *testing.T) {
	bank := newTestBank("usdc", 6)
	transfer := &recordingTransfer{}
	wallet := TokenAccountId("alice", "usdc")

	ba := NewBankAccountWrapper(0, &Balance{}, bank)
	require.NoError(t, ba.WithdrawSplTransfer(transfer, d("3"), wallet))
	require.Len(t, transfer.transfers, 1)
	assert.Equal(t, recordedTransfer{"usdc", bank.LiquidityVault, wallet, bank.LiquidityVaultAuthority.String(), d("3")}, transfer.transfers[0])
}

func TestTokenAccountId(t *testing.T) {
	assert.Equal(t, TokenAccountId("alice", "usdc"), TokenAccountId("alice", "usdc"))
	assert.NotEqual(t, TokenAccountId("alice", "usdc"), TokenAccountId("alice", "sol"))
	assert.NotEqual(t, TokenAccountId("alice", "usdc"), TokenAccountId("bob", "usdc"))
}
