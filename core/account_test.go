package core

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	clk := clock.NewMock()
	clk.Add(time.Minute)

	account := NewAccount(clk, "alice")
	assert.Equal(t, "alice", account.Authority)
	assert.Equal(t, int64(60), account.CreatedAt)
	assert.Equal(t, int64(60), account.UpdatedAt)
	assert.Equal(t, 0, account.LendingAccount.ActiveBalanceCount())

	assert.Equal(t, account.Id, NewAccount(clk, "alice").Id)
	assert.NotEqual(t, account.Id, NewAccount(clk, "bob").Id)
}

func TestLendingAccountSlots(t *testing.T) {
	var la LendingAccount
	banks := []uuid.UUID{uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())}

	for i, bankId := range banks {
		idx, ok := la.GetFirstEmptyBalance()
		require.True(t, ok)
		assert.Equal(t, i, idx)
		la.Balances[idx] = NewBalance(bankId, 0)
	}

	_, ok := la.GetFirstEmptyBalance()
	assert.False(t, ok)
	assert.Equal(t, MAX_LENDING_ACCOUNT_BALANCES, la.ActiveBalanceCount())

	for _, bankId := range banks {
		balance := la.GetBalance(bankId)
		require.NotNil(t, balance)
		assert.Equal(t, bankId, balance.BankId)
	}
	assert.Nil(t, la.GetBalance(uuid.Must(uuid.NewV4())))

	la.Balances[1].Close(10)
	assert.Nil(t, la.GetBalance(banks[1]))
	assert.Len(t, la.ActiveBalances(), 2)

	idx, ok := la.GetFirstEmptyBalance()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLendingAccountNilBankIsNotASlot(t *testing.T) {
	var la LendingAccount
	// inactive slots carry uuid.Nil, which must never resolve to a balance
	assert.Nil(t, la.GetBalance(uuid.Nil))
}

func TestAccountClone(t *testing.T) {
	account := NewAccount(clock.NewMock(), "alice")
	bankId := uuid.Must(uuid.NewV4())
	account.LendingAccount.Balances[0] = NewBalance(bankId, 0)

	clone := account.Clone()
	require.NoError(t, clone.LendingAccount.GetBalance(bankId).ChangeAssetShares(decimal.NewFromInt(5)))

	assert.True(t, account.LendingAccount.GetBalance(bankId).AssetShares.IsZero())
	assert.Equal(t, "5", clone.LendingAccount.GetBalance(bankId).AssetShares.String())
}

func TestBalanceGetSide(t *testing.T) {
	tests := []struct {
		name        string
		assets      int64
		liabilities int64
		side        BalanceSide
		wantErr     bool
	}{
		{"empty", 0, 0, BalanceSideEmpty, false},
		{"assets", 5, 0, BalanceSideAssets, false},
		{"liabilities", 0, 5, BalanceSideLiabilities, false},
		{"both", 5, 5, BalanceSideEmpty, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance := NewBalance(uuid.Must(uuid.NewV4()), 0)
			balance.AssetShares = decimal.NewFromInt(tt.assets)
			balance.LiabilityShares = decimal.NewFromInt(tt.liabilities)

			side, err := balance.GetSide()
			assert.Equal(t, tt.side, side)
			if tt.wantErr {
				assert.ErrorIs(t, err, IllegalBalanceState)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBalanceChangeShares(t *testing.T) {
	balance := NewBalance(uuid.Must(uuid.NewV4()), 0)

	require.NoError(t, balance.ChangeAssetShares(decimal.NewFromInt(3)))
	assert.ErrorIs(t, balance.ChangeAssetShares(decimal.NewFromInt(-4)), MathError)
	assert.Equal(t, "3", balance.AssetShares.String())

	require.NoError(t, balance.ChangeLiabilityShares(decimal.NewFromInt(2)))
	assert.ErrorIs(t, balance.ChangeLiabilityShares(decimal.NewFromInt(-3)), MathError)
	assert.Equal(t, "2", balance.LiabilityShares.String())
}
