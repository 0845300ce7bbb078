package engine

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/orbitlen/core/oracle"
	"github.com/orbitlen/core/store/memory"
	"github.com/orbitlen/core/vault"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testBankConfig(oracleKey string) core.BankConfig {
	return core.BankConfig{
		AssetWeightInit:      d("0.8"),
		AssetWeightMaint:     d("0.9"),
		LiabilityWeightInit:  d("1.2"),
		LiabilityWeightMaint: d("1.1"),
		InterestRateConfig: core.InterestRateConfig{
			OptimalUtilizationRate: d("0.8"),
			PlateauInterestRate:    d("0.1"),
			MaxInterestRate:        d("1"),
		},
		OracleKey: oracleKey,
	}
}

type harness struct {
	ctx    context.Context
	clk    *clock.Mock
	store  *memory.Store
	ledger *vault.Ledger
	prices *oracle.PriceBook
	engine *Engine

	ray *core.Bank
	bnb *core.Bank
}

// newHarness opens a RAY bank (6 decimals, 2.8 usd) and a BNB bank (9
// decimals, 250 usd) on an empty store.
func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := clock.NewMock()
	store := memory.New()
	h := &harness{
		ctx:    context.Background(),
		clk:    clk,
		store:  store,
		ledger: vault.New(clk),
		prices: oracle.New(clk),
	}
	h.engine = New(store, h.ledger, h.prices, WithClock(clk))

	require.NoError(t, h.prices.Set("ray/usd", d("2.8")))
	require.NoError(t, h.prices.Set("bnb/usd", d("250")))

	var err error
	h.ray, err = h.engine.CreateBank(h.ctx, "ray", 6, testBankConfig("ray/usd"))
	require.NoError(t, err)
	h.bnb, err = h.engine.CreateBank(h.ctx, "bnb", 9, testBankConfig("bnb/usd"))
	require.NoError(t, err)
	return h
}

func (h *harness) account(t *testing.T, authority string) {
	t.Helper()
	_, err := h.engine.CreateAccount(h.ctx, authority)
	require.NoError(t, err)
}

func (h *harness) fund(t *testing.T, authority, mint, amount string) uuid.UUID {
	t.Helper()
	wallet, err := h.ledger.OpenWallet(authority, mint)
	require.NoError(t, err)
	require.NoError(t, h.ledger.Mint(wallet, d(amount)))
	return wallet
}

func (h *harness) tokens(t *testing.T, id uuid.UUID) string {
	t.Helper()
	amount, err := h.ledger.Balance(id)
	require.NoError(t, err)
	return amount.String()
}

func (h *harness) stored(t *testing.T, authority string) *core.Account {
	t.Helper()
	account, err := h.store.GetAccountByAuthority(h.ctx, authority)
	require.NoError(t, err)
	return account
}

func (h *harness) storedBank(t *testing.T, bankId uuid.UUID) *core.Bank {
	t.Helper()
	bank, err := h.store.GetBankById(h.ctx, bankId)
	require.NoError(t, err)
	return bank
}

func TestCreateBank(t *testing.T) {
	h := newHarness(t)

	for _, bank := range []*core.Bank{h.ray, h.bnb} {
		for _, id := range []uuid.UUID{bank.LiquidityVault, bank.InsuranceVault} {
			assert.Equal(t, "0", h.tokens(t, id))
		}
	}

	_, err := h.engine.CreateBank(h.ctx, "ray", 6, testBankConfig("ray/usd"))
	assert.True(t, errors.Is(err, core.BankAlreadyExists))

	_, err = h.engine.CreateBank(h.ctx, "", 6, testBankConfig("x/usd"))
	assert.True(t, errors.Is(err, core.InvalidConfig))

	config := testBankConfig("sol/usd")
	config.OptimalUtilizationRate = d("1.2")
	_, err = h.engine.CreateBank(h.ctx, "sol", 9, config)
	assert.True(t, errors.Is(err, core.InvalidConfig))

	banks, err := h.store.ListBank(h.ctx)
	require.NoError(t, err)
	assert.Len(t, banks, 2)
}

func TestCreateAccount(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")

	_, err := h.engine.CreateAccount(h.ctx, "alice")
	assert.True(t, errors.Is(err, core.AccountAlreadyExists))

	_, err = h.engine.CreateAccount(h.ctx, "")
	assert.True(t, errors.Is(err, core.InvalidAuthority))
}

func TestDepositWithdraw(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	wallet := h.fund(t, "alice", "bnb", "100000000000")

	require.NoError(t, h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("10000000000")))
	assert.Equal(t, "90000000000", h.tokens(t, wallet))
	assert.Equal(t, "10000000000", h.tokens(t, h.bnb.LiquidityVault))

	balance := h.stored(t, "alice").LendingAccount.GetBalance(h.bnb.Id)
	require.NotNil(t, balance)
	assert.Equal(t, "10000000000", balance.AssetShares.String())
	assert.Equal(t, "10000000000", h.storedBank(t, h.bnb.Id).TotalAssetShares.String())

	require.NoError(t, h.engine.Withdraw(h.ctx, "alice", h.bnb.Id, d("4000000000")))
	assert.Equal(t, "94000000000", h.tokens(t, wallet))
	assert.Equal(t, "6000000000", h.tokens(t, h.bnb.LiquidityVault))

	err := h.engine.Withdraw(h.ctx, "alice", h.bnb.Id, d("7000000000"))
	assert.True(t, errors.Is(err, core.OperationWithdrawOnly))

	amount, err := h.engine.WithdrawAll(h.ctx, "alice", h.bnb.Id)
	require.NoError(t, err)
	assert.Equal(t, "6000000000", amount.String())
	assert.Equal(t, "100000000000", h.tokens(t, wallet))
	assert.Equal(t, "0", h.tokens(t, h.bnb.LiquidityVault))
	assert.Nil(t, h.stored(t, "alice").LendingAccount.GetBalance(h.bnb.Id))

	operates, err := h.engine.Operates(h.ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, operates, 3)
	assert.Equal(t, core.ActionWithdrawAll, operates[0].Op)
	assert.Equal(t, core.ActionWithdraw, operates[1].Op)
	assert.Equal(t, core.ActionSupply, operates[2].Op)
	assert.Equal(t, "10000000000", operates[2].Extra.Actions[0].Amount.String())
}

func TestBorrowRepay(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	h.account(t, "bob")
	h.fund(t, "alice", "bnb", "100000000000")
	h.fund(t, "bob", "ray", "1000000000")

	require.NoError(t, h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("100000000000")))
	require.NoError(t, h.engine.Deposit(h.ctx, "bob", h.ray.Id, d("1000000000")))
	require.NoError(t, h.engine.Borrow(h.ctx, "bob", h.bnb.Id, d("2000000000")))

	bobBnb, err := h.ledger.OpenWallet("bob", "bnb")
	require.NoError(t, err)
	assert.Equal(t, "2000000000", h.tokens(t, bobBnb))
	assert.Equal(t, "98000000000", h.tokens(t, h.bnb.LiquidityVault))
	assert.Equal(t, "2000000000", h.stored(t, "bob").LendingAccount.GetBalance(h.bnb.Id).LiabilityShares.String())

	require.NoError(t, h.engine.Repay(h.ctx, "bob", h.bnb.Id, d("1000000000")))
	assert.Equal(t, "1000000000", h.tokens(t, bobBnb))

	err = h.engine.Repay(h.ctx, "bob", h.bnb.Id, d("5000000000"))
	assert.True(t, errors.Is(err, core.OperationRepayOnly))

	h.clk.Add(365 * 24 * time.Hour)
	h.fund(t, "bob", "bnb", "1000000000")

	repaid, err := h.engine.RepayAll(h.ctx, "bob", h.bnb.Id)
	require.NoError(t, err)
	assert.True(t, repaid.GreaterThan(d("1000000000")), "repaid %s", repaid)
	assert.True(t, repaid.Equal(repaid.Truncate(0)))
	assert.Nil(t, h.stored(t, "bob").LendingAccount.GetBalance(h.bnb.Id))

	remaining, err := h.ledger.Balance(bobBnb)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(d("2000000000").Sub(repaid)))

	bank := h.storedBank(t, h.bnb.Id)
	assert.True(t, bank.TotalLiabilityShares.IsZero())
	assert.Equal(t, h.clk.Now().Unix(), bank.LastUpdate)
	assert.True(t, bank.AssetShareValue.GreaterThan(core.ONE))
}

func TestDepositPaysDownDebt(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	h.account(t, "bob")
	h.fund(t, "alice", "bnb", "10000000000")
	h.fund(t, "bob", "bnb", "3000000000")

	require.NoError(t, h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("10000000000")))
	require.NoError(t, h.engine.Borrow(h.ctx, "bob", h.bnb.Id, d("2000000000")))
	require.NoError(t, h.engine.Deposit(h.ctx, "bob", h.bnb.Id, d("3000000000")))

	balance := h.stored(t, "bob").LendingAccount.GetBalance(h.bnb.Id)
	require.NotNil(t, balance)
	assert.True(t, balance.LiabilityShares.IsZero())
	assert.Equal(t, "1000000000", balance.AssetShares.String())

	require.NoError(t, h.engine.Borrow(h.ctx, "bob", h.bnb.Id, d("1000000000")))
	balance = h.stored(t, "bob").LendingAccount.GetBalance(h.bnb.Id)
	assert.True(t, balance.AssetShares.IsZero())
	assert.True(t, balance.LiabilityShares.IsZero())

	require.NoError(t, h.engine.CloseBalance(h.ctx, "bob", h.bnb.Id))
	assert.Nil(t, h.stored(t, "bob").LendingAccount.GetBalance(h.bnb.Id))
	assert.Zero(t, h.stored(t, "bob").LendingAccount.ActiveBalanceCount())
}

func TestFailedInstructionLeavesState(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	h.account(t, "bob")
	wallet := h.fund(t, "alice", "bnb", "5000000000")

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "deposit more than the wallet holds",
			run:  func() error { return h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("6000000000")) },
			want: core.InvalidTransfer,
		},
		{
			name: "borrow past liquidity",
			run:  func() error { return h.engine.Borrow(h.ctx, "bob", h.bnb.Id, d("1000000000")) },
			want: core.IllegalUtilizationRatio,
		},
		{
			name: "withdraw without a position",
			run:  func() error { return h.engine.Withdraw(h.ctx, "alice", h.ray.Id, d("1")) },
			want: core.LendingAccountBalanceNotFound,
		},
		{
			name: "non-positive amount",
			run:  func() error { return h.engine.Deposit(h.ctx, "alice", h.bnb.Id, decimal.Zero) },
			want: core.InvalidAmount,
		},
		{
			name: "fractional amount",
			run:  func() error { return h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("0.0000000000001")) },
			want: core.InvalidAmount,
		},
		{
			name: "fractional borrow",
			run:  func() error { return h.engine.Borrow(h.ctx, "bob", h.bnb.Id, d("1.5")) },
			want: core.InvalidAmount,
		},
		{
			name: "deposit worth less than one share",
			run: func() error {
				bank := h.storedBank(t, h.bnb.Id)
				inflated := bank.Clone()
				inflated.AssetShareValue = d("10000000000000")
				require.NoError(t, h.store.UpsertBank(h.ctx, inflated))
				defer func() { require.NoError(t, h.store.UpsertBank(h.ctx, bank)) }()
				return h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("1"))
			},
			want: core.MathError,
		},
		{
			name: "unknown account",
			run:  func() error { return h.engine.Deposit(h.ctx, "carol", h.bnb.Id, d("1")) },
			want: core.AccountNotFound,
		},
		{
			name: "unknown bank",
			run:  func() error { return h.engine.Deposit(h.ctx, "alice", uuid.Must(uuid.NewV4()), d("1")) },
			want: core.BankAccountNotFound,
		},
		{
			name: "close a missing balance",
			run:  func() error { return h.engine.CloseBalance(h.ctx, "alice", h.bnb.Id) },
			want: core.LendingAccountBalanceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			for _, authority := range []string{"alice", "bob"} {
				assert.Zero(t, h.stored(t, authority).LendingAccount.ActiveBalanceCount())
				operates, err := h.engine.Operates(h.ctx, authority, 0, 0)
				require.NoError(t, err)
				assert.Empty(t, operates)
			}
			bank := h.storedBank(t, h.bnb.Id)
			assert.True(t, bank.TotalAssetShares.IsZero())
			assert.True(t, bank.TotalLiabilityShares.IsZero())
			assert.Equal(t, "5000000000", h.tokens(t, wallet))
			assert.Equal(t, "0", h.tokens(t, h.bnb.LiquidityVault))
		})
	}
}

// failingStore saves nothing an instruction changes.
type failingStore struct {
	*memory.Store
}

func (failingStore) StorageInstruction(context.Context, []*core.Bank, []*core.Account, *core.Operate) error {
	return errors.New("disk full")
}

func TestFailedSaveReversesTransfer(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	wallet := h.fund(t, "alice", "bnb", "20000000000")
	require.NoError(t, h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("10000000000")))

	broken := New(failingStore{h.store}, h.ledger, h.prices, WithClock(h.clk))

	tests := []struct {
		name string
		run  func() error
	}{
		{"deposit", func() error { return broken.Deposit(h.ctx, "alice", h.bnb.Id, d("1000")) }},
		{"withdraw", func() error { return broken.Withdraw(h.ctx, "alice", h.bnb.Id, d("4000000000")) }},
		{"withdraw all", func() error {
			_, err := broken.WithdrawAll(h.ctx, "alice", h.bnb.Id)
			return err
		}},
		{"borrow", func() error { return broken.Borrow(h.ctx, "alice", h.bnb.Id, d("4000000000")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.run(), "disk full")

			assert.Equal(t, "10000000000", h.tokens(t, wallet))
			assert.Equal(t, "10000000000", h.tokens(t, h.bnb.LiquidityVault))
			assert.Equal(t, "10000000000", h.storedBank(t, h.bnb.Id).TotalAssetShares.String())
			assert.True(t, h.storedBank(t, h.bnb.Id).TotalLiabilityShares.IsZero())
			assert.Equal(t, "10000000000", h.stored(t, "alice").LendingAccount.GetBalance(h.bnb.Id).AssetShares.String())

			operates, err := h.engine.Operates(h.ctx, "alice", 0, 0)
			require.NoError(t, err)
			assert.Len(t, operates, 1)
		})
	}
}

// stoppedClock reads the zero time.
type stoppedClock struct {
	clock.Clock
}

func (stoppedClock) Now() time.Time {
	return time.Time{}
}

func TestBrokenClock(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	h.fund(t, "alice", "bnb", "1000")

	broken := New(h.store, h.ledger, h.prices, WithClock(stoppedClock{h.clk}))

	err := broken.Deposit(h.ctx, "alice", h.bnb.Id, d("1000"))
	assert.True(t, errors.Is(err, core.GetClockFailed), "got %v", err)
	_, err = broken.AccrueBankInterest(h.ctx, h.bnb.Id)
	assert.True(t, errors.Is(err, core.GetClockFailed), "got %v", err)
	_, err = broken.AccountHealth(h.ctx, "alice", core.Maintenance)
	assert.True(t, errors.Is(err, core.GetClockFailed), "got %v", err)
	_, err = broken.Banks(h.ctx)
	assert.True(t, errors.Is(err, core.GetClockFailed), "got %v", err)

	assert.Zero(t, h.stored(t, "alice").LendingAccount.ActiveBalanceCount())
}

func TestAccrueBankInterest(t *testing.T) {
	h := newHarness(t)
	h.account(t, "alice")
	h.account(t, "bob")
	h.fund(t, "alice", "bnb", "10000000000")

	require.NoError(t, h.engine.Deposit(h.ctx, "alice", h.bnb.Id, d("10000000000")))
	require.NoError(t, h.engine.Borrow(h.ctx, "bob", h.bnb.Id, d("8000000000")))

	h.clk.Add(30 * 24 * time.Hour)
	bank, err := h.engine.AccrueBankInterest(h.ctx, h.bnb.Id)
	require.NoError(t, err)
	assert.Equal(t, h.clk.Now().Unix(), bank.LastUpdate)
	assert.True(t, bank.LiabilityShareValue.GreaterThan(core.ONE))
	assert.True(t, bank.AssetShareValue.GreaterThan(core.ONE))
	assert.True(t, bank.GetTotalAssetQuantity().GreaterThanOrEqual(bank.GetTotalLiabilityQuantity()))

	stored := h.storedBank(t, h.bnb.Id)
	assert.True(t, stored.LiabilityShareValue.Equal(bank.LiabilityShareValue))
	assert.True(t, stored.AssetShareValue.Equal(bank.AssetShareValue))

	again, err := h.engine.AccrueBankInterest(h.ctx, h.bnb.Id)
	require.NoError(t, err)
	assert.True(t, again.LiabilityShareValue.Equal(bank.LiabilityShareValue))

	operates, err := h.store.ListOperates(h.ctx, uuid.Nil, core.ActionAccrueBankInterest, 0)
	require.NoError(t, err)
	assert.Len(t, operates, 2)

	_, err = h.engine.AccrueBankInterest(h.ctx, uuid.Must(uuid.NewV4()))
	assert.True(t, errors.Is(err, core.BankAccountNotFound))
}

// liquidationHarness mirrors the ledger liquidation fixture through the
// engine: the liquidatee holds 1000 RAY and owes 5 BNB, the liquidator holds
// 10 BNB.
func liquidationHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	for _, authority := range []string{"lender", "liquidator", "liquidatee"} {
		h.account(t, authority)
	}
	h.fund(t, "lender", "bnb", "100000000000")
	h.fund(t, "liquidator", "bnb", "10000000000")
	h.fund(t, "liquidatee", "ray", "1000000000")

	require.NoError(t, h.engine.Deposit(h.ctx, "lender", h.bnb.Id, d("100000000000")))
	require.NoError(t, h.engine.Deposit(h.ctx, "liquidator", h.bnb.Id, d("10000000000")))
	require.NoError(t, h.engine.Deposit(h.ctx, "liquidatee", h.ray.Id, d("1000000000")))
	require.NoError(t, h.engine.Borrow(h.ctx, "liquidatee", h.bnb.Id, d("5000000000")))
	return h
}

func TestLiquidate(t *testing.T) {
	h := liquidationHarness(t)
	vaultBefore := h.tokens(t, h.bnb.LiquidityVault)

	result, err := h.engine.Liquidate(h.ctx, "liquidator", "liquidatee", h.ray.Id, h.bnb.Id, d("100000000"))
	require.NoError(t, err)
	assert.Equal(t, "1120000000", result.LiabilityAmount.String())
	assert.True(t, result.LiquidateePreHealth.Equal(d("1145")), "pre %s", result.LiquidateePreHealth)
	assert.True(t, result.LiquidateePostHealth.Equal(d("1201")), "post %s", result.LiquidateePostHealth)

	liquidator := h.stored(t, "liquidator")
	assert.Equal(t, "8880000000", liquidator.LendingAccount.GetBalance(h.bnb.Id).AssetShares.String())
	assert.Equal(t, "100000000", liquidator.LendingAccount.GetBalance(h.ray.Id).AssetShares.String())

	liquidatee := h.stored(t, "liquidatee")
	assert.Equal(t, "900000000", liquidatee.LendingAccount.GetBalance(h.ray.Id).AssetShares.String())
	assert.Equal(t, "3880000000", liquidatee.LendingAccount.GetBalance(h.bnb.Id).LiabilityShares.String())

	// no tokens move
	assert.Equal(t, vaultBefore, h.tokens(t, h.bnb.LiquidityVault))

	operates, err := h.engine.Operates(h.ctx, "liquidator", core.ActionLiquidate, 0)
	require.NoError(t, err)
	require.Len(t, operates, 1)
	assert.Equal(t, result.LiquidationActions(), operates[0].Extra.Actions)
}

func TestLiquidateRejected(t *testing.T) {
	h := liquidationHarness(t)

	tests := []struct {
		name       string
		liquidator string
		asset      uuid.UUID
		liability  uuid.UUID
		amount     string
		want       error
	}{
		{"self", "liquidatee", h.ray.Id, h.bnb.Id, "100000000", core.IllegalLiquidation},
		{"same bank", "liquidator", h.bnb.Id, h.bnb.Id, "100000000", core.IllegalLiquidation},
		{"more than held", "liquidator", h.ray.Id, h.bnb.Id, "1000000001", core.IllegalLiquidation},
		{"zero amount", "liquidator", h.ray.Id, h.bnb.Id, "0", core.IllegalLiquidation},
		{"fractional amount", "liquidator", h.ray.Id, h.bnb.Id, "100000000.5", core.InvalidAmount},
		{"unknown liquidator", "nobody", h.ray.Id, h.bnb.Id, "100000000", core.AccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.engine.Liquidate(h.ctx, tt.liquidator, "liquidatee", tt.asset, tt.liability, d(tt.amount))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			liquidatee := h.stored(t, "liquidatee")
			assert.Equal(t, "1000000000", liquidatee.LendingAccount.GetBalance(h.ray.Id).AssetShares.String())
			assert.Equal(t, "5000000000", liquidatee.LendingAccount.GetBalance(h.bnb.Id).LiabilityShares.String())
		})
	}
}

func TestAccountHealth(t *testing.T) {
	h := liquidationHarness(t)

	report, err := h.engine.AccountHealth(h.ctx, "liquidatee", core.Maintenance)
	require.NoError(t, err)
	assert.Equal(t, "maintenance", report.Requirement)
	assert.True(t, report.Assets.Equal(d("2520")), "assets %s", report.Assets)
	assert.True(t, report.Liabilities.Equal(d("1375")), "liabilities %s", report.Liabilities)
	assert.True(t, report.Health.Equal(d("1145")))
	assert.True(t, report.Healthy)

	require.NoError(t, h.prices.Set("ray/usd", d("1.5")))
	report, err = h.engine.AccountHealth(h.ctx, "liquidatee", core.Maintenance)
	require.NoError(t, err)
	assert.True(t, report.Assets.Equal(d("1350")), "assets %s", report.Assets)
	assert.False(t, report.Healthy)

	_, err = h.engine.AccountHealth(h.ctx, "nobody", core.Maintenance)
	assert.True(t, errors.Is(err, core.AccountNotFound))
}

func TestAccountSummary(t *testing.T) {
	h := liquidationHarness(t)

	summary, err := h.engine.AccountSummary(h.ctx, "liquidatee")
	require.NoError(t, err)
	assert.Equal(t, "liquidatee", summary.Authority)
	require.Len(t, summary.Positions, 2)

	ray, bnb := summary.Positions[0], summary.Positions[1]
	assert.Equal(t, "ray", ray.Mint)
	assert.Equal(t, core.BalanceSideAssets.String(), ray.Side)
	assert.Equal(t, "1000000000", ray.AssetAmount.String())
	assert.Equal(t, "1.527777777777777778", ray.LiquidationPrice.String())

	assert.Equal(t, "bnb", bnb.Mint)
	assert.Equal(t, core.BalanceSideLiabilities.String(), bnb.Side)
	assert.Equal(t, "5000000000", bnb.LiabilityAmount.String())
	assert.Equal(t, "458.181818181818181818", bnb.LiquidationPrice.String())

	assert.True(t, summary.Health.Healthy)
	assert.True(t, summary.NetApy.IsNegative(), "net apy %s", summary.NetApy)
}

func TestBanks(t *testing.T) {
	h := liquidationHarness(t)
	h.clk.Add(time.Hour)

	views, err := h.engine.Banks(h.ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	bnb := views[0]
	assert.Equal(t, "bnb", bnb.Mint)
	assert.Equal(t, h.clk.Now().Unix(), bnb.LastUpdate)
	assert.True(t, bnb.UtilizationRate.IsPositive())
	assert.True(t, bnb.BorrowingApr.GreaterThan(bnb.LendingApr))
	assert.True(t, bnb.BorrowingApy.GreaterThanOrEqual(bnb.BorrowingApr))

	ray := views[1]
	assert.Equal(t, "ray", ray.Mint)
	assert.True(t, ray.UtilizationRate.IsZero())

	// views do not persist the accrual
	assert.Equal(t, int64(0), h.storedBank(t, h.bnb.Id).LastUpdate)
}

func TestAccounts(t *testing.T) {
	h := liquidationHarness(t)
	h.account(t, "idle")

	summaries, err := h.engine.Accounts(h.ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	authorities := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		authorities = append(authorities, summary.Authority)
	}
	assert.Equal(t, []string{"idle", "lender", "liquidatee", "liquidator"}, authorities)

	idle := summaries[0]
	assert.Empty(t, idle.Positions)
	assert.True(t, idle.NetApy.IsZero())
	assert.True(t, idle.Health.Healthy)
}
