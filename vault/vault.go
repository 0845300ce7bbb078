// Package vault is an in-memory token ledger. It holds the balance of every
// token account, wallets and bank vaults alike, and records each transfer as a
// snapshot.
package vault

import (
	"sort"
	"strconv"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/orbitlen/core/utils"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const SNAPSHOT_SEED = "vault_snapshot"

var (
	ErrTokenAccountNotFound = errors.Wrap(core.InvalidTransfer, "token account not found")
	ErrTokenAccountExists   = errors.New("token account exists with another owner or mint")
	ErrInsufficientFunds    = errors.Wrap(core.InvalidTransfer, "insufficient funds")
	ErrMintMismatch         = errors.Wrap(core.InvalidTransfer, "mint mismatch")
	ErrUnauthorized         = errors.Wrap(core.InvalidTransfer, "authority does not own the source account")
)

type (
	TokenAccount struct {
		Id     uuid.UUID       `json:"id"`
		Owner  string          `json:"owner"`
		Mint   string          `json:"mint"`
		Amount decimal.Decimal `json:"amount"`
	}

	// Snapshot is one settled movement of tokens. A zero From marks a mint.
	Snapshot struct {
		SnapshotId uuid.UUID       `json:"snapshotId"`
		Mint       string          `json:"mint"`
		From       uuid.UUID       `json:"from"`
		To         uuid.UUID       `json:"to"`
		Amount     decimal.Decimal `json:"amount"`
		CreatedAt  int64           `json:"createdAt"`
	}
)

type Ledger struct {
	clk clock.Clock

	mu        sync.Mutex
	accounts  map[uuid.UUID]*TokenAccount
	snapshots []Snapshot
}

var _ core.TokenTransfer = (*Ledger)(nil)

func New(clk clock.Clock) *Ledger {
	return &Ledger{
		clk:      clk,
		accounts: make(map[uuid.UUID]*TokenAccount),
	}
}

// OpenAccount creates an empty token account. Opening an existing account with
// the same owner and mint is a no-op.
func (l *Ledger) OpenAccount(id uuid.UUID, owner, mint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if account, ok := l.accounts[id]; ok {
		if account.Owner != owner || account.Mint != mint {
			return errors.Wrapf(ErrTokenAccountExists, "account %s", id)
		}
		return nil
	}

	l.accounts[id] = &TokenAccount{Id: id, Owner: owner, Mint: mint, Amount: decimal.Zero}
	return nil
}

// OpenWallet opens the token account of authority for mint.
func (l *Ledger) OpenWallet(authority, mint string) (uuid.UUID, error) {
	id := core.TokenAccountId(authority, mint)
	return id, l.OpenAccount(id, authority, mint)
}

// OpenBankVaults opens the liquidity and insurance vaults of bank, each owned by
// its vault authority.
func (l *Ledger) OpenBankVaults(bank *core.Bank) error {
	if err := l.OpenAccount(bank.LiquidityVault, bank.LiquidityVaultAuthority.String(), bank.Mint); err != nil {
		return err
	}
	return l.OpenAccount(bank.InsuranceVault, bank.InsuranceVaultAuthority.String(), bank.Mint)
}

// Mint credits amount to an existing account.
func (l *Ledger) Mint(to uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.Wrapf(core.InvalidAmount, "mint %s", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[to]
	if !ok {
		return errors.Wrapf(ErrTokenAccountNotFound, "account %s", to)
	}
	account.Amount = account.Amount.Add(amount)
	l.record(account.Mint, uuid.Nil, to, amount)
	return nil
}

func (l *Ledger) Transfer(mint string, from, to uuid.UUID, authority string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.Wrapf(core.InvalidTransfer, "amount %s", amount)
	}
	if from == to {
		return errors.Wrapf(core.InvalidTransfer, "source and destination are both %s", from)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	source, ok := l.accounts[from]
	if !ok {
		return errors.Wrapf(ErrTokenAccountNotFound, "source %s", from)
	}
	destination, ok := l.accounts[to]
	if !ok {
		return errors.Wrapf(ErrTokenAccountNotFound, "destination %s", to)
	}
	if source.Mint != mint || destination.Mint != mint {
		return errors.Wrapf(ErrMintMismatch, "transfer of %s from %s to %s", mint, source.Mint, destination.Mint)
	}
	if source.Owner != authority {
		return errors.Wrapf(ErrUnauthorized, "source %s", from)
	}
	if source.Amount.LessThan(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "source %s holds %s, need %s", from, source.Amount, amount)
	}

	source.Amount = source.Amount.Sub(amount)
	destination.Amount = destination.Amount.Add(amount)
	l.record(mint, from, to, amount)
	return nil
}

func (l *Ledger) record(mint string, from, to uuid.UUID, amount decimal.Decimal) {
	seq := len(l.snapshots)
	l.snapshots = append(l.snapshots, Snapshot{
		SnapshotId: utils.DeriveId(SNAPSHOT_SEED, strconv.Itoa(seq)),
		Mint:       mint,
		From:       from,
		To:         to,
		Amount:     amount,
		CreatedAt:  l.clk.Now().Unix(),
	})
}

func (l *Ledger) Balance(id uuid.UUID) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[id]
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrTokenAccountNotFound, "account %s", id)
	}
	return account.Amount, nil
}

// Accounts lists every token account ordered by owner, then mint.
func (l *Ledger) Accounts() []TokenAccount {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make([]TokenAccount, 0, len(l.accounts))
	for _, account := range l.accounts {
		accounts = append(accounts, *account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Owner != accounts[j].Owner {
			return accounts[i].Owner < accounts[j].Owner
		}
		return accounts[i].Mint < accounts[j].Mint
	})
	return accounts
}

func (l *Ledger) Snapshots() []Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Snapshot(nil), l.snapshots...)
}
