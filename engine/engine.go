// Package engine runs lending instructions against the stores. An instruction
// loads copies of the banks and accounts it touches, accrues interest, mutates
// the copies, moves tokens and then saves everything in one store call. When
// that save fails the transfer is reversed, so a failed instruction leaves the
// stores and the token accounts as they were.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Vaults is implemented by transfer backends that hold token accounts and can
// open them on demand.
type Vaults interface {
	OpenBankVaults(bank *core.Bank) error
	OpenWallet(authority, mint string) (uuid.UUID, error)
}

// Store is everything the engine reads and writes.
type Store interface {
	core.BankStore
	core.AccountStore
	core.OperateStore
	core.InstructionStore
}

type Engine struct {
	clk      clock.Clock
	log      core.Log
	store    Store
	transfer core.TokenTransfer
	prices   core.PriceAdapterMgr

	// instructions run one at a time
	mu sync.Mutex
}

type Option func(e *Engine)

func WithLogger(log core.Log) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithClock(clk clock.Clock) Option {
	return func(e *Engine) {
		e.clk = clk
	}
}

func New(
	store Store,
	transfer core.TokenTransfer,
	prices core.PriceAdapterMgr,
	opts ...Option,
) *Engine {
	nop := zerolog.Nop()
	e := &Engine{
		clk:      clock.New(),
		log:      &nop,
		store:    store,
		transfer: transfer,
		prices:   prices,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// now is the clock in unix seconds. A zero or pre-epoch reading means the
// clock is broken.
func (e *Engine) now() (int64, error) {
	t := e.clk.Now()
	if t.IsZero() || t.Before(time.Unix(0, 0)) {
		return 0, errors.Wrapf(core.GetClockFailed, "clock reads %s", t)
	}
	return t.Unix(), nil
}

func (e *Engine) loadBank(ctx context.Context, bankId uuid.UUID) (*core.Bank, error) {
	bank, err := e.store.GetBankById(ctx, bankId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(core.BankAccountNotFound, "bank %s", bankId)
	}
	return bank, err
}

func (e *Engine) loadAccount(ctx context.Context, authority string) (*core.Account, error) {
	account, err := e.store.GetAccountByAuthority(ctx, authority)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(core.AccountNotFound, "authority %s", authority)
	}
	return account, err
}

// loadBanks returns every bank accrued to now, keyed by id.
func (e *Engine) loadBanks(ctx context.Context, now int64) (map[uuid.UUID]*core.Bank, error) {
	banks, err := e.store.ListBank(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[uuid.UUID]*core.Bank, len(banks))
	for _, bank := range banks {
		if err := bank.AccrueInterest(e.log, now); err != nil {
			return nil, err
		}
		m[bank.Id] = bank
	}
	return m, nil
}

// accruedBanks is loadBanks at the current clock.
func (e *Engine) accruedBanks(ctx context.Context) (map[uuid.UUID]*core.Bank, error) {
	now, err := e.now()
	if err != nil {
		return nil, err
	}
	return e.loadBanks(ctx, now)
}

func (e *Engine) wallet(authority, mint string) (uuid.UUID, error) {
	if vaults, ok := e.transfer.(Vaults); ok {
		return vaults.OpenWallet(authority, mint)
	}
	return core.TokenAccountId(authority, mint), nil
}

// persist saves the instruction's banks, accounts and journal entry together.
// On failure undo, when set, reverses the instruction's token transfer.
func (e *Engine) persist(ctx context.Context, banks []*core.Bank, accounts []*core.Account, operate *core.Operate, undo func() error) error {
	err := e.store.StorageInstruction(ctx, banks, accounts, operate)
	if err == nil || undo == nil {
		return err
	}
	if undoErr := undo(); undoErr != nil {
		e.log.Error().Err(undoErr).Msg("reverse transfer after failed save")
		return errors.Wrapf(err, "transfer not reversed: %v", undoErr)
	}
	return err
}
