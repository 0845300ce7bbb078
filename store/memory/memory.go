// Package memory keeps banks, accounts and the operation journal in process
// memory. Records are cloned on the way in and out, so callers never share
// state with the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Store struct {
	mu       sync.RWMutex
	banks    map[uuid.UUID]*core.Bank
	accounts map[uuid.UUID]*core.Account
	operates []*core.Operate
}

var (
	_ core.BankStore    = (*Store)(nil)
	_ core.AccountStore = (*Store)(nil)
	_ core.OperateStore = (*Store)(nil)

	_ core.InstructionStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		banks:    make(map[uuid.UUID]*core.Bank),
		accounts: make(map[uuid.UUID]*core.Account),
	}
}

func (s *Store) CreateBank(_ context.Context, bank *core.Bank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.banks[bank.Id]; ok {
		return errors.Wrapf(core.BankAlreadyExists, "bank %s", bank.Id)
	}
	s.banks[bank.Id] = bank.Clone()
	return nil
}

func (s *Store) UpsertBank(_ context.Context, bank *core.Bank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.banks[bank.Id] = bank.Clone()
	return nil
}

func (s *Store) GetBankById(_ context.Context, bankId uuid.UUID) (*core.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bank, ok := s.banks[bankId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return bank.Clone(), nil
}

// ListBank returns every bank ordered by creation time, then mint.
func (s *Store) ListBank(_ context.Context) ([]*core.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	banks := make([]*core.Bank, 0, len(s.banks))
	for _, bank := range s.banks {
		banks = append(banks, bank.Clone())
	}
	sort.Slice(banks, func(i, j int) bool {
		if banks[i].CreatedAt != banks[j].CreatedAt {
			return banks[i].CreatedAt < banks[j].CreatedAt
		}
		return banks[i].Mint < banks[j].Mint
	})
	return banks, nil
}

func (s *Store) GetAccountById(_ context.Context, accountId uuid.UUID) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account.Clone(), nil
}

func (s *Store) GetAccountByAuthority(_ context.Context, authority string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Authority == authority {
			return account.Clone(), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) ListAccount(_ context.Context) ([]*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*core.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Authority < accounts[j].Authority
	})
	return accounts, nil
}

func (s *Store) CreateAccount(_ context.Context, account *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Id]; ok {
		return errors.Wrapf(core.AccountAlreadyExists, "account %s", account.Id)
	}
	s.accounts[account.Id] = account.Clone()
	return nil
}

func (s *Store) UpsertAccount(_ context.Context, account *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.Id] = account.Clone()
	return nil
}

func (s *Store) CreateOperate(_ context.Context, operate *core.Operate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendOperate(operate)
	return nil
}

func (s *Store) appendOperate(operate *core.Operate) {
	operate.Id = uint64(len(s.operates) + 1)
	c := *operate
	c.Extra.Actions = append([]core.ActionDetail(nil), operate.Extra.Actions...)
	s.operates = append(s.operates, &c)
}

// StorageInstruction writes banks, accounts and operate under one lock, so no
// reader sees a half-applied instruction.
func (s *Store) StorageInstruction(_ context.Context, banks []*core.Bank, accounts []*core.Account, operate *core.Operate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bank := range banks {
		s.banks[bank.Id] = bank.Clone()
	}
	for _, account := range accounts {
		s.accounts[account.Id] = account.Clone()
	}
	if operate != nil {
		s.appendOperate(operate)
	}
	return nil
}

// ListOperates returns the newest journal entries of accountId first. A zero op
// matches every action, a non-positive limit returns everything.
func (s *Store) ListOperates(_ context.Context, accountId uuid.UUID, op core.ActionType, limit int) ([]*core.Operate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var operates []*core.Operate
	for i := len(s.operates) - 1; i >= 0; i-- {
		operate := s.operates[i]
		if operate.AccountId != accountId || (op != 0 && operate.Op != op) {
			continue
		}
		c := *operate
		c.Extra.Actions = append([]core.ActionDetail(nil), operate.Extra.Actions...)
		operates = append(operates, &c)
		if limit > 0 && len(operates) == limit {
			break
		}
	}
	return operates, nil
}
