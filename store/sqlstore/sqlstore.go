// Package sqlstore persists banks, accounts and the operation journal through
// gorm. Balance slots and operation details are stored as json columns.
package sqlstore

import (
	"context"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrPathRequired = errors.New("sqlite path must be configured")

type Store struct {
	db *gorm.DB
}

var (
	_ core.BankStore    = (*Store)(nil)
	_ core.AccountStore = (*Store)(nil)
	_ core.OperateStore = (*Store)(nil)

	_ core.InstructionStore = (*Store)(nil)
)

// Open opens a sqlite database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrPathRequired
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return New(db)
}

// New wraps an existing connection.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&core.Bank{}, &core.Account{}, &core.Operate{}); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateBank(ctx context.Context, bank *core.Bank) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&core.Bank{}).Where("id = ?", bank.Id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.Wrapf(core.BankAlreadyExists, "bank %s", bank.Id)
		}
		return tx.Create(bank).Error
	})
}

func (s *Store) UpsertBank(ctx context.Context, bank *core.Bank) error {
	return s.db.WithContext(ctx).Save(bank).Error
}

func (s *Store) GetBankById(ctx context.Context, bankId uuid.UUID) (*core.Bank, error) {
	var bank core.Bank
	if err := s.db.WithContext(ctx).Where("id = ?", bankId).Take(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

func (s *Store) ListBank(ctx context.Context) ([]*core.Bank, error) {
	var banks []*core.Bank
	if err := s.db.WithContext(ctx).Order("created_at, mint").Find(&banks).Error; err != nil {
		return nil, err
	}
	return banks, nil
}

func (s *Store) GetAccountById(ctx context.Context, accountId uuid.UUID) (*core.Account, error) {
	var account core.Account
	if err := s.db.WithContext(ctx).Where("id = ?", accountId).Take(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) GetAccountByAuthority(ctx context.Context, authority string) (*core.Account, error) {
	var account core.Account
	if err := s.db.WithContext(ctx).Where("authority = ?", authority).Take(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) ListAccount(ctx context.Context) ([]*core.Account, error) {
	var accounts []*core.Account
	if err := s.db.WithContext(ctx).Order("authority").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *core.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&core.Account{}).Where("id = ?", account.Id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.Wrapf(core.AccountAlreadyExists, "account %s", account.Id)
		}
		return tx.Create(account).Error
	})
}

func (s *Store) UpsertAccount(ctx context.Context, account *core.Account) error {
	return s.db.WithContext(ctx).Save(account).Error
}

func (s *Store) CreateOperate(ctx context.Context, operate *core.Operate) error {
	return s.db.WithContext(ctx).Create(operate).Error
}

// StorageInstruction saves banks, accounts and operate in one transaction.
func (s *Store) StorageInstruction(ctx context.Context, banks []*core.Bank, accounts []*core.Account, operate *core.Operate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, bank := range banks {
			if err := tx.Save(bank).Error; err != nil {
				return errors.Wrapf(err, "save bank %s", bank.Id)
			}
		}
		for _, account := range accounts {
			if err := tx.Save(account).Error; err != nil {
				return errors.Wrapf(err, "save account %s", account.Id)
			}
		}
		if operate == nil {
			return nil
		}
		return errors.Wrap(tx.Create(operate).Error, "create operate")
	})
}

// ListOperates returns the newest journal entries of accountId first. A zero op
// matches every action, a non-positive limit returns everything.
func (s *Store) ListOperates(ctx context.Context, accountId uuid.UUID, op core.ActionType, limit int) ([]*core.Operate, error) {
	query := s.db.WithContext(ctx).Where("account_id = ?", accountId)
	if op != 0 {
		query = query.Where("op = ?", op)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var operates []*core.Operate
	if err := query.Order("id desc").Find(&operates).Error; err != nil {
		return nil, err
	}
	return operates, nil
}
