package core

import (
	"context"
	"database/sql/driver"
	"encoding/json"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/utils"
)

type (
	AccountStore interface {
		GetAccountById(ctx context.Context, accountId uuid.UUID) (*Account, error)
		GetAccountByAuthority(ctx context.Context, authority string) (*Account, error)
		ListAccount(ctx context.Context) ([]*Account, error)
		CreateAccount(ctx context.Context, account *Account) error
		UpsertAccount(ctx context.Context, account *Account) error
	}

	Account struct {
		Id             uuid.UUID      `json:"id"`
		Authority      string         `json:"authority"`
		LendingAccount LendingAccount `json:"lendingAccount"`

		CreatedAt int64 `gorm:"autoCreateTime:false" json:"createdAt"`
		UpdatedAt int64 `gorm:"autoUpdateTime:false" json:"updatedAt"`
	}

	// LendingAccount holds a fixed number of balance slots, at most one per bank.
	LendingAccount struct {
		Balances [MAX_LENDING_ACCOUNT_BALANCES]Balance `json:"balances"`
	}
)

func NewAccount(clk clock.Clock, authority string) *Account {
	now := clk.Now().Unix()
	return &Account{
		Id:        utils.DeriveId(ORBITLEN_ACCOUNT_SEED, authority),
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone copies the account; the balance array is copied by value.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

func (la LendingAccount) Value() (driver.Value, error) {
	valueString, err := json.Marshal(la)
	return string(valueString), err
}

func (la *LendingAccount) Scan(value any) error {
	return scanJSON(value, la)
}

func (la *LendingAccount) GetBalance(bankId uuid.UUID) *Balance {
	for i := range la.Balances {
		if la.Balances[i].Active && la.Balances[i].BankId == bankId {
			return &la.Balances[i]
		}
	}
	return nil
}

func (la *LendingAccount) GetFirstEmptyBalance() (int, bool) {
	for i := range la.Balances {
		if !la.Balances[i].Active {
			return i, true
		}
	}
	return 0, false
}

func (la *LendingAccount) ActiveBalanceCount() int {
	count := 0
	for i := range la.Balances {
		if la.Balances[i].Active {
			count++
		}
	}
	return count
}

// ActiveBalances returns pointers into the slot array for every occupied slot.
func (la *LendingAccount) ActiveBalances() []*Balance {
	balances := make([]*Balance, 0, MAX_LENDING_ACCOUNT_BALANCES)
	for i := range la.Balances {
		if la.Balances[i].Active {
			balances = append(balances, &la.Balances[i])
		}
	}
	return balances
}
