package core

import (
	"context"
	"database/sql/driver"
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type ActionType uint8

const (
	ActionSupply ActionType = iota + 1
	ActionBorrow
	ActionRepay
	ActionWithdraw
	ActionRepayAll
	ActionWithdrawAll
	ActionCloseBalance
	ActionLiquidate
	ActionAccrueBankInterest
)

func (a ActionType) String() string {
	switch a {
	case ActionSupply:
		return "supply"
	case ActionBorrow:
		return "borrow"
	case ActionRepay:
		return "repay"
	case ActionWithdraw:
		return "withdraw"
	case ActionRepayAll:
		return "repay_all"
	case ActionWithdrawAll:
		return "withdraw_all"
	case ActionCloseBalance:
		return "close_balance"
	case ActionLiquidate:
		return "liquidate"
	case ActionAccrueBankInterest:
		return "accrue_bank_interest"
	default:
		return "unknown"
	}
}

func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActionType) UnmarshalText(text []byte) error {
	action, ok := ParseActionType(string(text))
	if !ok {
		return errors.Errorf("unknown action %q", text)
	}
	*a = action
	return nil
}

func ParseActionType(action string) (ActionType, bool) {
	for a := ActionSupply; a <= ActionAccrueBankInterest; a++ {
		if a.String() == action {
			return a, true
		}
	}
	return 0, false
}

type (
	OperateStore interface {
		CreateOperate(ctx context.Context, operate *Operate) error
		ListOperates(ctx context.Context, accountId uuid.UUID, op ActionType, limit int) ([]*Operate, error)
	}

	// InstructionStore saves the outcome of one instruction: every bank, every
	// account and the journal entry are written together or not at all.
	InstructionStore interface {
		StorageInstruction(ctx context.Context, banks []*Bank, accounts []*Account, operate *Operate) error
	}

	// Operate is the journal entry of one successful instruction.
	Operate struct {
		Id        uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
		AccountId uuid.UUID     `json:"accountId"`
		Op        ActionType    `json:"op"`
		Extra     OperateDetail `json:"extra"`
		CreatedAt int64         `gorm:"autoCreateTime:false" json:"createdAt"`
	}

	OperateDetail struct {
		Actions []ActionDetail `json:"actions"`
	}

	ActionDetail struct {
		AccountId  uuid.UUID       `json:"actor"`
		ActionType ActionType      `json:"actionType"`
		BankId     uuid.UUID       `json:"bankId"`
		Amount     decimal.Decimal `json:"amount"`
	}
)

func NewOperate(now int64, accountId uuid.UUID, typ ActionType, actions ...ActionDetail) *Operate {
	return &Operate{
		AccountId: accountId,
		Op:        typ,
		Extra:     OperateDetail{Actions: actions},
		CreatedAt: now,
	}
}

func (j OperateDetail) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *OperateDetail) Scan(value any) error {
	return scanJSON(value, j)
}

// scanJSON decodes a json column, which drivers hand back as text or bytes.
func scanJSON(value any, dst any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.Errorf("cannot scan %T into %T", value, dst)
	}
}

// LiquidationActions breaks a liquidation down into the four balance changes it made.
func (r *LiquidateResult) LiquidationActions() []ActionDetail {
	return []ActionDetail{
		{AccountId: r.Liquidator.Id, ActionType: ActionBorrow, BankId: r.LiabilityBank.Id, Amount: r.LiabilityAmount},
		{AccountId: r.Liquidatee.Id, ActionType: ActionWithdraw, BankId: r.AssetBank.Id, Amount: r.AssetAmount},
		{AccountId: r.Liquidator.Id, ActionType: ActionSupply, BankId: r.AssetBank.Id, Amount: r.AssetAmount},
		{AccountId: r.Liquidatee.Id, ActionType: ActionRepay, BankId: r.LiabilityBank.Id, Amount: r.LiabilityAmount},
	}
}
