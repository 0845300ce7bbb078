package core

import "github.com/pkg/errors"

var (
	GetClockFailed                 = errors.New("clock error")
	MathError                      = errors.New("math error on compute")
	InvalidTransfer                = errors.New("invalid transfer")
	LendingAccountBalanceSlotsFull = errors.New("lending account balance slots are full")
	LendingAccountBalanceNotFound  = errors.New("lending account balance not found")
	BankAccountNotFound            = errors.New("bank is missing")
	AccountNotFound                = errors.New("account is missing")
	IllegalUtilizationRatio        = errors.New("invalid bank utilization ratio")
	IllegalLiquidation             = errors.New("illegal liquidation")
	FetchPriceFailed               = errors.New("fetch price failed")
	InvalidPriceFeedPk             = errors.New("invalid price feed pubkey")
	InterestRateConfigMathError    = errors.Wrap(MathError, "interest rate config")

	InvalidAmount         = errors.New("invalid amount")
	InvalidConfig         = errors.New("invalid bank config")
	InvalidAuthority      = errors.New("authority is required")
	BankAlreadyExists     = errors.New("bank already exists")
	AccountAlreadyExists  = errors.New("account already exists")
	IllegalBalanceState   = errors.New("illegal balance state")
	OperationRepayOnly    = errors.New("operation is repay-only")
	OperationWithdrawOnly = errors.New("operation is withdraw-only")
	NoAssetFound          = errors.New("no asset found")
	NoLiabilityFound      = errors.New("no liability found")
	RiskEngineRejected    = errors.New("account below the health requirement")

	ErrOptimalUr             = errors.Wrap(InvalidConfig, "optimal utilization rate must be in (0, 1)")
	ErrPlateauIr             = errors.Wrap(InvalidConfig, "plateau interest rate must be positive")
	ErrMaxIr                 = errors.Wrap(InvalidConfig, "max interest rate must be positive")
	ErrPlateauGreaterThanMax = errors.Wrap(InvalidConfig, "plateau interest rate must be below max")
)
