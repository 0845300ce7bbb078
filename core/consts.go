package core

import (
	"github.com/shopspring/decimal"
)

const (
	LIQUIDITY_VAULT_AUTHORITY_SEED = "liquidity_vault_auth"
	INSURANCE_VAULT_AUTHORITY_SEED = "insurance_vault_auth"

	LIQUIDITY_VAULT_SEED = "liquidity_vault"
	INSURANCE_VAULT_SEED = "insurance_vault"

	BANK_SEED             = "bank"
	ORBITLEN_ACCOUNT_SEED = "orbitlen_account"
	TOKEN_ACCOUNT_SEED    = "token_account"
)

const (
	SECONDS_PER_YEAR = 31_536_000

	MAX_LENDING_ACCOUNT_BALANCES = 3
)

// Fixed-point scales, in implied decimal places.
const (
	SHARE_PRECISION       int32 = 12
	SHARE_VALUE_PRECISION int32 = 18
	RATE_PRECISION        int32 = 18
)

var (
	ONE = decimal.NewFromInt(1)

	ZERO_AMOUNT_THRESHOLD = decimal.Zero

	// smallest representable share quantity
	SHARE_UNIT = decimal.New(1, -SHARE_PRECISION)
)
