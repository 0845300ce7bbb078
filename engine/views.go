package engine

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type (
	HealthReport struct {
		RequirementType core.RequirementType `json:"-"`
		Requirement     string               `json:"requirement"`
		Assets          decimal.Decimal      `json:"assets"`
		Liabilities     decimal.Decimal      `json:"liabilities"`
		Health          decimal.Decimal      `json:"health"`
		Healthy         bool                 `json:"healthy"`
	}

	PositionView struct {
		BankId           uuid.UUID       `json:"bankId"`
		Mint             string          `json:"mint"`
		Side             string          `json:"side"`
		AssetAmount      decimal.Decimal `json:"assetAmount"`
		LiabilityAmount  decimal.Decimal `json:"liabilityAmount"`
		LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
	}

	AccountSummary struct {
		Id        uuid.UUID       `json:"id"`
		Authority string          `json:"authority"`
		Positions []PositionView  `json:"positions"`
		Health    *HealthReport   `json:"health"`
		NetApy    decimal.Decimal `json:"netApy"`
	}

	BankView struct {
		Id                  uuid.UUID       `json:"id"`
		Mint                string          `json:"mint"`
		TotalAssets         decimal.Decimal `json:"totalAssets"`
		TotalLiabilities    decimal.Decimal `json:"totalLiabilities"`
		UtilizationRate     decimal.Decimal `json:"utilizationRate"`
		LendingApr          decimal.Decimal `json:"lendingApr"`
		BorrowingApr        decimal.Decimal `json:"borrowingApr"`
		LendingApy          decimal.Decimal `json:"lendingApy"`
		BorrowingApy        decimal.Decimal `json:"borrowingApy"`
		AssetShareValue     decimal.Decimal `json:"assetShareValue"`
		LiabilityShareValue decimal.Decimal `json:"liabilityShareValue"`
		LastUpdate          int64           `json:"lastUpdate"`
	}
)

// AccountHealth values the account under requirementType with every bank
// accrued to now. Nothing is persisted.
func (e *Engine) AccountHealth(ctx context.Context, authority string, requirementType core.RequirementType) (*HealthReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	account, err := e.loadAccount(ctx, authority)
	if err != nil {
		return nil, err
	}
	banks, err := e.accruedBanks(ctx)
	if err != nil {
		return nil, err
	}
	riskEngine, err := core.NewRiskEngine(account, banks, e.prices)
	if err != nil {
		return nil, err
	}
	return healthReport(riskEngine, requirementType)
}

func healthReport(riskEngine *core.RiskEngine, requirementType core.RequirementType) (*HealthReport, error) {
	assets, liabilities, err := riskEngine.GetAccountHealthComponents(requirementType)
	if err != nil {
		return nil, err
	}
	healthy := true
	if err := riskEngine.CheckAccountHealth(requirementType); errors.Is(err, core.RiskEngineRejected) {
		healthy = false
	} else if err != nil {
		return nil, err
	}
	return &HealthReport{
		RequirementType: requirementType,
		Requirement:     requirementType.String(),
		Assets:          assets,
		Liabilities:     liabilities,
		Health:          assets.Sub(liabilities),
		Healthy:         healthy,
	}, nil
}

// AccountSummary lists the account's positions with their maintenance
// liquidation prices, its maintenance health and its net APY.
func (e *Engine) AccountSummary(ctx context.Context, authority string) (*AccountSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	account, err := e.loadAccount(ctx, authority)
	if err != nil {
		return nil, err
	}
	banks, err := e.accruedBanks(ctx)
	if err != nil {
		return nil, err
	}
	return e.summarize(account, banks)
}

// Accounts summarizes every account, ordered by authority.
func (e *Engine) Accounts(ctx context.Context) ([]*AccountSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.store.ListAccount(ctx)
	if err != nil {
		return nil, err
	}
	banks, err := e.accruedBanks(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summary, err := e.summarize(account, banks)
		if err != nil {
			return nil, errors.Wrapf(err, "account %s", account.Authority)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (e *Engine) summarize(account *core.Account, banks map[uuid.UUID]*core.Bank) (*AccountSummary, error) {
	riskEngine, err := core.NewRiskEngine(account, banks, e.prices)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		Id:        account.Id,
		Authority: account.Authority,
		Positions: make([]PositionView, 0, len(riskEngine.BankAccountsWithPrice)),
	}
	for _, ba := range riskEngine.BankAccountsWithPrice {
		assetAmount, liabilityAmount, err := ba.Balance.ComputeQuantity(ba.Bank)
		if err != nil {
			return nil, err
		}
		side, err := ba.Balance.GetSide()
		if err != nil {
			return nil, err
		}
		liquidationPrice, err := riskEngine.ComputeLiquidationPrice(ba.Bank.Id, core.Maintenance)
		if err != nil {
			return nil, err
		}
		summary.Positions = append(summary.Positions, PositionView{
			BankId:           ba.Bank.Id,
			Mint:             ba.Bank.Mint,
			Side:             side.String(),
			AssetAmount:      assetAmount,
			LiabilityAmount:  liabilityAmount,
			LiquidationPrice: liquidationPrice,
		})
	}

	if summary.Health, err = healthReport(riskEngine, core.Maintenance); err != nil {
		return nil, err
	}
	if summary.NetApy, err = riskEngine.ComputeNetApy(); err != nil {
		return nil, err
	}
	return summary, nil
}

// Banks reports every bank accrued to now.
func (e *Engine) Banks(ctx context.Context) ([]*BankView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	banks, err := e.store.ListBank(ctx)
	if err != nil {
		return nil, err
	}

	now, err := e.now()
	if err != nil {
		return nil, err
	}
	views := make([]*BankView, 0, len(banks))
	for _, bank := range banks {
		if err := bank.AccrueInterest(e.log, now); err != nil {
			return nil, err
		}
		view, err := NewBankView(bank)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func NewBankView(bank *core.Bank) (*BankView, error) {
	lendingApr, borrowingApr, err := bank.ComputeRates()
	if err != nil {
		return nil, err
	}
	return &BankView{
		Id:                  bank.Id,
		Mint:                bank.Mint,
		TotalAssets:         bank.GetTotalAssetQuantity(),
		TotalLiabilities:    bank.GetTotalLiabilityQuantity(),
		UtilizationRate:     bank.ComputeUtilizationRate(),
		LendingApr:          lendingApr,
		BorrowingApr:        borrowingApr,
		LendingApy:          core.AprToApy(lendingApr),
		BorrowingApy:        core.AprToApy(borrowingApr),
		AssetShareValue:     bank.AssetShareValue,
		LiabilityShareValue: bank.LiabilityShareValue,
		LastUpdate:          bank.LastUpdate,
	}, nil
}

// Operates returns the newest journal entries of the account.
func (e *Engine) Operates(ctx context.Context, authority string, op core.ActionType, limit int) ([]*core.Operate, error) {
	account, err := e.loadAccount(ctx, authority)
	if err != nil {
		return nil, err
	}
	return e.store.ListOperates(ctx, account.Id, op, limit)
}
