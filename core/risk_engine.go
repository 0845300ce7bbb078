package core

import (
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type BankAccountWithPriceFeed struct {
	Bank      *Bank
	Balance   *Balance
	PriceFeed PriceAdapter
}

// LoadBankAccountWithPriceFeeds pairs every active balance of lendingAccount
// with its bank and the bank's configured price feed.
func LoadBankAccountWithPriceFeeds(lendingAccount *LendingAccount, banks map[uuid.UUID]*Bank, priceFeedMgr PriceAdapterMgr) ([]*BankAccountWithPriceFeed, error) {
	balances := lendingAccount.ActiveBalances()
	bankAccounts := make([]*BankAccountWithPriceFeed, 0, len(balances))

	for _, balance := range balances {
		bank, ok := banks[balance.BankId]
		if !ok {
			return nil, errors.Wrapf(BankAccountNotFound, "bank %s", balance.BankId)
		}

		priceFeed, err := priceFeedMgr.GetPriceAdapter(bank.BankConfig.OracleKey)
		if err != nil {
			return nil, errors.Wrapf(FetchPriceFailed, "feed %q: %v", bank.BankConfig.OracleKey, err)
		}

		bankAccounts = append(bankAccounts, &BankAccountWithPriceFeed{
			Bank:      bank,
			Balance:   balance,
			PriceFeed: priceFeed,
		})
	}

	return bankAccounts, nil
}

func (ba *BankAccountWithPriceFeed) CalcWeightedAssetsAndLiabsValues(requirementType RequirementType) (decimal.Decimal, decimal.Decimal, error) {
	side, err := ba.Balance.GetSide()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	switch side {
	case BalanceSideAssets:
		assets, err := ba.CalcWeightedAssets(requirementType)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return assets, decimal.Zero, nil
	case BalanceSideLiabilities:
		liabs, err := ba.CalcWeightedLiabs(requirementType)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return decimal.Zero, liabs, nil
	}
	return decimal.Zero, decimal.Zero, nil
}

func (ba *BankAccountWithPriceFeed) CalcWeightedLiabs(requirementType RequirementType) (decimal.Decimal, error) {
	price, err := ba.price(requirementType)
	if err != nil {
		return decimal.Zero, err
	}
	return ba.Bank.ComputeLiabilityValue(price, ba.Balance.LiabilityShares, requirementType)
}

func (ba *BankAccountWithPriceFeed) CalcWeightedAssets(requirementType RequirementType) (decimal.Decimal, error) {
	price, err := ba.price(requirementType)
	if err != nil {
		return decimal.Zero, err
	}
	return ba.Bank.ComputeAssetValue(price, ba.Balance.AssetShares, requirementType)
}

func (ba *BankAccountWithPriceFeed) price(requirementType RequirementType) (decimal.Decimal, error) {
	price, err := ba.PriceFeed.GetPriceOfType(requirementType.GetOraclePriceType())
	if err != nil {
		return decimal.Zero, errors.Wrapf(FetchPriceFailed, "bank %s: %v", ba.Bank.Id, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, errors.Wrapf(FetchPriceFailed, "bank %s price %s", ba.Bank.Id, price)
	}
	return price, nil
}

// RiskEngine values an account's balances with their bank weights. It only
// reads; nothing in the ledger depends on its verdict.
type RiskEngine struct {
	Account               *Account
	BankAccountsWithPrice []*BankAccountWithPriceFeed
}

func NewRiskEngine(account *Account, banks map[uuid.UUID]*Bank, priceFeedMgr PriceAdapterMgr) (*RiskEngine, error) {
	bankAccountsWithPrice, err := LoadBankAccountWithPriceFeeds(&account.LendingAccount, banks, priceFeedMgr)
	if err != nil {
		return nil, err
	}
	return &RiskEngine{
		Account:               account,
		BankAccountsWithPrice: bankAccountsWithPrice,
	}, nil
}

func (r *RiskEngine) GetAccountHealthComponents(requirementType RequirementType) (decimal.Decimal, decimal.Decimal, error) {
	totalAssets := decimal.Zero
	totalLiabilities := decimal.Zero
	for _, a := range r.BankAccountsWithPrice {
		assets, liabilities, err := a.CalcWeightedAssetsAndLiabsValues(requirementType)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		totalAssets = totalAssets.Add(assets)
		totalLiabilities = totalLiabilities.Add(liabilities)
	}
	return totalAssets, totalLiabilities, nil
}

// GetAccountHealth is the weighted surplus of assets over liabilities.
func (r *RiskEngine) GetAccountHealth(requirementType RequirementType) (decimal.Decimal, error) {
	totalAssets, totalLiabilities, err := r.GetAccountHealthComponents(requirementType)
	if err != nil {
		return decimal.Zero, err
	}
	return totalAssets.Sub(totalLiabilities), nil
}

func (r *RiskEngine) CheckAccountHealth(requirementType RequirementType) error {
	totalAssets, totalLiabilities, err := r.GetAccountHealthComponents(requirementType)
	if err != nil {
		return err
	}
	if totalAssets.LessThan(totalLiabilities) {
		return errors.Wrapf(RiskEngineRejected, "assets %s < liabilities %s", totalAssets, totalLiabilities)
	}
	return nil
}
