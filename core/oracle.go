package core

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type OraclePriceType uint8

const (
	TimeWeighted OraclePriceType = iota
	RealTime
)

func (pt OraclePriceType) String() string {
	switch pt {
	case TimeWeighted:
		return "TimeWeighted"
	case RealTime:
		return "RealTime"
	default:
		return "Unknown"
	}
}

type (
	// PriceAdapterMgr resolves the price adapter of a feed identity.
	PriceAdapterMgr interface {
		GetPriceAdapter(feedKey string) (PriceAdapter, error)
	}

	// PriceAdapter quotes one whole unit of a mint.
	PriceAdapter interface {
		GetPriceOfType(priceType OraclePriceType) (decimal.Decimal, error)
	}
)

// FetchFeedPrice reads the price of bank through feedKey, which must be the
// feed the bank is configured with.
func FetchFeedPrice(priceFeedMgr PriceAdapterMgr, bank *Bank, feedKey string, priceType OraclePriceType) (decimal.Decimal, error) {
	if feedKey != bank.BankConfig.OracleKey {
		return decimal.Zero, errors.Wrapf(InvalidPriceFeedPk, "feed %q, bank %s expects %q", feedKey, bank.Id, bank.BankConfig.OracleKey)
	}

	adapter, err := priceFeedMgr.GetPriceAdapter(feedKey)
	if err != nil {
		return decimal.Zero, errors.Wrapf(FetchPriceFailed, "feed %q: %v", feedKey, err)
	}

	price, err := adapter.GetPriceOfType(priceType)
	if err != nil {
		return decimal.Zero, errors.Wrapf(FetchPriceFailed, "feed %q: %v", feedKey, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, errors.Wrapf(FetchPriceFailed, "feed %q returned %s", feedKey, price)
	}

	return price, nil
}
