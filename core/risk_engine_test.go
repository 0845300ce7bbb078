package core

import (
	"testing"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskEngineHealthComponents(t *testing.T) {
	f := newLiquidationFixture(t)
	banks := map[uuid.UUID]*Bank{
		f.assetBank.Id: f.assetBank,
		f.liabBank.Id:  f.liabBank,
	}

	riskEngine, err := NewRiskEngine(f.liquidatee, banks, f.prices)
	require.NoError(t, err)
	assert.Len(t, riskEngine.BankAccountsWithPrice, 2)

	tests := []struct {
		requirementType RequirementType
		assets          string
		liabilities     string
		health          string
	}{
		// 1000 RAY at 2.8 against 5 BNB at 250
		{Initial, "2240", "1500", "740"},
		{Maintenance, "2520", "1375", "1145"},
		{Equity, "2800", "1250", "1550"},
	}

	for _, tt := range tests {
		assets, liabilities, err := riskEngine.GetAccountHealthComponents(tt.requirementType)
		require.NoError(t, err)
		assert.Equal(t, tt.assets, assets.String())
		assert.Equal(t, tt.liabilities, liabilities.String())

		health, err := riskEngine.GetAccountHealth(tt.requirementType)
		require.NoError(t, err)
		assert.Equal(t, tt.health, health.String())
	}

	assert.NoError(t, riskEngine.CheckAccountHealth(Maintenance))

	f.prices["bnb/usd"] = d("500")
	riskEngine, err = NewRiskEngine(f.liquidatee, banks, f.prices)
	require.NoError(t, err)
	assert.ErrorIs(t, riskEngine.CheckAccountHealth(Maintenance), RiskEngineRejected)
}

func TestRiskEngineMissingBank(t *testing.T) {
	f := newLiquidationFixture(t)
	banks := map[uuid.UUID]*Bank{f.assetBank.Id: f.assetBank}

	_, err := NewRiskEngine(f.liquidatee, banks, f.prices)
	assert.ErrorIs(t, err, BankAccountNotFound)
}

func TestRiskEngineMissingFeed(t *testing.T) {
	f := newLiquidationFixture(t)
	banks := map[uuid.UUID]*Bank{
		f.assetBank.Id: f.assetBank,
		f.liabBank.Id:  f.liabBank,
	}
	delete(f.prices, "ray/usd")

	_, err := NewRiskEngine(f.liquidatee, banks, f.prices)
	assert.ErrorIs(t, err, FetchPriceFailed)
}

func TestRequirementTypePriceType(t *testing.T) {
	assert.Equal(t, TimeWeighted, Initial.GetOraclePriceType())
	assert.Equal(t, RealTime, Maintenance.GetOraclePriceType())
	assert.Equal(t, TimeWeighted, Equity.GetOraclePriceType())
}

func TestRequirementTypeParse(t *testing.T) {
	for _, rt := range []RequirementType{Initial, Maintenance, Equity} {
		parsed, err := ParseRequirementType(rt.String())
		require.NoError(t, err)
		assert.Equal(t, rt, parsed)
	}
	_, err := ParseRequirementType("strict")
	assert.Error(t, err)
}

func TestComputeLiquidationPrice(t *testing.T) {
	f := newLiquidationFixture(t)
	banks := map[uuid.UUID]*Bank{
		f.assetBank.Id: f.assetBank,
		f.liabBank.Id:  f.liabBank,
	}
	riskEngine, err := NewRiskEngine(f.liquidatee, banks, f.prices)
	require.NoError(t, err)

	// 1375 of weighted debt against 1000 RAY at weight 0.9
	rayPrice, err := riskEngine.ComputeLiquidationPrice(f.assetBank.Id, Maintenance)
	require.NoError(t, err)
	assert.Equal(t, "1.527777777777777778", rayPrice.String())

	// 2520 of weighted collateral against 5 BNB at weight 1.1
	bnbPrice, err := riskEngine.ComputeLiquidationPrice(f.liabBank.Id, Maintenance)
	require.NoError(t, err)
	assert.Equal(t, "458.181818181818181818", bnbPrice.String())

	none, err := riskEngine.ComputeLiquidationPrice(uuid.Nil, Maintenance)
	require.NoError(t, err)
	assert.True(t, none.IsZero())

	// a lender alone can never be liquidated
	lenderEngine, err := NewRiskEngine(f.lender, banks, f.prices)
	require.NoError(t, err)
	lenderPrice, err := lenderEngine.ComputeLiquidationPrice(f.liabBank.Id, Maintenance)
	require.NoError(t, err)
	assert.True(t, lenderPrice.IsZero())
}

func TestComputeNetApy(t *testing.T) {
	f := newLiquidationFixture(t)
	banks := map[uuid.UUID]*Bank{
		f.assetBank.Id: f.assetBank,
		f.liabBank.Id:  f.liabBank,
	}

	lenderEngine, err := NewRiskEngine(f.lender, banks, f.prices)
	require.NoError(t, err)
	lenderApy, err := lenderEngine.ComputeNetApy()
	require.NoError(t, err)
	assert.True(t, lenderApy.IsPositive(), "lender apy %s", lenderApy)

	borrowerEngine, err := NewRiskEngine(f.liquidatee, banks, f.prices)
	require.NoError(t, err)
	borrowerApy, err := borrowerEngine.ComputeNetApy()
	require.NoError(t, err)
	assert.True(t, borrowerApy.IsNegative(), "borrower apy %s", borrowerApy)

	empty, err := NewRiskEngine(NewAccount(clock.NewMock(), "nobody"), banks, f.prices)
	require.NoError(t, err)
	emptyApy, err := empty.ComputeNetApy()
	require.NoError(t, err)
	assert.True(t, emptyApy.IsZero())
}
