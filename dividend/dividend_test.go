package dividend

import (
	"testing"

	"github.com/sovrn-protocol/sovrn/temporal"
	"github.com/sovrn-protocol/sovrn/unit"
	"github.com/stretchr/testify/require"
)

func TestDepositDemurrageIgnoresNonPositive(t *testing.T) {
	p := New()
	p.DepositDemurrage(0, "u1", 0)
	p.DepositDemurrage(-5, "u1", 0)
	require.Equal(t, 0.0, p.Balance())
}

func TestDepositDemurrageAccumulates(t *testing.T) {
	p := New()
	p.DepositDemurrage(10, "u1", 100)
	p.DepositDemurrage(5, "u2", 200)
	require.Equal(t, 15.0, p.Balance())
	require.Equal(t, 15.0, p.GetState().TotalCollected)
	require.Equal(t, 2, p.GetState().DepositCount)
}

func TestWithdrawDividendCapsAtBalance(t *testing.T) {
	p := New()
	p.DepositDemurrage(10, "u1", 0)

	actual := p.WithdrawDividend(15, "u2", 100)
	require.Equal(t, 10.0, actual)
	require.Equal(t, 0.0, p.Balance())
	require.Equal(t, 15.0, p.GetState().TotalRequested)
	require.Equal(t, 10.0, p.GetState().TotalDistributed)
}

func TestFundingRatioDefaultsToOneWithNoRequests(t *testing.T) {
	p := New()
	require.Equal(t, 1.0, p.FundingRatio())
}

func TestFundingRatioReflectsShortfall(t *testing.T) {
	p := New()
	p.DepositDemurrage(10, "u1", 0)
	p.WithdrawDividend(20, "u2", 0)
	require.InDelta(t, 0.5, p.FundingRatio(), 1e-9)
}

func TestStateRoundTrip(t *testing.T) {
	p := New()
	p.DepositDemurrage(10, "u1", 0)
	p.WithdrawDividend(5, "u2", 0)

	p2 := New()
	p2.RestoreState(p.GetState())
	require.Equal(t, p.Balance(), p2.Balance())
	require.Equal(t, p.FundingRatio(), p2.FundingRatio())
}

func TestTickDepositsT0DemurrageIntoPool(t *testing.T) {
	p := New()
	u := unit.New(1000, unit.T0, nil, nil, 0, "w1", unit.ProvenanceEntry{})

	res := Tick(temporal.DefaultParams(), p, u, temporal.MsPerYear)
	require.True(t, res.Changed)
	require.Greater(t, res.DemurrageDeposited, 0.0)
	require.Equal(t, res.DemurrageDeposited, p.Balance())
	require.Less(t, u.Magnitude, 1000.0)
}

func TestTickFundsT2DividendFromPoolBalance(t *testing.T) {
	p := New()
	p.DepositDemurrage(1000, "seed", 0)

	u := unit.New(1000, unit.T2, nil, nil, 0, "w1", unit.ProvenanceEntry{})
	res := Tick(temporal.DefaultParams(), p, u, temporal.MsPerYear)
	require.True(t, res.Changed)
	require.Equal(t, res.DividendRequested, res.DividendFunded) // pool had enough
	require.Greater(t, u.Magnitude, 1000.0)
}

func TestTickUnderfundsWhenPoolIsEmpty(t *testing.T) {
	p := New()
	u := unit.New(1000, unit.T2, nil, nil, 0, "w1", unit.ProvenanceEntry{})

	res := Tick(temporal.DefaultParams(), p, u, temporal.MsPerYear)
	require.True(t, res.Changed)
	require.Equal(t, 0.0, res.DividendFunded)
	require.Equal(t, 1000.0, u.Magnitude) // unchanged: pool had nothing to fund
	require.Less(t, p.FundingRatio(), 1.0)
}
