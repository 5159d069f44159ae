// Package dividend implements the Dividend Pool: a pure accounting
// accumulator that routes T0 demurrage into T2/TInf dividends, grounded on
// the teacher's wallet.DividendDistributor (monthly pool->DID distribution)
// generalized from a fixed monthly cron batch to a per-tick, per-unit
// funding model driven by an explicit clock instead of a cron schedule
// (spec §5: "there is no background timer").
package dividend

import (
	"sync"

	"github.com/sovrn-protocol/sovrn/temporal"
	"github.com/sovrn-protocol/sovrn/unit"
)

// HistoryLimit bounds the deposit/withdrawal history retained per side.
const HistoryLimit = 1000

// DepositRecord is one demurrage deposit into the pool.
type DepositRecord struct {
	Timestamp int64
	UnitID    string
	Amount    float64
}

// WithdrawalRecord is one dividend withdrawal from the pool.
type WithdrawalRecord struct {
	Timestamp    int64
	UnitID       string
	Requested    float64
	Actual       float64
	FullyFunded  bool
}

// State is the exported/importable scalar state of the Dividend Pool.
type State struct {
	Balance            float64
	TotalCollected      float64
	TotalRequested      float64
	TotalDistributed    float64
	DepositCount        int
	WithdrawalCount      int
	Deposits             []DepositRecord
	Withdrawals          []WithdrawalRecord
}

// Pool is the Dividend Pool.
type Pool struct {
	mu    sync.Mutex
	state State
}

// New returns an empty Dividend Pool.
func New() *Pool {
	return &Pool{}
}

// DepositDemurrage adds amount (lost from a T0 unit) to the pool. Non-positive
// amounts are ignored.
func (p *Pool) DepositDemurrage(amount float64, unitID string, now int64) {
	if amount <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Balance += amount
	p.state.TotalCollected += amount
	p.state.DepositCount++
	p.state.Deposits = appendBounded(p.state.Deposits, DepositRecord{Timestamp: now, UnitID: unitID, Amount: amount}, HistoryLimit)
}

// WithdrawDividend withdraws up to requested from the pool's balance,
// returning the actual amount funded. Non-positive requests are ignored and
// return 0. totalRequested accrues regardless of whether the pool can fund
// it, so FundingRatio reflects true demand.
func (p *Pool) WithdrawDividend(requested float64, unitID string, now int64) float64 {
	if requested <= 0 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.TotalRequested += requested

	actual := requested
	if actual > p.state.Balance {
		actual = p.state.Balance
	}

	fullyFunded := actual >= requested
	if actual > 0 {
		p.state.Balance -= actual
		p.state.TotalDistributed += actual
		p.state.WithdrawalCount++
	}
	p.state.Withdrawals = appendBounded(p.state.Withdrawals, WithdrawalRecord{
		Timestamp: now, UnitID: unitID, Requested: requested, Actual: actual, FullyFunded: fullyFunded,
	}, HistoryLimit)

	return actual
}

func appendBounded[T any](slice []T, item T, limit int) []T {
	slice = append(slice, item)
	if len(slice) > limit {
		slice = slice[len(slice)-limit:]
	}
	return slice
}

// FundingRatio returns TotalDistributed / TotalRequested, or 1.0 if no
// dividend has ever been requested.
func (p *Pool) FundingRatio() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.TotalRequested == 0 {
		return 1.0
	}
	return p.state.TotalDistributed / p.state.TotalRequested
}

// Balance returns the current pool balance.
func (p *Pool) Balance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Balance
}

// GetState returns a copy of the pool's scalar state for export.
func (p *Pool) GetState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Deposits = append([]DepositRecord(nil), p.state.Deposits...)
	s.Withdrawals = append([]WithdrawalRecord(nil), p.state.Withdrawals...)
	return s
}

// RestoreState overwrites the pool's scalar state from an imported snapshot.
func (p *Pool) RestoreState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// RecentDeposits returns up to n of the most recent deposit records.
func (p *Pool) RecentDeposits(n int) []DepositRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tail(p.state.Deposits, n)
}

// RecentWithdrawals returns up to n of the most recent withdrawal records.
func (p *Pool) RecentWithdrawals(n int) []WithdrawalRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tail(p.state.Withdrawals, n)
}

func tail[T any](slice []T, n int) []T {
	if n <= 0 || n >= len(slice) {
		out := make([]T, len(slice))
		copy(out, slice)
		return out
	}
	out := make([]T, n)
	copy(out, slice[len(slice)-n:])
	return out
}

// TickResult is the outcome of applying a pool-aware tick to a single unit.
type TickResult struct {
	Changed           bool
	DemurrageDeposited float64
	DividendRequested  float64
	DividendFunded     float64
}

// Tick applies the temporal law to u at time now and routes the result
// through the pool: T0 losses are deposited, T2/TInf growth is funded from
// the pool's current balance (spec §4.4 "pool-aware tick"). u is mutated in
// place (magnitude and LastTickAt updated); the deposit/withdrawal record
// carries u's id for traceability.
func Tick(params temporal.Params, p *Pool, u *unit.Unit, now int64) TickResult {
	res := temporal.Apply(params, u, now)
	if !res.Changed {
		u.LastTickAt = now
		return TickResult{}
	}

	switch u.Temporality {
	case unit.T0:
		u.Magnitude = res.NewMagnitude
		u.LastTickAt = now
		p.DepositDemurrage(res.Delta, u.ID, now)
		return TickResult{Changed: true, DemurrageDeposited: res.Delta}

	case unit.T2, unit.TInf:
		actual := p.WithdrawDividend(res.Delta, u.ID, now)
		u.Magnitude += actual
		u.LastTickAt = now
		return TickResult{Changed: true, DividendRequested: res.Delta, DividendFunded: actual}

	default:
		u.LastTickAt = now
		return TickResult{}
	}
}
