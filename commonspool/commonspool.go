// Package commonspool implements the Commons Pool: supply accounting
// (mint/burn totals) and the engine's explicit logical clock, grounded on
// the teacher's x/mint keeper (MintOnVerification, GetSupplyStatus,
// GetCurrentBurnRate) with sdk.Int/sdk.Context replaced by plain float64
// and an explicit millisecond clock (spec §9: "time as pure data").
package commonspool

import (
	"sync"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/unit"
)

// State is the exported/importable scalar state of a Commons Pool.
type State struct {
	Minted  float64
	Burned  float64
	ClockMs int64
}

// Status is a read-only supply report, grounded on the teacher's
// SupplyStatus / api/supply_explorer response shape (stripped of the HTTP
// and cosmos-sdk plumbing — see SPEC_FULL.md §3).
type Status struct {
	CurrentSupply float64
	Minted        float64
	Burned        float64
	ClockMs       int64
}

// Pool is the Commons Pool.
type Pool struct {
	mu    sync.Mutex
	state State
}

// New returns an empty Commons Pool with its clock at zero.
func New() *Pool {
	return &Pool{}
}

// Mint creates a new T0 unit of the given amount owned by walletID, with a
// single Minted provenance entry timestamped at the pool's clock. Fails
// MintNonPositive if amount <= 0.
func (p *Pool) Mint(amount float64, walletID string, note string, transactionID string) (*unit.Unit, error) {
	if amount <= 0 {
		return nil, ledgererr.New(ledgererr.MintNonPositive, "commonspool.Mint", "amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Minted += amount

	u := unit.New(amount, unit.T0, nil, nil, p.state.ClockMs, walletID, unit.ProvenanceEntry{
		Timestamp:     p.state.ClockMs,
		Kind:          unit.Minted,
		ToWallet:      walletID,
		Amount:        amount,
		Note:          note,
		TransactionID: transactionID,
	})
	return u, nil
}

// Burn decrements supply by amount, permanently destroying value from
// source (the caller is responsible for actually removing/shrinking the
// unit; the pool only tracks the aggregate counters). Fails
// BurnExceedsSupply if amount would drive current supply negative.
func (p *Pool) Burn(amount float64, reason string) error {
	if amount <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if amount > p.state.Minted-p.state.Burned {
		return ledgererr.New(ledgererr.BurnExceedsSupply, "commonspool.Burn", reason)
	}
	p.state.Burned += amount
	return nil
}

// CollectFee is a Burn variant used when the caller wants to name the
// source unit in the reason string; behaviorally identical to Burn.
func (p *Pool) CollectFee(sourceUnitID string, amount float64) error {
	return p.Burn(amount, "fee collected from unit "+sourceUnitID)
}

// AdvanceTime moves the clock forward by deltaMs. It only increases the
// clock.
func (p *Pool) AdvanceTime(deltaMs int64) {
	if deltaMs <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.ClockMs += deltaMs
}

// SetTime moves the clock to an explicit value, forward or backward (used
// for restore and deterministic testing), but never below zero.
func (p *Pool) SetTime(t int64) {
	if t < 0 {
		t = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.ClockMs = t
}

// Now returns the pool's current clock value.
func (p *Pool) Now() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.ClockMs
}

// CurrentSupply returns minted - burned.
func (p *Pool) CurrentSupply() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Minted - p.state.Burned
}

// GetState returns a copy of the pool's scalar state for export.
func (p *Pool) GetState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RestoreState overwrites the pool's scalar state from an imported snapshot.
func (p *Pool) RestoreState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// Status returns a supply report, the supplemental telemetry accessor
// described in SPEC_FULL.md §3.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		CurrentSupply: p.state.Minted - p.state.Burned,
		Minted:        p.state.Minted,
		Burned:        p.state.Burned,
		ClockMs:       p.state.ClockMs,
	}
}
