// Package communityfund implements the per-community exit-fee treasuries,
// grounded on the teacher's economics.QuadraticSovereignSplit fee router
// (here routing a single exit fee to one community's treasury instead of
// splitting one fee four ways) and its bounded accounting shape. The
// teacher's MultisigVault proposal/voting/time-lock machinery is not
// ported: spec §1 Non-goals excludes consensus and multi-writer schemes,
// and community funds in this engine are plain single-writer treasuries
// (see DESIGN.md).
package communityfund

import (
	"sync"
)

// HistoryLimit bounds the deposit/disbursement history retained per community.
const HistoryLimit = 500

// DepositRecord is one exit-fee deposit into a community's fund.
type DepositRecord struct {
	Timestamp int64
	UnitID    string
	FromWallet string
	Amount    float64
}

// DisbursementRecord is one disbursement out of a community's fund.
type DisbursementRecord struct {
	Timestamp int64
	ToWallet  string
	Amount    float64
	Note      string
}

// Treasury is one community's exit-fee fund.
type Treasury struct {
	CommunityID       string
	CommunityName     string
	Balance           float64
	CumulativeCollected float64
	CumulativeDisbursed float64
	DepositCount      int
	DisbursementCount int
	Deposits          []DepositRecord
	Disbursements     []DisbursementRecord
}

// State is the exported/importable scalar state of every community's fund.
type State struct {
	Treasuries map[string]*Treasury
}

// Manager is the Community Fund Manager.
type Manager struct {
	mu         sync.Mutex
	treasuries map[string]*Treasury
}

// New returns an empty Community Fund Manager.
func New() *Manager {
	return &Manager{treasuries: make(map[string]*Treasury)}
}

func (m *Manager) ensure(communityID, communityName string) *Treasury {
	t, ok := m.treasuries[communityID]
	if !ok {
		t = &Treasury{CommunityID: communityID, CommunityName: communityName}
		m.treasuries[communityID] = t
	}
	return t
}

// DepositExitFee credits a community's fund with an exit fee collected when
// a unit left that community, per spec §4.8 routing rule.
func (m *Manager) DepositExitFee(communityID string, amount float64, unitID, fromWallet string, now int64, communityName string) {
	if amount <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.ensure(communityID, communityName)
	t.Balance += amount
	t.CumulativeCollected += amount
	t.DepositCount++
	t.Deposits = appendBounded(t.Deposits, DepositRecord{Timestamp: now, UnitID: unitID, FromWallet: fromWallet, Amount: amount}, HistoryLimit)
}

// Disburse pays out of a community's fund, failing if the fund lacks balance.
func (m *Manager) Disburse(communityID string, amount float64, toWallet, note string, now int64) (bool, error) {
	if amount <= 0 {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.treasuries[communityID]
	if !ok || t.Balance < amount {
		return false, nil
	}

	t.Balance -= amount
	t.CumulativeDisbursed += amount
	t.DisbursementCount++
	t.Disbursements = appendBounded(t.Disbursements, DisbursementRecord{Timestamp: now, ToWallet: toWallet, Amount: amount, Note: note}, HistoryLimit)
	return true, nil
}

// Balance returns a community's current fund balance (0 if it has never
// received a deposit).
func (m *Manager) Balance(communityID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.treasuries[communityID]; ok {
		return t.Balance
	}
	return 0
}

// TotalBalance sums every community fund's balance, used by the
// wallet-sum-equality invariant (spec §8).
func (m *Manager) TotalBalance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0.0
	for _, t := range m.treasuries {
		total += t.Balance
	}
	return total
}

// Get returns a copy of a community's treasury record, or nil if it has
// never received a deposit.
func (m *Manager) Get(communityID string) *Treasury {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.treasuries[communityID]
	if !ok {
		return nil
	}
	cp := *t
	cp.Deposits = append([]DepositRecord(nil), t.Deposits...)
	cp.Disbursements = append([]DisbursementRecord(nil), t.Disbursements...)
	return &cp
}

// RecentDisbursements returns up to n of the most recent disbursement
// records for a community.
func (m *Manager) RecentDisbursements(communityID string, n int) []DisbursementRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.treasuries[communityID]
	if !ok {
		return nil
	}
	return tail(t.Disbursements, n)
}

// GetState returns a deep copy of every treasury for export.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*Treasury, len(m.treasuries))
	for id, t := range m.treasuries {
		cp := *t
		cp.Deposits = append([]DepositRecord(nil), t.Deposits...)
		cp.Disbursements = append([]DisbursementRecord(nil), t.Disbursements...)
		out[id] = &cp
	}
	return State{Treasuries: out}
}

// RestoreState overwrites every treasury from an imported snapshot.
func (m *Manager) RestoreState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.treasuries = make(map[string]*Treasury, len(s.Treasuries))
	for id, t := range s.Treasuries {
		cp := *t
		m.treasuries[id] = &cp
	}
}

func appendBounded[T any](slice []T, item T, limit int) []T {
	slice = append(slice, item)
	if len(slice) > limit {
		slice = slice[len(slice)-limit:]
	}
	return slice
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
