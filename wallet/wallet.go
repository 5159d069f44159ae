// Package wallet implements the Wallet Manager: wallet records, the unit
// index, and balance aggregation, adapted from the teacher's
// billing.WalletManager (map[userID]*SovereignWallet + mutex) and
// wallet.SovereignVaultManager (GetOrCreateVault/CreditVault/DebitVault
// idiom), generalized from a single-balance vault to the multi-dimensional
// unit index spec §4.2 requires.
package wallet

import (
	"sync"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/ledgerid"
	"github.com/sovrn-protocol/sovrn/unit"
)

// Wallet is a named owner of units.
type Wallet struct {
	ID        string
	Name      string
	CreatedAt int64

	communities map[string]struct{}
	purposes    map[string]struct{}
}

// Communities returns the wallet's joined community ids.
func (w *Wallet) Communities() []string {
	return keys(w.communities)
}

// Purposes returns the wallet's registered purpose ids.
func (w *Wallet) Purposes() []string {
	return keys(w.purposes)
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Manager is the Wallet Manager.
type Manager struct {
	mu          sync.RWMutex
	wallets     map[string]*Wallet
	units       map[string]*unit.Unit
	walletUnits map[string]map[string]struct{} // walletID -> set of unit ids
}

// New returns an empty Wallet Manager.
func New() *Manager {
	return &Manager{
		wallets:     make(map[string]*Wallet),
		units:       make(map[string]*unit.Unit),
		walletUnits: make(map[string]map[string]struct{}),
	}
}

// CreateWallet registers a new wallet.
func (m *Manager) CreateWallet(name string, now int64) *Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := &Wallet{
		ID:          ledgerid.New(),
		Name:        name,
		CreatedAt:   now,
		communities: make(map[string]struct{}),
		purposes:    make(map[string]struct{}),
	}
	m.wallets[w.ID] = w
	m.walletUnits[w.ID] = make(map[string]struct{})
	return w
}

// GetWallet returns a wallet by id, or WalletNotFound.
func (m *Manager) GetWallet(id string) (*Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.wallets[id]
	if !ok {
		return nil, ledgererr.New(ledgererr.WalletNotFound, "wallet.GetWallet", id)
	}
	return w, nil
}

// AllWallets returns every registered wallet.
func (m *Manager) AllWallets() []*Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	return out
}

// JoinCommunity adds a community id to a wallet's membership set.
func (m *Manager) JoinCommunity(walletID, communityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[walletID]
	if !ok {
		return ledgererr.New(ledgererr.WalletNotFound, "wallet.JoinCommunity", walletID)
	}
	w.communities[communityID] = struct{}{}
	return nil
}

// RegisterPurpose adds a purpose id to a wallet's recognized-purpose set.
func (m *Manager) RegisterPurpose(walletID, purposeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[walletID]
	if !ok {
		return ledgererr.New(ledgererr.WalletNotFound, "wallet.RegisterPurpose", walletID)
	}
	w.purposes[purposeID] = struct{}{}
	return nil
}

// AddUnit indexes u under its WalletID.
func (m *Manager) AddUnit(u *unit.Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.units[u.ID] = u
	if _, ok := m.walletUnits[u.WalletID]; !ok {
		m.walletUnits[u.WalletID] = make(map[string]struct{})
	}
	m.walletUnits[u.WalletID][u.ID] = struct{}{}
}

// RemoveUnit deindexes a unit entirely.
func (m *Manager) RemoveUnit(unitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.units[unitID]
	if !ok {
		return ledgererr.New(ledgererr.UnitNotFound, "wallet.RemoveUnit", unitID)
	}
	delete(m.units, unitID)
	if set, ok := m.walletUnits[u.WalletID]; ok {
		delete(set, unitID)
	}
	return nil
}

// UpdateUnit replaces the stored unit, re-indexing if its wallet id changed.
func (m *Manager) UpdateUnit(u *unit.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.units[u.ID]
	if !ok {
		return ledgererr.New(ledgererr.UnitNotFound, "wallet.UpdateUnit", u.ID)
	}
	if old.WalletID != u.WalletID {
		if set, ok := m.walletUnits[old.WalletID]; ok {
			delete(set, u.ID)
		}
		if _, ok := m.walletUnits[u.WalletID]; !ok {
			m.walletUnits[u.WalletID] = make(map[string]struct{})
		}
		m.walletUnits[u.WalletID][u.ID] = struct{}{}
	}
	m.units[u.ID] = u
	return nil
}

// GetUnit returns a unit by id, or UnitNotFound.
func (m *Manager) GetUnit(id string) (*unit.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.units[id]
	if !ok {
		return nil, ledgererr.New(ledgererr.UnitNotFound, "wallet.GetUnit", id)
	}
	return u, nil
}

// AllUnits returns every indexed unit.
func (m *Manager) AllUnits() []*unit.Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*unit.Unit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, u)
	}
	return out
}

// UnitsOf returns every unit owned by walletID.
func (m *Manager) UnitsOf(walletID string) []*unit.Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.walletUnits[walletID]
	if !ok {
		return nil
	}
	out := make([]*unit.Unit, 0, len(set))
	for id := range set {
		if u, ok := m.units[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Balance is the breakdown of a wallet's holdings, per spec §4.2.
type Balance struct {
	Total         float64
	ByTemporality map[unit.Temporality]float64
	ByLocality    map[string]float64
	ByPurpose     map[string]float64
	Global        float64 // sum of units with empty locality
	Unrestricted  float64 // sum of units with empty purpose
}

// GetBalance computes a wallet's balance breakdown, or WalletNotFound.
func (m *Manager) GetBalance(walletID string) (Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.wallets[walletID]; !ok {
		return Balance{}, ledgererr.New(ledgererr.WalletNotFound, "wallet.GetBalance", walletID)
	}

	bal := Balance{
		ByTemporality: make(map[unit.Temporality]float64),
		ByLocality:    make(map[string]float64),
		ByPurpose:     make(map[string]float64),
	}

	for id := range m.walletUnits[walletID] {
		u, ok := m.units[id]
		if !ok {
			continue
		}
		bal.Total += u.Magnitude
		bal.ByTemporality[u.Temporality] += u.Magnitude

		if u.IsGlobal() {
			bal.Global += u.Magnitude
		}
		for _, loc := range u.Locality {
			bal.ByLocality[loc] += u.Magnitude
		}

		if u.IsUnrestricted() {
			bal.Unrestricted += u.Magnitude
		}
		for _, p := range u.Purpose {
			bal.ByPurpose[p] += u.Magnitude
		}
	}

	return bal, nil
}
