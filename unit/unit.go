// Package unit implements the Unit algebra: the value object that carries
// magnitude, temporal class, community memberships, purpose tags and a
// provenance history, plus the split/merge operations over it.
package unit

import (
	"sort"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/ledgerid"
)

// Temporality is the time-behavior stratum of a Unit.
type Temporality string

const (
	T0   Temporality = "T0"
	T1   Temporality = "T1"
	T2   Temporality = "T2"
	TInf Temporality = "TInf"
)

// ProvenanceKind enumerates the kinds of provenance entries a Unit can carry.
type ProvenanceKind string

const (
	Minted    ProvenanceKind = "Minted"
	Earned    ProvenanceKind = "Earned"
	Gifted    ProvenanceKind = "Gifted"
	Invested  ProvenanceKind = "Invested"
	Inherited ProvenanceKind = "Inherited"
	Converted ProvenanceKind = "Converted"
	Merged    ProvenanceKind = "Merged"
	Split     ProvenanceKind = "Split"
)

// ProvenanceEntry is one append-only step in a Unit's history.
type ProvenanceEntry struct {
	Timestamp     int64
	Kind          ProvenanceKind
	FromWallet    string // optional
	ToWallet      string // optional
	Amount        float64
	Note          string // optional
	TransactionID string
}

// Unit is the indivisible value-carrying entity.
type Unit struct {
	ID          string
	Magnitude   float64
	Temporality Temporality
	Locality    []string // sorted, deduplicated; empty => "global"
	Purpose     []string // sorted, deduplicated; empty => "unrestricted"
	Provenance  []ProvenanceEntry
	CreatedAt   int64
	LastTickAt  int64
	WalletID    string
}

// New constructs a Unit with a fresh id and a single provenance entry,
// applying the sort/dedup invariant on locality and purpose.
func New(magnitude float64, temporality Temporality, locality, purpose []string, now int64, walletID string, first ProvenanceEntry) *Unit {
	u := &Unit{
		ID:          ledgerid.New(),
		Magnitude:   magnitude,
		Temporality: temporality,
		Locality:    NormalizeSet(locality),
		Purpose:     NormalizeSet(purpose),
		CreatedAt:   now,
		LastTickAt:  now,
		WalletID:    walletID,
	}
	u.Provenance = []ProvenanceEntry{first}
	return u
}

// NormalizeSet returns a sorted, deduplicated copy of ids. Sorted sequences
// are used instead of hash sets so tick order and serialization stay
// deterministic (spec §9 design note on sets of string ids).
func NormalizeSet(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasLocality reports whether id is in u's locality set.
func (u *Unit) HasLocality(id string) bool {
	for _, l := range u.Locality {
		if l == id {
			return true
		}
	}
	return false
}

// HasPurpose reports whether id is in u's purpose set.
func (u *Unit) HasPurpose(id string) bool {
	for _, p := range u.Purpose {
		if p == id {
			return true
		}
	}
	return false
}

// IsGlobal reports whether the unit has no locality restriction.
func (u *Unit) IsGlobal() bool { return len(u.Locality) == 0 }

// IsUnrestricted reports whether the unit has no purpose restriction.
func (u *Unit) IsUnrestricted() bool { return len(u.Purpose) == 0 }

// AppendProvenance appends a new entry, enforcing provenance monotonicity
// (spec §8): the new entry's timestamp must be >= the last entry's.
func (u *Unit) AppendProvenance(entry ProvenanceEntry) {
	if n := len(u.Provenance); n > 0 && entry.Timestamp < u.Provenance[n-1].Timestamp {
		entry.Timestamp = u.Provenance[n-1].Timestamp
	}
	u.Provenance = append(u.Provenance, entry)
}

// StripProvenance replaces the entire chain with a single fresh entry, the
// only operation allowed to mutate provenance instead of appending to it.
func (u *Unit) StripProvenance(now int64, transactionID, note string) {
	u.Provenance = []ProvenanceEntry{{
		Timestamp:     now,
		Kind:          Converted,
		Amount:        u.Magnitude,
		Note:          note,
		TransactionID: transactionID,
	}}
}

// Clone returns a deep copy of the unit (used whenever a successor unit is
// derived so the predecessor's in-memory state is never mutated in place).
func (u *Unit) Clone() *Unit {
	c := *u
	c.Locality = append([]string(nil), u.Locality...)
	c.Purpose = append([]string(nil), u.Purpose...)
	c.Provenance = append([]ProvenanceEntry(nil), u.Provenance...)
	return &c
}

// Split divides the unit into two new units of amount and (magnitude-amount),
// both inheriting locality/purpose/temporality and owning wallet, replacing
// the source. Fails SplitAmountInvalid if amount <= 0 or amount >= magnitude.
func Split(u *Unit, amount float64, now int64, transactionID string) (*Unit, *Unit, error) {
	if amount <= 0 || amount >= u.Magnitude {
		return nil, nil, ledgererr.New(ledgererr.SplitAmountInvalid, "unit.Split", "amount must be in (0, magnitude)")
	}

	remainder := u.Magnitude - amount

	a := u.Clone()
	a.ID = ledgerid.New()
	a.Magnitude = amount
	a.LastTickAt = now
	a.AppendProvenance(ProvenanceEntry{Timestamp: now, Kind: Split, Amount: amount, TransactionID: transactionID})

	b := u.Clone()
	b.ID = ledgerid.New()
	b.Magnitude = remainder
	b.LastTickAt = now
	b.AppendProvenance(ProvenanceEntry{Timestamp: now, Kind: Split, Amount: remainder, TransactionID: transactionID})

	return a, b, nil
}

// Merge combines two or more compatible units (same temporality, locality,
// purpose) into one, summing magnitude and concatenating provenance.
func Merge(units []*Unit, now int64, transactionID string) (*Unit, error) {
	if len(units) < 2 {
		return nil, ledgererr.New(ledgererr.MergeRequiresMultiple, "unit.Merge", "merge requires at least two units")
	}

	first := units[0]
	for _, u := range units[1:] {
		if u.Temporality != first.Temporality || !sameSet(u.Locality, first.Locality) || !sameSet(u.Purpose, first.Purpose) {
			return nil, ledgererr.New(ledgererr.MergeIncompatibleDim, "unit.Merge", "temporality, locality or purpose differs across inputs")
		}
	}

	total := 0.0
	var provenance []ProvenanceEntry
	for _, u := range units {
		total += u.Magnitude
		provenance = append(provenance, u.Provenance...)
	}
	sort.SliceStable(provenance, func(i, j int) bool { return provenance[i].Timestamp < provenance[j].Timestamp })

	merged := &Unit{
		ID:          ledgerid.New(),
		Magnitude:   total,
		Temporality: first.Temporality,
		Locality:    append([]string(nil), first.Locality...),
		Purpose:     append([]string(nil), first.Purpose...),
		CreatedAt:   first.CreatedAt,
		LastTickAt:  now,
		WalletID:    first.WalletID,
	}
	provenance = append(provenance, ProvenanceEntry{Timestamp: now, Kind: Merged, Amount: total, TransactionID: transactionID})
	merged.Provenance = provenance
	return merged, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
