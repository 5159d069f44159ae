// Package ledger implements the Ledger: the orchestrator that composes the
// registries, the Conversion Engine, the Commons Pool, the Wallet Manager,
// the Dividend Pool, the Community Fund Manager, and the Compute Pool
// behind one invariant-preserving transaction log. Grounded on the
// teacher's economics package, which plays the same composing role over
// its SupplyEquilibriumController, ProxyPaymentProtocol and
// QuadraticSovereignSplit — here generalized to a single-writer, callback
// driven orchestrator instead of a module wired into a cosmos-sdk app.
package ledger

import (
	"sort"

	"github.com/sovrn-protocol/sovrn/communityfund"
	"github.com/sovrn-protocol/sovrn/community"
	"github.com/sovrn-protocol/sovrn/commonspool"
	"github.com/sovrn-protocol/sovrn/compute"
	"github.com/sovrn-protocol/sovrn/conversion"
	"github.com/sovrn-protocol/sovrn/dividend"
	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/ledgerid"
	"github.com/sovrn-protocol/sovrn/purpose"
	"github.com/sovrn-protocol/sovrn/simproof"
	"github.com/sovrn-protocol/sovrn/temporal"
	"github.com/sovrn-protocol/sovrn/unit"
	"github.com/sovrn-protocol/sovrn/wallet"
	"go.uber.org/zap"
)

// TransactionKind is the kind of an appended Transaction record.
type TransactionKind string

const (
	Mint     TransactionKind = "Mint"
	Transfer TransactionKind = "Transfer"
	Convert  TransactionKind = "Convert"
)

// Transaction is one append-only entry in the Ledger's log.
type Transaction struct {
	ID            string
	Kind          TransactionKind
	Timestamp     int64
	InputUnitIDs  []string
	OutputUnitIDs []string
	TotalFees     float64
	Description   string
}

// Ledger is the orchestrator. There is exactly one logical writer per
// instance (spec §5): callers are expected to serialize their own calls,
// so the Ledger does not hold its own mutex — each component already
// synchronizes its own state, and the mint callback bridge would deadlock
// against an outer lock held across CompleteComputeJob (see DESIGN.md).
type Ledger struct {
	pool         *commonspool.Pool
	dividendPool *dividend.Pool
	funds        *communityfund.Manager
	wallets      *wallet.Manager
	communities  *community.Registry
	purposes     *purpose.Registry
	conversionEngine *conversion.Engine
	compute      *compute.Pool
	temporalParams temporal.Params

	transactions []Transaction
	logger       *zap.Logger
}

// New constructs a fully wired Ledger. logger defaults to zap.NewNop() if nil.
func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		pool:         commonspool.New(),
		dividendPool: dividend.New(),
		funds:        communityfund.New(),
		wallets:      wallet.New(),
		communities:  community.New(),
		purposes:     purpose.New(0),
		conversionEngine: conversion.New(),
		temporalParams: temporal.DefaultParams(),
		logger:       logger,
	}
	l.compute = compute.New(simproof.New(), l.mintComputeCallback, logger)
	return l
}

// Wallets, Communities, Purposes, Pool, DividendPool, Funds, and Compute
// expose the sub-managers for direct inspection (tests, the §6 inbound
// command surface's registry operations, and Status()).
func (l *Ledger) Wallets() *wallet.Manager            { return l.wallets }
func (l *Ledger) Communities() *community.Registry    { return l.communities }
func (l *Ledger) Purposes() *purpose.Registry         { return l.purposes }
func (l *Ledger) Pool() *commonspool.Pool             { return l.pool }
func (l *Ledger) DividendPool() *dividend.Pool        { return l.dividendPool }
func (l *Ledger) Funds() *communityfund.Manager       { return l.funds }
func (l *Ledger) Compute() *compute.Pool              { return l.compute }

// CurrentTime returns the pool's logical clock.
func (l *Ledger) CurrentTime() int64 { return l.pool.Now() }

// SetTime moves the pool's logical clock to an explicit value.
func (l *Ledger) SetTime(t int64) { l.pool.SetTime(t) }

// CreateWallet registers a new wallet.
func (l *Ledger) CreateWallet(name string) *wallet.Wallet {
	return l.wallets.CreateWallet(name, l.pool.Now())
}

// CreateCommunity registers a new community.
func (l *Ledger) CreateCommunity(name string, boundaryFee float64) (*community.Community, error) {
	return l.communities.Create(name, boundaryFee, l.pool.Now())
}

// CreatePurpose registers a new purpose channel.
func (l *Ledger) CreatePurpose(name, description string, discount float64) (*purpose.Channel, error) {
	return l.purposes.Create(name, description, discount, l.pool.Now())
}

// JoinCommunity adds a community to a wallet's membership set.
func (l *Ledger) JoinCommunity(walletID, communityID string) error {
	if err := l.wallets.JoinCommunity(walletID, communityID); err != nil {
		return err
	}
	return l.communities.IncrementMembers(communityID, 1)
}

// RegisterPurpose adds a purpose to a wallet's recognized-purpose set.
func (l *Ledger) RegisterPurpose(walletID, purposeID string) error {
	if !l.purposes.Exists(purposeID) {
		return ledgererr.New(ledgererr.PurposeNotFound, "ledger.RegisterPurpose", purposeID)
	}
	if err := l.wallets.RegisterPurpose(walletID, purposeID); err != nil {
		return err
	}
	return l.purposes.RegisterRecipient(purposeID, walletID)
}

// MintUnit mints amount into walletID's balance, recording a Mint transaction.
func (l *Ledger) MintUnit(amount float64, walletID, note string) (*unit.Unit, error) {
	u, err := l.mintInternal(amount, walletID, "", "", note)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (l *Ledger) mintInternal(amount float64, walletID, purposeID, localityID, note string) (*unit.Unit, error) {
	if _, err := l.wallets.GetWallet(walletID); err != nil {
		return nil, err
	}

	txID := ledgerid.New()
	u, err := l.pool.Mint(amount, walletID, note, txID)
	if err != nil {
		return nil, err
	}

	if purposeID != "" && l.purposes.Exists(purposeID) {
		u.Purpose = unit.NormalizeSet([]string{purposeID})
	}
	if localityID != "" && l.communities.Exists(localityID) {
		u.Locality = unit.NormalizeSet([]string{localityID})
	}

	l.wallets.AddUnit(u)
	l.appendTransaction(Transaction{
		ID: txID, Kind: Mint, Timestamp: l.pool.Now(),
		OutputUnitIDs: []string{u.ID}, Description: note,
	})
	return u, nil
}

// mintComputeCallback is the compute.MintCallback wired into the Compute
// Pool at construction. It is invoked synchronously from within
// CompleteComputeJob and must not re-enter the Compute Pool (spec §5).
func (l *Ledger) mintComputeCallback(amount float64, walletID, purposeID, localityID, note string) string {
	u, err := l.mintInternal(amount, walletID, purposeID, localityID, note)
	if err != nil {
		return ""
	}
	return u.ID
}

// ConvertUnit applies a conversion, routing exit fees to their communities
// and burning everything else, then appends a Convert transaction.
func (l *Ledger) ConvertUnit(unitID string, req conversion.Request) (*unit.Unit, error) {
	const op = "ledger.ConvertUnit"

	u, err := l.wallets.GetUnit(unitID)
	if err != nil {
		return nil, err
	}

	ctx := conversion.Context{Communities: l.communities, Purposes: l.purposes, CurrentTime: l.pool.Now()}
	res, err := l.conversionEngine.Convert(u, req, ctx)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, ledgererr.New(ledgererr.ConversionInvalid, op, "conversion did not succeed")
	}

	if err := l.wallets.RemoveUnit(u.ID); err != nil {
		return nil, err
	}
	l.wallets.AddUnit(res.NewUnit)

	exitTotal := 0.0
	for communityID, fee := range res.ExitFees {
		name := ""
		if c, err := l.communities.Get(communityID); err == nil {
			name = c.Name
		}
		l.funds.DepositExitFee(communityID, fee, u.ID, u.WalletID, l.pool.Now(), name)
		exitTotal += fee
	}

	entryFee := res.Fees.Locality - exitTotal
	burnAmount := res.Fees.Temporal + entryFee + res.Fees.Purpose + res.Fees.Reputation
	if err := l.pool.CollectFee(u.ID, burnAmount); err != nil {
		return nil, err
	}

	l.appendTransaction(Transaction{
		ID: ledgerid.New(), Kind: Convert, Timestamp: l.pool.Now(),
		InputUnitIDs: []string{u.ID}, OutputUnitIDs: []string{res.NewUnit.ID},
		TotalFees: res.Fees.Total, Description: "conversion",
	})
	return res.NewUnit, nil
}

// TransferResult is the outcome of Transfer.
type TransferResult struct {
	Success         bool
	Transaction     Transaction
	MovedUnitID     string
	RemainderUnitID string // set only when the source unit was split
}

// Transfer moves amount (or the whole unit, if amount is nil) of unitID
// from its current wallet to toWalletID, gated by the destination's
// registered purposes. Moving a unit is a remove-then-add (spec §3).
func (l *Ledger) Transfer(unitID, toWalletID string, amount *float64, note string) (TransferResult, error) {
	const op = "ledger.Transfer"

	u, err := l.wallets.GetUnit(unitID)
	if err != nil {
		return TransferResult{}, err
	}
	if _, err := l.wallets.GetWallet(toWalletID); err != nil {
		return TransferResult{}, err
	}

	for _, p := range u.Purpose {
		canReceive, err := l.purposes.CanReceive(p, toWalletID)
		if err != nil {
			return TransferResult{}, err
		}
		if !canReceive {
			return TransferResult{}, ledgererr.New(ledgererr.PurposeGateFailed, op, p)
		}
	}

	now := l.pool.Now()
	txID := ledgerid.New()
	fromWalletID := u.WalletID

	provKind := unit.Gifted
	if note != "" {
		provKind = unit.Earned
	}

	var res TransferResult
	if amount == nil || *amount == u.Magnitude {
		if err := l.wallets.RemoveUnit(u.ID); err != nil {
			return TransferResult{}, err
		}
		u.WalletID = toWalletID
		u.AppendProvenance(unit.ProvenanceEntry{
			Timestamp: now, Kind: provKind, FromWallet: fromWalletID, ToWallet: toWalletID,
			Amount: u.Magnitude, Note: note, TransactionID: txID,
		})
		l.wallets.AddUnit(u)
		res = TransferResult{Success: true, MovedUnitID: u.ID}
	} else {
		amt := *amount
		if amt <= 0 || amt > u.Magnitude {
			return TransferResult{}, ledgererr.New(ledgererr.InsufficientBalance, op, unitID)
		}
		moved, remainder, err := unit.Split(u, amt, now, txID)
		if err != nil {
			return TransferResult{}, err
		}
		moved.WalletID = toWalletID
		moved.AppendProvenance(unit.ProvenanceEntry{
			Timestamp: now, Kind: provKind, FromWallet: fromWalletID, ToWallet: toWalletID,
			Amount: amt, Note: note, TransactionID: txID,
		})

		if err := l.wallets.RemoveUnit(u.ID); err != nil {
			return TransferResult{}, err
		}
		l.wallets.AddUnit(moved)
		l.wallets.AddUnit(remainder)
		res = TransferResult{Success: true, MovedUnitID: moved.ID, RemainderUnitID: remainder.ID}
	}

	outputs := []string{res.MovedUnitID}
	if res.RemainderUnitID != "" {
		outputs = append(outputs, res.RemainderUnitID)
	}
	res.Transaction = Transaction{
		ID: txID, Kind: Transfer, Timestamp: now,
		InputUnitIDs: []string{unitID}, OutputUnitIDs: outputs, Description: note,
	}
	l.appendTransaction(res.Transaction)
	return res, nil
}

// TickStats aggregates the outcome of applying a pool-aware tick to every
// unit in the ledger.
type TickStats struct {
	UpdatedCount             int
	TotalDemurrage           float64
	TotalDividendRequested   float64
	TotalDividendDistributed float64
	PoolBalance              float64
}

// Tick advances the pool's clock by days and applies the pool-aware tick
// to every indexed unit. Units are visited in ascending unit-id order, so
// a given set of units is always ticked in the same order (spec §5).
func (l *Ledger) Tick(days float64) TickStats {
	deltaMs := int64(days * 86_400_000)
	l.pool.AdvanceTime(deltaMs)
	now := l.pool.Now()

	units := l.wallets.AllUnits()
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	var stats TickStats
	for _, u := range units {
		res := dividend.Tick(l.temporalParams, l.dividendPool, u, now)
		if !res.Changed {
			continue
		}
		stats.UpdatedCount++
		stats.TotalDemurrage += res.DemurrageDeposited
		stats.TotalDividendRequested += res.DividendRequested
		stats.TotalDividendDistributed += res.DividendFunded
		_ = l.wallets.UpdateUnit(u)
	}
	stats.PoolBalance = l.dividendPool.Balance()
	return stats
}

// SubmitComputeJob posts a new compute job.
func (l *Ledger) SubmitComputeJob(requestorWallet string, spec compute.Spec, payment float64, opts compute.SubmitOptions) (*compute.Job, error) {
	if _, err := l.wallets.GetWallet(requestorWallet); err != nil {
		return nil, err
	}
	return l.compute.SubmitJob(requestorWallet, spec, payment, opts, l.pool.Now())
}

// ClaimComputeJob claims a job on behalf of a provider wallet, which must exist.
func (l *Ledger) ClaimComputeJob(jobID, providerWallet string) (bool, error) {
	if _, err := l.wallets.GetWallet(providerWallet); err != nil {
		return false, err
	}
	return l.compute.ClaimJob(jobID, providerWallet, l.pool.Now())
}

// CompleteComputeJob submits a result and proof for a claimed job, minting
// the reward through mintComputeCallback on success.
func (l *Ledger) CompleteComputeJob(jobID, providerWallet string, result compute.Result, proof *compute.Proof) (compute.MintResult, error) {
	return l.compute.SubmitResult(jobID, providerWallet, result, proof, l.pool.Now())
}

// AvailableComputeJobs returns every Pending, unexpired job.
func (l *Ledger) AvailableComputeJobs() []*compute.Job {
	return l.compute.Available(l.pool.Now())
}

// ComputeStats summarizes the Compute Pool's activity.
func (l *Ledger) ComputeStats() compute.Stats {
	return l.compute.Stats()
}

// Status is a snapshot of every component's headline numbers.
type Status struct {
	Supply         commonspool.Status
	DividendBalance float64
	FundingRatio    float64
	TotalFundBalance float64
	ComputeStats    compute.Stats
	TransactionCount int
}

// Status reports a composed snapshot across components.
func (l *Ledger) Status() Status {
	return Status{
		Supply:           l.pool.Status(),
		DividendBalance:  l.dividendPool.Balance(),
		FundingRatio:     l.dividendPool.FundingRatio(),
		TotalFundBalance: l.funds.TotalBalance(),
		ComputeStats:     l.compute.Stats(),
		TransactionCount: len(l.transactions),
	}
}

// Transactions returns a copy of the append-only transaction log.
func (l *Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

func (l *Ledger) appendTransaction(t Transaction) {
	l.transactions = append(l.transactions, t)
}
