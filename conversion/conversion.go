// Package conversion implements the Conversion Engine: computing and
// applying dimensional changes (temporality, locality, purpose, reputation)
// to a Unit, with fees compounding sequentially on the running magnitude
// (spec §4.5). Grounded on the teacher's economics.ProxyPaymentProtocol,
// which chains several fee-bearing steps (balance check -> debit -> four-way
// split -> record) behind one public entry point the same way this engine
// chains temporal -> locality -> purpose -> reputation fees.
package conversion

import (
	"github.com/sovrn-protocol/sovrn/community"
	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/purpose"
	"github.com/sovrn-protocol/sovrn/unit"
)

// LocalityDelta names communities to add/remove.
type LocalityDelta struct {
	Add    []string
	Remove []string
}

// PurposeDelta names purposes to add/remove.
type PurposeDelta struct {
	Add    []string
	Remove []string
}

// Request is a ConversionRequest (spec §6).
type Request struct {
	UnitID            string
	TargetTemporality unit.Temporality // empty => unchanged
	TargetLocality    LocalityDelta
	TargetPurpose     PurposeDelta
	StripReputation   bool
}

// Context carries the read-only registries and clock a conversion needs.
type Context struct {
	Communities *community.Registry
	Purposes    *purpose.Registry
	CurrentTime int64
}

// Fees itemizes every fee charged during a conversion.
type Fees struct {
	Temporal   float64
	Locality   float64 // entry + exit combined, per spec §4.8 routing rule
	Purpose    float64
	Reputation float64
	Total      float64
}

// Result is the outcome of a conversion (success path).
type Result struct {
	Success   bool
	NewUnit   *unit.Unit
	Fees      Fees
	ExitFees  map[string]float64 // community id -> fee amount, for routing
}

// EntryLocalityFee is the fixed 1% charge for adding a new, unheld community.
const EntryLocalityFee = 0.01

// ReputationStripFee is the fixed 5% charge for stripping provenance.
const ReputationStripFee = 0.05

// temporalFeeTable returns the fee rate for a (from, to) temporality pair,
// per the fixed table in spec §4.5.
func temporalFeeTable(from, to unit.Temporality) float64 {
	if from == to {
		return 0
	}
	switch from {
	case unit.T0:
		// T0 -> anything is locking: free.
		return 0
	case unit.T1:
		switch to {
		case unit.T0:
			return 0.02
		default: // T1 -> T2, T1 -> TInf: locking
			return 0
		}
	case unit.T2:
		switch to {
		case unit.T1:
			return 0.03
		case unit.T0:
			return 0.05
		default: // T2 -> TInf: locking
			return 0
		}
	case unit.TInf:
		switch to {
		case unit.T2:
			return 0.05
		case unit.T1:
			return 0.08
		case unit.T0:
			return 0.10
		}
	}
	return 0
}

// Engine computes and applies conversions.
type Engine struct{}

// New returns a Conversion Engine.
func New() *Engine {
	return &Engine{}
}

// Preview computes the same numerics as Convert without mutating u or
// producing a successor unit with a live id — it still allocates the
// would-be successor so callers can inspect its shape, but the caller is
// expected to discard it.
func (e *Engine) Preview(u *unit.Unit, req Request, ctx Context) (Result, error) {
	return e.run(u, req, ctx)
}

// Convert applies the conversion, returning a brand-new successor unit
// (spec §4.5: new id, createdAt = lastTickAt = ctx.CurrentTime, so lock
// periods restart from the conversion time; this holds whether or not the
// temporality changes).
func (e *Engine) Convert(u *unit.Unit, req Request, ctx Context) (Result, error) {
	return e.run(u, req, ctx)
}

// Validate reports whether a conversion would succeed. It runs the full
// conversion and discards the successor unit it builds.
func (e *Engine) Validate(u *unit.Unit, req Request, ctx Context) (bool, string) {
	res, err := e.run(u, req, ctx)
	if err != nil {
		return false, err.Error()
	}
	return res.Success, ""
}

func (e *Engine) run(u *unit.Unit, req Request, ctx Context) (Result, error) {
	const op = "conversion.run"

	targetTemporality := u.Temporality
	if req.TargetTemporality != "" {
		targetTemporality = req.TargetTemporality
	}

	running := u.Magnitude
	var fees Fees
	exitFees := make(map[string]float64)

	// 1. Temporal.
	rate := temporalFeeTable(u.Temporality, targetTemporality)
	temporalFee := running * rate
	running -= temporalFee
	fees.Temporal = temporalFee
	if running < 0 {
		return Result{}, ledgererr.New(ledgererr.FeesExceedValue, op, "temporal fee exceeds magnitude")
	}

	newLocality := append([]string(nil), u.Locality...)

	// 2. Locality add (entry fee, burned).
	for _, id := range req.TargetLocality.Add {
		if u.HasLocality(id) {
			continue
		}
		if !ctx.Communities.Exists(id) {
			return Result{}, ledgererr.New(ledgererr.CommunityNotFound, op, id)
		}
		entryFee := running * EntryLocalityFee
		running -= entryFee
		fees.Locality += entryFee
		if running < 0 {
			return Result{}, ledgererr.New(ledgererr.FeesExceedValue, op, "locality entry fee exceeds magnitude")
		}
		newLocality = append(newLocality, id)
	}

	// 3. Locality remove (exit fee, routed to the community).
	for _, id := range req.TargetLocality.Remove {
		if !u.HasLocality(id) {
			continue
		}
		boundaryFee, err := ctx.Communities.BoundaryFee(id)
		if err != nil {
			return Result{}, ledgererr.Wrap(ledgererr.CommunityNotFound, op, err)
		}
		exitFee := running * boundaryFee
		running -= exitFee
		fees.Locality += exitFee
		exitFees[id] += exitFee
		if running < 0 {
			return Result{}, ledgererr.New(ledgererr.FeesExceedValue, op, "locality exit fee exceeds magnitude")
		}
		newLocality = removeID(newLocality, id)
	}

	newPurpose := append([]string(nil), u.Purpose...)

	// 4. Purpose add (no fee).
	for _, id := range req.TargetPurpose.Add {
		if !ctx.Purposes.Exists(id) {
			return Result{}, ledgererr.New(ledgererr.PurposeNotFound, op, id)
		}
		if !u.HasPurpose(id) && !contains(newPurpose, id) {
			newPurpose = append(newPurpose, id)
		}
	}

	// 5. Purpose remove (conversion-discount fee).
	for _, id := range req.TargetPurpose.Remove {
		if !u.HasPurpose(id) {
			continue
		}
		discount, err := ctx.Purposes.ConversionDiscount(id)
		if err != nil {
			return Result{}, ledgererr.Wrap(ledgererr.PurposeNotFound, op, err)
		}
		purposeFee := running * discount
		running -= purposeFee
		fees.Purpose += purposeFee
		if running < 0 {
			return Result{}, ledgererr.New(ledgererr.FeesExceedValue, op, "purpose removal fee exceeds magnitude")
		}
		newPurpose = removeID(newPurpose, id)
	}

	// 6. Strip reputation.
	if req.StripReputation {
		stripFee := running * ReputationStripFee
		running -= stripFee
		fees.Reputation = stripFee
		if running < 0 {
			return Result{}, ledgererr.New(ledgererr.FeesExceedValue, op, "reputation strip fee exceeds magnitude")
		}
	}

	fees.Total = fees.Temporal + fees.Locality + fees.Purpose + fees.Reputation
	if fees.Total > u.Magnitude || running < 0 {
		return Result{}, ledgererr.New(ledgererr.FeesExceedValue, op, "total fees exceed original magnitude")
	}

	successor := unit.New(running, targetTemporality, unit.NormalizeSet(newLocality), unit.NormalizeSet(newPurpose), ctx.CurrentTime, u.WalletID, unit.ProvenanceEntry{})
	successor.Provenance = append([]unit.ProvenanceEntry(nil), u.Provenance...)

	if req.StripReputation {
		successor.StripProvenance(ctx.CurrentTime, "", "reputation stripped on conversion")
	} else {
		successor.AppendProvenance(unit.ProvenanceEntry{
			Timestamp: ctx.CurrentTime,
			Kind:      unit.Converted,
			Amount:    running,
		})
	}

	return Result{Success: true, NewUnit: successor, Fees: fees, ExitFees: exitFees}, nil
}

func removeID(ids []string, target string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
