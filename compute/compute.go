// Package compute implements the Compute Pool: the job lifecycle that
// bridges an external payment to a verified unit of work and, on success,
// a mint back through the Ledger. Grounded on the teacher's vltcore
// liveness-proof lifecycle (types.PFFLivenessProof's Validate/IsExpired
// pair, and its claim/blacklist bookkeeping in keeper.go), generalized from
// a single biometric proof type to a job state machine with a pluggable
// proof-verification step and an injected mint callback instead of a
// direct keeper-to-bank call.
package compute

import (
	"sync"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/ledgerid"
	"go.uber.org/zap"
)

// DefaultExpiresIn is the default job lifetime: 24 hours in milliseconds.
const DefaultExpiresIn int64 = 86_400_000

// MaxClaimDuration bounds how long a Claimed job may sit unfinished: 4 hours.
const MaxClaimDuration int64 = 14_400_000

// DefaultRewardMultiplier converts payment into reward when unspecified.
const DefaultRewardMultiplier float64 = 1.0

// Status is a Compute Job's lifecycle state.
type Status string

const (
	Pending   Status = "Pending"
	Claimed   Status = "Claimed"
	Completed Status = "Completed"
	Failed    Status = "Failed"
	Expired   Status = "Expired"
	Cancelled Status = "Cancelled"
)

// ProofMethod names how a ReproducibilityProof asserts its result.
type ProofMethod string

const (
	SelfAttestation   ProofMethod = "SelfAttestation"
	ConsensusExecution ProofMethod = "ConsensusExecution"
	TEEAttestation    ProofMethod = "TEEAttestation"
	CryptographicProof ProofMethod = "CryptographicProof"
	SpotCheck         ProofMethod = "SpotCheck"
)

// Recipe is the reproduction recipe every Proof must reference, regardless
// of method: the law set, container image, and initial state a verifier
// (or a third party) would need to reproduce the computation.
type Recipe struct {
	LawSet       string
	Container    string
	InitialState string
}

// Proof is the evidence a provider submits alongside a result.
type Proof struct {
	Method         ProofMethod
	ActualCompute  float64
	Recipe         Recipe
	Attestations   []string // opaque attestation identifiers, for SelfAttestation/ConsensusExecution/SpotCheck
	FinalStateRefs []string // each attestor's computed final state reference, for ConsensusExecution
	TEEAttestation string   // opaque attestation, for TEEAttestation
	Signature      string   // opaque, for CryptographicProof
	ChallengeWindowClosed bool // carried with the proof; no verifier in this module reads it
}

// Spec is a job's specification.
type Spec struct {
	Kind             string
	Payload          string
	EstimatedCompute float64
	Description      string
}

// Result is the output a provider submits on completion.
type Result struct {
	Output        string
	ActualCompute float64
}

// SubmitOptions carries the optional fields of submit_job.
type SubmitOptions struct {
	RewardMultiplier float64 // 0 => DefaultRewardMultiplier
	ExpiresIn        int64   // 0 => DefaultExpiresIn
	Purpose          string
	Locality         string
}

// Job is a Compute Job.
type Job struct {
	ID            string
	RequestorWallet string
	Spec          Spec
	Payment       float64
	Reward        float64
	Purpose       string
	Locality      string
	Status        Status

	CreatedAt  int64
	ExpiresAt  int64
	ClaimedAt  int64
	FinishedAt int64

	Provider      string
	Result        *Result
	Proof         *Proof
	FailureReason string
}

// MintCallback mints amount into walletID, optionally tagged with purpose
// and locality, and returns the new unit's id, or "" on failure. It must be
// synchronous and must not re-enter the Compute Pool (spec §5).
type MintCallback func(amount float64, walletID, purpose, locality, note string) string

// MintResult is the outcome of submitting a completed job's result.
type MintResult struct {
	Success bool
	UnitID  string
	Reason  string
}

// Verifier validates a submitted Proof against a claimed actual-compute
// figure. Swappable so callers can wire the simproof package without this
// package importing it directly.
type Verifier interface {
	Verify(p Proof) (bool, string)
}

// Pool is the Compute Pool.
type Pool struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	verify Verifier
	mint   MintCallback
	logger *zap.Logger

	totalPaymentReceived float64
	totalRewardsMinted   float64
}

// New returns a Compute Pool wired to a proof verifier and a mint callback.
// logger defaults to zap.NewNop() if nil.
func New(verify Verifier, mint MintCallback, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		jobs:   make(map[string]*Job),
		verify: verify,
		mint:   mint,
		logger: logger,
	}
}

// SubmitJob creates a new Pending job.
func (p *Pool) SubmitJob(requestorWallet string, spec Spec, payment float64, opts SubmitOptions, now int64) (*Job, error) {
	const op = "compute.SubmitJob"
	if payment <= 0 {
		return nil, ledgererr.New(ledgererr.MintNonPositive, op, "payment must be positive")
	}
	if spec.EstimatedCompute <= 0 {
		return nil, ledgererr.New(ledgererr.ConversionInvalid, op, "estimatedCompute must be positive")
	}

	multiplier := opts.RewardMultiplier
	if multiplier <= 0 {
		multiplier = DefaultRewardMultiplier
	}
	expiresIn := opts.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}

	job := &Job{
		ID:              ledgerid.New(),
		RequestorWallet: requestorWallet,
		Spec:            spec,
		Payment:         payment,
		Reward:          payment * multiplier,
		Purpose:         opts.Purpose,
		Locality:        opts.Locality,
		Status:          Pending,
		CreatedAt:       now,
		ExpiresAt:       now + expiresIn,
	}

	p.mu.Lock()
	p.jobs[job.ID] = job
	p.totalPaymentReceived += payment
	p.mu.Unlock()

	p.logger.Debug("compute job submitted", zap.String("job_id", job.ID), zap.Float64("payment", payment))
	return job, nil
}

// ClaimJob assigns a Pending, unexpired job to provider.
func (p *Pool) ClaimJob(id, provider string, now int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[id]
	if !ok {
		return false, ledgererr.New(ledgererr.JobNotFound, "compute.ClaimJob", id)
	}
	if job.Status != Pending {
		return false, ledgererr.New(ledgererr.JobAlreadyClaimed, "compute.ClaimJob", string(job.Status))
	}
	if now > job.ExpiresAt {
		return false, ledgererr.New(ledgererr.JobExpired, "compute.ClaimJob", id)
	}

	job.Status = Claimed
	job.Provider = provider
	job.ClaimedAt = now
	return true, nil
}

// AbandonJob returns a Claimed job to Pending, provider must match.
func (p *Pool) AbandonJob(id, provider string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[id]
	if !ok {
		return false, ledgererr.New(ledgererr.JobNotFound, "compute.AbandonJob", id)
	}
	if job.Status != Claimed || job.Provider != provider {
		return false, ledgererr.New(ledgererr.JobNotOwnedByProvider, "compute.AbandonJob", id)
	}

	job.Status = Pending
	job.Provider = ""
	job.ClaimedAt = 0
	return true, nil
}

// CancelJob cancels a Pending job, requestor must match.
func (p *Pool) CancelJob(id, requestor string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[id]
	if !ok {
		return false, ledgererr.New(ledgererr.JobNotFound, "compute.CancelJob", id)
	}
	if job.Status != Pending || job.RequestorWallet != requestor {
		return false, ledgererr.New(ledgererr.JobNotClaimable, "compute.CancelJob", id)
	}

	job.Status = Cancelled
	return true, nil
}

// SubmitResult verifies the proof and, on success, invokes the mint
// callback and marks the job Completed; on failure marks it Failed.
func (p *Pool) SubmitResult(id, provider string, result Result, proof *Proof, now int64) (MintResult, error) {
	const op = "compute.SubmitResult"

	p.mu.Lock()
	job, ok := p.jobs[id]
	if !ok {
		p.mu.Unlock()
		return MintResult{}, ledgererr.New(ledgererr.JobNotFound, op, id)
	}
	if job.Status != Claimed || job.Provider != provider {
		p.mu.Unlock()
		return MintResult{}, ledgererr.New(ledgererr.JobNotOwnedByProvider, op, id)
	}

	if proof == nil {
		job.Status = Failed
		job.FailureReason = "proof missing"
		job.FinishedAt = now
		p.mu.Unlock()
		return MintResult{Success: false, Reason: job.FailureReason}, ledgererr.New(ledgererr.ProofMissing, op, id)
	}
	if proof.ActualCompute <= 0 {
		job.Status = Failed
		job.FailureReason = "actual compute must be positive"
		job.FinishedAt = now
		p.mu.Unlock()
		return MintResult{Success: false, Reason: job.FailureReason}, ledgererr.New(ledgererr.ProofInvalid, op, job.FailureReason)
	}

	ok2, reason := true, ""
	if p.verify != nil {
		ok2, reason = p.verify.Verify(*proof)
	}
	if !ok2 {
		job.Status = Failed
		job.FailureReason = reason
		job.FinishedAt = now
		p.mu.Unlock()
		return MintResult{Success: false, Reason: reason}, nil
	}

	job.Result = &result
	job.Proof = proof
	job.Status = Completed
	job.FinishedAt = now
	provider, reward, purpose, locality := job.Provider, job.Reward, job.Purpose, job.Locality
	mint := p.mint
	p.mu.Unlock()

	if mint == nil {
		return MintResult{Success: false, Reason: "no mint callback configured"}, nil
	}

	unitID := mint(reward, provider, purpose, locality, "compute job reward: "+id)
	if unitID == "" {
		return MintResult{Success: false, Reason: "mint callback declined"}, nil
	}

	p.mu.Lock()
	p.totalRewardsMinted += reward
	p.mu.Unlock()

	p.logger.Debug("compute job completed", zap.String("job_id", id), zap.String("unit_id", unitID))
	return MintResult{Success: true, UnitID: unitID}, nil
}

// ExpireStale sweeps Pending jobs past ExpiresAt and Claimed jobs past
// ClaimedAt+MaxClaimDuration, moving both to Expired. Returns the count.
func (p *Pool) ExpireStale(now int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, job := range p.jobs {
		switch job.Status {
		case Pending:
			if now > job.ExpiresAt {
				job.Status = Expired
				job.FinishedAt = now
				job.FailureReason = "expired"
				count++
			}
		case Claimed:
			if job.ClaimedAt+MaxClaimDuration < now {
				job.Status = Expired
				job.FinishedAt = now
				job.FailureReason = "Claim timeout"
				count++
			}
		}
	}
	return count
}

// Get returns a job by id.
func (p *Pool) Get(id string) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return nil, ledgererr.New(ledgererr.JobNotFound, "compute.Get", id)
	}
	cp := *job
	return &cp, nil
}

// Available returns every Pending, unexpired job.
func (p *Pool) Available(now int64) []*Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*Job
	for _, job := range p.jobs {
		if job.Status == Pending && now <= job.ExpiresAt {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out
}

// Stats summarizes the Compute Pool's activity.
type Stats struct {
	TotalJobs            int
	PendingCount         int
	ClaimedCount         int
	CompletedCount       int
	FailedCount          int
	ExpiredCount         int
	CancelledCount       int
	TotalPaymentReceived float64
	TotalRewardsMinted   float64
}

// Stats computes the current summary.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{TotalJobs: len(p.jobs), TotalPaymentReceived: p.totalPaymentReceived, TotalRewardsMinted: p.totalRewardsMinted}
	for _, job := range p.jobs {
		switch job.Status {
		case Pending:
			s.PendingCount++
		case Claimed:
			s.ClaimedCount++
		case Completed:
			s.CompletedCount++
		case Failed:
			s.FailedCount++
		case Expired:
			s.ExpiredCount++
		case Cancelled:
			s.CancelledCount++
		}
	}
	return s
}
