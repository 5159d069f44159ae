package compute

import (
	"testing"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/stretchr/testify/require"
)

type acceptAllVerifier struct{}

func (acceptAllVerifier) Verify(Proof) (bool, string) { return true, "" }

type rejectVerifier struct{ reason string }

func (r rejectVerifier) Verify(Proof) (bool, string) { return false, r.reason }

func newTestSpec() Spec {
	return Spec{Kind: "render", Payload: "scene.json", EstimatedCompute: 10, Description: "test job"}
}

func TestSubmitJobValidation(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)

	_, err := p.SubmitJob("req-1", newTestSpec(), 0, SubmitOptions{}, 0)
	require.True(t, ledgererr.Of(err, ledgererr.MintNonPositive))

	_, err = p.SubmitJob("req-1", Spec{EstimatedCompute: 0}, 10, SubmitOptions{}, 0)
	require.Error(t, err)
}

func TestSubmitJobDefaults(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, err := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 1000)
	require.NoError(t, err)
	require.Equal(t, Pending, job.Status)
	require.Equal(t, 10.0, job.Reward) // default multiplier 1.0
	require.Equal(t, int64(1000+DefaultExpiresIn), job.ExpiresAt)
}

func TestClaimJobRequiresPendingAndUnexpired(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)

	ok, err := p.ClaimJob(job.ID, "provider-1", 100)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.ClaimJob(job.ID, "provider-2", 200)
	require.True(t, ledgererr.Of(err, ledgererr.JobAlreadyClaimed))
}

func TestClaimJobFailsAfterExpiry(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{ExpiresIn: 100}, 0)

	_, err := p.ClaimJob(job.ID, "provider-1", 500)
	require.True(t, ledgererr.Of(err, ledgererr.JobExpired))
}

func TestAbandonJobReturnsToPending(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	_, _ = p.ClaimJob(job.ID, "provider-1", 0)

	ok, err := p.AbandonJob(job.ID, "provider-1")
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := p.Get(job.ID)
	require.Equal(t, Pending, got.Status)
}

func TestCancelJobRequiresMatchingRequestor(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)

	_, err := p.CancelJob(job.ID, "req-2")
	require.True(t, ledgererr.Of(err, ledgererr.JobNotClaimable))

	ok, err := p.CancelJob(job.ID, "req-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSubmitResultRequiresProof(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	_, _ = p.ClaimJob(job.ID, "provider-1", 0)

	_, err := p.SubmitResult(job.ID, "provider-1", Result{}, nil, 100)
	require.True(t, ledgererr.Of(err, ledgererr.ProofMissing))

	got, _ := p.Get(job.ID)
	require.Equal(t, Failed, got.Status)
}

func TestSubmitResultMintsOnSuccess(t *testing.T) {
	var mintedAmount float64
	var mintedWallet string
	mint := func(amount float64, wallet, purpose, locality, note string) string {
		mintedAmount = amount
		mintedWallet = wallet
		return "unit-123"
	}

	p := New(acceptAllVerifier{}, mint, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	_, _ = p.ClaimJob(job.ID, "provider-1", 0)

	res, err := p.SubmitResult(job.ID, "provider-1", Result{Output: "done", ActualCompute: 10}, &Proof{Method: SelfAttestation, ActualCompute: 10}, 100)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "unit-123", res.UnitID)
	require.Equal(t, job.Reward, mintedAmount)
	require.Equal(t, "provider-1", mintedWallet) // reward goes to the provider, not the requestor

	got, _ := p.Get(job.ID)
	require.Equal(t, Completed, got.Status)

	stats := p.Stats()
	require.Equal(t, job.Reward, stats.TotalRewardsMinted)
}

func TestSubmitResultFailsVerification(t *testing.T) {
	p := New(rejectVerifier{reason: "bad proof"}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	_, _ = p.ClaimJob(job.ID, "provider-1", 0)

	res, err := p.SubmitResult(job.ID, "provider-1", Result{ActualCompute: 10}, &Proof{Method: SelfAttestation, ActualCompute: 10}, 100)
	require.NoError(t, err)
	require.False(t, res.Success)

	got, _ := p.Get(job.ID)
	require.Equal(t, Failed, got.Status)
	require.Equal(t, "bad proof", got.FailureReason)
}

func TestExpireStaleSweepsPendingAndClaimed(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	pendingJob, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{ExpiresIn: 100}, 0)
	claimedJob, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	_, _ = p.ClaimJob(claimedJob.ID, "provider-1", 0)

	count := p.ExpireStale(MaxClaimDuration + 1)
	require.Equal(t, 2, count)

	got1, _ := p.Get(pendingJob.ID)
	require.Equal(t, Expired, got1.Status)
	got2, _ := p.Get(claimedJob.ID)
	require.Equal(t, Expired, got2.Status)
	require.Equal(t, "Claim timeout", got2.FailureReason)
}

func TestAvailableOnlyReturnsPendingUnexpired(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	job, _ := p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	_, _ = p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{ExpiresIn: 1}, 0)

	available := p.Available(2)
	require.Len(t, available, 1)
	require.Equal(t, job.ID, available[0].ID)
}

func TestStatsCountsEachStatus(t *testing.T) {
	p := New(acceptAllVerifier{}, nil, nil)
	_, _ = p.SubmitJob("req-1", newTestSpec(), 10, SubmitOptions{}, 0)
	job2, _ := p.SubmitJob("req-1", newTestSpec(), 20, SubmitOptions{}, 0)
	_, _ = p.CancelJob(job2.ID, "req-1")

	stats := p.Stats()
	require.Equal(t, 2, stats.TotalJobs)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, 1, stats.CancelledCount)
	require.Equal(t, 30.0, stats.TotalPaymentReceived)
}
