package simproof

import (
	"testing"

	"github.com/sovrn-protocol/sovrn/compute"
	"github.com/stretchr/testify/require"
)

func testRecipe() compute.Recipe {
	return compute.Recipe{LawSet: "physics-v1", Container: "img:sha256-abc", InitialState: "state-0"}
}

func TestEveryMethodRequiresAReproductionRecipe(t *testing.T) {
	v := New()
	ok, reason := v.Verify(compute.Proof{Method: compute.SelfAttestation, Attestations: []string{"a1"}})
	require.False(t, ok)
	require.NotEmpty(t, reason)

	ok, _ = v.Verify(compute.Proof{
		Method:       compute.SelfAttestation,
		Recipe:       compute.Recipe{LawSet: "physics-v1"}, // container and initialState missing
		Attestations: []string{"a1"},
	})
	require.False(t, ok)
}

func TestSelfAttestationRejectsWithNoAttestations(t *testing.T) {
	v := New()
	ok, _ := v.Verify(compute.Proof{Method: compute.SelfAttestation, Recipe: testRecipe()})
	require.False(t, ok)

	ok, reason := v.Verify(compute.Proof{Method: compute.SelfAttestation, Recipe: testRecipe(), Attestations: []string{"a1"}})
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestConsensusExecutionRequiresQuorumAndAgreement(t *testing.T) {
	v := New()

	// Fewer than two attestations.
	ok, _ := v.Verify(compute.Proof{Method: compute.ConsensusExecution, Recipe: testRecipe(), Attestations: []string{"a1"}})
	require.False(t, ok)

	// Quorum met but attestors disagree on the final state.
	ok, reason := v.Verify(compute.Proof{
		Method:         compute.ConsensusExecution,
		Recipe:         testRecipe(),
		Attestations:   []string{"a1", "a2"},
		FinalStateRefs: []string{"state-a", "state-b"},
	})
	require.False(t, ok)
	require.NotEmpty(t, reason)

	// Quorum met and attestors agree.
	ok, reason = v.Verify(compute.Proof{
		Method:         compute.ConsensusExecution,
		Recipe:         testRecipe(),
		Attestations:   []string{"a1", "a2"},
		FinalStateRefs: []string{"state-a", "state-a"},
	})
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestTEEAttestationRequiresAttestation(t *testing.T) {
	v := New()
	ok, _ := v.Verify(compute.Proof{Method: compute.TEEAttestation, Recipe: testRecipe()})
	require.False(t, ok)

	ok, _ = v.Verify(compute.Proof{Method: compute.TEEAttestation, Recipe: testRecipe(), TEEAttestation: "opaque-blob"})
	require.True(t, ok)
}

func TestCryptographicProofRequiresSignature(t *testing.T) {
	v := New()
	ok, _ := v.Verify(compute.Proof{Method: compute.CryptographicProof, Recipe: testRecipe()})
	require.False(t, ok)

	ok, _ = v.Verify(compute.Proof{Method: compute.CryptographicProof, Recipe: testRecipe(), Signature: "sig"})
	require.True(t, ok)
}

func TestSpotCheckRequiresRecipeAndAttestation(t *testing.T) {
	v := New()
	ok, _ := v.Verify(compute.Proof{Method: compute.SpotCheck, Recipe: testRecipe()})
	require.False(t, ok)

	ok, reason := v.Verify(compute.Proof{Method: compute.SpotCheck, Recipe: testRecipe(), Attestations: []string{"a1"}})
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestUnrecognizedMethodRejected(t *testing.T) {
	v := New()
	ok, reason := v.Verify(compute.Proof{Method: "bogus", Recipe: testRecipe()})
	require.False(t, ok)
	require.NotEmpty(t, reason)
}
