// Package simproof implements the Simulation Proof Verifier: validation of
// a compute job's ReproducibilityProof by method, grounded on the teacher's
// vltcore PFFLivenessProof.Validate/IsExpired pair (field-presence and
// freshness checks gating an otherwise-trusted assertion), generalized from
// one biometric proof shape to the five reproducibility methods the proof
// taxonomy names.
package simproof

import (
	"github.com/sovrn-protocol/sovrn/compute"
)

// MinAttestations is the quorum required for ConsensusExecution.
const MinAttestations = 2

// Verifier implements compute.Verifier.
type Verifier struct{}

// New returns a Simulation Proof Verifier.
func New() *Verifier {
	return &Verifier{}
}

// Verify validates p by its method, returning (accepted, reason-if-not).
// Every method additionally requires a reproduction recipe with non-empty
// lawSet, container, and initialState references.
func (v *Verifier) Verify(p compute.Proof) (bool, string) {
	if p.Recipe.LawSet == "" || p.Recipe.Container == "" || p.Recipe.InitialState == "" {
		return false, "reproduction recipe requires a lawSet, container, and initialState"
	}

	switch p.Method {
	case compute.SelfAttestation:
		if len(p.Attestations) == 0 {
			return false, "self attestation requires at least one attestation"
		}
		return true, ""

	case compute.ConsensusExecution:
		if len(p.Attestations) < MinAttestations {
			return false, "consensus execution requires at least two matching attestations"
		}
		if !singleton(p.FinalStateRefs) {
			return false, "consensus execution requires all attestors to agree on the final state"
		}
		return true, ""

	case compute.TEEAttestation:
		if p.TEEAttestation == "" {
			return false, "TEE attestation requires a TEE attestation object"
		}
		return true, ""

	case compute.CryptographicProof:
		if p.Signature == "" {
			return false, "cryptographic proof requires a proof object"
		}
		return true, ""

	case compute.SpotCheck:
		if len(p.Attestations) == 0 {
			return false, "spot check requires at least one attestation"
		}
		return true, ""

	default:
		return false, "unrecognized proof method"
	}
}

// singleton reports whether refs names exactly one distinct, non-empty
// final state reference — the agreement rule ConsensusExecution requires.
func singleton(refs []string) bool {
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		if r == "" {
			continue
		}
		seen[r] = struct{}{}
	}
	return len(seen) == 1
}
