// Package community implements the Community Registry: community records
// and their boundary (exit) fees, grounded on the teacher's params-struct
// pattern (x/mint/types.Params) adapted from a single global param set to a
// per-record registry.
package community

import (
	"sync"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/ledgerid"
)

// Community is a named membership boundary with an exit fee.
type Community struct {
	ID          string
	Name        string
	CreatedAt   int64
	BoundaryFee float64 // in [0, 1]
	MemberCount int
}

// Registry is the Community Registry: a concurrency-safe map of communities.
type Registry struct {
	mu         sync.RWMutex
	communities map[string]*Community
}

// New returns an empty Community Registry.
func New() *Registry {
	return &Registry{communities: make(map[string]*Community)}
}

// Create registers a new community with the given name and boundary fee.
// Fails if boundaryFee is outside [0, 1].
func (r *Registry) Create(name string, boundaryFee float64, now int64) (*Community, error) {
	if boundaryFee < 0 || boundaryFee > 1 {
		return nil, ledgererr.New(ledgererr.ConversionInvalid, "community.Create", "boundary fee must be in [0, 1]")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Community{
		ID:          ledgerid.New(),
		Name:        name,
		CreatedAt:   now,
		BoundaryFee: boundaryFee,
	}
	r.communities[c.ID] = c
	return c, nil
}

// Get returns the community with the given id, or CommunityNotFound.
func (r *Registry) Get(id string) (*Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.communities[id]
	if !ok {
		return nil, ledgererr.New(ledgererr.CommunityNotFound, "community.Get", id)
	}
	return c, nil
}

// Exists reports whether id resolves in the registry.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.communities[id]
	return ok
}

// All returns every registered community.
func (r *Registry) All() []*Community {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Community, 0, len(r.communities))
	for _, c := range r.communities {
		out = append(out, c)
	}
	return out
}

// IncrementMembers bumps the member count for id by delta (may be negative).
func (r *Registry) IncrementMembers(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.communities[id]
	if !ok {
		return ledgererr.New(ledgererr.CommunityNotFound, "community.IncrementMembers", id)
	}
	c.MemberCount += delta
	if c.MemberCount < 0 {
		c.MemberCount = 0
	}
	return nil
}

// BoundaryFee returns the boundary fee for a community, or an error if
// unknown.
func (r *Registry) BoundaryFee(id string) (float64, error) {
	c, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return c.BoundaryFee, nil
}
