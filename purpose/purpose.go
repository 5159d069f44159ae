// Package purpose implements the Purpose Registry: purpose channels, their
// conversion discounts, and their recipient whitelists (spec §3, §6).
package purpose

import (
	"sync"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/sovrn-protocol/sovrn/ledgerid"
)

// Channel is a purpose tag with an optional recipient whitelist and a
// conversion discount charged when the purpose is removed from a unit.
type Channel struct {
	ID                 string
	Name               string
	Description        string
	ConversionDiscount float64 // in [0, 1]
	CreatedAt          int64

	recipients map[string]struct{}
}

// HasRecipient reports whether walletID is registered to receive this
// purpose's units.
func (c *Channel) HasRecipient(walletID string) bool {
	_, ok := c.recipients[walletID]
	return ok
}

// Registry is the Purpose Registry.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// StandardChannel names and discounts pre-registered by spec §6.
type StandardChannel struct {
	Name               string
	ConversionDiscount float64
}

// StandardChannels lists the channels the registry pre-registers on New.
var StandardChannels = []StandardChannel{
	{"health", 0.03},
	{"education", 0.03},
	{"carbon-negative", 0.05},
	{"creator", 0.02},
	{"local-business", 0.03},
	{"food", 0.02},
	{"housing", 0.04},
	{"charity", 0.01},
}

// New returns a Purpose Registry pre-loaded with the standard purposes.
func New(now int64) *Registry {
	r := &Registry{channels: make(map[string]*Channel)}
	for _, sc := range StandardChannels {
		_, _ = r.Create(sc.Name, "", sc.ConversionDiscount, now)
	}
	return r
}

// Create registers a new purpose channel. discount defaults to 0.03 when
// negative is passed as a sentinel by callers that want the spec default;
// a discount above 1 fails.
func (r *Registry) Create(name, description string, discount float64, now int64) (*Channel, error) {
	if discount < 0 {
		discount = 0.03
	}
	if discount > 1 {
		return nil, ledgererr.New(ledgererr.ConversionInvalid, "purpose.Create", "conversion discount must be in [0, 1]")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Channel{
		ID:                 ledgerid.New(),
		Name:               name,
		Description:        description,
		ConversionDiscount: discount,
		CreatedAt:          now,
		recipients:         make(map[string]struct{}),
	}
	r.channels[c.ID] = c
	return c, nil
}

// Get returns the channel with the given id, or PurposeNotFound.
func (r *Registry) Get(id string) (*Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.channels[id]
	if !ok {
		return nil, ledgererr.New(ledgererr.PurposeNotFound, "purpose.Get", id)
	}
	return c, nil
}

// Exists reports whether id resolves in the registry.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[id]
	return ok
}

// All returns every registered purpose channel.
func (r *Registry) All() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Channel, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c)
	}
	return out
}

// RegisterRecipient whitelists walletID to receive units tagged with purpose id.
func (r *Registry) RegisterRecipient(id, walletID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.channels[id]
	if !ok {
		return ledgererr.New(ledgererr.PurposeNotFound, "purpose.RegisterRecipient", id)
	}
	c.recipients[walletID] = struct{}{}
	return nil
}

// CanReceive reports whether walletID is registered for purpose id. An
// unrestricted purpose (no recipients registered at all) is not a rule this
// registry enforces implicitly: gating is the caller's (ledger's) job,
// decided per purpose tag on the unit.
func (r *Registry) CanReceive(id, walletID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.channels[id]
	if !ok {
		return false, ledgererr.New(ledgererr.PurposeNotFound, "purpose.CanReceive", id)
	}
	return c.HasRecipient(walletID), nil
}

// ConversionDiscount returns the discount rate for a purpose, or an error if
// unknown.
func (r *Registry) ConversionDiscount(id string) (float64, error) {
	c, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return c.ConversionDiscount, nil
}
