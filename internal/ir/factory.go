package ir

import (
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces element ids. Ids only need to be collision-free
// within one scene's lifetime.
// Implemented by UUIDGenerator (production) and testutil.SequenceIDs (tests).
type IDGenerator interface {
	NewID() string
}

// NonceSource produces version nonces and seeds. Nonces only signal "this
// object changed" to renderers; they are never used for ordering.
type NonceSource interface {
	Nonce() int64
}

// UUIDGenerator generates time-sortable UUIDv7 element ids.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RandomNonces draws nonces from a private PCG source.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RandomNonces struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomNonces seeds a nonce source from the runtime's random state.
func NewRandomNonces() *RandomNonces {
	return &RandomNonces{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Nonce returns a positive 31-bit nonce.
func (r *RandomNonces) Nonce() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int64N(1<<31-1) + 1
}

// Factory bundles the capabilities needed to create and mutate elements.
// It is passed explicitly to every engine function so tests can supply
// deterministic sources.
type Factory struct {
	IDs    IDGenerator
	Nonces NonceSource
}

// NewFactory returns a production factory (UUIDv7 ids, random nonces).
func NewFactory() *Factory {
	return &Factory{IDs: UUIDGenerator{}, Nonces: NewRandomNonces()}
}

// New returns a version-1 element of the given kind with default style and
// empty reference lists.
func (f *Factory) New(kind ElementKind) Element {
	return Element{
		ID:            f.IDs.NewID(),
		Type:          kind,
		Style:         DefaultStyle,
		GroupIDs:      []string{},
		BoundElements: []BoundElement{},
		Seed:          f.Nonces.Nonce(),
		Version:       1,
		VersionNonce:  f.Nonces.Nonce(),
	}
}

// Touch returns a copy of e with Version+1 and a fresh VersionNonce.
// Every mutation must go through Touch (or Bump) so that version and nonce
// change together.
func (f *Factory) Touch(e Element) Element {
	c := e.Clone()
	f.Bump(&c)
	return c
}

// Bump advances the version of an element the caller already owns.
func (f *Factory) Bump(e *Element) {
	e.Version++
	nonce := f.Nonces.Nonce()
	// A nonce equal to the old one would hide the change from renderers.
	for nonce == e.VersionNonce {
		nonce = f.Nonces.Nonce()
	}
	e.VersionNonce = nonce
}
