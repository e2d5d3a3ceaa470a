package randomness

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"lukechampine.com/blake3"

	"github.com/cemleme/GRB-contracts/native/common"
)

// ErrUnavailable is returned when a provider cannot produce a value.
var ErrUnavailable = fmt.Errorf("randomness: %w", common.ErrProviderUnavailable)

// Provider yields one uniformly distributed 64-bit value per call. Callers
// draw at most once per action and never retry.
type Provider interface {
	RequestRandom() (uint64, error)
}

// ProviderFunc adapts a plain function into a Provider.
type ProviderFunc func() (uint64, error)

// RequestRandom implements Provider.
func (f ProviderFunc) RequestRandom() (uint64, error) { return f() }

// Draw requests one value and normalises provider failures onto
// ErrProviderUnavailable.
func Draw(p Provider) (uint64, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: provider not configured", ErrUnavailable)
	}
	value, err := p.RequestRandom()
	if err != nil {
		if errors.Is(err, common.ErrProviderUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// Cursor is a provider whose stream position can be stored and restored, so
// a restarted process continues the stream instead of replaying it.
type Cursor interface {
	Provider
	Draws() uint64
	Seek(position uint64)
}

// HashChain derives a reproducible stream from a seed: every draw hashes the
// seed together with a counter.
type HashChain struct {
	mu      sync.Mutex
	seed    [32]byte
	counter uint64
}

// NewHashChain seeds a chain. Identical seeds yield identical streams.
func NewHashChain(seed []byte) *HashChain {
	return &HashChain{seed: blake3.Sum256(seed)}
}

// RequestRandom implements Provider.
func (h *HashChain) RequestRandom() (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var buf [40]byte
	copy(buf[:32], h.seed[:])
	binary.BigEndian.PutUint64(buf[32:], h.counter)
	h.counter++
	sum := blake3.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8]), nil
}

// Draws reports how many values the chain produced.
func (h *HashChain) Draws() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counter
}

// Seek moves the chain to position; the next draw is the one a fresh chain
// would yield after position draws.
func (h *HashChain) Seek(position uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counter = position
}

// Entropy reads from the operating system CSPRNG.
type Entropy struct{}

// RequestRandom implements Provider.
func (Entropy) RequestRandom() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Sequence replays fixed values in order and fails once exhausted. It counts
// every request, which lets tests assert the one-draw-per-action rule.
type Sequence struct {
	mu     sync.Mutex
	values []uint64
	calls  int
}

// NewSequence returns a provider yielding values in order.
func NewSequence(values ...uint64) *Sequence {
	return &Sequence{values: append([]uint64(nil), values...)}
}

// RequestRandom implements Provider.
func (s *Sequence) RequestRandom() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.values) == 0 {
		return 0, fmt.Errorf("%w: sequence exhausted", ErrUnavailable)
	}
	value := s.values[0]
	s.values = s.values[1:]
	return value, nil
}

// Calls reports how many requests were made.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Failing always reports the provider as unavailable.
type Failing struct{}

// RequestRandom implements Provider.
func (Failing) RequestRandom() (uint64, error) {
	return 0, fmt.Errorf("%w: provider offline", ErrUnavailable)
}
