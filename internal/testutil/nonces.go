package testutil

import "sync"

// CountingNonces is a deterministic nonce source for tests.
//
// Nonces are 1, 2, 3, ... so the same scenario produces byte-identical
// scenes across runs. Reset allows the same source to be reused.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingNonces struct {
	mu   sync.Mutex
	next int64
}

// NewCountingNonces creates a source whose first nonce is 1.
func NewCountingNonces() *CountingNonces {
	return &CountingNonces{}
}

// Nonce increments and returns the next nonce.
func (c *CountingNonces) Nonce() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

// Current returns the last nonce handed out without incrementing.
func (c *CountingNonces) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset restarts the sequence. After Reset, the next Nonce is 1.
func (c *CountingNonces) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = 0
}
