package testutil

import "github.com/roach88/scenekit/internal/ir"

// NewFactory returns an element factory with sequential ids ("el-1", ...)
// and counting nonces.
func NewFactory() *ir.Factory {
	return &ir.Factory{IDs: NewSequenceIDs("el"), Nonces: NewCountingNonces()}
}

// Ptr returns a pointer to v. Handy for optional Description/Action fields.
func Ptr[T any](v T) *T {
	return &v
}
