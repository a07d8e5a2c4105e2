package engine

import (
	"sync"

	"github.com/roach88/scenekit/internal/ir"
)

// SceneAccessor is the authoritative scene seen by the engine. Reads and
// writes are always whole-scene; there is no incremental patching.
type SceneAccessor interface {
	Elements() ir.Scene
	ReplaceElements(ir.Scene)
}

// MemoryScene is an in-process SceneAccessor.
//
// Thread-safety: safe for concurrent use. Elements returns a copy, so
// callers may freely modify what they read.
type MemoryScene struct {
	mu    sync.RWMutex
	scene ir.Scene
}

// NewMemoryScene creates an accessor holding a copy of initial.
func NewMemoryScene(initial ir.Scene) *MemoryScene {
	return &MemoryScene{scene: initial.Clone()}
}

// Elements returns a copy of the current scene.
func (m *MemoryScene) Elements() ir.Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scene.Clone()
}

// ReplaceElements replaces the scene with a copy of s.
func (m *MemoryScene) ReplaceElements(s ir.Scene) {
	c := s.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scene = c
}
