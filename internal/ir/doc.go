// Package ir provides the element model shared by every scenekit package.
//
// This package contains the diagram graph types (Element, Scene), the
// untrusted inputs that feed the engine (Description, BatchItem, Action) and
// the structural invariants that must hold after every mutation pass.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - A Scene is always replaced wholesale, never patched
//   - Elements are never removed, only tombstoned (IsDeleted)
//   - Every field change bumps Version and regenerates VersionNonce
//   - Cross-element links (boundElements, containerId, bindings, frameId)
//     are weak references by id, resolved against the Scene at read time
//   - Ids and nonces come from an explicit Factory, never from package state
//   - All JSON tags use the canvas wire format (camelCase)
package ir
