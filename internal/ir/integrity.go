package ir

import "fmt"

// Tombstone marks the given ids deleted and prunes every weak reference to
// them in the same pass. Returns the new scene and the ids actually
// tombstoned, in order (unknown or already deleted ids are ignored).
//
// Cascades and pruning:
//   - bound text is deleted together with its container
//   - boundElements entries pointing at a deleted id are removed
//   - connector bindings to a deleted anchor are cleared; the connector
//     itself is kept
//   - frameId pointing at a deleted frame is cleared
//
// Every touched element is bumped exactly once.
func Tombstone(s Scene, f *Factory, ids ...string) (Scene, []string) {
	out := s.Clone()
	idx := out.Index()
	doomed := make(map[string]bool)
	var order []string

	var mark func(id string)
	mark = func(id string) {
		i, ok := idx[id]
		if !ok || out[i].IsDeleted || doomed[id] {
			return
		}
		doomed[id] = true
		order = append(order, id)
		for _, b := range out[i].BoundElements {
			if b.Type != KindText {
				continue
			}
			if j, ok := idx[b.ID]; ok && out[j].ContainerID == id {
				mark(b.ID)
			}
		}
	}
	for _, id := range ids {
		mark(id)
	}
	// Text that names a doomed container without being listed by it.
	for _, e := range out {
		if !e.IsDeleted && e.ContainerID != "" && doomed[e.ContainerID] {
			mark(e.ID)
		}
	}
	if len(order) == 0 {
		return out, nil
	}

	touched := make([]bool, len(out))
	for _, id := range order {
		i := idx[id]
		out[i].IsDeleted = true
		touched[i] = true
	}
	for i := range out {
		e := &out[i]
		if doomed[e.ID] {
			continue
		}
		if pruneBound(e, func(b BoundElement) bool { return !doomed[b.ID] }) {
			touched[i] = true
		}
		if e.StartBinding != nil && doomed[e.StartBinding.ElementID] {
			e.StartBinding = nil
			touched[i] = true
		}
		if e.EndBinding != nil && doomed[e.EndBinding.ElementID] {
			e.EndBinding = nil
			touched[i] = true
		}
		if e.FrameID != "" && doomed[e.FrameID] {
			e.FrameID = ""
			touched[i] = true
		}
	}
	for i := range out {
		if touched[i] {
			f.Bump(&out[i])
		}
	}
	return out, order
}

// pruneBound filters e.BoundElements in place. Reports whether anything was
// removed.
func pruneBound(e *Element, keep func(BoundElement) bool) bool {
	if len(e.BoundElements) == 0 {
		return false
	}
	kept := make([]BoundElement, 0, len(e.BoundElements))
	for _, b := range e.BoundElements {
		if keep(b) {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(e.BoundElements) {
		return false
	}
	e.BoundElements = kept
	return true
}

// Repair restores reference integrity on a scene assembled from untrusted
// parts. Dangling references are cleared and missing reciprocal entries are
// added; every touched element is bumped once.
func Repair(s Scene, f *Factory) Scene {
	out := s.Clone()
	idx := out.Index()
	touched := make([]bool, len(out))

	live := func(id string) (int, bool) {
		i, ok := idx[id]
		if !ok || out[i].IsDeleted {
			return 0, false
		}
		return i, true
	}
	addBound := func(owner int, ref BoundElement) {
		if !out[owner].HasBound(ref.ID) {
			out[owner].BoundElements = append(out[owner].BoundElements, ref)
			touched[owner] = true
		}
	}

	for i := range out {
		e := &out[i]
		if e.IsDeleted {
			continue
		}
		if e.ContainerID != "" {
			if c, ok := live(e.ContainerID); ok && c != i {
				addBound(c, BoundElement{ID: e.ID, Type: KindText})
			} else {
				e.ContainerID = ""
				touched[i] = true
			}
		}
		for _, end := range []**Binding{&e.StartBinding, &e.EndBinding} {
			if *end == nil {
				continue
			}
			if a, ok := live((*end).ElementID); ok && a != i {
				addBound(a, BoundElement{ID: e.ID, Type: e.Type})
			} else {
				*end = nil
				touched[i] = true
			}
		}
		if e.FrameID != "" {
			if fr, ok := live(e.FrameID); !ok || out[fr].Type != KindFrame {
				e.FrameID = ""
				touched[i] = true
			}
		}
	}

	// Second pass: drop boundElements entries that are not reciprocated.
	for i := range out {
		e := &out[i]
		if e.IsDeleted {
			continue
		}
		owner := e.ID
		if pruneBound(e, func(b BoundElement) bool {
			j, ok := live(b.ID)
			if !ok {
				return false
			}
			t := out[j]
			if b.Type == KindText {
				return t.ContainerID == owner
			}
			return (t.StartBinding != nil && t.StartBinding.ElementID == owner) ||
				(t.EndBinding != nil && t.EndBinding.ElementID == owner)
		}) {
			touched[i] = true
		}
	}

	for i := range out {
		if touched[i] {
			f.Bump(&out[i])
		}
	}
	return out
}

// ValidationError represents an invariant violation with an element path
// and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CheckInvariants verifies the structural invariants of a scene.
// Returns all violations (not fail-fast) for better diagnostics.
func CheckInvariants(s Scene) []ValidationError {
	var errs []ValidationError
	idx := make(map[string]int, len(s))
	for i, e := range s {
		if e.ID == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("elements[%d].id", i),
				Message: "id is required",
			})
			continue
		}
		if _, dup := idx[e.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("elements[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q", e.ID),
			})
			continue
		}
		idx[e.ID] = i
	}

	live := func(id string) (Element, bool) {
		i, ok := idx[id]
		if !ok || s[i].IsDeleted {
			return Element{}, false
		}
		return s[i], true
	}

	for _, e := range s {
		if e.IsDeleted {
			continue
		}
		if e.Version < 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.version", e.ID),
				Message: "version must be at least 1",
			})
		}
		if e.ContainerID != "" {
			c, ok := live(e.ContainerID)
			switch {
			case !ok:
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.containerId", e.ID),
					Message: fmt.Sprintf("container %q is missing or deleted", e.ContainerID),
				})
			case !c.HasBound(e.ID):
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.containerId", e.ID),
					Message: fmt.Sprintf("container %q does not list this text", e.ContainerID),
				})
			}
		}
		ends := []struct {
			name string
			b    *Binding
		}{{"startBinding", e.StartBinding}, {"endBinding", e.EndBinding}}
		for _, end := range ends {
			if end.b == nil {
				continue
			}
			if _, ok := live(end.b.ElementID); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.%s", e.ID, end.name),
					Message: fmt.Sprintf("anchor %q is missing or deleted", end.b.ElementID),
				})
			}
		}
		for _, b := range e.BoundElements {
			if _, ok := live(b.ID); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.boundElements", e.ID),
					Message: fmt.Sprintf("bound element %q is missing or deleted", b.ID),
				})
			}
		}
	}
	return errs
}
