package ir

// Scene is the full ordered list of elements on the canvas.
//
// A Scene is treated as a value: every mutation pass produces a new Scene
// that fully replaces the previous one. Methods never modify the receiver.
type Scene []Element

// Index maps element ids to their position in the scene.
func (s Scene) Index() map[string]int {
	idx := make(map[string]int, len(s))
	for i, e := range s {
		idx[e.ID] = i
	}
	return idx
}

// Find returns the element with the given id, including tombstones.
func (s Scene) Find(id string) (Element, bool) {
	for _, e := range s {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// FindLive returns the element with the given id if it is not deleted.
func (s Scene) FindLive(id string) (Element, bool) {
	e, ok := s.Find(id)
	if !ok || e.IsDeleted {
		return Element{}, false
	}
	return e, true
}

// Live returns the non-deleted elements in scene order.
func (s Scene) Live() Scene {
	out := make(Scene, 0, len(s))
	for _, e := range s {
		if !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns all element ids in scene order.
func (s Scene) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	if s == nil {
		return nil
	}
	out := make(Scene, len(s))
	for i, e := range s {
		out[i] = e.Clone()
	}
	return out
}

// Upsert merges elements into a copy of the scene by id: existing ids are
// replaced in place (order preserved), new ids are appended in argument
// order. Later duplicates in elems win.
func (s Scene) Upsert(elems ...Element) Scene {
	out := s.Clone()
	idx := out.Index()
	for _, e := range elems {
		if i, ok := idx[e.ID]; ok {
			out[i] = e.Clone()
			continue
		}
		idx[e.ID] = len(out)
		out = append(out, e.Clone())
	}
	return out
}
