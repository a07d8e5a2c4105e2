// Package reconcile merges externally supplied batches into the
// authoritative scene.
//
// The producer of a batch is untrusted and best-effort: unrecognizable items
// are skipped, never fatal, and the output is always the complete merged
// scene rather than a diff.
package reconcile

import (
	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/synth"
)

// Result is the outcome of one reconciliation.
type Result struct {
	// Scene is the complete merged scene.
	Scene ir.Scene `json:"-"`

	CreatedIDs []string `json:"createdIds"`
	UpdatedIDs []string `json:"updatedIds"`
	DeletedIDs []string `json:"deletedIds"`

	// Skipped counts items that could not be used.
	Skipped int `json:"skipped"`
}

// Reconciler merges batches using a Synthesizer for descriptions and
// partial elements.
type Reconciler struct {
	synth   *synth.Synthesizer
	factory *ir.Factory
	logger  *zap.Logger
}

// New creates a Reconciler. A nil logger is replaced with a no-op.
func New(s *synth.Synthesizer, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{synth: s, factory: s.Factory(), logger: logger}
}

// Reconcile merges batch into scene. Items are applied in order against the
// evolving scene, then delete ids are tombstoned and references repaired,
// all in the same pass. scene itself is not modified.
//
// Classification:
//   - description items always create fresh ids; pre-existing elements they
//     touch (connector endpoints) count as updated
//   - full elements keep their id; they are updates when the id already
//     exists, creations otherwise
//   - elements changed only as a side effect of deletion or repair count as
//     updated
func (r *Reconciler) Reconcile(scene ir.Scene, batch ir.Batch) Result {
	var (
		work    = scene.Clone()
		created = newOrderedSet()
		updated = newOrderedSet()
		skipped int
	)

	for i, item := range batch.Elements {
		switch {
		case item.Element != nil:
			e, err := r.synth.CompletePresent(work, *item.Element, item.Present)
			if err != nil {
				skipped++
				r.logger.Debug("batch item skipped", zap.Int("index", i), zap.Error(err))
				continue
			}
			if prev, ok := work.Find(e.ID); ok {
				r.supersede(&e, prev)
				if !created.has(e.ID) {
					updated.add(e.ID)
				}
			} else {
				created.add(e.ID)
			}
			work = work.Upsert(e)

		case item.Description != nil:
			res, err := r.synth.Synthesize(work, *item.Description)
			if err != nil {
				skipped++
				r.logger.Debug("batch item skipped", zap.Int("index", i), zap.Error(err))
				continue
			}
			work = res.Apply(work)
			created.add(res.Created...)
			for _, id := range res.Updated {
				if !created.has(id) {
					updated.add(id)
				}
			}

		default:
			skipped++
			r.logger.Debug("batch item skipped", zap.Int("index", i), zap.String("reason", item.Invalid))
		}
	}

	before := work
	work, deleted := ir.Tombstone(work, r.factory, batch.DeleteIDs...)
	work = ir.Repair(work, r.factory)
	if deleted == nil {
		deleted = []string{}
	}
	deletedSet := newOrderedSet()
	deletedSet.add(deleted...)
	for _, id := range bumped(before, work) {
		if !created.has(id) && !deletedSet.has(id) {
			updated.add(id)
		}
	}

	res := Result{
		Scene:      work,
		CreatedIDs: created.items,
		UpdatedIDs: updated.without(deletedSet),
		DeletedIDs: deleted,
		Skipped:    skipped,
	}
	r.logger.Info("batch reconciled",
		zap.Int("created", len(res.CreatedIDs)),
		zap.Int("updated", len(res.UpdatedIDs)),
		zap.Int("deleted", len(res.DeletedIDs)),
		zap.Int("skipped", skipped))
	return res
}

// supersede makes e a valid successor of prev: its version moves past
// prev's, its nonce changes, and a tombstone stays a tombstone.
func (r *Reconciler) supersede(e *ir.Element, prev ir.Element) {
	e.Version = max(e.Version, prev.Version+1)
	nonce := r.factory.Nonces.Nonce()
	for nonce == prev.VersionNonce {
		nonce = r.factory.Nonces.Nonce()
	}
	e.VersionNonce = nonce
	if prev.IsDeleted {
		e.IsDeleted = true
	}
}

// bumped returns ids present in both scenes whose version changed.
func bumped(before, after ir.Scene) []string {
	idx := before.Index()
	var ids []string
	for _, e := range after {
		if i, ok := idx[e.ID]; ok && before[i].Version != e.Version {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// orderedSet keeps first-insertion order.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]bool)}
}

func (s *orderedSet) add(ids ...string) {
	for _, id := range ids {
		if !s.seen[id] {
			s.seen[id] = true
			s.items = append(s.items, id)
		}
	}
}

func (s *orderedSet) has(id string) bool { return s.seen[id] }

func (s *orderedSet) without(other *orderedSet) []string {
	out := make([]string, 0, len(s.items))
	for _, id := range s.items {
		if !other.has(id) {
			out = append(out, id)
		}
	}
	return out
}
