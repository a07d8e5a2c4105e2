package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/scenekit/internal/ir"
)

// BatchEntry is one row of the batch log.
type BatchEntry struct {
	Scene       string          `json:"scene"`
	Seq         int64           `json:"seq"`
	Kind        string          `json:"kind"`
	Fingerprint string          `json:"fingerprint"`
	Payload     json.RawMessage `json:"payload"`
	Results     json.RawMessage `json:"results"`
}

// SaveScene stores the snapshot for name at seq. Returns whether the stored
// elements changed; an unchanged fingerprint only advances seq.
func (s *Store) SaveScene(ctx context.Context, name string, scene ir.Scene, seq int64) (bool, error) {
	changed, err := saveScene(ctx, s.db, name, scene, seq)
	if err != nil {
		return false, fmt.Errorf("save scene %q: %w", name, err)
	}
	return changed, nil
}

func saveScene(ctx context.Context, q querier, name string, scene ir.Scene, seq int64) (bool, error) {
	if name == "" {
		return false, errors.New("scene name is required")
	}
	if scene == nil {
		scene = ir.Scene{}
	}
	fp, err := ir.Fingerprint(scene)
	if err != nil {
		return false, err
	}

	var stored string
	err = q.QueryRowContext(ctx, `SELECT fingerprint FROM scenes WHERE name = ?`, name).Scan(&stored)
	switch {
	case err == nil && stored == fp:
		_, err = q.ExecContext(ctx, `UPDATE scenes SET seq = MAX(seq, ?) WHERE name = ?`, seq, name)
		return false, err
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, err
	}

	elements, err := marshalScene(scene)
	if err != nil {
		return false, err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO scenes (name, elements, fingerprint, seq, schema_version, engine_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			elements = excluded.elements,
			fingerprint = excluded.fingerprint,
			seq = MAX(scenes.seq, excluded.seq),
			schema_version = excluded.schema_version,
			engine_version = excluded.engine_version
	`,
		name,
		elements,
		fp,
		seq,
		ir.SchemaVersion,
		ir.EngineVersion,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// AppendBatch inserts a batch log entry. Uses ON CONFLICT(scene, seq) DO
// NOTHING for idempotency; reports whether a row was inserted. The scene row
// must exist (foreign key constraint).
func (s *Store) AppendBatch(ctx context.Context, entry BatchEntry) (bool, error) {
	inserted, err := appendBatch(ctx, s.db, entry)
	if err != nil {
		return false, fmt.Errorf("append batch: %w", err)
	}
	return inserted, nil
}

func appendBatch(ctx context.Context, q querier, entry BatchEntry) (bool, error) {
	if entry.Kind == "" {
		return false, errors.New("batch kind is required")
	}
	payload := rawOrNull(entry.Payload)
	results := rawOrNull(entry.Results)
	fp := entry.Fingerprint
	if fp == "" {
		var err error
		if fp, err = ir.BatchFingerprint(json.RawMessage(payload)); err != nil {
			return false, err
		}
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO batches (scene, seq, kind, fingerprint, payload, results)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scene, seq) DO NOTHING
	`,
		entry.Scene,
		entry.Seq,
		entry.Kind,
		fp,
		payload,
		results,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Commit saves the scene snapshot and appends its batch entry in one
// transaction.
func (s *Store) Commit(ctx context.Context, scene ir.Scene, entry BatchEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := saveScene(ctx, tx, entry.Scene, scene, entry.Seq); err != nil {
		return fmt.Errorf("commit: save scene %q: %w", entry.Scene, err)
	}
	if _, err := appendBatch(ctx, tx, entry); err != nil {
		return fmt.Errorf("commit: append batch %d: %w", entry.Seq, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func rawOrNull(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
