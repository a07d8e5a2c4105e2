package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/scenekit/internal/ir"
)

// ErrSceneNotFound is returned by LoadScene for unknown names.
var ErrSceneNotFound = errors.New("scene not found")

// SceneInfo summarises a stored scene.
type SceneInfo struct {
	Name          string `json:"name"`
	Fingerprint   string `json:"fingerprint"`
	Seq           int64  `json:"seq"`
	SchemaVersion string `json:"schemaVersion"`
	EngineVersion string `json:"engineVersion"`
}

// LoadScene returns the stored snapshot for name and the seq of the job that
// produced it.
func (s *Store) LoadScene(ctx context.Context, name string) (ir.Scene, int64, error) {
	var (
		elements string
		seq      int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT elements, seq FROM scenes WHERE name = ?`, name).
		Scan(&elements, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("load scene %q: %w", name, ErrSceneNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load scene %q: %w", name, err)
	}
	scene, err := unmarshalScene(elements)
	if err != nil {
		return nil, 0, fmt.Errorf("load scene %q: %w", name, err)
	}
	return scene, seq, nil
}

// LoadOrEmpty is LoadScene that treats a missing scene as empty at seq 0.
func (s *Store) LoadOrEmpty(ctx context.Context, name string) (ir.Scene, int64, error) {
	scene, seq, err := s.LoadScene(ctx, name)
	if errors.Is(err, ErrSceneNotFound) {
		return ir.Scene{}, 0, nil
	}
	return scene, seq, err
}

// ListScenes returns every stored scene, ordered by name.
func (s *Store) ListScenes(ctx context.Context) ([]SceneInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, fingerprint, seq, schema_version, engine_version
		FROM scenes
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	infos := []SceneInfo{}
	for rows.Next() {
		var info SceneInfo
		if err := rows.Scan(&info.Name, &info.Fingerprint, &info.Seq, &info.SchemaVersion, &info.EngineVersion); err != nil {
			return nil, fmt.Errorf("list scenes: scan: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	return infos, nil
}

// ReadBatches returns the batch log for scene with seq > after, ordered by
// seq.
func (s *Store) ReadBatches(ctx context.Context, scene string, after int64) ([]BatchEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scene, seq, kind, fingerprint, payload, results
		FROM batches
		WHERE scene = ? AND seq > ?
		ORDER BY seq ASC
	`, scene, after)
	if err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	defer rows.Close()

	entries := []BatchEntry{}
	for rows.Next() {
		var (
			e                BatchEntry
			payload, results string
		)
		if err := rows.Scan(&e.Scene, &e.Seq, &e.Kind, &e.Fingerprint, &payload, &results); err != nil {
			return nil, fmt.Errorf("read batches: scan: %w", err)
		}
		e.Payload = []byte(payload)
		e.Results = []byte(results)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	return entries, nil
}

// LastSeq returns the highest seq recorded for scene (0 when none), for
// resuming the engine clock.
func (s *Store) LastSeq(ctx context.Context, scene string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(m) FROM (
			SELECT MAX(seq) AS m FROM batches WHERE scene = ?
			UNION ALL
			SELECT seq AS m FROM scenes WHERE name = ?
		)
	`, scene, scene).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
