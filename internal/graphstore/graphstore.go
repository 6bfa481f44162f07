// Package graphstore loads and saves decision graphs against the
// nodesets and settings tables of spec.md §6. It is the thin persistence
// layer the planner driver needs to find "the active nodeset" — the
// SQLite migration/configuration loader that creates these tables is an
// external collaborator per spec.md §1, so graphstore never creates
// tables: it reads and writes rows of a schema it assumes already exists,
// the same posture
// internal/actionlog and internal/causereasons take. Grounded on
// mgraph.Graph's own Value/Scan pair (internal/model/mgraph/mgraph.go),
// which already knows how to round-trip itself through a single
// node_json column.
package graphstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mgraph"
)

const activeNodesetSettingKey = "active_nodeset"

// Store reads and writes nodesets against the fixed schema of spec.md §6.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ErrNoActiveNodeset is returned by LoadActive when the settings table
// has no active_nodeset row, or it points at a nodeset id that no
// longer exists.
var ErrNoActiveNodeset = fmt.Errorf("graphstore: no active nodeset configured")

// LoadActive resolves the active_nodeset setting and loads that graph.
func (s *Store) LoadActive(ctx context.Context) (*mgraph.Graph, error) {
	var nodesetID string
	err := s.db.QueryRowContext(ctx, `SELECT setting_value FROM settings WHERE setting_key = ?`, activeNodesetSettingKey).Scan(&nodesetID)
	if err == sql.ErrNoRows || nodesetID == "" {
		return nil, ErrNoActiveNodeset
	}
	if err != nil {
		return nil, fmt.Errorf("graphstore: read active_nodeset setting: %w", err)
	}
	return s.Load(ctx, nodesetID)
}

// Load reads one nodeset by id.
func (s *Store) Load(ctx context.Context, id string) (*mgraph.Graph, error) {
	var g mgraph.Graph
	row := s.db.QueryRowContext(ctx, `SELECT node_json FROM nodesets WHERE id = ?`, id)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("graphstore: nodeset %q not found: %w", id, ErrNoActiveNodeset)
		}
		return nil, fmt.Errorf("graphstore: load nodeset %q: %w", id, err)
	}
	if err := g.Scan(raw); err != nil {
		return nil, fmt.Errorf("graphstore: decode nodeset %q: %w", id, err)
	}
	return &g, nil
}

// Save upserts g under its own id. The name column is kept alongside
// the JSON blob so a future nodesets-listing UI never needs to decode
// every blob just to render a picker.
func (s *Store) Save(ctx context.Context, g *mgraph.Graph) error {
	blob, err := g.Value()
	if err != nil {
		return fmt.Errorf("graphstore: encode nodeset %q: %w", g.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO nodesets (id, name, node_json) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, node_json = excluded.node_json`,
		g.ID, g.Name, blob)
	if err != nil {
		return fmt.Errorf("graphstore: save nodeset %q: %w", g.ID, err)
	}
	return nil
}

// SetActive points the active_nodeset setting at id.
func (s *Store) SetActive(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value`,
		activeNodesetSettingKey, id)
	if err != nil {
		return fmt.Errorf("graphstore: set active nodeset: %w", err)
	}
	return nil
}

// UserIsHomeOverride reads the settings.user_is_home_override row: a
// unix timestamp the frontend writes to force "user is home" past what
// presence detection reports, or 0 for "no override" per spec.md §6.
func (s *Store) UserIsHomeOverride(ctx context.Context) (int64, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT setting_value FROM settings WHERE setting_key = 'user_is_home_override'`).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("graphstore: read user_is_home_override: %w", err)
	}
	var ts int64
	if _, err := fmt.Sscanf(v, "%d", &ts); err != nil {
		return 0, fmt.Errorf("graphstore: parse user_is_home_override %q: %w", v, err)
	}
	return ts, nil
}
