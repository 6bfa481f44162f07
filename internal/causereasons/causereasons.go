// Package causereasons is the cause-reasons registry of spec.md §4.8: a
// fixed set of system reasons seeded from code plus user-authored rows
// loaded from the cause_reasons table, kept behind a read-write lock so
// the (rare) write path can broadcast a change to every observer holding
// a compiled program. Grounded on the teacher's
// packages/server/internal/migrate (sql.Open("sqlite", ...) + plain
// database/sql queries, no ORM) for the persistence half, and on
// internal/nodeset.Registry's own "process-wide, populated once,
// effectively immutable except for one reload path" shape for the
// in-memory half.
package causereasons

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/NotCoffee418/power-control-center/internal/model/mcause"
)

// Seed is the fixed set of system reasons, ids 0-7, per spec.md §4.8 and
// SPEC_FULL.md §15 ("the prior implementation's CauseReason enum...
// id 7 is spec.md's own addition"). Ids are preserved across upgrades;
// labels/descriptions for 0-6 carry the prior implementation's wording
// near-verbatim since it is domain fact, not teacher-authored prose.
var Seed = []mcause.CauseReason{
	{ID: mcause.Undefined, Label: "Undefined", Description: "No SetPlan node fired during evaluation."},
	{ID: mcause.IceException, Label: "Ice Exception", Description: "Outdoor temperature low enough that cooling risks icing the unit."},
	{ID: mcause.PirDetection, Label: "PIR Detection", Description: "Motion detected; device forced off for the lockout window."},
	{ID: mcause.NobodyHome, Label: "Nobody Home", Description: "No occupant present; conditioning suspended."},
	{ID: mcause.MildTemperature, Label: "Mild Temperature", Description: "Indoor temperature already within the comfortable band."},
	{ID: mcause.MajorTemperatureChangePending, Label: "Major Temperature Change Pending", Description: "A large forecast swing is about to arrive; pre-empting it."},
	{ID: mcause.ExcessiveSolarPower, Label: "Excessive Solar Power", Description: "Solar production exceeds household draw; using the surplus for aggressive cooling."},
	{ID: mcause.ManualToAuto, Label: "Manual To Auto", Description: "Device just transitioned from manual to automatic control; full state resent."},
}

// Registry holds every known cause reason, keyed by id, and notifies
// registered observers when user-authored rows change.
type Registry struct {
	db *sql.DB

	mu        sync.RWMutex
	byID      map[int]mcause.CauseReason
	observers []func()
}

// New seeds the fixed system reasons and wraps db for user-reason
// persistence. Call Reload to populate user reasons from the
// cause_reasons table before serving traffic.
func New(db *sql.DB) *Registry {
	r := &Registry{db: db, byID: make(map[int]mcause.CauseReason, len(Seed))}
	for _, s := range Seed {
		r.byID[s.ID] = s
	}
	return r
}

// OnChange registers fn to be called after every successful Reload,
// satisfying spec.md §4.8's "triggers a broadcast so open editors
// refresh and any in-memory compiled programs are invalidated".
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Get looks up a cause reason by id, system or user-authored.
func (r *Registry) Get(id int) (mcause.CauseReason, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// Visible returns every non-hidden reason, ordered by id, for the
// editor's dropdown — spec.md §4.8: "hidden reasons are omitted from the
// dropdown but remain valid for historical records".
func (r *Registry) Visible() []mcause.CauseReason {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcause.CauseReason, 0, len(r.byID))
	for _, c := range r.byID {
		if !c.IsHidden {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reload re-reads user-authored reasons (id >= mcause.UserIDFloor) from
// the cause_reasons table and replaces them in the in-memory map, then
// fires every registered observer. System reasons are never touched by
// a reload: spec.md §4.8 "System ids are preserved across upgrades".
func (r *Registry) Reload(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, label, description, is_hidden, is_editable FROM cause_reasons WHERE id >= ?`, mcause.UserIDFloor)
	if err != nil {
		return fmt.Errorf("causereasons: reload: %w", err)
	}
	defer rows.Close()

	userReasons := make(map[int]mcause.CauseReason)
	for rows.Next() {
		var c mcause.CauseReason
		if err := rows.Scan(&c.ID, &c.Label, &c.Description, &c.IsHidden, &c.IsEditable); err != nil {
			return fmt.Errorf("causereasons: scan row: %w", err)
		}
		userReasons[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("causereasons: reload: %w", err)
	}

	r.mu.Lock()
	for id := range r.byID {
		if mcause.IsSystem(id) {
			continue
		}
		delete(r.byID, id)
	}
	for id, c := range userReasons {
		r.byID[id] = c
	}
	observers := append([]func(){}, r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
	return nil
}

// Create inserts a new user-authored reason (id >= mcause.UserIDFloor,
// allocated by the caller's migration/config loader — out of scope here
// per spec.md §1) and reloads the in-memory map so the broadcast fires.
func (r *Registry) Create(ctx context.Context, c mcause.CauseReason) error {
	if mcause.IsSystem(c.ID) {
		return fmt.Errorf("causereasons: cannot create with system id %d", c.ID)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO cause_reasons (id, label, description, is_hidden, is_editable) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Label, c.Description, c.IsHidden, true,
	); err != nil {
		return fmt.Errorf("causereasons: create: %w", err)
	}
	return r.Reload(ctx)
}
