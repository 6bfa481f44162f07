// Package actionlog is the append-only command journal of spec.md §4.7,
// persisted to the ac_actions table of spec.md §6's fixed schema.
// Grounded on the teacher's plain database/sql usage (no ORM, no sqlc
// generation step we could actually run) seen throughout
// packages/server's _test.go files (e.g. internal/migrate/runner_test.go's
// sql.Open("sqlite", ...)); the single-writer guarantee spec.md §5
// requires is a plain sync.Mutex around every write, the same pattern
// the teacher's movable package uses to serialize ordering mutations.
package actionlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/model/maction"
	"github.com/NotCoffee418/power-control-center/pkg/idgen"
)

// Log is the append-only action journal. Writes are serialized through
// writeMu so spec.md §5's "action log is serialized through a single
// writer" holds even if a caller ever issued concurrent Append calls.
type Log struct {
	db      *sql.DB
	writeMu sync.Mutex
}

func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Append inserts rec into ac_actions. Id generation and the insert
// happen under writeMu so two concurrent appends never interleave,
// keeping one tick's entries contiguous even though §5 already demands
// sequential per-tick device processing.
func (l *Log) Append(ctx context.Context, rec maction.ActionRecord) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	id := rec.ID
	if id == "" {
		id = idgen.New()
	}
	_, err := l.db.ExecContext(ctx, `INSERT INTO ac_actions (
		id, action_timestamp, device_identifier, action_type, mode, fan_speed,
		request_temperature, swing, measured_temperature, measured_net_power_watt,
		measured_solar_production_watt, is_human_home, cause_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Timestamp.Unix(), rec.Device, string(rec.ActionType),
		intPtr(rec.Mode), intPtr(rec.FanSpeed), floatPtr(rec.RequestedTemp), intPtr(rec.Swing),
		floatPtr(rec.MeasuredIndoorTemp), intPtr(rec.MeasuredNetPowerW), intPtr(rec.MeasuredSolarW),
		boolPtr(rec.UserHome), rec.CauseID,
	)
	if err != nil {
		return fmt.Errorf("actionlog: append: %w", err)
	}
	return nil
}

// intPtr, floatPtr and boolPtr turn a possibly-nil pointer into the
// interface{} form database/sql expects (NULL for nil), rather than
// relying on a driver's default pointer-dereferencing behavior.
func intPtr(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func boolPtr(p *bool) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullFloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullBoolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}

// List returns up to limit ac_actions rows for device, strictly older
// than before, newest first — spec.md §4.7's "reverse-chronological
// pagination".
func (l *Log) List(ctx context.Context, device string, before time.Time, limit int) ([]maction.ActionRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT
		id, action_timestamp, device_identifier, action_type, mode, fan_speed,
		request_temperature, swing, measured_temperature, measured_net_power_watt,
		measured_solar_production_watt, is_human_home, cause_id
	FROM ac_actions
	WHERE device_identifier = ? AND action_timestamp < ?
	ORDER BY action_timestamp DESC
	LIMIT ?`, device, before.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("actionlog: list: %w", err)
	}
	defer rows.Close()

	var out []maction.ActionRecord
	for rows.Next() {
		var (
			rec                                       maction.ActionRecord
			ts                                        int64
			actionType                                string
			mode, fanSpeed, swing, netPowerW, solarW  sql.NullInt64
			requestedTemp, indoorTemp                 sql.NullFloat64
			userHome                                  sql.NullBool
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Device, &actionType, &mode, &fanSpeed,
			&requestedTemp, &swing, &indoorTemp, &netPowerW,
			&solarW, &userHome, &rec.CauseID); err != nil {
			return nil, fmt.Errorf("actionlog: scan row: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.ActionType = maction.ActionType(actionType)
		rec.Mode = nullIntPtr(mode)
		rec.FanSpeed = nullIntPtr(fanSpeed)
		rec.Swing = nullIntPtr(swing)
		rec.MeasuredNetPowerW = nullIntPtr(netPowerW)
		rec.MeasuredSolarW = nullIntPtr(solarW)
		rec.RequestedTemp = nullFloatPtr(requestedTemp)
		rec.MeasuredIndoorTemp = nullFloatPtr(indoorTemp)
		rec.UserHome = nullBoolPtr(userHome)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actionlog: list: %w", err)
	}
	return out, nil
}

// Diagnostic is an evaluation or compile failure the planner recorded
// for display in the editor/dashboard, kept out of ac_actions per
// spec.md §7: "evaluation errors are not logged as commands; they are
// logged to a separate diagnostic stream".
type Diagnostic struct {
	Timestamp time.Time
	Device    string
	NodeID    string
	Message   string
}

// AppendDiagnostic records an evaluation/compile failure for device.
func (l *Log) AppendDiagnostic(ctx context.Context, d Diagnostic) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, err := l.db.ExecContext(ctx, `INSERT INTO diagnostics (id, ts_unix, device_identifier, node_id, message)
		VALUES (?, ?, ?, ?, ?)`, idgen.New(), d.Timestamp.Unix(), d.Device, d.NodeID, d.Message)
	if err != nil {
		return fmt.Errorf("actionlog: append diagnostic: %w", err)
	}
	return nil
}

// LastDiagnostic returns the most recent diagnostic recorded for device,
// backing the dashboard's "last tick's error per device" view
// (spec.md §7, "User-visible").
func (l *Log) LastDiagnostic(ctx context.Context, device string) (Diagnostic, bool, error) {
	row := l.db.QueryRowContext(ctx, `SELECT ts_unix, device_identifier, node_id, message
		FROM diagnostics WHERE device_identifier = ? ORDER BY ts_unix DESC LIMIT 1`, device)
	var d Diagnostic
	var ts int64
	if err := row.Scan(&ts, &d.Device, &d.NodeID, &d.Message); err != nil {
		if err == sql.ErrNoRows {
			return Diagnostic{}, false, nil
		}
		return Diagnostic{}, false, fmt.Errorf("actionlog: last diagnostic: %w", err)
	}
	d.Timestamp = time.Unix(ts, 0).UTC()
	return d, true, nil
}
