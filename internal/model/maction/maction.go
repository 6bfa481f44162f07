// Package maction defines the append-only action-log record persisted to
// the ac_actions table per spec.md §6.
package maction

import "time"

// ActionType is the concrete device call an ActionRecord documents.
type ActionType string

const (
	ActionOn             ActionType = "on"
	ActionOff            ActionType = "off"
	ActionTogglePowerful ActionType = "toggle-powerful"
)

// ActionRecord is one row of the action log: a command that was actually
// issued to a device, together with the measurements and cause that
// motivated it.
type ActionRecord struct {
	ID                  string
	Timestamp           time.Time
	Device              string
	ActionType          ActionType
	Mode                *int
	FanSpeed            *int
	RequestedTemp       *float64
	Swing               *int
	MeasuredIndoorTemp  *float64
	MeasuredNetPowerW   *int
	MeasuredSolarW      *int
	UserHome            *bool
	CauseID             int
}
