package events

import "time"

// SchemaGenerated is published after a descriptor is assembled into a schema.
type SchemaGenerated struct {
	DomainID  string
	TypeCount int
	Duration  time.Duration
	At        time.Time
}

// ActionDispatch is published when a domain action mutation starts executing.
type ActionDispatch struct {
	RequestID string
	DomainID  string
	ActionID  string
	At        time.Time
}

// ActionResult is published when a domain action mutation finishes.
type ActionResult struct {
	RequestID   string
	DomainID    string
	ActionID    string
	Success     bool
	EffectCount int
	ErrorCount  int
	At          time.Time
}

// FieldWrite is published when a setField mutation is applied.
type FieldWrite struct {
	RequestID string
	DomainID  string
	Path      string
	At        time.Time
}
