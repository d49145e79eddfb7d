package events

import "time"

// HTTPStart is published when an HTTP request begins.
type HTTPStart struct {
	RequestID string
	Method    string
	Path      string
	At        time.Time
}

// HTTPFinish is published when an HTTP request completes.
type HTTPFinish struct {
	RequestID string
	Status    int
	At        time.Time
}
