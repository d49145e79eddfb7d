// Package events defines the process events published on the eventbus.
package events

import "time"

// GraphQLStart is published when GraphQL execution begins.
type GraphQLStart struct {
	RequestID     string
	OperationName string
	Query         string
	At            time.Time
}

// GraphQLFinish is published when GraphQL execution completes.
type GraphQLFinish struct {
	RequestID  string
	ErrorCount int
	At         time.Time
}
