// Package pending holds the single staged operation awaiting user
// confirmation.
//
// The store is a one-slot buffer: preparing a new operation replaces
// whatever was staged before, so only the most recent preview can be
// confirmed. Each staged operation carries an unguessable token that
// the confirm call must present. An optional TTL expires stale
// operations.
package pending
