// Package gateway enforces the two-phase prepare/confirm protocol
// for actions with external side effects: sending email, sharing
// files and creating calendar events.
//
// Prepare resolves contact references to concrete email addresses,
// stages the fully resolved parameters and returns a human-readable
// preview with a confirmation token. Nothing is sent at this point.
// Confirm re-presents the token and parameters; the action executes
// only when both match what was staged. The staged slot is cleared
// before the upstream call so a confirmation fires at most once.
//
// Ambiguous or unknown contact references fail the prepare step as a
// whole; the gateway never guesses a recipient.
package gateway
