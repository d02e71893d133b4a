package contacts

import (
	"fmt"
	"strings"
)

// AmbiguousError reports that a reference matched several contacts
// comparably well. Candidates are ordered best first.
type AmbiguousError struct {
	Ref        string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	var opts []string
	for _, c := range e.Candidates {
		opts = append(opts, fmt.Sprintf("%s <%s>", c.DisplayName, c.Email))
	}
	return fmt.Sprintf("multiple contacts match %q: %s", e.Ref, strings.Join(opts, ", "))
}

// NotFoundError reports that no contact with an email address matched
// a reference.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no contact found matching %q", e.Ref)
}

// BatchError aggregates per-reference failures from ResolveAll. A
// batch fails as a whole; no partial recipient list is ever returned.
type BatchError struct {
	Failures []error
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d recipients could not be resolved: %s",
		len(e.Failures), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	return e.Failures
}
