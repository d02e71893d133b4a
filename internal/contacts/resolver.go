package contacts

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Directory is the candidate search the resolver depends on. Client
// satisfies it.
type Directory interface {
	SearchAll(ctx context.Context, query string, limit int) ([]Contact, error)
}

// Resolution tuning. With multiple surviving candidates a reference
// resolves only when the best match clears clearWinnerScore and beats
// the runner-up by at least tieMargin; anything closer is reported as
// ambiguous. A single surviving candidate always resolves.
const (
	clearWinnerScore = 80.0
	tieMargin        = 15.0
	searchLimit      = 10
	maxCandidates    = 3
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsEmailAddress reports whether s already looks like a literal email
// address.
func IsEmailAddress(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Resolver maps free-form contact references to email addresses.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver backed by the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve resolves a single reference. Literal email addresses pass
// through without a directory lookup. A non-nil error means the
// lookup itself failed; ambiguity and no-match are reported in the
// Resolution state, not as errors.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Resolution, error) {
	ref = strings.TrimSpace(ref)
	if IsEmailAddress(ref) {
		return Resolution{Ref: ref, State: StateResolved, Email: ref}, nil
	}

	matches, err := r.dir.SearchAll(ctx, ref, searchLimit)
	if err != nil {
		return Resolution{}, fmt.Errorf("contact search for %q failed: %w", ref, err)
	}

	candidates := scoreMatches(matches, ref)
	if len(candidates) == 0 {
		return Resolution{Ref: ref, State: StateNotFound}, nil
	}

	// A sole survivor is resolved outright; the winner threshold and
	// margin only arbitrate between multiple candidates.
	best := candidates[0]
	decisive := len(candidates) == 1 ||
		(best.score > clearWinnerScore && best.score-candidates[1].score >= tieMargin)
	if decisive {
		contact := best.contact
		return Resolution{
			Ref:     ref,
			State:   StateResolved,
			Email:   contact.PrimaryEmail(),
			Contact: &contact,
		}, nil
	}

	n := len(candidates)
	if n > maxCandidates {
		n = maxCandidates
	}
	options := make([]Candidate, n)
	for i := 0; i < n; i++ {
		options[i] = candidates[i].candidate()
	}
	return Resolution{Ref: ref, State: StateAmbiguous, Candidates: options}, nil
}

// ResolveAll resolves each reference independently.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) ([]Resolution, error) {
	resolutions := make([]Resolution, 0, len(refs))
	for _, ref := range refs {
		res, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, nil
}

// ResolveEmails resolves every reference to an email address. If any
// reference is ambiguous or unknown the whole batch fails with a
// BatchError listing each failure; no partial list is returned.
func (r *Resolver) ResolveEmails(ctx context.Context, refs []string) ([]string, error) {
	resolutions, err := r.ResolveAll(ctx, refs)
	if err != nil {
		return nil, err
	}

	var emails []string
	var failures []error
	for _, res := range resolutions {
		switch res.State {
		case StateResolved:
			emails = append(emails, res.Email)
		case StateAmbiguous:
			failures = append(failures, &AmbiguousError{Ref: res.Ref, Candidates: res.Candidates})
		default:
			failures = append(failures, &NotFoundError{Ref: res.Ref})
		}
	}
	if len(failures) > 0 {
		return nil, &BatchError{Failures: failures}
	}
	return emails, nil
}

// SplitList splits a comma-separated recipient list into trimmed,
// non-empty references.
func SplitList(s string) []string {
	var refs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			refs = append(refs, part)
		}
	}
	return refs
}

type scoredContact struct {
	contact Contact
	score   float64
}

func (s scoredContact) candidate() Candidate {
	return Candidate{
		DisplayName:  s.contact.DisplayName,
		Email:        s.contact.PrimaryEmail(),
		Organization: s.contact.Organization,
		Source:       s.contact.Source,
		Score:        s.score,
	}
}

// scoreMatches scores and orders candidates best first. Contacts
// without an email address cannot be resolved to and are dropped.
// The sort is stable so earlier sources (personal before directory)
// win ties. The search does not dedupe across sources, so a contact
// present in both personal and directory results arrives twice with
// the same primary email; only the best-scoring occurrence is kept,
// since two entries for one address are not a real ambiguity.
func scoreMatches(matches []Contact, ref string) []scoredContact {
	queryLower := strings.ToLower(strings.TrimSpace(ref))

	var scored []scoredContact
	for _, contact := range matches {
		if len(contact.Emails) == 0 {
			continue
		}
		if score := scoreContact(contact, queryLower); score > 0 {
			scored = append(scored, scoredContact{contact: contact, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	seen := make(map[string]bool, len(scored))
	deduped := scored[:0]
	for _, s := range scored {
		email := strings.ToLower(s.contact.PrimaryEmail())
		if seen[email] {
			continue
		}
		seen[email] = true
		deduped = append(deduped, s)
	}
	return deduped
}

// scoreContact computes an additive match score between a contact and
// a lowercase query. Exact matches dominate substring matches; name
// and email signals accumulate.
func scoreContact(contact Contact, query string) float64 {
	score := 0.0

	display := strings.ToLower(contact.DisplayName)
	given := strings.ToLower(contact.GivenName)
	family := strings.ToLower(contact.FamilyName)

	switch {
	case display != "" && query == display:
		score += 100
	case display != "" && strings.Contains(display, query):
		score += 80
	case display != "" && strings.Contains(query, display):
		score += 70
	}

	if query == given || query == family {
		score += 90
	} else if containsNonEmpty(given, query) || containsNonEmpty(family, query) {
		score += 60
	}

	fullName := strings.TrimSpace(given + " " + family)
	if fullName != "" {
		if query == fullName {
			score += 95
		} else if strings.Contains(fullName, query) {
			score += 75
		}
	}

	for _, addr := range contact.Emails {
		email := strings.ToLower(addr)
		if query == email {
			score += 100
		} else if strings.Contains(email, query) {
			score += 85
		}
		user := email
		if at := strings.Index(email, "@"); at >= 0 {
			user = email[:at]
		}
		if query == user {
			score += 90
		} else if strings.Contains(user, query) {
			score += 65
		}
	}

	return score
}

func containsNonEmpty(haystack, needle string) bool {
	return haystack != "" && strings.Contains(haystack, needle)
}
