package contacts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory serves canned contacts and counts searches.
type fakeDirectory struct {
	contacts []Contact
	calls    int
	err      error
}

func (f *fakeDirectory) SearchAll(ctx context.Context, query string, limit int) ([]Contact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	queryLower := strings.ToLower(query)
	var matches []Contact
	for _, c := range f.contacts {
		if matchesQuery(c, queryLower) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func TestIsEmailAddress(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"jane@example.com", true},
		{"jane.doe+tag@sub.example.co", true},
		{"  jane@example.com  ", true},
		{"jane", false},
		{"jane@", false},
		{"@example.com", false},
		{"jane@example", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmailAddress(tt.input))
		})
	}
}

func TestResolveLiteralEmailSkipsSearch(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "spencer@example.com")
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "spencer@example.com", res.Email)
	assert.Equal(t, 0, dir.calls, "literal addresses must not trigger a search")
}

func TestResolveNotFound(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "UnknownPerson123")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)
	assert.Empty(t, res.Email)
	assert.Equal(t, 1, dir.calls)
}

func TestResolveClearWinner(t *testing.T) {
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Spencer Varney",
			GivenName:   "spencer",
			FamilyName:  "varney",
			Emails:      []string{"spencer.varney@example.com"},
			Source:      SourcePersonal,
		},
		{
			DisplayName: "Spencer Toll Road",
			Emails:      []string{"info@tollroad.example.com"},
			Source:      SourceOther,
		},
	}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "Spencer Varney")
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "spencer.varney@example.com", res.Email)
	require.NotNil(t, res.Contact)
	assert.Equal(t, "Spencer Varney", res.Contact.DisplayName)
}

func TestResolveSingleWeakMatchResolves(t *testing.T) {
	// A surname-only query scores a display-name substring match that
	// does not clear the winner threshold. With no other candidate
	// there is nothing to disambiguate against, so the sole survivor
	// must resolve rather than come back as a one-entry candidate
	// list.
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Raj Koothrappali",
			Emails:      []string{"rk@example.com"},
			Source:      SourcePersonal,
		},
	}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "Koothrappali")
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "rk@example.com", res.Email)
	assert.Empty(t, res.Candidates)
}

func TestResolveSamePersonTwoSourcesResolves(t *testing.T) {
	// The search surfaces the same person once per source without
	// deduplicating; both entries carry the same address, so there is
	// only one real candidate.
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Sarah Chen",
			GivenName:   "sarah",
			FamilyName:  "chen",
			Emails:      []string{"sarah.chen@example.com"},
			Source:      SourcePersonal,
		},
		{
			DisplayName: "Sarah Chen",
			GivenName:   "sarah",
			FamilyName:  "chen",
			Emails:      []string{"sarah.chen@example.com"},
			Source:      SourceDirectory,
		},
	}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "Sarah Chen")
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "sarah.chen@example.com", res.Email)
	require.NotNil(t, res.Contact)
	assert.Equal(t, SourcePersonal, res.Contact.Source)
}

func TestResolveTieIsAmbiguous(t *testing.T) {
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Sarah Chen",
			GivenName:   "sarah",
			FamilyName:  "chen",
			Emails:      []string{"sarah.chen@example.com"},
			Source:      SourcePersonal,
		},
		{
			DisplayName: "Sarah Lopez",
			GivenName:   "sarah",
			FamilyName:  "lopez",
			Emails:      []string{"sarah.lopez@example.com"},
			Source:      SourceDirectory,
		},
	}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "Sarah")
	require.NoError(t, err)
	assert.Equal(t, StateAmbiguous, res.State)
	assert.Empty(t, res.Email, "an ambiguous reference must not yield an email")
	require.Len(t, res.Candidates, 2)
	// Stable sort keeps the personal contact ahead of the directory
	// entry when scores tie.
	assert.Equal(t, "sarah.chen@example.com", res.Candidates[0].Email)
	assert.Equal(t, SourcePersonal, res.Candidates[0].Source)
	assert.Equal(t, "sarah.lopez@example.com", res.Candidates[1].Email)
}

func TestResolveAmbiguousCapsCandidates(t *testing.T) {
	var pool []Contact
	for _, e := range []string{"a", "b", "c", "d", "e"} {
		pool = append(pool, Contact{
			DisplayName: "Alex " + e,
			GivenName:   "alex",
			Emails:      []string{e + "@example.com"},
			Source:      SourcePersonal,
		})
	}
	r := NewResolver(&fakeDirectory{contacts: pool})

	res, err := r.Resolve(context.Background(), "Alex")
	require.NoError(t, err)
	assert.Equal(t, StateAmbiguous, res.State)
	assert.Len(t, res.Candidates, maxCandidates)
}

func TestResolveSkipsContactsWithoutEmail(t *testing.T) {
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Phone Only",
			GivenName:   "phone",
			FamilyName:  "only",
			Phones:      []string{"+1 555 0100"},
			Source:      SourcePersonal,
		},
	}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "Phone Only")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)
}

func TestResolveSearchError(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("people api down")}
	r := NewResolver(dir)

	_, err := r.Resolve(context.Background(), "Sarah")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "people api down")
}

func TestResolveEmails(t *testing.T) {
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Spencer Varney",
			GivenName:   "spencer",
			FamilyName:  "varney",
			Emails:      []string{"spencer.varney@example.com"},
			Source:      SourcePersonal,
		},
	}}
	r := NewResolver(dir)

	emails, err := r.ResolveEmails(context.Background(),
		[]string{"Spencer Varney", "direct@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"spencer.varney@example.com", "direct@example.com"}, emails)
}

func TestResolveEmailsBatchFailure(t *testing.T) {
	dir := &fakeDirectory{contacts: []Contact{
		{
			DisplayName: "Spencer Varney",
			GivenName:   "spencer",
			FamilyName:  "varney",
			Emails:      []string{"spencer.varney@example.com"},
			Source:      SourcePersonal,
		},
	}}
	r := NewResolver(dir)

	emails, err := r.ResolveEmails(context.Background(),
		[]string{"Spencer Varney", "UnknownPerson123"})
	assert.Nil(t, emails, "a failed batch must not return a partial list")

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Failures, 1)
	var notFound *NotFoundError
	require.ErrorAs(t, batchErr.Failures[0], &notFound)
	assert.Equal(t, "UnknownPerson123", notFound.Ref)
}

func TestScoreContact(t *testing.T) {
	contact := Contact{
		DisplayName: "Jane Doe",
		GivenName:   "jane",
		FamilyName:  "doe",
		Emails:      []string{"jane.doe@example.com"},
	}

	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"exact display name", "jane doe", 100 + 95},
		{"given name only", "jane", 80 + 90 + 75 + 85 + 65},
		{"email local part", "jane.doe", 85 + 90},
		{"no match", "zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreContact(contact, tt.query))
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a@x.com, Sarah ,b@y.com", []string{"a@x.com", "Sarah", "b@y.com"}},
		{"single", []string{"single"}},
		{" , ,", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.input))
		})
	}
}
