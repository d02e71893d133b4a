// Package contacts provides Google People API access and
// name-to-email resolution.
//
// The Client retrieves candidates from three sources: the user's
// personal contacts, "other contacts" (people the user has
// interacted with), and the Workspace directory. Directory search
// fails gracefully on consumer accounts.
//
// The Resolver turns free-form references ("Sarah", "john@x.com",
// "Dr. Smith") into concrete email addresses. Matches are scored
// locally; a reference resolves only when a single candidate wins
// clearly, otherwise the resolution is ambiguous and carries the
// candidate list so a caller can ask the user to choose. Ambiguity is
// never decided silently.
package contacts
