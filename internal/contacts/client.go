package contacts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const personFields = "names,emailAddresses,phoneNumbers,organizations"

// otherContactsMaxPages bounds pagination through "other contacts",
// which the API cannot filter server-side.
const otherContactsMaxPages = 10

// Client wraps the People service.
type Client struct {
	svc *people.Service
}

// NewClient creates a People API client using the given
// OAuth-authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := people.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// SearchPersonal searches the user's saved contacts.
func (c *Client) SearchPersonal(ctx context.Context, query string, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 10
	}
	resp, err := c.svc.People.SearchContacts().
		Query(query).
		ReadMask(personFields).
		PageSize(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search personal contacts: %w", err)
	}

	var contacts []Contact
	for _, result := range resp.Results {
		if contact := fromPerson(result.Person, SourcePersonal); contact != nil {
			contacts = append(contacts, *contact)
		}
	}
	return contacts, nil
}

// SearchOther searches "other contacts", people the user has
// interacted with but never saved. The API has no server-side query
// for this source, so pages are fetched and filtered locally.
func (c *Client) SearchOther(ctx context.Context, query string, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 10
	}
	queryLower := strings.ToLower(query)

	var contacts []Contact
	pageToken := ""
	for page := 0; page < otherContactsMaxPages; page++ {
		call := c.svc.OtherContacts.List().
			ReadMask("names,emailAddresses,phoneNumbers").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list other contacts: %w", err)
		}

		for _, person := range resp.OtherContacts {
			contact := fromPerson(person, SourceOther)
			if contact != nil && matchesQuery(*contact, queryLower) {
				contacts = append(contacts, *contact)
				if len(contacts) >= limit {
					return contacts, nil
				}
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return contacts, nil
}

// SearchDirectory searches the Workspace domain directory. Consumer
// accounts have no directory; permission errors yield an empty result
// instead of failing.
func (c *Client) SearchDirectory(ctx context.Context, query string, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 10
	}
	resp, err := c.svc.People.SearchDirectoryPeople().
		Query(query).
		ReadMask(personFields).
		Sources("DIRECTORY_SOURCE_TYPE_DOMAIN_PROFILE", "DIRECTORY_SOURCE_TYPE_DOMAIN_CONTACT").
		PageSize(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		if isDirectoryUnavailable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search directory: %w", err)
	}

	var contacts []Contact
	for _, person := range resp.People {
		if contact := fromPerson(person, SourceDirectory); contact != nil {
			contacts = append(contacts, *contact)
		}
	}
	return contacts, nil
}

// SearchAll searches personal contacts, other contacts and the
// directory, in that order, each source keeping its own relevance
// order. The same person may appear once per source; callers that
// care collapse duplicates themselves.
func (c *Client) SearchAll(ctx context.Context, query string, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 10
	}

	var all []Contact

	personal, err := c.SearchPersonal(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	all = append(all, personal...)

	other, err := c.SearchOther(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	all = append(all, other...)

	directory, err := c.SearchDirectory(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	all = append(all, directory...)

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListContacts returns the user's saved contacts.
func (c *Client) ListContacts(ctx context.Context, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	resp, err := c.svc.People.Connections.List("people/me").
		PersonFields(personFields).
		PageSize(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	var contacts []Contact
	for _, person := range resp.Connections {
		if contact := fromPerson(person, SourcePersonal); contact != nil {
			contacts = append(contacts, *contact)
		}
	}
	return contacts, nil
}

// fromPerson converts a People API person, returning nil for entries
// with no name, email or phone.
func fromPerson(person *people.Person, source Source) *Contact {
	if person == nil {
		return nil
	}
	contact := &Contact{
		ResourceName: person.ResourceName,
		Source:       source,
	}
	if len(person.Names) > 0 {
		contact.DisplayName = person.Names[0].DisplayName
		contact.GivenName = person.Names[0].GivenName
		contact.FamilyName = person.Names[0].FamilyName
	}
	for _, email := range person.EmailAddresses {
		if email.Value != "" {
			contact.Emails = append(contact.Emails, email.Value)
		}
	}
	for _, phone := range person.PhoneNumbers {
		if phone.Value != "" {
			contact.Phones = append(contact.Phones, phone.Value)
		}
	}
	if len(person.Organizations) > 0 {
		contact.Organization = person.Organizations[0].Name
	}
	if contact.DisplayName == "" && len(contact.Emails) == 0 && len(contact.Phones) == 0 {
		return nil
	}
	return contact
}

// matchesQuery reports whether a contact matches a lowercase query by
// name, email or phone substring.
func matchesQuery(contact Contact, queryLower string) bool {
	if queryLower == "" {
		return true
	}
	if strings.Contains(strings.ToLower(contact.DisplayName), queryLower) {
		return true
	}
	for _, email := range contact.Emails {
		if strings.Contains(strings.ToLower(email), queryLower) {
			return true
		}
	}
	for _, phone := range contact.Phones {
		if strings.Contains(phone, queryLower) {
			return true
		}
	}
	return false
}

func isDirectoryUnavailable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusBadRequest
	}
	return false
}
