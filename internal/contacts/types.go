package contacts

// Source identifies where a contact was found.
type Source string

const (
	SourcePersonal  Source = "personal"
	SourceOther     Source = "other"
	SourceDirectory Source = "directory"
)

// Contact is a simplified People API entry.
type Contact struct {
	ResourceName string   `json:"resourceName"`
	DisplayName  string   `json:"displayName"`
	GivenName    string   `json:"givenName,omitempty"`
	FamilyName   string   `json:"familyName,omitempty"`
	Emails       []string `json:"emails,omitempty"`
	Phones       []string `json:"phones,omitempty"`
	Organization string   `json:"organization,omitempty"`
	Source       Source   `json:"source"`
}

// PrimaryEmail returns the contact's first email address, or "" when
// the contact has none.
func (c Contact) PrimaryEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0]
}
