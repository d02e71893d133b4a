package gateway

import (
	"slices"
	"time"
)

// EmailParams are fully resolved send-email parameters. All addresses
// are concrete emails.
type EmailParams struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	IsHTML  bool     `json:"isHtml,omitempty"`
}

// Equal reports field-for-field equality.
func (p EmailParams) Equal(other EmailParams) bool {
	return slices.Equal(p.To, other.To) &&
		slices.Equal(p.Cc, other.Cc) &&
		slices.Equal(p.Bcc, other.Bcc) &&
		p.Subject == other.Subject &&
		p.Body == other.Body &&
		p.IsHTML == other.IsHTML
}

// ShareParams are fully resolved share-file parameters.
type ShareParams struct {
	FileID    string `json:"fileId"`
	FileName  string `json:"fileName,omitempty"`
	Recipient string `json:"recipient"`
	Role      string `json:"role"`
	Notify    bool   `json:"notify,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Equal reports field-for-field equality. The file name is display
// metadata and does not participate.
func (p ShareParams) Equal(other ShareParams) bool {
	return p.FileID == other.FileID &&
		p.Recipient == other.Recipient &&
		p.Role == other.Role &&
		p.Notify == other.Notify &&
		p.Message == other.Message
}

// EventParams are fully resolved create-event parameters.
type EventParams struct {
	CalendarID  string    `json:"calendarId"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TimeZone    string    `json:"timeZone,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	AddMeet     bool      `json:"addMeet,omitempty"`
}

// Equal reports field-for-field equality, comparing times by instant.
func (p EventParams) Equal(other EventParams) bool {
	return p.CalendarID == other.CalendarID &&
		p.Summary == other.Summary &&
		p.Description == other.Description &&
		p.Location == other.Location &&
		p.Start.Equal(other.Start) &&
		p.End.Equal(other.End) &&
		p.TimeZone == other.TimeZone &&
		slices.Equal(p.Attendees, other.Attendees) &&
		p.AddMeet == other.AddMeet
}
