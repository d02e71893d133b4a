package gmail

// EmailMessage is an outbound email. All addresses must already be
// concrete email addresses.
type EmailMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	IsHTML  bool
}

// MessageSummary is a lightweight view of a message for listings.
type MessageSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet,omitempty"`
	Unread   bool   `json:"unread"`
}

// MessageDetail is a full message including its decoded body.
type MessageDetail struct {
	MessageSummary
	Cc   string `json:"cc,omitempty"`
	Body string `json:"body"`
}
