package drive

import "time"

// FileInfo is a simplified view of a Drive file.
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size,omitempty"`
	CreatedTime  time.Time `json:"createdTime,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime,omitempty"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
	Owners       []string  `json:"owners,omitempty"`
	Shared       bool      `json:"shared"`
	Trashed      bool      `json:"trashed,omitempty"`
}

// ListOptions filters a file listing.
type ListOptions struct {
	Query      string
	MaxResults int
	OrderBy    string
	PageToken  string
}

// UploadOptions customizes an upload.
type UploadOptions struct {
	ParentFolders []string
	Description   string
	MimeType      string
}

// ShareOptions describes a permission grant. Role is one of reader,
// commenter or writer. EmailAddress is required for type "user".
type ShareOptions struct {
	Type         string
	Role         string
	EmailAddress string
	Notify       bool
	Message      string
}

// Permission is a simplified view of a Drive permission entry.
type Permission struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Role         string `json:"role"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}
