package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// FolderMimeType is the MIME type of Drive folders.
const FolderMimeType = "application/vnd.google-apps.folder"

const fileFields = "id, name, mimeType, size, createdTime, modifiedTime, webViewLink, parents, owners, shared, trashed"

// ValidRoles are the permission roles accepted for sharing.
var ValidRoles = []string{"reader", "commenter", "writer"}

// Client wraps the Drive service.
type Client struct {
	svc *drive.Service
}

// NewClient creates a Drive client using the given OAuth-authenticated
// HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListFiles lists non-trashed files, optionally filtered by a Drive
// query expression. Returns the files and a token for the next page.
func (c *Client) ListFiles(ctx context.Context, opts *ListOptions) ([]*FileInfo, string, error) {
	query := "trashed=false"
	call := c.svc.Files.List().
		Context(ctx).
		Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")"))

	if opts != nil {
		if opts.Query != "" {
			query = "(" + opts.Query + ") and trashed=false"
		}
		if opts.MaxResults > 0 {
			call = call.PageSize(int64(opts.MaxResults))
		}
		if opts.OrderBy != "" {
			call = call.OrderBy(opts.OrderBy)
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}
	}
	call = call.Q(query)

	list, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]*FileInfo, len(list.Files))
	for i, f := range list.Files {
		files[i] = toFileInfo(f)
	}
	return files, list.NextPageToken, nil
}

// GetFile retrieves file metadata.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	file, err := c.svc.Files.Get(fileID).
		Context(ctx).
		Fields(fileFields).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return toFileInfo(file), nil
}

// DownloadFile returns the file content. The caller must close the
// reader.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	return resp.Body, nil
}

// UploadFile uploads content as a new Drive file.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader, opts *UploadOptions) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if content == nil {
		return nil, fmt.Errorf("file content is required")
	}

	file := &drive.File{Name: name}
	if opts != nil {
		file.Parents = opts.ParentFolders
		file.Description = opts.Description
		file.MimeType = opts.MimeType
	}

	created, err := c.svc.Files.Create(file).
		Context(ctx).
		Media(content, googleapi.ContentType(file.MimeType)).
		Fields(fileFields).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	return toFileInfo(created), nil
}

// CreateFolder creates a folder, optionally inside parent folders.
func (c *Client) CreateFolder(ctx context.Context, name string, parents []string) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}

	file := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  parents,
	}
	created, err := c.svc.Files.Create(file).
		Context(ctx).
		Fields(fileFields).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return toFileInfo(created), nil
}

// ShareFile grants a permission on a file.
func (c *Client) ShareFile(ctx context.Context, fileID string, opts *ShareOptions) (*Permission, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	if opts == nil {
		return nil, fmt.Errorf("share options are required")
	}
	if opts.Role == "" {
		return nil, fmt.Errorf("permission role is required")
	}
	permType := opts.Type
	if permType == "" {
		permType = "user"
	}
	if permType == "user" && opts.EmailAddress == "" {
		return nil, fmt.Errorf("email address is required to share with a user")
	}

	perm := &drive.Permission{
		Type:         permType,
		Role:         opts.Role,
		EmailAddress: opts.EmailAddress,
	}
	call := c.svc.Permissions.Create(fileID, perm).
		Context(ctx).
		Fields("id, type, role, emailAddress, displayName").
		SendNotificationEmail(opts.Notify)
	if opts.Notify && opts.Message != "" {
		call = call.EmailMessage(opts.Message)
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to share file %s: %w", fileID, err)
	}
	return toPermission(created), nil
}

// ListPermissions lists the permission entries on a file.
func (c *Client) ListPermissions(ctx context.Context, fileID string) ([]*Permission, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	list, err := c.svc.Permissions.List(fileID).
		Context(ctx).
		Fields("permissions(id, type, role, emailAddress, displayName)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	perms := make([]*Permission, len(list.Permissions))
	for i, p := range list.Permissions {
		perms[i] = toPermission(p)
	}
	return perms, nil
}

// RemovePermission revokes a permission entry on a file.
func (c *Client) RemovePermission(ctx context.Context, fileID, permissionID string) error {
	if fileID == "" {
		return fmt.Errorf("fileID is required")
	}
	if permissionID == "" {
		return fmt.Errorf("permissionID is required")
	}
	if err := c.svc.Permissions.Delete(fileID, permissionID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to remove permission: %w", err)
	}
	return nil
}

// IsValidRole reports whether role is an accepted sharing role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if role == r {
			return true
		}
	}
	return false
}

func toFileInfo(f *drive.File) *FileInfo {
	info := &FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
		Shared:      f.Shared,
		Trashed:     f.Trashed,
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		info.CreatedTime = t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedTime = t
	}
	for _, owner := range f.Owners {
		if owner.EmailAddress != "" {
			info.Owners = append(info.Owners, owner.EmailAddress)
		}
	}
	return info
}

func toPermission(p *drive.Permission) *Permission {
	return &Permission{
		ID:           p.Id,
		Type:         p.Type,
		Role:         p.Role,
		EmailAddress: p.EmailAddress,
		DisplayName:  p.DisplayName,
	}
}
