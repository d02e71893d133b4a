// Package drive wraps the Google Drive API for file listing,
// metadata, uploads, folders and sharing.
//
// Sharing a file with a person requires a concrete email address;
// resolving contact names happens upstream.
package drive
