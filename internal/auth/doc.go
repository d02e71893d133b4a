// Package auth manages the Google OAuth2 credential lifecycle for a
// single local user.
//
// Credentials are persisted as a JSON token file (0600) under the
// user config directory. The Store lazily loads the file, refreshes
// expired access tokens using the stored refresh token, and writes
// refreshed tokens back to disk so subsequent processes reuse them.
//
// When no usable credential exists (no file, no refresh token, or a
// revoked refresh token) operations fail with ErrAuthRequired and the
// user must run the interactive login flow, which opens a browser and
// captures the authorization code on a localhost loopback listener.
package auth
