package google

// DefaultOAuthScopes are the Google OAuth scopes requested by default.
// They cover everything the server's tools need: Drive file access,
// Gmail read/send/labels, Calendar, and contact search across personal
// contacts and the Workspace directory.
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",

	// Gmail scopes
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.labels",

	// Google Drive scopes
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/drive.appdata",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",

	// Contacts scopes (personal address book, interaction history, and
	// the Workspace directory for managed accounts)
	"https://www.googleapis.com/auth/contacts",
	"https://www.googleapis.com/auth/contacts.other.readonly",
	"https://www.googleapis.com/auth/directory.readonly",
}
