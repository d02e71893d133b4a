// Package google holds the OAuth2 configuration shared by all Google
// service clients: the default scope set, the client credentials read
// from the environment, and the location of the persisted token file.
//
// Configuration is read from the environment (optionally primed from a
// .env file by the caller):
//
//	GOOGLE_CLIENT_ID          OAuth2 client ID (required)
//	GOOGLE_CLIENT_SECRET      OAuth2 client secret (required)
//	GOOGLE_REDIRECT_URI       loopback redirect URI (default http://localhost:8080)
//	GOOGLE_ADDITIONAL_SCOPES  space-separated scopes appended to the defaults
package google
