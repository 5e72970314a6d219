// Package google provides OAuth2 authentication and token management for
// the Gmail API.
//
// Tokens are stored per account as files in the user cache directory and
// refreshed through the standard oauth2 flow.
package google
