package google

// DefaultOAuthScopes are the Google OAuth scopes required for the Gmail
// tools. gmail.modify covers listing, reading, labeling, trashing and
// sending mail without granting permanent deletion.
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Gmail scope
	"https://www.googleapis.com/auth/gmail.modify",
}
