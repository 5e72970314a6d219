package common

import (
	"context"
)

// GetAccountFromArgs extracts the account name from request arguments.
// Defaults to "default" when no account name is provided. The context is
// accepted so callers don't change when request-scoped account resolution
// is added.
func GetAccountFromArgs(_ context.Context, args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return "default"
}
