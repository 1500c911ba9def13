package auth

// Scopes checked by the HTTP API.
const (
	ScopeRead  = "fittrack:read"
	ScopeWrite = "fittrack:write"
)
