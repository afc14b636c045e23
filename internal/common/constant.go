package common

const (
	// AuthorizationHeaderName carries the bearer token on API requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenType is reported to clients alongside an issued access token.
	TokenType = "bearer"

	// Version is the API version reported by health endpoints.
	Version = "1.0.0"
)
