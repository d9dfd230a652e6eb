package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrOAuthExchange indicates the GitHub code-for-token exchange failed
	ErrOAuthExchange = errors.New("github oauth exchange failed")

	// ErrNotLoggedIn indicates no GitHub access token is held for the user,
	// so GitHub-facing operations cannot proceed
	ErrNotLoggedIn = errors.New("no github access token for user")
)
