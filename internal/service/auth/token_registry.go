package auth

import "sync"

// TokenRegistry holds GitHub access tokens server-side, keyed by user ID.
// Tokens are deliberately never embedded in session JWTs or persisted: a
// process restart simply requires users to log in again.
type TokenRegistry struct {
	mu     sync.RWMutex
	tokens map[int64]string
}

// NewTokenRegistry creates an empty registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		tokens: make(map[int64]string),
	}
}

// Set stores or replaces the access token for a user.
func (r *TokenRegistry) Set(userID int64, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[userID] = token
}

// Get returns the access token for a user.
// Returns ErrNotLoggedIn if no token is held.
func (r *TokenRegistry) Get(userID int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[userID]
	if !ok || token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// Delete removes the access token for a user, ending GitHub access for
// their session.
func (r *TokenRegistry) Delete(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, userID)
}
