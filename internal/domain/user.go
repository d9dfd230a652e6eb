package domain

import "time"

// User is an authenticated GitHub account. The ID is GitHub's numeric user
// ID, which is stable across login renames, so it doubles as the primary
// key for saved summaries.
type User struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
