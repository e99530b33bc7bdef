package models

import "time"

// User is an administrator account held by the identity provider.
// It is never stored locally.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	AvatarURL     *string   `json:"avatarUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	IsAdmin       bool      `json:"isAdmin"`
	CreatedAt     time.Time `json:"createdAt"`
}
