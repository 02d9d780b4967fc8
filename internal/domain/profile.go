package domain

import "time"

// UserProfile mirrors the metadata of a user signed in through the OAuth provider.
type UserProfile struct {
	ID        string
	Email     *string
	FullName  *string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
