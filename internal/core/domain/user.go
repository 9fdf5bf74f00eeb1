package domain

import "time"

// User models a registered account on the master server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Level        Level     `json:"level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of a user that clients render.
type Profile struct {
	Username string `json:"username"`
	Level    Level  `json:"level"`
}

// Profile returns the client-facing projection of u.
func (u *User) Profile() *Profile {
	if u == nil {
		return nil
	}
	return &Profile{Username: u.Username, Level: u.Level}
}

// UserKey is a server-side session key. The token handed to clients is a
// signed wrapper around ID.
type UserKey struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the key is no longer usable at now.
func (k *UserKey) Expired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
