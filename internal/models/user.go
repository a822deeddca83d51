package models

import "time"

// User is a registered author. Password and reset fields never leave the server.
type User struct {
	ID                  string     `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Username            string     `json:"username" gorm:"type:varchar(100);not null" bson:"username"`
	Email               string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	PasswordHash        string     `json:"-" gorm:"type:varchar(255);not null" bson:"password_hash"`
	Bio                 string     `json:"bio" gorm:"type:text" bson:"bio"`
	AvatarURL           string     `json:"avatarUrl" gorm:"type:varchar(512)" bson:"avatar_url"`
	ResetToken          string     `json:"-" gorm:"index;type:varchar(64)" bson:"reset_token,omitempty"`
	ResetTokenExpiresAt *time.Time `json:"-" bson:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updated_at"`
}

// HasPendingReset reports whether a reset secret is stored and still valid at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetToken != "" && u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now)
}

// ClearReset drops any pending reset secret.
func (u *User) ClearReset() {
	u.ResetToken = ""
	u.ResetTokenExpiresAt = nil
}

// PublicUser is the wire projection of a User.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Public returns the identity fields returned by register and login.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Profile returns the fields returned by the current-user endpoint.
func (u *User) Profile() PublicUser {
	p := u.Public()
	p.Bio = u.Bio
	p.AvatarURL = u.AvatarURL
	return p
}
