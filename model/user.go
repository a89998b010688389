package model

import (
	"database/sql"
	"fmt"
	"time"
)

// Role is the closed set of account roles. Free strings are rejected at
// construction time via ParseRole.
type Role string

const (
	RoleUser   Role = "user"
	RoleArtist Role = "artist"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleArtist, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents an account in the system.
type User struct {
	ID            int64        `json:"id"`
	Username      string       `json:"username"`
	Email         string       `json:"email"`
	PasswordHash  string       `json:"-"` // Not exposed in API responses
	Role          Role         `json:"role"`
	IsPremium     bool         `json:"isPremium"`
	PremiumExpiry sql.NullTime `json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// UserDetails is the optional extended profile, one row per user at most.
// Its absence means "no extended profile", not an error.
type UserDetails struct {
	UserID       int64          `json:"userId"`
	FullName     sql.NullString `json:"-"`
	DateOfBirth  sql.NullTime   `json:"-"`
	Bio          sql.NullString `json:"-"`
	Location     sql.NullString `json:"-"`
	ProfileImage sql.NullString `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// PublicUser is the caller-facing view of a User. It has no hash field at
// all, so the secret cannot leak through serialization.
type PublicUser struct {
	ID        int64              `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Role      Role               `json:"role"`
	IsPremium bool               `json:"isPremium"`
	CreatedAt time.Time          `json:"createdAt"`
	Details   *PublicUserDetails `json:"details,omitempty"`
}

// PublicUserDetails is the serialized form of UserDetails.
type PublicUserDetails struct {
	FullName     string `json:"fullName,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Location     string `json:"location,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// PublicView builds the caller-facing view of a user, merging details when
// present.
func (u *User) PublicView(details *UserDetails) *PublicUser {
	pub := &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsPremium: u.IsPremium,
		CreatedAt: u.CreatedAt,
	}
	if details == nil {
		return pub
	}

	d := &PublicUserDetails{}
	if details.FullName.Valid {
		d.FullName = details.FullName.String
	}
	if details.DateOfBirth.Valid {
		d.DateOfBirth = details.DateOfBirth.Time.Format("2006-01-02")
	}
	if details.Bio.Valid {
		d.Bio = details.Bio.String
	}
	if details.Location.Valid {
		d.Location = details.Location.String
	}
	if details.ProfileImage.Valid {
		d.ProfileImage = details.ProfileImage.String
	}
	pub.Details = d
	return pub
}
