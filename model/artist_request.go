package model

import (
	"database/sql"
	"fmt"
	"time"
)

// RequestStatus is the closed set of artist-request states.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ParseRequestStatus validates a status string against the closed set.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestPending, RequestApproved, RequestRejected:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// ArtistRequest is a user's application for the artist role. At most one
// request per user may be pending at a time.
type ArtistRequest struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"userId"`
	Username     string         `json:"username,omitempty"` // joined for admin listings
	ArtistName   string         `json:"artistName"`
	Bio          sql.NullString `json:"-"`
	ProfileImage sql.NullString `json:"-"`
	Status       RequestStatus  `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// PublicArtistRequest is the caller-facing view of an ArtistRequest.
type PublicArtistRequest struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"userId"`
	Username     string        `json:"username,omitempty"`
	ArtistName   string        `json:"artistName"`
	Bio          string        `json:"bio,omitempty"`
	ProfileImage string        `json:"profileImage,omitempty"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// PublicView builds the caller-facing view of an artist request.
func (a *ArtistRequest) PublicView() *PublicArtistRequest {
	pub := &PublicArtistRequest{
		ID:         a.ID,
		UserID:     a.UserID,
		Username:   a.Username,
		ArtistName: a.ArtistName,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Bio.Valid {
		pub.Bio = a.Bio.String
	}
	if a.ProfileImage.Valid {
		pub.ProfileImage = a.ProfileImage.String
	}
	return pub
}
