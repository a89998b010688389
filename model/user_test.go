package model

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "artist", "admin"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "User", "superadmin", "root"} {
		_, err := ParseRole(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestUserJSONNeverCarriesHash(t *testing.T) {
	user := &User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "$2a$10$secret",
		Role:         RoleUser,
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	raw, err = json.Marshal(user.PublicView(nil))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
}

func TestPublicViewMergesDetails(t *testing.T) {
	user := &User{ID: 1, Username: "alice", Email: "alice@x.com", Role: RoleArtist}

	pub := user.PublicView(nil)
	assert.Nil(t, pub.Details)

	details := &UserDetails{
		UserID:      1,
		FullName:    sql.NullString{String: "Alice A", Valid: true},
		DateOfBirth: sql.NullTime{Time: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), Valid: true},
		Location:    sql.NullString{String: "Hanoi", Valid: true},
	}
	pub = user.PublicView(details)
	require.NotNil(t, pub.Details)
	assert.Equal(t, "Alice A", pub.Details.FullName)
	assert.Equal(t, "1990-06-15", pub.Details.DateOfBirth)
	assert.Equal(t, "Hanoi", pub.Details.Location)
	assert.Empty(t, pub.Details.Bio)
}
