package model

import (
	"database/sql"
	"time"
)

// Song represents an uploaded song and its metadata.
type Song struct {
	ID          int64          `json:"id"`
	ArtistID    int64          `json:"artistId"`
	Title       string         `json:"title"`
	Album       sql.NullString `json:"-"`
	Genre       sql.NullString `json:"-"`
	Duration    float64        `json:"duration"` // Duration in seconds
	AudioURL    string         `json:"audioUrl"`
	CoverURL    sql.NullString `json:"-"`
	Lyrics      sql.NullString `json:"-"`
	ReleaseDate time.Time      `json:"releaseDate"`
	Plays       int64          `json:"plays"`
	LikeCount   int64          `json:"likeCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// SongComment is one comment on a song, ordered by creation time.
type SongComment struct {
	ID        int64     `json:"id"`
	SongID    int64     `json:"songId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicSong is the caller-facing view of a Song.
type PublicSong struct {
	ID          int64     `json:"id"`
	ArtistID    int64     `json:"artistId"`
	Title       string    `json:"title"`
	Album       string    `json:"album,omitempty"`
	Genre       string    `json:"genre,omitempty"`
	Duration    float64   `json:"duration"`
	AudioURL    string    `json:"audioUrl"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	Lyrics      string    `json:"lyrics,omitempty"`
	ReleaseDate time.Time `json:"releaseDate"`
	Plays       int64     `json:"plays"`
	LikeCount   int64     `json:"likeCount"`
	LikedByMe   bool      `json:"likedByMe,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PublicView builds the caller-facing view of a song.
func (s *Song) PublicView() *PublicSong {
	pub := &PublicSong{
		ID:          s.ID,
		ArtistID:    s.ArtistID,
		Title:       s.Title,
		Duration:    s.Duration,
		AudioURL:    s.AudioURL,
		ReleaseDate: s.ReleaseDate,
		Plays:       s.Plays,
		LikeCount:   s.LikeCount,
		CreatedAt:   s.CreatedAt,
	}
	if s.Album.Valid {
		pub.Album = s.Album.String
	}
	if s.Genre.Valid {
		pub.Genre = s.Genre.String
	}
	if s.CoverURL.Valid {
		pub.CoverURL = s.CoverURL.String
	}
	if s.Lyrics.Valid {
		pub.Lyrics = s.Lyrics.String
	}
	return pub
}
