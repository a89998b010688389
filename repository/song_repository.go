package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Hungichi/melodies-BE/model"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	GetSongByID(ctx context.Context, id int64) (*model.Song, error)
	ListSongs(ctx context.Context, search string, offset, limit int) ([]*model.Song, error)
	UpdateSong(ctx context.Context, song *model.Song) error
	DeleteSong(ctx context.Context, id int64) error
	IncrementPlays(ctx context.Context, id int64) error
	LikeSong(ctx context.Context, songID, userID int64) (bool, error)
	UnlikeSong(ctx context.Context, songID, userID int64) (bool, error)
	HasLiked(ctx context.Context, songID, userID int64) (bool, error)
	AddComment(ctx context.Context, comment *model.SongComment) (int64, error)
	ListComments(ctx context.Context, songID int64) ([]*model.SongComment, error)
	TrendingSongs(ctx context.Context, limit int) ([]*model.Song, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

const songColumns = `s.id, s.artist_id, s.title, s.album, s.genre, s.duration, s.audio_url,
	s.cover_url, s.lyrics, s.release_date, s.plays,
	(SELECT COUNT(*) FROM song_likes l WHERE l.song_id = s.id) AS like_count,
	s.created_at, s.updated_at`

func scanSong(scanner interface{ Scan(...interface{}) error }) (*model.Song, error) {
	song := &model.Song{}
	err := scanner.Scan(&song.ID, &song.ArtistID, &song.Title, &song.Album, &song.Genre,
		&song.Duration, &song.AudioURL, &song.CoverURL, &song.Lyrics, &song.ReleaseDate,
		&song.Plays, &song.LikeCount, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// CreateSong adds a new song to the database.
func (r *mysqlSongRepository) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	query := `INSERT INTO songs (artist_id, title, album, genre, duration, audio_url, cover_url, lyrics, release_date)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	releaseDate := song.ReleaseDate
	if releaseDate.IsZero() {
		releaseDate = time.Now()
	}

	res, err := stmt.ExecContext(ctx, song.ArtistID, song.Title, song.Album, song.Genre,
		song.Duration, song.AudioURL, song.CoverURL, song.Lyrics, releaseDate)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateSong: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateSong: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song by its ID, like count included.
func (r *mysqlSongRepository) GetSongByID(ctx context.Context, id int64) (*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs s WHERE s.id = ?"
	song, err := scanSong(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %d: %w", id, err)
	}
	return song, nil
}

// ListSongs retrieves songs newest first, optionally filtered by a keyword
// over title and genre via the fulltext index.
func (r *mysqlSongRepository) ListSongs(ctx context.Context, search string, offset, limit int) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs s"
	args := []interface{}{}
	if strings.TrimSpace(search) != "" {
		query += " WHERE MATCH(s.title, s.genre) AGAINST(? IN NATURAL LANGUAGE MODE)"
		args = append(args, search)
	}
	query += " ORDER BY s.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

// UpdateSong replaces the mutable fields of a song. Callers apply partial
// semantics by loading the song first and mutating only the provided fields.
func (r *mysqlSongRepository) UpdateSong(ctx context.Context, song *model.Song) error {
	query := `UPDATE songs SET title = ?, album = ?, genre = ?, duration = ?, audio_url = ?,
	           cover_url = ?, lyrics = ?, release_date = ?, updated_at = NOW() WHERE id = ?`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateSong: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, song.Title, song.Album, song.Genre, song.Duration,
		song.AudioURL, song.CoverURL, song.Lyrics, song.ReleaseDate, song.ID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateSong for song ID %d: %w", song.ID, err)
	}
	return nil
}

// DeleteSong removes a song and its likes and comments in one transaction.
func (r *mysqlSongRepository) DeleteSong(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for DeleteSong: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		"DELETE FROM song_likes WHERE song_id = ?",
		"DELETE FROM song_comments WHERE song_id = ?",
		"DELETE FROM songs WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to execute %q for song ID %d: %w", query, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit DeleteSong for song ID %d: %w", id, err)
	}
	return nil
}

// IncrementPlays bumps the play counter atomically at the store layer, so
// concurrent reads never under-count.
func (r *mysqlSongRepository) IncrementPlays(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE songs SET plays = plays + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment plays for song ID %d: %w", id, err)
	}
	return nil
}

// LikeSong adds userID to the song's like set. The composite primary key
// makes a second like by the same user a no-op; the return value reports
// whether a row was actually added.
func (r *mysqlSongRepository) LikeSong(ctx context.Context, songID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO song_likes (song_id, user_id) VALUES (?, ?)", songID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like song ID %d for user %d: %w", songID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for LikeSong: %w", err)
	}
	return n > 0, nil
}

// UnlikeSong removes userID from the song's like set.
func (r *mysqlSongRepository) UnlikeSong(ctx context.Context, songID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM song_likes WHERE song_id = ? AND user_id = ?", songID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike song ID %d for user %d: %w", songID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for UnlikeSong: %w", err)
	}
	return n > 0, nil
}

// HasLiked reports whether userID is in the song's like set.
func (r *mysqlSongRepository) HasLiked(ctx context.Context, songID, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM song_likes WHERE song_id = ? AND user_id = ?", songID, userID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check like for song ID %d user %d: %w", songID, userID, err)
	}
	return true, nil
}

// AddComment appends a comment to a song.
func (r *mysqlSongRepository) AddComment(ctx context.Context, comment *model.SongComment) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO song_comments (song_id, user_id, text) VALUES (?, ?, ?)",
		comment.SongID, comment.UserID, comment.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to add comment to song ID %d: %w", comment.SongID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for AddComment: %w", err)
	}
	return id, nil
}

// ListComments retrieves a song's comments oldest first, with the author's
// username joined in.
func (r *mysqlSongRepository) ListComments(ctx context.Context, songID int64) ([]*model.SongComment, error) {
	query := `SELECT c.id, c.song_id, c.user_id, u.username, c.text, c.created_at
	           FROM song_comments c JOIN users u ON u.id = c.user_id
	           WHERE c.song_id = ? ORDER BY c.created_at ASC, c.id ASC`
	rows, err := r.db.QueryContext(ctx, query, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments for song ID %d: %w", songID, err)
	}
	defer rows.Close()

	comments := make([]*model.SongComment, 0)
	for rows.Next() {
		comment := &model.SongComment{}
		err := rows.Scan(&comment.ID, &comment.SongID, &comment.UserID, &comment.Username,
			&comment.Text, &comment.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment in ListComments: %w", err)
		}
		comments = append(comments, comment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListComments: %w", err)
	}
	return comments, nil
}

// TrendingSongs retrieves the most-played songs.
func (r *mysqlSongRepository) TrendingSongs(ctx context.Context, limit int) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs s ORDER BY s.plays DESC, s.created_at DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending songs: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

func collectSongs(rows *sql.Rows) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song rows iteration: %w", err)
	}
	return songs, nil
}
