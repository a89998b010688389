package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Hungichi/melodies-BE/apperr"
	"github.com/Hungichi/melodies-BE/cache"
	"github.com/Hungichi/melodies-BE/logger"
	"github.com/Hungichi/melodies-BE/model"
	"github.com/Hungichi/melodies-BE/storage"

	"github.com/gorilla/mux"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	trendingLimit    = 20
)

var allowedAudioTypes = []string{
	"audio/mpeg", "audio/mp3", // MP3
	"audio/wav", "audio/x-wav", // WAV
	"audio/flac", "audio/x-flac", // FLAC
	"audio/aac",  // AAC
	"audio/mp4",  // M4A
	"audio/ogg",  // OGG
}

func songIDFromRequest(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid song id")
	}
	return id, nil
}

func isAllowedAudioType(contentType string) bool {
	for _, t := range allowedAudioTypes {
		if contentType == t {
			return true
		}
	}
	return false
}

// canMutateSong implements the ownership rule: the owning artist or an admin.
func canMutateSong(user *model.User, song *model.Song) bool {
	return song.ArtistID == user.ID || user.Role == model.RoleAdmin
}

// ListSongsHandler returns songs newest first with pagination and an
// optional keyword search over title and genre.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	search := r.URL.Query().Get("search")

	songs, err := h.songRepo.ListSongs(r.Context(), search, (page-1)*limit, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]*model.PublicSong, 0, len(songs))
	for _, song := range songs {
		views = append(views, song.PublicView())
	}
	writeData(w, http.StatusOK, views)
}

// TrendingHandler returns the most-played songs, served from the Redis
// snapshot when fresh.
func (h *APIHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	if cached, ok, err := cache.GetTrendingSongs(r.Context()); err == nil && ok {
		writeData(w, http.StatusOK, cached)
		return
	} else if err != nil {
		logger.Warn("Trending cache read failed", logger.ErrorField(err))
	}

	songs, err := h.trendingSongs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]*model.PublicSong, 0, len(songs))
	for _, song := range songs {
		views = append(views, song.PublicView())
	}

	if err := cache.SetTrendingSongs(r.Context(), views); err != nil {
		logger.Warn("Trending cache write failed", logger.ErrorField(err))
	}

	writeData(w, http.StatusOK, views)
}

// trendingSongs ranks songs by the Redis play-count mirror when it has
// entries, falling back to the plays column. The mirror is bumped on every
// song read, so it reflects plays faster than the snapshot TTL.
func (h *APIHandler) trendingSongs(ctx context.Context) ([]*model.Song, error) {
	ids, err := cache.TopPlayedSongIDs(ctx, trendingLimit)
	if err == nil && len(ids) > 0 {
		songs := make([]*model.Song, 0, len(ids))
		for _, id := range ids {
			song, err := h.songRepo.GetSongByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if song != nil {
				songs = append(songs, song)
			}
		}
		if len(songs) > 0 {
			return songs, nil
		}
	}
	return h.songRepo.TrendingSongs(ctx, trendingLimit)
}

// GetSongHandler returns a single song and counts the retrieval as a play.
// The increment is atomic at the store layer, so concurrent reads never
// under-count.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.NotFound("song not found"))
		return
	}

	if err := h.songRepo.IncrementPlays(r.Context(), songID); err != nil {
		logger.Warn("Play count increment failed", logger.Int64("songId", songID), logger.ErrorField(err))
	} else {
		song.Plays++
	}
	if err := cache.BumpPlayCount(r.Context(), songID); err != nil {
		logger.Debug("Play count cache bump failed", logger.ErrorField(err))
	}

	view := song.PublicView()
	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		if liked, err := h.songRepo.HasLiked(r.Context(), songID, userID); err == nil {
			view.LikedByMe = liked
		}
	}

	writeData(w, http.StatusOK, view)
}

// CreateSongHandler handles multipart song uploads. Restricted to artists
// and admins by the route's role gate.
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := GetUserFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	if r.ContentLength > h.cfg.MaxAudioSize+h.cfg.MaxImageSize {
		writeError(w, apperr.Validation("request body too large"))
		return
	}
	if err := r.ParseMultipartForm(h.cfg.MaxAudioSize); err != nil {
		writeError(w, apperr.Validation("failed to parse upload form"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, apperr.Validation("title is required"))
		return
	}

	song := &model.Song{
		ArtistID: caller.ID,
		Title:    title,
	}
	if album := strings.TrimSpace(r.FormValue("album")); album != "" {
		song.Album = sql.NullString{String: album, Valid: true}
	}
	if genre := strings.TrimSpace(r.FormValue("genre")); genre != "" {
		song.Genre = sql.NullString{String: genre, Valid: true}
	}
	if lyrics := r.FormValue("lyrics"); lyrics != "" {
		song.Lyrics = sql.NullString{String: lyrics, Valid: true}
	}
	if durationStr := r.FormValue("duration"); durationStr != "" {
		duration, err := strconv.ParseFloat(durationStr, 64)
		if err != nil || duration < 0 {
			writeError(w, apperr.Validation("duration must be a non-negative number"))
			return
		}
		song.Duration = duration
	}
	if releaseStr := r.FormValue("releaseDate"); releaseStr != "" {
		release, err := time.Parse("2006-01-02", releaseStr)
		if err != nil {
			writeError(w, apperr.Validation("releaseDate must be YYYY-MM-DD"))
			return
		}
		song.ReleaseDate = release
	}

	audioURL, appError := h.uploadFormFile(r, "audio", true)
	if appError != nil {
		writeError(w, appError)
		return
	}
	song.AudioURL = audioURL

	coverURL, appError := h.uploadFormFile(r, "coverImage", false)
	if appError != nil {
		// The audio object is already stored; release it before failing.
		h.removeObject(r.Context(), audioURL)
		writeError(w, appError)
		return
	}
	if coverURL != "" {
		song.CoverURL = sql.NullString{String: coverURL, Valid: true}
	}

	songID, err := h.songRepo.CreateSong(r.Context(), song)
	if err != nil {
		h.removeObject(r.Context(), audioURL)
		h.removeObject(r.Context(), coverURL)
		writeError(w, err)
		return
	}

	created, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil || created == nil {
		writeError(w, apperr.Internal(err))
		return
	}

	logger.Info("Song created",
		logger.Int64("songId", songID),
		logger.Int64("artistId", caller.ID),
		logger.String("title", title))

	writeData(w, http.StatusCreated, created.PublicView())
}

// UpdateSongHandler applies a partial update to a song's metadata and
// optionally replaces its stored files. Owner or admin only; the target is
// loaded first so ownership can be evaluated.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := GetUserFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.NotFound("song not found"))
		return
	}
	if !canMutateSong(caller, song) {
		writeError(w, apperr.Forbidden("forbidden"))
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxAudioSize); err != nil {
		writeError(w, apperr.Validation("failed to parse upload form"))
		return
	}

	// Absent form fields leave existing values untouched.
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		song.Title = title
	}
	if album := strings.TrimSpace(r.FormValue("album")); album != "" {
		song.Album = sql.NullString{String: album, Valid: true}
	}
	if genre := strings.TrimSpace(r.FormValue("genre")); genre != "" {
		song.Genre = sql.NullString{String: genre, Valid: true}
	}
	if lyrics := r.FormValue("lyrics"); lyrics != "" {
		song.Lyrics = sql.NullString{String: lyrics, Valid: true}
	}
	if durationStr := r.FormValue("duration"); durationStr != "" {
		duration, err := strconv.ParseFloat(durationStr, 64)
		if err != nil || duration < 0 {
			writeError(w, apperr.Validation("duration must be a non-negative number"))
			return
		}
		song.Duration = duration
	}
	if releaseStr := r.FormValue("releaseDate"); releaseStr != "" {
		release, err := time.Parse("2006-01-02", releaseStr)
		if err != nil {
			writeError(w, apperr.Validation("releaseDate must be YYYY-MM-DD"))
			return
		}
		song.ReleaseDate = release
	}

	oldAudioURL := song.AudioURL
	oldCoverURL := ""
	if song.CoverURL.Valid {
		oldCoverURL = song.CoverURL.String
	}

	newAudioURL, appError := h.uploadFormFile(r, "audio", false)
	if appError != nil {
		writeError(w, appError)
		return
	}
	if newAudioURL != "" {
		song.AudioURL = newAudioURL
	}

	newCoverURL, appError := h.uploadFormFile(r, "coverImage", false)
	if appError != nil {
		if newAudioURL != "" {
			h.removeObject(r.Context(), newAudioURL)
		}
		writeError(w, appError)
		return
	}
	if newCoverURL != "" {
		song.CoverURL = sql.NullString{String: newCoverURL, Valid: true}
	}

	if err := h.songRepo.UpdateSong(r.Context(), song); err != nil {
		writeError(w, err)
		return
	}

	// Release replaced objects only after the row update succeeds.
	if newAudioURL != "" && oldAudioURL != "" {
		h.removeObject(r.Context(), oldAudioURL)
	}
	if newCoverURL != "" && oldCoverURL != "" {
		h.removeObject(r.Context(), oldCoverURL)
	}

	logger.Info("Song updated", logger.Int64("songId", songID), logger.Int64("userId", caller.ID))

	writeData(w, http.StatusOK, song.PublicView())
}

// DeleteSongHandler removes a song and releases its stored assets. Owner or
// admin only.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := GetUserFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.NotFound("song not found"))
		return
	}
	if !canMutateSong(caller, song) {
		writeError(w, apperr.Forbidden("forbidden"))
		return
	}

	if err := h.songRepo.DeleteSong(r.Context(), songID); err != nil {
		writeError(w, err)
		return
	}

	h.removeObject(r.Context(), song.AudioURL)
	if song.CoverURL.Valid {
		h.removeObject(r.Context(), song.CoverURL.String)
	}
	if err := cache.InvalidateTrending(r.Context()); err != nil {
		logger.Debug("Trending cache invalidation failed", logger.ErrorField(err))
	}
	if err := cache.RemovePlayCount(r.Context(), songID); err != nil {
		logger.Debug("Play count cache removal failed", logger.ErrorField(err))
	}

	logger.Info("Song deleted", logger.Int64("songId", songID), logger.Int64("userId", caller.ID))

	writeMessage(w, http.StatusOK, "song deleted successfully")
}

// LikeSongHandler adds the caller to the song's like set. Idempotent: a
// second like by the same user changes nothing.
func (h *APIHandler) LikeSongHandler(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, true)
}

// UnlikeSongHandler removes the caller from the song's like set.
func (h *APIHandler) UnlikeSongHandler(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, false)
}

func (h *APIHandler) setLike(w http.ResponseWriter, r *http.Request, like bool) {
	caller, err := GetUserFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.NotFound("song not found"))
		return
	}

	var changed bool
	if like {
		changed, err = h.songRepo.LikeSong(r.Context(), songID, caller.ID)
	} else {
		changed, err = h.songRepo.UnlikeSong(r.Context(), songID, caller.ID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	likeCount := song.LikeCount
	if changed {
		if like {
			likeCount++
		} else {
			likeCount--
		}
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"songId":    songID,
		"liked":     like,
		"likeCount": likeCount,
	})
}

// AddCommentHandler appends a comment to a song.
func (h *APIHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := GetUserFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, apperr.Validation("comment text is required"))
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.NotFound("song not found"))
		return
	}

	comment := &model.SongComment{
		SongID: songID,
		UserID: caller.ID,
		Text:   req.Text,
	}
	commentID, err := h.songRepo.AddComment(r.Context(), comment)
	if err != nil {
		writeError(w, err)
		return
	}
	comment.ID = commentID
	comment.Username = caller.Username
	comment.CreatedAt = time.Now()

	writeData(w, http.StatusCreated, comment)
}

// ListCommentsHandler returns a song's comments oldest first.
func (h *APIHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.NotFound("song not found"))
		return
	}

	comments, err := h.songRepo.ListComments(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, comments)
}

// uploadFormFile validates and stores one multipart file field, returning
// the object URL. A missing optional field returns "", nil.
func (h *APIHandler) uploadFormFile(r *http.Request, field string, required bool) (string, *apperr.Error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			if required {
				return "", apperr.Validation(field + " file is required")
			}
			return "", nil
		}
		return "", apperr.Validation("failed to read " + field + " file")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	var objectKey string
	switch field {
	case "audio":
		if header.Size > h.cfg.MaxAudioSize {
			return "", apperr.Validation("audio file too large")
		}
		if !isAllowedAudioType(contentType) {
			return "", apperr.Validation("unsupported audio format")
		}
		objectKey = storage.AudioObjectKey(header.Filename)
	case "profileImage":
		if header.Size > h.cfg.MaxImageSize {
			return "", apperr.Validation("image file too large")
		}
		if !strings.HasPrefix(contentType, "image/") {
			return "", apperr.Validation("profile image must be an image")
		}
		objectKey = storage.ProfileImageObjectKey(header.Filename)
	default:
		if header.Size > h.cfg.MaxImageSize {
			return "", apperr.Validation("image file too large")
		}
		if !strings.HasPrefix(contentType, "image/") {
			return "", apperr.Validation("cover must be an image")
		}
		objectKey = storage.CoverObjectKey(header.Filename)
	}

	url, err := h.store.Upload(r.Context(), file, header.Size, objectKey, contentType)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return url, nil
}

// removeObject releases a stored object, logging rather than failing the
// request when storage cleanup lags behind.
func (h *APIHandler) removeObject(ctx context.Context, fileURL string) {
	if fileURL == "" {
		return
	}
	if err := h.store.Remove(ctx, fileURL); err != nil {
		logger.Warn("Failed to remove stored object",
			logger.String("url", fileURL),
			logger.ErrorField(err))
	}
}
