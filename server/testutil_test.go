package server

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Hungichi/melodies-BE/config"
	"github.com/Hungichi/melodies-BE/core/auth"
	"github.com/Hungichi/melodies-BE/model"
	"github.com/Hungichi/melodies-BE/repository"
)

// In-memory repository fakes. They mirror the MySQL implementations'
// contracts (nil on not-found, duplicate sentinels) so handlers are tested
// against the same semantics.

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*model.User
	details map[int64]*model.UserDetails
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:  1,
		users:   make(map[int64]*model.User),
		details: make(map[int64]*model.UserDetails),
	}
}

func (r *fakeUserRepo) CreateUser(user *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return 0, repository.ErrDuplicateUsername
		}
	}
	id := r.nextID
	r.nextID++
	stored := *user
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[id] = &stored
	return id, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateUserProfile(id int64, username, email *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	for otherID, u := range r.users {
		if otherID == id {
			continue
		}
		if username != nil && u.Username == *username {
			return repository.ErrDuplicateUsername
		}
		if email != nil && u.Email == *email {
			return repository.ErrDuplicateEmail
		}
	}
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) UpdateUserRole(id int64, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) GetUserDetails(userID int64) (*model.UserDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	details, ok := r.details[userID]
	if !ok {
		return nil, nil
	}
	copied := *details
	return &copied, nil
}

func (r *fakeUserRepo) UpsertUserDetails(details *model.UserDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *details
	copied.UpdatedAt = time.Now()
	r.details[details.UserID] = &copied
	return nil
}

func (r *fakeUserRepo) deleteUser(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	delete(r.details, id)
}

type fakeSongRepo struct {
	mu            sync.Mutex
	nextSongID    int64
	nextCommentID int64
	songs         map[int64]*model.Song
	likes         map[int64]map[int64]bool
	comments      []*model.SongComment
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{
		nextSongID:    1,
		nextCommentID: 1,
		songs:         make(map[int64]*model.Song),
		likes:         make(map[int64]map[int64]bool),
	}
}

func (r *fakeSongRepo) CreateSong(_ context.Context, song *model.Song) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSongID
	r.nextSongID++
	stored := *song
	stored.ID = id
	if stored.ReleaseDate.IsZero() {
		stored.ReleaseDate = time.Now()
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.songs[id] = &stored
	r.likes[id] = make(map[int64]bool)
	return id, nil
}

func (r *fakeSongRepo) GetSongByID(_ context.Context, id int64) (*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return nil, nil
	}
	copied := *song
	copied.LikeCount = int64(len(r.likes[id]))
	return &copied, nil
}

func (r *fakeSongRepo) ListSongs(_ context.Context, search string, offset, limit int) ([]*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Song, 0)
	for _, song := range r.songs {
		if search != "" {
			genre := ""
			if song.Genre.Valid {
				genre = song.Genre.String
			}
			if !strings.Contains(strings.ToLower(song.Title+" "+genre), strings.ToLower(search)) {
				continue
			}
		}
		copied := *song
		copied.LikeCount = int64(len(r.likes[song.ID]))
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*model.Song{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSongRepo) UpdateSong(_ context.Context, song *model.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.songs[song.ID]
	if !ok {
		return fmt.Errorf("song %d not found", song.ID)
	}
	copied := *song
	copied.CreatedAt = stored.CreatedAt
	copied.Plays = stored.Plays
	copied.UpdatedAt = time.Now()
	r.songs[song.ID] = &copied
	return nil
}

func (r *fakeSongRepo) DeleteSong(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.songs, id)
	delete(r.likes, id)
	remaining := r.comments[:0]
	for _, c := range r.comments {
		if c.SongID != id {
			remaining = append(remaining, c)
		}
	}
	r.comments = remaining
	return nil
}

func (r *fakeSongRepo) IncrementPlays(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return nil
	}
	song.Plays++
	return nil
}

func (r *fakeSongRepo) LikeSong(_ context.Context, songID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	likes, ok := r.likes[songID]
	if !ok {
		return false, fmt.Errorf("song %d not found", songID)
	}
	if likes[userID] {
		return false, nil
	}
	likes[userID] = true
	return true, nil
}

func (r *fakeSongRepo) UnlikeSong(_ context.Context, songID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	likes, ok := r.likes[songID]
	if !ok || !likes[userID] {
		return false, nil
	}
	delete(likes, userID)
	return true, nil
}

func (r *fakeSongRepo) HasLiked(_ context.Context, songID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[songID][userID], nil
}

func (r *fakeSongRepo) AddComment(_ context.Context, comment *model.SongComment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextCommentID
	r.nextCommentID++
	stored := *comment
	stored.ID = id
	stored.CreatedAt = time.Now()
	r.comments = append(r.comments, &stored)
	return id, nil
}

func (r *fakeSongRepo) ListComments(_ context.Context, songID int64) ([]*model.SongComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.SongComment, 0)
	for _, c := range r.comments {
		if c.SongID == songID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSongRepo) TrendingSongs(_ context.Context, limit int) ([]*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Song, 0, len(r.songs))
	for _, song := range r.songs {
		copied := *song
		copied.LikeCount = int64(len(r.likes[song.ID]))
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSongRepo) likeSetSize(songID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.likes[songID])
}

type fakeArtistRequestRepo struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*model.ArtistRequest
}

func newFakeArtistRequestRepo() *fakeArtistRequestRepo {
	return &fakeArtistRequestRepo{
		nextID:   1,
		requests: make(map[int64]*model.ArtistRequest),
	}
}

func (r *fakeArtistRequestRepo) CreateRequest(_ context.Context, req *model.ArtistRequest) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	stored := *req
	stored.ID = id
	stored.Status = model.RequestPending
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.requests[id] = &stored
	return id, nil
}

func (r *fakeArtistRequestRepo) GetRequestByID(_ context.Context, id int64) (*model.ArtistRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (r *fakeArtistRequestRepo) GetLatestRequestByUser(_ context.Context, userID int64) (*model.ArtistRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.ArtistRequest
	for _, req := range r.requests {
		if req.UserID != userID {
			continue
		}
		if latest == nil || req.ID > latest.ID {
			latest = req
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeArtistRequestRepo) ListRequests(_ context.Context, status model.RequestStatus) ([]*model.ArtistRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.ArtistRequest, 0)
	for _, req := range r.requests {
		if status != "" && req.Status != status {
			continue
		}
		copied := *req
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeArtistRequestRepo) UpdateRequestStatus(_ context.Context, id int64, status model.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("artist request %d not found", id)
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

// fakeStorage records uploads and removals in memory.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, reader io.Reader, _ int64, objectKey, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = data
	return "http://storage.test/melodies/" + objectKey, nil
}

func (s *fakeStorage) Remove(_ context.Context, fileURL string) error {
	key := strings.TrimPrefix(fileURL, "http://storage.test/melodies/")
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

// testEnv wires a handler over the fakes with a real router and token
// service.
type testEnv struct {
	handler     *APIHandler
	userRepo    *fakeUserRepo
	songRepo    *fakeSongRepo
	requestRepo *fakeArtistRequestRepo
	store       *fakeStorage
	tokens      *auth.TokenService
}

func newTestEnv() *testEnv {
	userRepo := newFakeUserRepo()
	songRepo := newFakeSongRepo()
	requestRepo := newFakeArtistRequestRepo()
	store := newFakeStorage()
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	cfg := &config.Config{
		MaxAudioSize: 10 << 20,
		MaxImageSize: 2 << 20,
	}
	return &testEnv{
		handler:     NewAPIHandler(userRepo, songRepo, requestRepo, store, tokens, cfg),
		userRepo:    userRepo,
		songRepo:    songRepo,
		requestRepo: requestRepo,
		store:       store,
		tokens:      tokens,
	}
}

func (e *testEnv) addUser(username, email string, role model.Role) (*model.User, string) {
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "irrelevant",
		Role:         role,
	}
	id, err := e.userRepo.CreateUser(user)
	if err != nil {
		panic(err)
	}
	user.ID = id
	token, err := e.tokens.Issue(id)
	if err != nil {
		panic(err)
	}
	return user, token
}

func (e *testEnv) addSong(artistID int64, title string) *model.Song {
	song := &model.Song{
		ArtistID: artistID,
		Title:    title,
		AudioURL: "http://storage.test/melodies/audio/seed.mp3",
	}
	id, err := e.songRepo.CreateSong(context.Background(), song)
	if err != nil {
		panic(err)
	}
	stored, err := e.songRepo.GetSongByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return stored
}
