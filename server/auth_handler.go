package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Hungichi/melodies-BE/apperr"
	"github.com/Hungichi/melodies-BE/core/auth"
	"github.com/Hungichi/melodies-BE/logger"
	"github.com/Hungichi/melodies-BE/model"
	"github.com/Hungichi/melodies-BE/repository"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries a partial profile update. Nil fields leave
// existing values untouched.
type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	FullName     *string `json:"fullName"`
	DateOfBirth  *string `json:"dateOfBirth"` // YYYY-MM-DD
	Bio          *string `json:"bio"`
	Location     *string `json:"location"`
	ProfileImage *string `json:"profileImage"`
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, apperr.Validation("username, email and password are required"))
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, apperr.Validation("passwords do not match"))
		return
	}

	// Pre-checks give per-field conflict messages; the unique indexes remain
	// the real enforcer under concurrent registration.
	existing, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if existing != nil {
		writeError(w, apperr.Conflict("email already exists"))
		return
	}
	existing, err = h.userRepo.GetUserByUsername(req.Username)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if existing != nil {
		writeError(w, apperr.Conflict("username already exists"))
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         model.RoleUser,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			writeError(w, apperr.Conflict("email already exists"))
		case errors.Is(err, repository.ErrDuplicateUsername):
			writeError(w, apperr.Conflict("username already exists"))
		case errors.Is(err, repository.ErrDuplicateUser):
			writeError(w, apperr.Conflict("username or email already exists"))
		default:
			writeError(w, apperr.Internal(err))
		}
		return
	}
	user.ID = userID

	// Lazily seed the extended profile. Failure here is not fatal to
	// registration; the upsert on first profile update recovers it.
	details := &model.UserDetails{
		UserID:   userID,
		FullName: sql.NullString{String: req.Username, Valid: true},
	}
	if err := h.userRepo.UpsertUserDetails(details); err != nil {
		logger.Warn("Failed to seed user details", logger.Int64("userId", userID), logger.ErrorField(err))
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	logger.Info("User registered",
		logger.Int64("userId", userID),
		logger.String("username", user.Username))

	writeJSON(w, http.StatusCreated, response{
		Success: true,
		Token:   token,
		User:    user.PublicView(nil),
	})
}

// LoginHandler handles user login requests. Unknown email and wrong password
// produce identical responses so account existence cannot be probed.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, apperr.Validation("email and password are required"))
		return
	}

	user, err := h.userRepo.GetUserByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("Login failed", logger.String("email", req.Email))
		writeError(w, apperr.Auth("invalid credentials"))
		return
	}

	details, err := h.userRepo.GetUserDetails(user.ID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	logger.Info("User logged in", logger.Int64("userId", user.ID))

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "login successful",
		Token:   token,
		User:    user.PublicView(details),
	})
}

// MeHandler returns the caller's merged profile. The identifier comes from
// the verified token, never from a client-supplied field.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if user == nil {
		// Valid token, vanished account.
		writeError(w, apperr.NotFound("user not found"))
		return
	}

	details, err := h.userRepo.GetUserDetails(user.ID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		User:    user.PublicView(details),
	})
}

// UpdateProfileHandler applies a partial profile update: identity fields on
// the user row, extended fields upserted into user_details.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if user == nil {
		writeError(w, apperr.NotFound("user not found"))
		return
	}

	// Uniqueness is re-checked only for fields actually changing. Values are
	// trimmed first so whitespace around the caller's current name or email
	// does not read as a change, and a lookup that finds the caller's own row
	// is not a conflict.
	var newUsername, newEmail *string
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != "" && username != user.Username {
			other, err := h.userRepo.GetUserByUsername(username)
			if err != nil {
				writeError(w, apperr.Internal(err))
				return
			}
			if other != nil && other.ID != userID {
				writeError(w, apperr.Conflict("username already exists"))
				return
			}
			newUsername = &username
		}
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && email != user.Email {
			other, err := h.userRepo.GetUserByEmail(email)
			if err != nil {
				writeError(w, apperr.Internal(err))
				return
			}
			if other != nil && other.ID != userID {
				writeError(w, apperr.Conflict("email already exists"))
				return
			}
			newEmail = &email
		}
	}

	if newUsername != nil || newEmail != nil {
		if err := h.userRepo.UpdateUserProfile(userID, newUsername, newEmail); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicateEmail):
				writeError(w, apperr.Conflict("email already exists"))
			case errors.Is(err, repository.ErrDuplicateUsername):
				writeError(w, apperr.Conflict("username already exists"))
			default:
				writeError(w, apperr.Internal(err))
			}
			return
		}
		if newUsername != nil {
			user.Username = *newUsername
		}
		if newEmail != nil {
			user.Email = *newEmail
		}
	}

	// Merge extended fields over the existing row, then upsert.
	details, err := h.userRepo.GetUserDetails(userID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if details == nil {
		details = &model.UserDetails{UserID: userID}
	}
	if req.FullName != nil {
		details.FullName = sql.NullString{String: *req.FullName, Valid: true}
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			writeError(w, apperr.Validation("dateOfBirth must be YYYY-MM-DD"))
			return
		}
		details.DateOfBirth = sql.NullTime{Time: dob, Valid: true}
	}
	if req.Bio != nil {
		details.Bio = sql.NullString{String: *req.Bio, Valid: true}
	}
	if req.Location != nil {
		details.Location = sql.NullString{String: *req.Location, Valid: true}
	}
	if req.ProfileImage != nil {
		details.ProfileImage = sql.NullString{String: *req.ProfileImage, Valid: true}
	}

	if err := h.userRepo.UpsertUserDetails(details); err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	logger.Info("Profile updated", logger.Int64("userId", userID))

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "profile updated successfully",
		User:    user.PublicView(details),
	})
}
