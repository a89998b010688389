package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Hungichi/melodies-BE/apperr"
	"github.com/Hungichi/melodies-BE/logger"
	"github.com/Hungichi/melodies-BE/model"

	"github.com/gorilla/mux"
)

func requestIDFromRequest(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["requestId"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid request id")
	}
	return id, nil
}

// CreateArtistRequestHandler submits an application for the artist role.
// Multipart: artistName required, bio optional, profileImage optional. One
// pending request per user; a rejected user may apply again.
func (h *APIHandler) CreateArtistRequestHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := GetUserFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	if caller.Role != model.RoleUser {
		writeError(w, apperr.Validation("account already has artist access"))
		return
	}

	latest, err := h.requestRepo.GetLatestRequestByUser(r.Context(), caller.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if latest != nil && latest.Status == model.RequestPending {
		writeError(w, apperr.Conflict("artist request already pending"))
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxImageSize); err != nil {
		writeError(w, apperr.Validation("failed to parse upload form"))
		return
	}

	artistName := strings.TrimSpace(r.FormValue("artistName"))
	if artistName == "" {
		writeError(w, apperr.Validation("artistName is required"))
		return
	}

	req := &model.ArtistRequest{
		UserID:     caller.ID,
		ArtistName: artistName,
		Status:     model.RequestPending,
	}
	if bio := strings.TrimSpace(r.FormValue("bio")); bio != "" {
		req.Bio = sql.NullString{String: bio, Valid: true}
	}

	imageURL, appError := h.uploadFormFile(r, "profileImage", false)
	if appError != nil {
		writeError(w, appError)
		return
	}
	if imageURL != "" {
		req.ProfileImage = sql.NullString{String: imageURL, Valid: true}
	}

	requestID, err := h.requestRepo.CreateRequest(r.Context(), req)
	if err != nil {
		h.removeObject(r.Context(), imageURL)
		writeError(w, err)
		return
	}

	created, err := h.requestRepo.GetRequestByID(r.Context(), requestID)
	if err != nil || created == nil {
		writeError(w, apperr.Internal(err))
		return
	}

	logger.Info("Artist request submitted",
		logger.Int64("requestId", requestID),
		logger.Int64("userId", caller.ID),
		logger.String("artistName", artistName))

	writeData(w, http.StatusCreated, created.PublicView())
}

// ListArtistRequestsHandler returns all artist requests for review, newest
// first, optionally filtered by ?status=. Admin only via the route gate.
func (h *APIHandler) ListArtistRequestsHandler(w http.ResponseWriter, r *http.Request) {
	var status model.RequestStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		parsed, err := model.ParseRequestStatus(statusStr)
		if err != nil {
			writeError(w, apperr.Validation("status must be pending, approved or rejected"))
			return
		}
		status = parsed
	}

	requests, err := h.requestRepo.ListRequests(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]*model.PublicArtistRequest, 0, len(requests))
	for _, req := range requests {
		views = append(views, req.PublicView())
	}
	writeData(w, http.StatusOK, views)
}

// UpdateArtistRequestStatusHandler resolves a pending request. Approval
// promotes the applicant to the artist role. Admin only via the route gate.
func (h *APIHandler) UpdateArtistRequestStatusHandler(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	status, err := model.ParseRequestStatus(body.Status)
	if err != nil || status == model.RequestPending {
		writeError(w, apperr.Validation("status must be approved or rejected"))
		return
	}

	req, err := h.requestRepo.GetRequestByID(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req == nil {
		writeError(w, apperr.NotFound("artist request not found"))
		return
	}
	if req.Status != model.RequestPending {
		writeError(w, apperr.Conflict("artist request already resolved"))
		return
	}

	if err := h.requestRepo.UpdateRequestStatus(r.Context(), requestID, status); err != nil {
		writeError(w, err)
		return
	}
	req.Status = status

	if status == model.RequestApproved {
		if err := h.userRepo.UpdateUserRole(req.UserID, model.RoleArtist); err != nil {
			writeError(w, apperr.Internal(err))
			return
		}
	}

	logger.Info("Artist request resolved",
		logger.Int64("requestId", requestID),
		logger.Int64("userId", req.UserID),
		logger.String("status", string(status)))

	writeData(w, http.StatusOK, req.PublicView())
}

// MyArtistRequestHandler returns the caller's most recent artist request.
func (h *APIHandler) MyArtistRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Auth("missing token"))
		return
	}

	req, err := h.requestRepo.GetLatestRequestByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req == nil {
		writeError(w, apperr.NotFound("no artist request found"))
		return
	}

	writeData(w, http.StatusOK, req.PublicView())
}
