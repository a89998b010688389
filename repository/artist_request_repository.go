package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Hungichi/melodies-BE/model"
)

// ArtistRequestRepository defines the interface for artist-request data
// operations.
type ArtistRequestRepository interface {
	CreateRequest(ctx context.Context, req *model.ArtistRequest) (int64, error)
	GetRequestByID(ctx context.Context, id int64) (*model.ArtistRequest, error)
	GetLatestRequestByUser(ctx context.Context, userID int64) (*model.ArtistRequest, error)
	ListRequests(ctx context.Context, status model.RequestStatus) ([]*model.ArtistRequest, error)
	UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error
}

// mysqlArtistRequestRepository implements ArtistRequestRepository for MySQL.
type mysqlArtistRequestRepository struct {
	db *sql.DB
}

// NewMySQLArtistRequestRepository creates a new mysqlArtistRequestRepository.
func NewMySQLArtistRequestRepository(db *sql.DB) ArtistRequestRepository {
	return &mysqlArtistRequestRepository{db: db}
}

const requestColumns = "r.id, r.user_id, r.artist_name, r.bio, r.profile_image, r.status, r.created_at, r.updated_at"

func scanRequest(scanner interface{ Scan(...interface{}) error }) (*model.ArtistRequest, error) {
	req := &model.ArtistRequest{}
	var status string
	err := scanner.Scan(&req.ID, &req.UserID, &req.ArtistName, &req.Bio,
		&req.ProfileImage, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.Status, err = model.ParseRequestStatus(status)
	if err != nil {
		return nil, fmt.Errorf("corrupt status for artist request %d: %w", req.ID, err)
	}
	return req, nil
}

// CreateRequest stores a new pending artist request.
func (r *mysqlArtistRequestRepository) CreateRequest(ctx context.Context, req *model.ArtistRequest) (int64, error) {
	query := `INSERT INTO artist_requests (user_id, artist_name, bio, profile_image, status)
	           VALUES (?, ?, ?, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateRequest: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, req.UserID, req.ArtistName, req.Bio,
		req.ProfileImage, string(model.RequestPending))
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateRequest: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateRequest: %w", err)
	}
	return id, nil
}

// GetRequestByID retrieves an artist request by its ID.
func (r *mysqlArtistRequestRepository) GetRequestByID(ctx context.Context, id int64) (*model.ArtistRequest, error) {
	query := "SELECT " + requestColumns + " FROM artist_requests r WHERE r.id = ?"
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Request not found
		}
		return nil, fmt.Errorf("failed to scan artist request %d: %w", id, err)
	}
	return req, nil
}

// GetLatestRequestByUser retrieves a user's most recent artist request. A
// missing row is returned as nil, not an error.
func (r *mysqlArtistRequestRepository) GetLatestRequestByUser(ctx context.Context, userID int64) (*model.ArtistRequest, error) {
	query := "SELECT " + requestColumns + ` FROM artist_requests r
	           WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC LIMIT 1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No request yet
		}
		return nil, fmt.Errorf("failed to scan artist request for user %d: %w", userID, err)
	}
	return req, nil
}

// ListRequests retrieves artist requests newest first with the applicant's
// username joined in, optionally filtered by status.
func (r *mysqlArtistRequestRepository) ListRequests(ctx context.Context, status model.RequestStatus) ([]*model.ArtistRequest, error) {
	query := "SELECT " + requestColumns + `, u.username
	           FROM artist_requests r JOIN users u ON u.id = r.user_id`
	args := []interface{}{}
	if status != "" {
		query += " WHERE r.status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artist requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*model.ArtistRequest, 0)
	for rows.Next() {
		req := &model.ArtistRequest{}
		var statusStr string
		err := rows.Scan(&req.ID, &req.UserID, &req.ArtistName, &req.Bio,
			&req.ProfileImage, &statusStr, &req.CreatedAt, &req.UpdatedAt, &req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist request row: %w", err)
		}
		req.Status, err = model.ParseRequestStatus(statusStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt status for artist request %d: %w", req.ID, err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListRequests: %w", err)
	}
	return requests, nil
}

// UpdateRequestStatus sets the status of an artist request.
func (r *mysqlArtistRequestRepository) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE artist_requests SET status = ?, updated_at = NOW() WHERE id = ?",
		string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update status for artist request %d: %w", id, err)
	}
	return nil
}
