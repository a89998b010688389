package repository

import (
	"database/sql"
	"fmt"

	"github.com/Hungichi/melodies-BE/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UpdateUserProfile(id int64, username, email *string) error
	UpdateUserRole(id int64, role model.Role) error
	GetUserDetails(userID int64) (*model.UserDetails, error)
	UpsertUserDetails(details *model.UserDetails) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, role, is_premium, premium_expiry, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var role string
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role,
		&user.IsPremium, &user.PremiumExpiry, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Role, err = model.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("corrupt role for user %d: %w", user.ID, err)
	}
	return user, nil
}

// CreateUser adds a new user to the database. A duplicate username or email
// is reported via the ErrDuplicate* sentinels.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Username, user.Email, user.PasswordHash, string(user.Role))
	if err != nil {
		return 0, mapDuplicateKeyError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	user, err := scanUser(r.db.QueryRow(query, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	user, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for email %s: %w", email, err)
	}
	return user, nil
}

// UpdateUserProfile updates username and/or email. Nil pointers leave the
// existing value untouched.
func (r *mysqlUserRepository) UpdateUserProfile(id int64, username, email *string) error {
	if username == nil && email == nil {
		return nil
	}

	query := "UPDATE users SET "
	args := []interface{}{}
	if username != nil {
		query += "username = ?, "
		args = append(args, *username)
	}
	if email != nil {
		query += "email = ?, "
		args = append(args, *email)
	}
	query += "updated_at = NOW() WHERE id = ?"
	args = append(args, id)

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare update user statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(args...); err != nil {
		return mapDuplicateKeyError(err)
	}
	return nil
}

// UpdateUserRole sets a user's role, used when an artist request is approved.
func (r *mysqlUserRepository) UpdateUserRole(id int64, role model.Role) error {
	_, err := r.db.Exec("UPDATE users SET role = ?, updated_at = NOW() WHERE id = ?",
		string(role), id)
	if err != nil {
		return fmt.Errorf("failed to update role for user ID %d: %w", id, err)
	}
	return nil
}

// GetUserDetails retrieves the extended profile for a user. A missing row is
// returned as nil, not an error.
func (r *mysqlUserRepository) GetUserDetails(userID int64) (*model.UserDetails, error) {
	query := `SELECT user_id, full_name, date_of_birth, bio, location, profile_image, created_at, updated_at
	           FROM user_details WHERE user_id = ?`
	row := r.db.QueryRow(query, userID)
	details := &model.UserDetails{}
	err := row.Scan(&details.UserID, &details.FullName, &details.DateOfBirth, &details.Bio,
		&details.Location, &details.ProfileImage, &details.CreatedAt, &details.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No extended profile yet
		}
		return nil, fmt.Errorf("failed to scan user details for user ID %d: %w", userID, err)
	}
	return details, nil
}

// UpsertUserDetails creates or updates the extended profile row for a user.
func (r *mysqlUserRepository) UpsertUserDetails(details *model.UserDetails) error {
	query := `INSERT INTO user_details (user_id, full_name, date_of_birth, bio, location, profile_image)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             full_name = VALUES(full_name),
	             date_of_birth = VALUES(date_of_birth),
	             bio = VALUES(bio),
	             location = VALUES(location),
	             profile_image = VALUES(profile_image),
	             updated_at = NOW()`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert user details statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(details.UserID, details.FullName, details.DateOfBirth,
		details.Bio, details.Location, details.ProfileImage)
	if err != nil {
		return fmt.Errorf("failed to upsert user details for user ID %d: %w", details.UserID, err)
	}
	return nil
}
