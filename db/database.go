package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Hungichi/melodies-BE/config"
	"github.com/Hungichi/melodies-BE/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxIdleConns(10)
	DB.SetMaxOpenConns(100)
	DB.SetConnMaxLifetime(time.Hour)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist. The unique indexes on users.username and users.email are the actual
// uniqueness enforcers; application-level duplicate checks exist only to
// produce better error messages.
func InitDB() error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(64) NOT NULL,
				email VARCHAR(255) NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				role VARCHAR(16) NOT NULL DEFAULT 'user',
				is_premium BOOLEAN NOT NULL DEFAULT FALSE,
				premium_expiry DATETIME NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				UNIQUE KEY uq_users_username (username),
				UNIQUE KEY uq_users_email (email)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"user_details", `
			CREATE TABLE IF NOT EXISTS user_details (
				user_id BIGINT PRIMARY KEY,
				full_name VARCHAR(255) NULL,
				date_of_birth DATE NULL,
				bio TEXT NULL,
				location VARCHAR(255) NULL,
				profile_image VARCHAR(512) NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"songs", `
			CREATE TABLE IF NOT EXISTS songs (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				artist_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				album VARCHAR(255) NULL,
				genre VARCHAR(64) NULL,
				duration DOUBLE NOT NULL DEFAULT 0,
				audio_url VARCHAR(512) NOT NULL,
				cover_url VARCHAR(512) NULL,
				lyrics TEXT NULL,
				release_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				plays BIGINT NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				KEY idx_songs_artist (artist_id),
				KEY idx_songs_plays (plays),
				FULLTEXT KEY ft_songs_title_genre (title, genre)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"song_likes", `
			CREATE TABLE IF NOT EXISTS song_likes (
				song_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (song_id, user_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"artist_requests", `
			CREATE TABLE IF NOT EXISTS artist_requests (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				artist_name VARCHAR(255) NOT NULL,
				bio TEXT NULL,
				profile_image VARCHAR(512) NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				KEY idx_artist_requests_user (user_id, created_at),
				KEY idx_artist_requests_status (status)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"song_comments", `
			CREATE TABLE IF NOT EXISTS song_comments (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				song_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				text TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				KEY idx_song_comments_song (song_id, created_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
		logger.Debug("Table ensured", logger.String("table", stmt.name))
	}

	logger.Info("Database schema initialized")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
