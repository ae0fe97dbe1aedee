package db

import (
	"database/sql"
	"fmt"
	"log"

	"Musga/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// The transactions table is managed separately by the GORM automigration.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createVocalsTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		username VARCHAR(100) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		role ENUM('singer','dj') NOT NULL,
		bio TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createVocalsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS vocals (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		singer_id BIGINT NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		genre ENUM('house','techno','trance','dubstep','drum_and_bass','electronic','deep_house','progressive','ambient','downtempo') NOT NULL,
		bpm INT NOT NULL,
		` + "`key`" + ` VARCHAR(32) NOT NULL,
		tone VARCHAR(64) NOT NULL,
		duration INT NOT NULL DEFAULT 0,
		price DECIMAL(10,2) NOT NULL,
		licensing_type ENUM('exclusive','non_exclusive') NOT NULL,
		file_path VARCHAR(767) NOT NULL,
		preview_path VARCHAR(767) NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		status ENUM('processing','completed','failed') NOT NULL DEFAULT 'processing',
		is_exclusive BOOLEAN NOT NULL DEFAULT FALSE,
		is_sold BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		view_count BIGINT NOT NULL DEFAULT 0,
		download_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_singer_vocals FOREIGN KEY (singer_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_vocals_browse (is_active, is_sold, status, created_at),
		INDEX idx_vocals_singer (singer_id, is_active)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create vocals table: %w", err)
	}
	log.Println("Vocals table initialized successfully (or already exists).")
	return nil
}
