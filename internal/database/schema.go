package database

import (
	"context"
	"database/sql"
	"fmt"
)

// BookingSequenceName is the counter row used for booking identifiers.
const BookingSequenceName = "booking"

// schema is applied in order by Migrate.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100)    NOT NULL DEFAULT '',
		email         VARCHAR(255)    NOT NULL,
		phone         VARCHAR(32)     NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          VARCHAR(16)     NOT NULL DEFAULT 'CUSTOMER',
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS packages (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name              VARCHAR(100)    NOT NULL,
		description       TEXT            NOT NULL,
		short_description VARCHAR(200)    NOT NULL,
		price             DECIMAL(12,2)   NOT NULL,
		original_price    DECIMAL(12,2)   NOT NULL DEFAULT 0,
		duration_days     INT             NOT NULL,
		duration_nights   INT             NOT NULL DEFAULT 0,
		categories        JSON            NOT NULL,
		inclusions        JSON            NOT NULL,
		exclusions        JSON            NOT NULL,
		itinerary         JSON            NOT NULL,
		images            JSON            NOT NULL,
		highlights        JSON            NOT NULL,
		difficulty        VARCHAR(16)     NOT NULL DEFAULT 'easy',
		max_travelers     INT             NOT NULL DEFAULT 10,
		available_dates   JSON            NOT NULL,
		is_active         TINYINT(1)      NOT NULL DEFAULT 1,
		rating_average    DECIMAL(3,2)    NOT NULL DEFAULT 0,
		rating_count      INT             NOT NULL DEFAULT 0,
		created_by        BIGINT UNSIGNED NULL,
		created_at        DATETIME(3)     NOT NULL,
		updated_at        DATETIME(3)     NOT NULL,
		KEY idx_packages_active_price (is_active, price),
		KEY idx_packages_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS experiences (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name              VARCHAR(100)    NOT NULL,
		description       TEXT            NOT NULL,
		short_description VARCHAR(150)    NOT NULL,
		price             DECIMAL(12,2)   NOT NULL,
		duration_value    INT             NOT NULL,
		duration_unit     VARCHAR(8)      NOT NULL DEFAULT 'hours',
		category          VARCHAR(16)     NOT NULL,
		location          VARCHAR(200)    NOT NULL,
		meeting_point     VARCHAR(200)    NOT NULL DEFAULT '',
		includes          JSON            NOT NULL,
		requirements      JSON            NOT NULL,
		images            JSON            NOT NULL,
		max_participants  INT             NOT NULL DEFAULT 10,
		available_slots   JSON            NOT NULL,
		guide_id          BIGINT UNSIGNED NULL,
		rating_average    DECIMAL(3,2)    NOT NULL DEFAULT 0,
		rating_count      INT             NOT NULL DEFAULT 0,
		is_active         TINYINT(1)      NOT NULL DEFAULT 1,
		highlights        JSON            NOT NULL,
		created_at        DATETIME(3)     NOT NULL,
		updated_at        DATETIME(3)     NOT NULL,
		KEY idx_experiences_active_category (is_active, category)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		booking_id          VARCHAR(40)     NOT NULL,
		user_id             BIGINT UNSIGNED NOT NULL,
		package_id          BIGINT UNSIGNED NOT NULL,
		travelers           JSON            NOT NULL,
		start_date          DATETIME(3)     NOT NULL,
		end_date            DATETIME(3)     NULL,
		duration_days       INT             NOT NULL,
		contact_info        JSON            NOT NULL,
		package_price       DECIMAL(12,2)   NOT NULL,
		extra_charges       DECIMAL(12,2)   NOT NULL DEFAULT 0,
		discount            DECIMAL(12,2)   NOT NULL DEFAULT 0,
		tax_amount          DECIMAL(12,2)   NOT NULL DEFAULT 0,
		total_amount        DECIMAL(12,2)   NOT NULL,
		final_amount        DECIMAL(12,2)   NOT NULL,
		payment_status      VARCHAR(16)     NOT NULL DEFAULT 'pending',
		payment_method      VARCHAR(16)     NULL,
		transaction_id      VARCHAR(128)    NULL,
		razorpay_order_id   VARCHAR(128)    NULL,
		razorpay_payment_id VARCHAR(128)    NULL,
		paid_at             DATETIME(3)     NULL,
		status              VARCHAR(16)     NOT NULL DEFAULT 'pending',
		special_requests    TEXT            NULL,
		assigned_guide      BIGINT UNSIGNED NULL,
		is_cancelled        TINYINT(1)      NOT NULL DEFAULT 0,
		cancelled_at        DATETIME(3)     NULL,
		cancellation_reason TEXT            NULL,
		refund_amount       DECIMAL(12,2)   NULL,
		reviews             JSON            NOT NULL,
		created_at          DATETIME(3)     NOT NULL,
		updated_at          DATETIME(3)     NOT NULL,
		UNIQUE KEY uq_bookings_booking_id (booking_id),
		KEY idx_bookings_user (user_id, created_at),
		KEY idx_bookings_guide (assigned_guide),
		KEY idx_bookings_package (package_id),
		KEY idx_bookings_status (status, payment_status),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_package FOREIGN KEY (package_id) REFERENCES packages (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS booking_sequences (
		name  VARCHAR(32)     NOT NULL PRIMARY KEY,
		value BIGINT UNSIGNED NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables and seeds the booking counter row.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	if _, err := db.ExecContext(ctx,
		"INSERT IGNORE INTO booking_sequences (name, value) VALUES (?, 0)", BookingSequenceName); err != nil {
		return fmt.Errorf("seed booking sequence: %w", err)
	}
	return nil
}
