package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		remote_id    BIGINT NULL,
		title        VARCHAR(255) NOT NULL,
		description  TEXT NULL,
		event_date   DATE NOT NULL,
		event_time   CHAR(8) NOT NULL,
		seat_rows    INT NOT NULL,
		seat_cols    INT NOT NULL,
		total_seats  INT NOT NULL,
		unit_price   DECIMAL(12,2) NOT NULL DEFAULT 0,
		is_active    TINYINT(1) NOT NULL DEFAULT 1,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_events_remote (remote_id),
		KEY idx_events_active (is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id    BIGINT UNSIGNED NOT NULL,
		seat_row    INT NOT NULL,
		seat_col    INT NOT NULL,
		status      ENUM('FREE','HELD','SOLD') NOT NULL DEFAULT 'FREE',
		occupant    VARCHAR(255) NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seats_position (event_id, seat_row, seat_col),
		CONSTRAINT fk_seats_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sales (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id        BIGINT UNSIGNED NOT NULL,
		remote_sale_id  BIGINT NOT NULL,
		sale_date       DATETIME NOT NULL,
		status          VARCHAR(32) NOT NULL,
		description     TEXT NULL,
		total_price     DECIMAL(12,2) NOT NULL,
		seat_count      INT NOT NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_sales_event (event_id),
		KEY idx_sales_remote (remote_sale_id),
		CONSTRAINT fk_sales_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	// seat_id is not a foreign key: mirror rows are regenerated on every
	// seat sync while sale history must survive.
	`CREATE TABLE IF NOT EXISTS sale_seats (
		sale_id   BIGINT UNSIGNED NOT NULL,
		event_id  BIGINT UNSIGNED NOT NULL,
		seat_id   BIGINT UNSIGNED NOT NULL,
		seat_row  INT NOT NULL,
		seat_col  INT NOT NULL,
		occupant  VARCHAR(255) NOT NULL,
		PRIMARY KEY (sale_id, seat_row, seat_col),
		CONSTRAINT fk_sale_seats_sale FOREIGN KEY (sale_id) REFERENCES sales(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
