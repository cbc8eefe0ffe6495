package dao

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/si451/creatorconnect/backend/config"
)

// Open connects to MySQL and verifies the connection.
func Open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the tables this service needs if they do not exist:
// durable session identity per (tenant, creator) and verified payments.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			tenant           VARCHAR(64)  NOT NULL,
			creator_username VARCHAR(128) NOT NULL,
			platform         VARCHAR(32)  NOT NULL DEFAULT '',
			session_id       CHAR(36)     NOT NULL,
			created_at       DATETIME     NOT NULL,
			PRIMARY KEY (tenant, creator_username)
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id             CHAR(26)      NOT NULL,
			tenant         VARCHAR(64)   NOT NULL,
			deal_id        CHAR(36)      NOT NULL,
			order_id       VARCHAR(64)   NOT NULL,
			key_id         VARCHAR(64)   NOT NULL DEFAULT '',
			amount         DECIMAL(12,2) NOT NULL,
			creator_email  VARCHAR(255)  NOT NULL,
			transaction_id VARCHAR(64)   NOT NULL,
			payment_date   DATETIME      NOT NULL,
			created_at     DATETIME      NOT NULL,
			PRIMARY KEY (id),
			KEY idx_payments_tenant (tenant),
			KEY idx_payments_deal (deal_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
