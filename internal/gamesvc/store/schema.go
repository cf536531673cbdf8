package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id                   TEXT PRIMARY KEY,
		bump                 SMALLINT NOT NULL DEFAULT 0,
		version              SMALLINT NOT NULL DEFAULT 0,
		creator              TEXT NOT NULL,
		nonce                BIGINT NOT NULL,
		board_rows           SMALLINT NOT NULL,
		board_cols           SMALLINT NOT NULL,
		connect_n            SMALLINT NOT NULL,
		min_players          SMALLINT NOT NULL,
		max_players          SMALLINT NOT NULL,
		wager                BIGINT NOT NULL,
		players              TEXT[] NOT NULL DEFAULT '{}',
		joined               SMALLINT NOT NULL DEFAULT 0,
		board                TEXT NOT NULL,
		moves                INTEGER NOT NULL DEFAULT 0,
		current_player_index SMALLINT NOT NULL DEFAULT 0,
		state                TEXT NOT NULL,
		winner               TEXT NOT NULL DEFAULT '',
		pot_id               TEXT NOT NULL,
		init_timestamp       BIGINT NOT NULL,
		last_move_slot       BIGINT NOT NULL DEFAULT 0,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT unique_creator_nonce UNIQUE (creator, nonce)
	)`,
	`CREATE TABLE IF NOT EXISTS pots (
		id         TEXT PRIMARY KEY,
		bump       SMALLINT NOT NULL DEFAULT 0,
		game_id    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		id          TEXT PRIMARY KEY,
		bump        SMALLINT NOT NULL DEFAULT 0,
		initialized BOOLEAN NOT NULL DEFAULT FALSE,
		authority   TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id           BIGSERIAL PRIMARY KEY,
		account_type TEXT NOT NULL,
		account_ref  TEXT NOT NULL,
		game_id      TEXT NOT NULL DEFAULT '',
		ttype        TEXT NOT NULL,
		dr           NUMERIC(20, 0) NOT NULL DEFAULT 0,
		cr           NUMERIC(20, 0) NOT NULL DEFAULT 0,
		tref         TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_account ON ledger_entries (account_type, account_ref)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_tref ON ledger_entries (tref)`,
	`CREATE INDEX IF NOT EXISTS idx_games_state ON games (state)`,
}

// EnsureSchema creates the tables the game service needs. Statements
// are idempotent so every service instance runs this on boot.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
