package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/models"
	"github.com/connect-squares/connect-services/internal/gamesvc/service"
)

const gameColumns = `id, bump, version, creator, nonce,
	board_rows, board_cols, connect_n, min_players, max_players, wager,
	players, joined, board, moves, current_player_index, state, winner,
	pot_id, init_timestamp, last_move_slot, created_at, updated_at`

// Postgres backs the game service with a pgx connection pool. Every
// operation the service runs goes through InTx; record reads inside a
// transaction take row locks so concurrent operations serialize per
// record.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) GetGame(ctx context.Context, id string) (*models.Game, error) {
	return scanGame(s.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
}

func (s *Postgres) Balance(ctx context.Context, acct service.Account) (int64, error) {
	return queryBalance(ctx, s.db, acct)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func queryBalance(ctx context.Context, q rowQuerier, acct service.Account) (int64, error) {
	var totalDr, totalCr decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(dr), 0), COALESCE(SUM(cr), 0)
		FROM ledger_entries
		WHERE account_type = $1 AND account_ref = $2
	`, acct.Type, acct.Ref).Scan(&totalDr, &totalCr)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return totalDr.Sub(totalCr).IntPart(), nil
}

func scanGame(row pgx.Row) (*models.Game, error) {
	g := &models.Game{}
	err := row.Scan(
		&g.ID, &g.Bump, &g.Version, &g.Creator, &g.Nonce,
		&g.Rows, &g.Cols, &g.Connect, &g.MinPlayers, &g.MaxPlayers, &g.Wager,
		&g.Players, &g.Joined, &g.Board, &g.Moves, &g.CurrentPlayerIndex, &g.State, &g.Winner,
		&g.PotID, &g.InitTimestamp, &g.LastMoveSlot, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// pgTx adapts a pgx transaction to the store contract the service
// operates on.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetGame(ctx context.Context, id string) (*models.Game, error) {
	return scanGame(t.tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) CreateGame(ctx context.Context, game *models.Game, pot *models.Pot) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO games (id, bump, version, creator, nonce,
			board_rows, board_cols, connect_n, min_players, max_players, wager,
			players, joined, board, moves, current_player_index, state, winner,
			pot_id, init_timestamp, last_move_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING created_at, updated_at
	`,
		game.ID, game.Bump, game.Version, game.Creator, game.Nonce,
		game.Rows, game.Cols, game.Connect, game.MinPlayers, game.MaxPlayers, game.Wager,
		game.Players, game.Joined, game.Board, game.Moves, game.CurrentPlayerIndex, game.State, game.Winner,
		game.PotID, game.InitTimestamp, game.LastMoveSlot,
	).Scan(&game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateGame
		}
		return fmt.Errorf("failed to create game: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO pots (id, bump, game_id) VALUES ($1, $2, $3)
	`, pot.ID, pot.Bump, pot.GameID)
	if err != nil {
		return fmt.Errorf("failed to create pot: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateGame(ctx context.Context, game *models.Game) error {
	err := t.tx.QueryRow(ctx, `
		UPDATE games SET
			players = $2, joined = $3, board = $4, moves = $5,
			current_player_index = $6, state = $7, winner = $8,
			last_move_slot = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		game.ID, game.Players, game.Joined, game.Board, game.Moves,
		game.CurrentPlayerIndex, game.State, game.Winner, game.LastMoveSlot,
	).Scan(&game.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrNotFound
		}
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteGame(ctx context.Context, gameID, potID string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM pots WHERE id = $1`, potID); err != nil {
		return fmt.Errorf("failed to delete pot: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (t *pgTx) GetMetadata(ctx context.Context, id string) (*models.Metadata, error) {
	md := &models.Metadata{}
	err := t.tx.QueryRow(ctx, `
		SELECT id, bump, initialized, authority, updated_at
		FROM metadata WHERE id = $1 FOR UPDATE
	`, id).Scan(&md.ID, &md.Bump, &md.Initialized, &md.Authority, &md.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// the singleton materializes uninitialized
			return &models.Metadata{ID: id}, nil
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return md, nil
}

func (t *pgTx) SaveMetadata(ctx context.Context, md *models.Metadata) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO metadata (id, bump, initialized, authority)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			bump = EXCLUDED.bump,
			initialized = EXCLUDED.initialized,
			authority = EXCLUDED.authority,
			updated_at = now()
		RETURNING updated_at
	`, md.ID, md.Bump, md.Initialized, md.Authority).Scan(&md.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

func (t *pgTx) Balance(ctx context.Context, acct service.Account) (int64, error) {
	return queryBalance(ctx, t.tx, acct)
}

func (t *pgTx) Contributions(ctx context.Context, potID string) (map[string]int64, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT account_ref,
			COALESCE(SUM(CASE WHEN ttype = $2 THEN cr ELSE 0 END), 0)
			- COALESCE(SUM(CASE WHEN ttype = $3 THEN dr ELSE 0 END), 0)
		FROM ledger_entries
		WHERE account_type = $4
		  AND tref IN (
			SELECT tref FROM ledger_entries
			WHERE account_type = $5 AND account_ref = $1
		  )
		GROUP BY account_ref
	`, potID, models.EntryDeposit, models.EntryRefund, models.AccountPlayer, models.AccountPot)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var ref string
		var net decimal.Decimal
		if err := rows.Scan(&ref, &net); err != nil {
			return nil, err
		}
		if n := net.IntPart(); n > 0 {
			out[ref] = n
		}
	}
	return out, rows.Err()
}

// lockAccount serializes balance-changing work on one account within
// the transaction, so the overdraw check in Apply cannot race.
func (t *pgTx) lockAccount(ctx context.Context, acct service.Account) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, acct.Type+":"+acct.Ref)
	return err
}

func (t *pgTx) Apply(ctx context.Context, tr service.Transfer) error {
	if tr.Amount <= 0 {
		return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "transfer amount must be positive"}
	}
	if err := t.lockAccount(ctx, tr.From); err != nil {
		return err
	}
	balance, err := t.Balance(ctx, tr.From)
	if err != nil {
		return err
	}
	if balance < tr.Amount {
		return &engine.Error{
			Code:   engine.CodeInsufficientFunds,
			Detail: fmt.Sprintf("account %s/%s holds %d, needs %d", tr.From.Type, tr.From.Ref, balance, tr.Amount),
		}
	}

	amount := decimal.NewFromInt(tr.Amount)
	_, err = t.tx.Exec(ctx, `
		INSERT INTO ledger_entries (account_type, account_ref, game_id, ttype, dr, cr, tref)
		VALUES ($1, $2, $3, $4, 0, $5, $6),
		       ($7, $8, $3, $4, $5, 0, $6)
	`,
		tr.From.Type, tr.From.Ref, tr.GameID, tr.TType, amount, tr.TRef,
		tr.To.Type, tr.To.Ref,
	)
	if err != nil {
		return fmt.Errorf("failed to apply transfer: %w", err)
	}
	return nil
}

func (t *pgTx) Mint(ctx context.Context, to service.Account, amount int64, ttype, tref string) error {
	if amount <= 0 {
		return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "mint amount must be positive"}
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO ledger_entries (account_type, account_ref, ttype, dr, cr, tref)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, to.Type, to.Ref, ttype, decimal.NewFromInt(amount), tref)
	if err != nil {
		return fmt.Errorf("failed to mint: %w", err)
	}
	return nil
}

var (
	_ service.Store = (*Postgres)(nil)
	_ service.Tx    = (*pgTx)(nil)
)
