package service

import (
	"context"
	"errors"

	"github.com/connect-squares/connect-services/internal/gamesvc/models"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateGame is returned when a (creator, nonce) seed is reused.
var ErrDuplicateGame = errors.New("game already exists for this creator and nonce")

// Account addresses one ledger account.
type Account struct {
	Type string // models.AccountPlayer | AccountPot | AccountMetadata
	Ref  string
}

// Transfer is one atomic value movement between two accounts. Amounts
// are whole base units; the ledger refuses to overdraw the source.
type Transfer struct {
	From   Account
	To     Account
	GameID string
	TType  string
	Amount int64
	TRef   string
}

// Tx is the record store inside one transaction. Reads lock the record
// for update, so per-record read-modify-write is linearizable: two
// operations are never applied against the same base state.
type Tx interface {
	GetGame(ctx context.Context, id string) (*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game, pot *models.Pot) error
	UpdateGame(ctx context.Context, game *models.Game) error
	// DeleteGame destroys a game and its pot record outright (cancel path).
	DeleteGame(ctx context.Context, gameID, potID string) error

	// GetMetadata returns the singleton, materializing an uninitialized
	// record when the storage row does not exist yet.
	GetMetadata(ctx context.Context, id string) (*models.Metadata, error)
	SaveMetadata(ctx context.Context, md *models.Metadata) error

	Balance(ctx context.Context, acct Account) (int64, error)
	// Contributions reports, per contributor, the net amount deposited
	// into the pot and not yet paid back.
	Contributions(ctx context.Context, potID string) (map[string]int64, error)
	Apply(ctx context.Context, t Transfer) error
	// Mint credits an account from outside the ledger. This is the value
	// entry point (funding scaffolding), not a conserving transfer.
	Mint(ctx context.Context, to Account, amount int64, ttype, tref string) error
}

// Store runs operations transactionally. InTx either fully applies the
// function's writes or none of them.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// GetGame is a plain read without locking, for the read surface.
	GetGame(ctx context.Context, id string) (*models.Game, error)
	Balance(ctx context.Context, acct Account) (int64, error)
}
