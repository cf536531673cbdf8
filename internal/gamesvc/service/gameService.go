package service

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/comm"
	"github.com/connect-squares/connect-services/internal/gamesvc/derive"
	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/models"
)

// Publisher fans committed game events out to the other services.
type Publisher interface {
	PublishGameEvent(ev comm.GameEvent)
}

// GameService is the operation dispatcher for game records. Every
// operation is one store transaction: validate against the loaded
// snapshot, apply the transition, move funds, persist. On any error
// nothing is written and no value moves.
type GameService struct {
	store  Store
	clock  Clock
	events Publisher
}

func NewGameService(store Store, clock Clock, events Publisher) *GameService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &GameService{store: store, clock: clock, events: events}
}

// Init creates a Waiting game and its pot, seats the creator at index 0
// and collects the creator's wager. The stake-at-init policy keeps the
// pot invariant (balance == wager x joined) true from creation onward.
func (s *GameService) Init(ctx context.Context, creator string, nonce uint32, cfg engine.Config) (*models.Game, error) {
	now := s.clock.Now()

	g, err := engine.NewGame(creator, nonce, cfg, now.Unix())
	if err != nil {
		return nil, err
	}

	gameID := derive.GameID(creator, nonce)
	potID := derive.PotID(gameID)

	record := &models.Game{ID: gameID, Bump: derive.Bump(gameID), PotID: potID}
	record.FromEngine(g)
	pot := &models.Pot{ID: potID, Bump: derive.Bump(potID), GameID: gameID}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.CreateGame(ctx, record, pot); err != nil {
			return err
		}
		if cfg.Wager > 0 {
			return tx.Apply(ctx, Transfer{
				From:   Account{Type: models.AccountPlayer, Ref: creator},
				To:     Account{Type: models.AccountPot, Ref: potID},
				GameID: gameID,
				TType:  models.EntryDeposit,
				Amount: cfg.Wager,
				TRef:   uuid.NewString(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("game %s created by %s (%dx%d connect %d, wager %d)",
		gameID, creator, cfg.Rows, cfg.Cols, cfg.Connect, cfg.Wager)
	s.publish(comm.GameEvent{Type: comm.EventGameCreated, GameID: gameID, Player: creator, Game: record, Timestamp: now})
	return record, nil
}

// Join seats the player and escrows their wager. Reaching the minimum
// seat count activates the game.
func (s *GameService) Join(ctx context.Context, player, gameID string) (*models.Game, error) {
	now := s.clock.Now()
	var record *models.Game
	var started bool

	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		record, err = tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		g, err := record.ToEngine()
		if err != nil {
			return err
		}

		started, err = g.Join(player, SlotAt(now))
		if err != nil {
			return err
		}

		if g.Wager > 0 {
			if err := tx.Apply(ctx, Transfer{
				From:   Account{Type: models.AccountPlayer, Ref: player},
				To:     Account{Type: models.AccountPot, Ref: record.PotID},
				GameID: gameID,
				TType:  models.EntryDeposit,
				Amount: g.Wager,
				TRef:   uuid.NewString(),
			}); err != nil {
				return err
			}
		}

		record.FromEngine(g)
		return tx.UpdateGame(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(comm.GameEvent{Type: comm.EventPlayerJoined, GameID: gameID, Player: player, Game: record, Timestamp: now})
	if started {
		log.Infof("game %s started with %d players", gameID, record.Joined)
		s.publish(comm.GameEvent{Type: comm.EventGameStarted, GameID: gameID, Game: record, Timestamp: now})
	}
	return record, nil
}

// Play claims a tile for the seat on turn. A winning move pays the
// whole pot to the winner; a filling move splits it evenly across the
// seats with the integer remainder swept to the fee account. Resolved
// games are kept for reading.
func (s *GameService) Play(ctx context.Context, player, gameID string, tile engine.Tile) (*models.Game, error) {
	now := s.clock.Now()
	var record *models.Game
	var outcome engine.Outcome

	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		record, err = tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		g, err := record.ToEngine()
		if err != nil {
			return err
		}

		outcome, err = g.Play(player, tile, SlotAt(now))
		if err != nil {
			return err
		}

		switch outcome {
		case engine.OutcomeWon:
			if err := s.payoutWinner(ctx, tx, record, g.Winner); err != nil {
				return err
			}
		case engine.OutcomeTie:
			if err := s.payoutSplit(ctx, tx, record, g.SeatedPlayers()); err != nil {
				return err
			}
		}

		record.FromEngine(g)
		return tx.UpdateGame(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	row, col := tile.Row, tile.Col
	s.publish(comm.GameEvent{
		Type: comm.EventMovePlayed, GameID: gameID, Player: player,
		Row: &row, Col: &col, Move: record.Moves, Game: record, Timestamp: now,
	})
	switch outcome {
	case engine.OutcomeWon:
		log.Infof("game %s won by %s after %d moves", gameID, record.Winner, record.Moves)
		s.publish(comm.GameEvent{Type: comm.EventGameWon, GameID: gameID, Winner: record.Winner, Game: record, Timestamp: now})
	case engine.OutcomeTie:
		log.Infof("game %s tied at %d moves", gameID, record.Moves)
		s.publish(comm.GameEvent{Type: comm.EventGameTie, GameID: gameID, Game: record, Timestamp: now})
	}
	return record, nil
}

// Cancel voids a Waiting game: every contribution is refunded to its
// contributor exactly, then the game and pot records are destroyed.
func (s *GameService) Cancel(ctx context.Context, player, gameID string) error {
	now := s.clock.Now()

	err := s.store.InTx(ctx, func(tx Tx) error {
		record, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		g, err := record.ToEngine()
		if err != nil {
			return err
		}
		if err := g.Cancel(player); err != nil {
			return err
		}

		contributions, err := tx.Contributions(ctx, record.PotID)
		if err != nil {
			return err
		}
		for contributor, amount := range contributions {
			if amount <= 0 {
				continue
			}
			if err := tx.Apply(ctx, Transfer{
				From:   Account{Type: models.AccountPot, Ref: record.PotID},
				To:     Account{Type: models.AccountPlayer, Ref: contributor},
				GameID: gameID,
				TType:  models.EntryRefund,
				Amount: amount,
				TRef:   uuid.NewString(),
			}); err != nil {
				return err
			}
		}

		return tx.DeleteGame(ctx, gameID, record.PotID)
	})
	if err != nil {
		return err
	}

	log.Infof("game %s cancelled by %s", gameID, player)
	s.publish(comm.GameEvent{Type: comm.EventGameCancelled, GameID: gameID, Player: player, Timestamp: now})
	return nil
}

// Skip advances the turn past a stalled seat once the timeout window
// has elapsed. No funds move.
func (s *GameService) Skip(ctx context.Context, player, gameID string) (*models.Game, error) {
	now := s.clock.Now()
	var record *models.Game

	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		record, err = tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		g, err := record.ToEngine()
		if err != nil {
			return err
		}
		if err := g.SkipTurn(player, SlotAt(now)); err != nil {
			return err
		}
		record.FromEngine(g)
		return tx.UpdateGame(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(comm.GameEvent{Type: comm.EventTurnSkipped, GameID: gameID, Player: player, Game: record, Timestamp: now})
	return record, nil
}

// Get reads a game record, including resolved ones.
func (s *GameService) Get(ctx context.Context, gameID string) (*models.Game, error) {
	return s.store.GetGame(ctx, gameID)
}

// payoutWinner drains the pot to the winner.
func (s *GameService) payoutWinner(ctx context.Context, tx Tx, record *models.Game, winner string) error {
	balance, err := tx.Balance(ctx, Account{Type: models.AccountPot, Ref: record.PotID})
	if err != nil {
		return err
	}
	if balance == 0 {
		return nil
	}
	return tx.Apply(ctx, Transfer{
		From:   Account{Type: models.AccountPot, Ref: record.PotID},
		To:     Account{Type: models.AccountPlayer, Ref: winner},
		GameID: record.ID,
		TType:  models.EntryWinPayout,
		Amount: balance,
		TRef:   uuid.NewString(),
	})
}

// payoutSplit distributes floor(pot/n) to each seat and sweeps the
// remainder into the metadata fee account, zeroing the pot exactly.
func (s *GameService) payoutSplit(ctx context.Context, tx Tx, record *models.Game, recipients []string) error {
	balance, err := tx.Balance(ctx, Account{Type: models.AccountPot, Ref: record.PotID})
	if err != nil {
		return err
	}
	if balance == 0 || len(recipients) == 0 {
		return nil
	}

	share := balance / int64(len(recipients))
	for _, recipient := range recipients {
		if share == 0 {
			break
		}
		if err := tx.Apply(ctx, Transfer{
			From:   Account{Type: models.AccountPot, Ref: record.PotID},
			To:     Account{Type: models.AccountPlayer, Ref: recipient},
			GameID: record.ID,
			TType:  models.EntryTiePayout,
			Amount: share,
			TRef:   uuid.NewString(),
		}); err != nil {
			return err
		}
	}

	remainder := balance - share*int64(len(recipients))
	if remainder > 0 {
		return tx.Apply(ctx, Transfer{
			From:   Account{Type: models.AccountPot, Ref: record.PotID},
			To:     Account{Type: models.AccountMetadata, Ref: derive.MetadataID()},
			GameID: record.ID,
			TType:  models.EntryFeeSweep,
			Amount: remainder,
			TRef:   uuid.NewString(),
		})
	}
	return nil
}

func (s *GameService) publish(ev comm.GameEvent) {
	if s.events != nil {
		s.events.PublishGameEvent(ev)
	}
}
