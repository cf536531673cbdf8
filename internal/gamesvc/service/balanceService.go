package service

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/gamesvc/derive"
	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/models"
)

// BalanceService exposes player ledger balances and the authority-gated
// top-up used as the funding entry point in test environments.
type BalanceService struct {
	store Store
}

func NewBalanceService(store Store) *BalanceService {
	return &BalanceService{store: store}
}

func (s *BalanceService) PlayerBalance(ctx context.Context, player string) (int64, error) {
	return s.store.Balance(ctx, Account{Type: models.AccountPlayer, Ref: player})
}

func (s *BalanceService) PotBalance(ctx context.Context, potID string) (int64, error) {
	return s.store.Balance(ctx, Account{Type: models.AccountPot, Ref: potID})
}

// Topup credits a player from outside the ledger. Only the metadata
// authority may invoke it.
func (s *BalanceService) Topup(ctx context.Context, caller, player string, amount int64) error {
	if amount <= 0 {
		return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "topup amount must be positive"}
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		md, err := tx.GetMetadata(ctx, derive.MetadataID())
		if err != nil {
			return err
		}
		if !md.Initialized || md.Authority != caller {
			return &engine.Error{Code: engine.CodeUnauthorized, Detail: "caller " + caller + " is not the authority"}
		}
		return tx.Mint(ctx, Account{Type: models.AccountPlayer, Ref: player}, amount, models.EntryTopup, uuid.NewString())
	})
	if err != nil {
		return err
	}
	log.Infof("topup of %d to %s", amount, player)
	return nil
}
