package service

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/gamesvc/derive"
	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/models"
)

// MetadataService administers the singleton metadata record: one-time
// initialization, authority reassignment and fee withdrawal.
type MetadataService struct {
	store Store
}

func NewMetadataService(store Store) *MetadataService {
	return &MetadataService{store: store}
}

// Init claims the singleton for the given authority. The persisted
// initialized flag guards repeats; the storage row may pre-exist the
// logical initialization.
func (s *MetadataService) Init(ctx context.Context, authority string) (*models.Metadata, error) {
	var md *models.Metadata
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		md, err = tx.GetMetadata(ctx, derive.MetadataID())
		if err != nil {
			return err
		}
		if md.Initialized {
			return &engine.Error{Code: engine.CodeAlreadyInitialized, Detail: "metadata already initialized"}
		}
		md.Initialized = true
		md.Authority = authority
		md.Bump = derive.Bump(md.ID)
		return tx.SaveMetadata(ctx, md)
	})
	if err != nil {
		return nil, err
	}
	log.Infof("metadata initialized, authority %s", authority)
	return md, nil
}

// Get reads the singleton as stored, initialized or not.
func (s *MetadataService) Get(ctx context.Context) (*models.Metadata, error) {
	var md *models.Metadata
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		md, err = tx.GetMetadata(ctx, derive.MetadataID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}

// SetAuthority hands the singleton to a new authority.
func (s *MetadataService) SetAuthority(ctx context.Context, caller, newAuthority string) (*models.Metadata, error) {
	var md *models.Metadata
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		md, err = tx.GetMetadata(ctx, derive.MetadataID())
		if err != nil {
			return err
		}
		if !md.Initialized || md.Authority != caller {
			return &engine.Error{Code: engine.CodeUnauthorized, Detail: "caller " + caller + " is not the authority"}
		}
		md.Authority = newAuthority
		return tx.SaveMetadata(ctx, md)
	})
	if err != nil {
		return nil, err
	}
	log.Infof("metadata authority changed to %s", newAuthority)
	return md, nil
}

// Withdraw moves accumulated fees to the authority, leaving at least
// the minimum reserve on the record.
func (s *MetadataService) Withdraw(ctx context.Context, caller string, amount int64) error {
	if amount <= 0 {
		return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "withdrawal amount must be positive"}
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		md, err := tx.GetMetadata(ctx, derive.MetadataID())
		if err != nil {
			return err
		}
		if !md.Initialized || md.Authority != caller {
			return &engine.Error{Code: engine.CodeUnauthorized, Detail: "caller " + caller + " is not the authority"}
		}

		acct := Account{Type: models.AccountMetadata, Ref: md.ID}
		balance, err := tx.Balance(ctx, acct)
		if err != nil {
			return err
		}
		withdrawable := balance - models.MinReserve
		if amount > withdrawable {
			return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "withdrawable balance exhausted"}
		}

		return tx.Apply(ctx, Transfer{
			From:   acct,
			To:     Account{Type: models.AccountPlayer, Ref: caller},
			TType:  models.EntryWithdraw,
			Amount: amount,
			TRef:   uuid.NewString(),
		})
	})
}
