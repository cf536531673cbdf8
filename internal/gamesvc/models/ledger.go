package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger account kinds. Player accounts are keyed by identity, pot
// accounts by pot id; the fee account is the metadata singleton.
const (
	AccountPlayer   = "player"
	AccountPot      = "pot"
	AccountMetadata = "metadata"
)

// Ledger entry types.
const (
	EntryDeposit   = "deposit"
	EntryWinPayout = "win_payout"
	EntryTiePayout = "tie_payout"
	EntryRefund    = "refund"
	EntryFeeSweep  = "fee_sweep"
	EntryWithdraw  = "withdraw"
	EntryTopup     = "topup"
)

// LedgerEntry is one side of a double-entry value movement. An account
// balance is the sum of dr minus the sum of cr over its entries; both
// sides of a transfer share a tref.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	AccountType string          `json:"account_type"`
	AccountRef  string          `json:"account_ref"`
	GameID      string          `json:"game_id,omitempty"`
	TType       string          `json:"ttype"`
	Dr          decimal.Decimal `json:"dr"`
	Cr          decimal.Decimal `json:"cr"`
	TRef        string          `json:"tref"`
	CreatedAt   time.Time       `json:"created_at"`
}
