package models

import "time"

// Metadata is the process-wide singleton controlling the fee authority.
// Its storage row pre-exists logical initialization, so the initialized
// flag, not row absence, guards double-init.
type Metadata struct {
	ID          string    `json:"id"` // fixed, well-known
	Bump        uint8     `json:"bump"`
	Initialized bool      `json:"initialized"`
	Authority   string    `json:"authority"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MinReserve is the balance the metadata record must retain; withdrawals
// may only take the excess.
const MinReserve = int64(100000)
