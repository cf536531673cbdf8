package service

import "time"

// slotDuration converts wall time into the ordering marker the game
// records keep. One slot is 400ms, matching the cadence the turn
// timeout was calibrated against.
const slotDuration = 400 * time.Millisecond

// Clock supplies the current time; injected so tests can drive the
// turn-timeout threshold deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SlotAt maps a wall-clock instant to its slot number.
func SlotAt(t time.Time) uint64 {
	return uint64(t.UnixMilli()) / uint64(slotDuration.Milliseconds())
}
