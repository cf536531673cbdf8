// Package derive maps record seeds to stable identifiers. Callers that
// know a game's creator and nonce can locate its records without any
// lookup; the mapping is deterministic and collision-free for distinct
// seeds.
package derive

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// namespace scopes all derived ids to this protocol.
var namespace = uuid.MustParse("7f6c2a54-1d80-4f39-9b52-3e1a6f0c8d21")

// metadataID is the single well-known location of the metadata record.
var metadataID = uuid.NewSHA1(namespace, []byte("metadata"))

// GameID derives the game record id from (creator, nonce).
func GameID(creator string, nonce uint32) string {
	seed := make([]byte, 0, len("game:")+len(creator)+5)
	seed = append(seed, "game:"...)
	seed = append(seed, creator...)
	seed = append(seed, ':')
	seed = binary.BigEndian.AppendUint32(seed, nonce)
	return uuid.NewSHA1(namespace, seed).String()
}

// PotID derives the pot record id from its owning game.
func PotID(gameID string) string {
	return uuid.NewSHA1(namespace, []byte("pot:"+gameID)).String()
}

// MetadataID returns the singleton metadata record id.
func MetadataID() string {
	return metadataID.String()
}

// Bump exposes one byte of the derivation as record metadata, opaque to
// game logic.
func Bump(id string) uint8 {
	u, err := uuid.Parse(id)
	if err != nil {
		return 0
	}
	return u[15]
}
