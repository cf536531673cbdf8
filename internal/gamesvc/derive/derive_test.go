package derive

import "testing"

func TestGameIDDeterministic(t *testing.T) {
	a := GameID("alice", 7)
	b := GameID("alice", 7)
	if a != b {
		t.Errorf("same seed derived %s and %s", a, b)
	}
}

func TestGameIDUnique(t *testing.T) {
	seen := map[string]string{}
	for _, tc := range []struct {
		creator string
		nonce   uint32
	}{
		{"alice", 0}, {"alice", 1}, {"bob", 0}, {"bob", 1}, {"alice:1", 0},
	} {
		id := GameID(tc.creator, tc.nonce)
		if prev, dup := seen[id]; dup {
			t.Errorf("collision between %s:%d and %s", tc.creator, tc.nonce, prev)
		}
		seen[id] = tc.creator
	}
}

func TestPotIDDistinctFromGame(t *testing.T) {
	game := GameID("alice", 1)
	pot := PotID(game)
	if pot == game {
		t.Error("pot id equals game id")
	}
	if pot != PotID(game) {
		t.Error("pot derivation not deterministic")
	}
}

func TestMetadataIDStable(t *testing.T) {
	if MetadataID() != MetadataID() {
		t.Error("metadata id not stable")
	}
	if MetadataID() == GameID("metadata", 0) {
		t.Error("metadata id collides with a game seed")
	}
}
