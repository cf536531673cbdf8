package engine

import (
	"errors"
	"testing"
)

func newTestGame(t *testing.T, cfg Config) *Game {
	t.Helper()
	g, err := NewGame("alice", 1, cfg, 1700000000)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func cfg3x3() Config {
	return Config{Rows: 3, Cols: 3, Connect: 3, MinPlayers: 2, MaxPlayers: 2, Wager: 1000}
}

func TestNewGameValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero rows", func(c *Config) { c.Rows = 0 }},
		{"rows above cap", func(c *Config) { c.Rows = MaxRows + 1 }},
		{"zero cols", func(c *Config) { c.Cols = 0 }},
		{"cols above cap", func(c *Config) { c.Cols = MaxCols + 1 }},
		{"zero connect", func(c *Config) { c.Connect = 0 }},
		{"connect above longest axis", func(c *Config) { c.Connect = 4 }},
		{"one player", func(c *Config) { c.MinPlayers = 1; c.MaxPlayers = 1 }},
		{"min above max", func(c *Config) { c.MinPlayers = 3; c.MaxPlayers = 2 }},
		{"max above seat cap", func(c *Config) { c.MinPlayers = 2; c.MaxPlayers = MaxSeats + 1 }},
		{"negative wager", func(c *Config) { c.Wager = -1 }},
	}
	for _, tc := range cases {
		cfg := cfg3x3()
		tc.mut(&cfg)
		_, err := NewGame("alice", 1, cfg, 0)
		if ErrCode(err) != CodeInvalidConfig {
			t.Errorf("%s: got %v, want invalid_config", tc.name, err)
		}
	}

	// connect may span the longer axis on a non-square board
	if _, err := NewGame("alice", 1, Config{Rows: 3, Cols: 7, Connect: 5, MinPlayers: 2, MaxPlayers: 2}, 0); err != nil {
		t.Errorf("connect within longest axis rejected: %v", err)
	}
}

func TestNewGameSeatsCreator(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	if g.State != StateWaiting {
		t.Errorf("state %s, want waiting", g.State)
	}
	if g.Players[0] != "alice" || g.Joined != 1 {
		t.Errorf("creator not seated at index 0: players=%v joined=%d", g.Players, g.Joined)
	}
	if g.Moves != 0 || g.CurrentPlayerIndex != 0 {
		t.Errorf("fresh game has moves=%d index=%d", g.Moves, g.CurrentPlayerIndex)
	}
}

func TestJoinActivatesAtMinPlayers(t *testing.T) {
	cfg := cfg3x3()
	cfg.MinPlayers = 3
	cfg.MaxPlayers = 3
	g := newTestGame(t, cfg)

	started, err := g.Join("bob", 10)
	if err != nil || started {
		t.Fatalf("second join: started=%v err=%v, want pending", started, err)
	}
	if g.State != StateWaiting {
		t.Fatalf("state %s before capacity, want waiting", g.State)
	}

	started, err = g.Join("carol", 11)
	if err != nil || !started {
		t.Fatalf("third join: started=%v err=%v, want started", started, err)
	}
	if g.State != StateActive || g.CurrentPlayerIndex != 0 {
		t.Errorf("after activation state=%s index=%d", g.State, g.CurrentPlayerIndex)
	}
	if g.LastMoveSlot != 11 {
		t.Errorf("activation slot %d, want 11", g.LastMoveSlot)
	}
	if got := g.SeatedPlayers(); len(got) != 3 || got[0] != "alice" || got[1] != "bob" || got[2] != "carol" {
		t.Errorf("seat order %v, want join order", got)
	}
}

func TestJoinRejections(t *testing.T) {
	g := newTestGame(t, cfg3x3())

	if _, err := g.Join("alice", 1); ErrCode(err) != CodeAlreadyJoined {
		t.Errorf("creator rejoining: got %v, want already_joined", err)
	}

	// a waiting game with no free seat rejects with game_full
	full := newTestGame(t, cfg3x3())
	full.Joined = full.MaxPlayers
	full.Players[1] = "bob"
	if _, err := full.Join("carol", 1); ErrCode(err) != CodeGameFull {
		t.Errorf("full game: got %v, want game_full", err)
	}

	g.Join("bob", 1) // activates
	if _, err := g.Join("carol", 2); ErrCode(err) != CodeGameNotWaiting {
		t.Errorf("join after start: got %v, want game_not_waiting", err)
	}
}

func TestPlayTurnOrder(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	g.Join("bob", 1)

	// bob may not open
	if _, err := g.Play("bob", Tile{0, 0}, 2); ErrCode(err) != CodeNotPlayersTurn {
		t.Fatalf("out-of-turn play: got %v, want not_players_turn", err)
	}
	// a stranger is rejected the same way
	if _, err := g.Play("mallory", Tile{0, 0}, 2); ErrCode(err) != CodeNotPlayersTurn {
		t.Fatalf("stranger play: got %v, want not_players_turn", err)
	}
	if g.Moves != 0 {
		t.Fatalf("rejected plays advanced moves to %d", g.Moves)
	}

	if _, err := g.Play("alice", Tile{0, 0}, 2); err != nil {
		t.Fatalf("alice opening: %v", err)
	}
	if g.CurrentPlayerIndex != 1 || g.Moves != 1 || g.LastMoveSlot != 2 {
		t.Errorf("after first move index=%d moves=%d slot=%d", g.CurrentPlayerIndex, g.Moves, g.LastMoveSlot)
	}
	if _, err := g.Play("alice", Tile{1, 1}, 3); ErrCode(err) != CodeNotPlayersTurn {
		t.Errorf("alice playing twice: got %v, want not_players_turn", err)
	}
}

// 3x3 connect-3: (0,0),(1,0),(0,1),(1,1),(0,2) alternating from seat 0
// ends with seat 0 winning on the top row at move 5.
func TestPlayWinScenario(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	g.Join("bob", 1)

	moves := []struct {
		player string
		tile   Tile
	}{
		{"alice", Tile{0, 0}},
		{"bob", Tile{1, 0}},
		{"alice", Tile{0, 1}},
		{"bob", Tile{1, 1}},
	}
	for _, m := range moves {
		if out, err := g.Play(m.player, m.tile, 5); err != nil || out != OutcomeNextTurn {
			t.Fatalf("play %v: outcome=%v err=%v", m.tile, out, err)
		}
	}

	out, err := g.Play("alice", Tile{0, 2}, 6)
	if err != nil || out != OutcomeWon {
		t.Fatalf("winning move: outcome=%v err=%v", out, err)
	}
	if g.State != StateWon || g.Winner != "alice" || g.Moves != 5 {
		t.Errorf("state=%s winner=%q moves=%d, want won/alice/5", g.State, g.Winner, g.Moves)
	}
	if got := EncodeBoard(&g.Board); got != "000"+"11."+"..." {
		t.Errorf("board %q, want %q", got, "00011....")
	}

	if _, err := g.Play("bob", Tile{2, 2}, 7); ErrCode(err) != CodeGameAlreadyOver {
		t.Errorf("play after win: got %v, want game_already_over", err)
	}
}

// Fill all nine cells without a three-in-a-row for either seat.
func TestPlayTieScenario(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	g.Join("bob", 1)

	seq := []struct {
		player string
		tile   Tile
	}{
		{"alice", Tile{0, 0}},
		{"bob", Tile{0, 2}},
		{"alice", Tile{0, 1}},
		{"bob", Tile{1, 0}},
		{"alice", Tile{1, 2}},
		{"bob", Tile{1, 1}},
		{"alice", Tile{2, 0}},
		{"bob", Tile{2, 1}},
	}
	for _, m := range seq {
		if out, err := g.Play(m.player, m.tile, 5); err != nil || out != OutcomeNextTurn {
			t.Fatalf("play %v by %s: outcome=%v err=%v", m.tile, m.player, out, err)
		}
	}

	out, err := g.Play("alice", Tile{2, 2}, 6)
	if err != nil || out != OutcomeTie {
		t.Fatalf("final move: outcome=%v err=%v, want tie", out, err)
	}
	if g.State != StateTie || g.Moves != 9 {
		t.Errorf("state=%s moves=%d, want tie/9", g.State, g.Moves)
	}
}

func TestPlayOutOfBoundsLeavesGameUntouched(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	g.Join("bob", 1)

	before := EncodeBoard(&g.Board)
	_, err := g.Play("alice", Tile{Row: 5, Col: 0}, 2)
	if ErrCode(err) != CodeOutOfBounds {
		t.Fatalf("got %v, want out_of_bounds", err)
	}
	if g.Moves != 0 || EncodeBoard(&g.Board) != before || g.CurrentPlayerIndex != 0 {
		t.Error("rejected play mutated the game")
	}
}

// Repeating a rejected operation against the unchanged record yields
// the identical rejection.
func TestRejectionIdempotence(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	g.Join("bob", 1)
	g.Play("alice", Tile{1, 1}, 2)

	var first error
	for i := 0; i < 3; i++ {
		_, err := g.Play("bob", Tile{1, 1}, 3)
		if err == nil {
			t.Fatal("occupied cell accepted")
		}
		if first == nil {
			first = err
		} else if !errors.Is(err, first) || err.Error() != first.Error() {
			t.Fatalf("rejection drifted: first %v, then %v", first, err)
		}
	}
}

func TestCancel(t *testing.T) {
	g := newTestGame(t, cfg3x3())

	if err := g.Cancel("bob"); ErrCode(err) != CodeNotAuthorized {
		t.Errorf("cancel by non-creator: got %v, want not_authorized", err)
	}
	if err := g.Cancel("alice"); err != nil {
		t.Fatalf("creator cancel: %v", err)
	}
	if g.State != StateCancelled {
		t.Errorf("state %s, want cancelled", g.State)
	}

	active := newTestGame(t, cfg3x3())
	active.Join("bob", 1)
	if err := active.Cancel("alice"); ErrCode(err) != CodeGameNotWaiting {
		t.Errorf("cancel while active: got %v, want game_not_waiting", err)
	}
}

func TestSkipTurn(t *testing.T) {
	g := newTestGame(t, cfg3x3())
	g.Join("bob", 100)

	if err := g.SkipTurn("mallory", 100+TurnTimeoutSlots); ErrCode(err) != CodeNotAuthorized {
		t.Errorf("skip by stranger: got %v, want not_authorized", err)
	}
	if err := g.SkipTurn("bob", 100+TurnTimeoutSlots-1); ErrCode(err) != CodeTurnNotExpired {
		t.Errorf("early skip: got %v, want turn_not_expired", err)
	}
	if g.CurrentPlayerIndex != 0 {
		t.Fatal("rejected skip advanced the turn")
	}

	if err := g.SkipTurn("bob", 100+TurnTimeoutSlots); err != nil {
		t.Fatalf("skip after timeout: %v", err)
	}
	if g.CurrentPlayerIndex != 1 || g.LastMoveSlot != 100+TurnTimeoutSlots {
		t.Errorf("after skip index=%d slot=%d", g.CurrentPlayerIndex, g.LastMoveSlot)
	}
	if _, err := g.Play("bob", Tile{0, 0}, g.LastMoveSlot+1); err != nil {
		t.Errorf("skipped-to player cannot move: %v", err)
	}
}

func TestStateStringRoundTrip(t *testing.T) {
	for _, s := range []State{StateWaiting, StateActive, StateTie, StateWon, StateCancelled} {
		got, ok := ParseState(s.String())
		if !ok || got != s {
			t.Errorf("round trip of %v gave (%v,%v)", s, got, ok)
		}
	}
	if _, ok := ParseState("bogus"); ok {
		t.Error("ParseState accepted junk")
	}
}
