package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/connect-squares/connect-services/internal/comm"
	"github.com/connect-squares/connect-services/internal/gamesvc/derive"
	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/models"
	"github.com/connect-squares/connect-services/internal/gamesvc/service"
	"github.com/connect-squares/connect-services/internal/gamesvc/store/memstore"
)

const wager = int64(1000)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advanceSlots(n uint64) {
	c.now = c.now.Add(time.Duration(n) * 400 * time.Millisecond)
}

type eventRecorder struct {
	events []comm.GameEvent
}

func (r *eventRecorder) PublishGameEvent(ev comm.GameEvent) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	mem      *memstore.Mem
	games    *service.GameService
	metadata *service.MetadataService
	balances *service.BalanceService
	clock    *fakeClock
	events   *eventRecorder
	ctx      context.Context
}

// newFixture funds the named players through the metadata authority,
// which exercises the topup gate on every test setup.
func newFixture(t *testing.T, players ...string) *fixture {
	t.Helper()
	f := &fixture{
		mem:    memstore.New(),
		clock:  &fakeClock{now: time.Unix(1700000000, 0)},
		events: &eventRecorder{},
		ctx:    context.Background(),
	}
	f.games = service.NewGameService(f.mem, f.clock, f.events)
	f.metadata = service.NewMetadataService(f.mem)
	f.balances = service.NewBalanceService(f.mem)

	if _, err := f.metadata.Init(f.ctx, "admin"); err != nil {
		t.Fatalf("metadata init: %v", err)
	}
	for _, p := range players {
		if err := f.balances.Topup(f.ctx, "admin", p, 10*wager); err != nil {
			t.Fatalf("topup %s: %v", p, err)
		}
	}
	return f
}

func (f *fixture) playerBalance(t *testing.T, player string) int64 {
	t.Helper()
	bal, err := f.balances.PlayerBalance(f.ctx, player)
	if err != nil {
		t.Fatalf("balance of %s: %v", player, err)
	}
	return bal
}

func (f *fixture) mustInit(t *testing.T, creator string, nonce uint32, cfg engine.Config) *models.Game {
	t.Helper()
	g, err := f.games.Init(f.ctx, creator, nonce, cfg)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	return g
}

func twoPlayerCfg() engine.Config {
	return engine.Config{Rows: 3, Cols: 3, Connect: 3, MinPlayers: 2, MaxPlayers: 2, Wager: wager}
}

func TestInitCollectsCreatorStake(t *testing.T) {
	f := newFixture(t, "alice")

	g := f.mustInit(t, "alice", 1, twoPlayerCfg())

	if g.ID != derive.GameID("alice", 1) || g.PotID != derive.PotID(g.ID) {
		t.Errorf("record ids not derived from seeds: %s / %s", g.ID, g.PotID)
	}
	if got := f.playerBalance(t, "alice"); got != 9*wager {
		t.Errorf("creator balance %d after init, want %d", got, 9*wager)
	}
	pot, err := f.balances.PotBalance(f.ctx, g.PotID)
	if err != nil || pot != wager {
		t.Errorf("pot balance %d (err %v), want %d", pot, err, wager)
	}
}

func TestInitDuplicateSeedRejected(t *testing.T) {
	f := newFixture(t, "alice")
	f.mustInit(t, "alice", 1, twoPlayerCfg())

	if _, err := f.games.Init(f.ctx, "alice", 1, twoPlayerCfg()); !errors.Is(err, service.ErrDuplicateGame) {
		t.Errorf("duplicate seed: got %v, want ErrDuplicateGame", err)
	}
}

func TestInitWithoutFundsLeavesNothingBehind(t *testing.T) {
	f := newFixture(t) // broke creator

	_, err := f.games.Init(f.ctx, "pauper", 1, twoPlayerCfg())
	if engine.ErrCode(err) != engine.CodeInsufficientFunds {
		t.Fatalf("got %v, want insufficient_funds", err)
	}
	if _, err := f.games.Get(f.ctx, derive.GameID("pauper", 1)); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("failed init left a game record behind (err %v)", err)
	}
}

func TestJoinEscrowsWagerAndActivates(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())

	joined, err := f.games.Join(f.ctx, "bob", g.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.State != "active" || joined.CurrentPlayerIndex != 0 {
		t.Errorf("after join state=%s index=%d", joined.State, joined.CurrentPlayerIndex)
	}
	pot, _ := f.balances.PotBalance(f.ctx, g.PotID)
	if pot != 2*wager {
		t.Errorf("pot %d, want %d", pot, 2*wager)
	}

	types := f.events.types()
	if len(types) < 3 || types[len(types)-2] != comm.EventPlayerJoined || types[len(types)-1] != comm.EventGameStarted {
		t.Errorf("events %v, want ...player.joined,game.started", types)
	}
}

func TestJoinWithoutFundsRejected(t *testing.T) {
	f := newFixture(t, "alice")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())

	_, err := f.games.Join(f.ctx, "pauper", g.ID)
	if engine.ErrCode(err) != engine.CodeInsufficientFunds {
		t.Fatalf("got %v, want insufficient_funds", err)
	}
	got, err := f.games.Get(f.ctx, g.ID)
	if err != nil || got.Joined != 1 || got.State != "waiting" {
		t.Errorf("failed join mutated the game: joined=%d state=%s err=%v", got.Joined, got.State, err)
	}
}

func playOut(t *testing.T, f *fixture, gameID string, moves []struct {
	player string
	tile   engine.Tile
}) *models.Game {
	t.Helper()
	var last *models.Game
	for _, m := range moves {
		var err error
		last, err = f.games.Play(f.ctx, m.player, gameID, m.tile)
		if err != nil {
			t.Fatalf("play %v by %s: %v", m.tile, m.player, err)
		}
	}
	return last
}

func TestWinnerTakesWholePot(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())
	f.games.Join(f.ctx, "bob", g.ID)

	final := playOut(t, f, g.ID, []struct {
		player string
		tile   engine.Tile
	}{
		{"alice", engine.Tile{Row: 0, Col: 0}},
		{"bob", engine.Tile{Row: 1, Col: 0}},
		{"alice", engine.Tile{Row: 0, Col: 1}},
		{"bob", engine.Tile{Row: 1, Col: 1}},
		{"alice", engine.Tile{Row: 0, Col: 2}},
	})

	if final.State != "won" || final.Winner != "alice" {
		t.Fatalf("state=%s winner=%s, want won/alice", final.State, final.Winner)
	}
	if got := f.playerBalance(t, "alice"); got != 9*wager+2*wager {
		t.Errorf("winner balance %d, want %d", got, 11*wager)
	}
	if got := f.playerBalance(t, "bob"); got != 9*wager {
		t.Errorf("loser balance %d, want %d", got, 9*wager)
	}
	pot, _ := f.balances.PotBalance(f.ctx, g.PotID)
	if pot != 0 {
		t.Errorf("pot not drained, balance %d", pot)
	}

	// resolved game is retained for reads
	got, err := f.games.Get(f.ctx, g.ID)
	if err != nil || got.State != "won" {
		t.Errorf("resolved game not readable: %v / %v", got, err)
	}
	// and frozen
	if _, err := f.games.Play(f.ctx, "bob", g.ID, engine.Tile{Row: 2, Col: 2}); engine.ErrCode(err) != engine.CodeGameAlreadyOver {
		t.Errorf("play after win: got %v, want game_already_over", err)
	}
}

func TestTieSplitsPotEvenly(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())
	f.games.Join(f.ctx, "bob", g.ID)

	final := playOut(t, f, g.ID, []struct {
		player string
		tile   engine.Tile
	}{
		{"alice", engine.Tile{Row: 0, Col: 0}},
		{"bob", engine.Tile{Row: 0, Col: 2}},
		{"alice", engine.Tile{Row: 0, Col: 1}},
		{"bob", engine.Tile{Row: 1, Col: 0}},
		{"alice", engine.Tile{Row: 1, Col: 2}},
		{"bob", engine.Tile{Row: 1, Col: 1}},
		{"alice", engine.Tile{Row: 2, Col: 0}},
		{"bob", engine.Tile{Row: 2, Col: 1}},
		{"alice", engine.Tile{Row: 2, Col: 2}},
	})

	if final.State != "tie" || final.Moves != 9 {
		t.Fatalf("state=%s moves=%d, want tie/9", final.State, final.Moves)
	}
	for _, p := range []string{"alice", "bob"} {
		if got := f.playerBalance(t, p); got != 10*wager {
			t.Errorf("%s balance %d after tie, want stake back (%d)", p, got, 10*wager)
		}
	}
}

// An uneven pot (dust minted on top of the stakes) splits by floor with
// the remainder swept to the fee account.
func TestTieRemainderSweptToFees(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())
	f.games.Join(f.ctx, "bob", g.ID)

	if err := f.mem.InTx(f.ctx, func(tx service.Tx) error {
		return tx.Mint(f.ctx, service.Account{Type: models.AccountPot, Ref: g.PotID}, 3, models.EntryTopup, "dust")
	}); err != nil {
		t.Fatalf("seed dust: %v", err)
	}
	feeAcct := service.Account{Type: models.AccountMetadata, Ref: derive.MetadataID()}
	feesBefore, _ := f.mem.Balance(f.ctx, feeAcct)

	playOut(t, f, g.ID, []struct {
		player string
		tile   engine.Tile
	}{
		{"alice", engine.Tile{Row: 0, Col: 0}},
		{"bob", engine.Tile{Row: 0, Col: 2}},
		{"alice", engine.Tile{Row: 0, Col: 1}},
		{"bob", engine.Tile{Row: 1, Col: 0}},
		{"alice", engine.Tile{Row: 1, Col: 2}},
		{"bob", engine.Tile{Row: 1, Col: 1}},
		{"alice", engine.Tile{Row: 2, Col: 0}},
		{"bob", engine.Tile{Row: 2, Col: 1}},
		{"alice", engine.Tile{Row: 2, Col: 2}},
	})

	// pot was 2*wager+3: each player floor((2w+3)/2) = w+1, sweep 1
	for _, p := range []string{"alice", "bob"} {
		if got := f.playerBalance(t, p); got != 10*wager+1 {
			t.Errorf("%s balance %d, want %d", p, got, 10*wager+1)
		}
	}
	feesAfter, _ := f.mem.Balance(f.ctx, feeAcct)
	if feesAfter-feesBefore != 1 {
		t.Errorf("fee sweep %d, want 1", feesAfter-feesBefore)
	}
	pot, _ := f.balances.PotBalance(f.ctx, g.PotID)
	if pot != 0 {
		t.Errorf("pot balance %d after split, want 0", pot)
	}
}

func TestCancelRefundsExactlyAndDestroysRecords(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	cfg := twoPlayerCfg()
	cfg.MinPlayers = 3
	cfg.MaxPlayers = 3
	g := f.mustInit(t, "alice", 1, cfg)
	if _, err := f.games.Join(f.ctx, "bob", g.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := f.games.Cancel(f.ctx, "bob", g.ID); engine.ErrCode(err) != engine.CodeNotAuthorized {
		t.Fatalf("cancel by non-creator: got %v, want not_authorized", err)
	}
	if err := f.games.Cancel(f.ctx, "alice", g.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	for _, p := range []string{"alice", "bob"} {
		if got := f.playerBalance(t, p); got != 10*wager {
			t.Errorf("%s balance %d after refund, want %d", p, got, 10*wager)
		}
	}
	if _, err := f.games.Get(f.ctx, g.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("cancelled game still readable (err %v)", err)
	}
	pot, _ := f.balances.PotBalance(f.ctx, g.PotID)
	if pot != 0 {
		t.Errorf("pot balance %d after cancel, want 0", pot)
	}
}

func TestCancelActiveGameRejected(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())
	f.games.Join(f.ctx, "bob", g.ID)

	if err := f.games.Cancel(f.ctx, "alice", g.ID); engine.ErrCode(err) != engine.CodeGameNotWaiting {
		t.Errorf("cancel active: got %v, want game_not_waiting", err)
	}
	if _, err := f.games.Get(f.ctx, g.ID); err != nil {
		t.Errorf("rejected cancel destroyed the game: %v", err)
	}
}

func TestSkipStalledTurn(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())
	f.games.Join(f.ctx, "bob", g.ID)

	if _, err := f.games.Skip(f.ctx, "bob", g.ID); engine.ErrCode(err) != engine.CodeTurnNotExpired {
		t.Fatalf("early skip: got %v, want turn_not_expired", err)
	}

	f.clock.advanceSlots(engine.TurnTimeoutSlots)
	skipped, err := f.games.Skip(f.ctx, "bob", g.ID)
	if err != nil {
		t.Fatalf("skip after timeout: %v", err)
	}
	if skipped.CurrentPlayerIndex != 1 {
		t.Errorf("turn index %d after skip, want 1", skipped.CurrentPlayerIndex)
	}
	if _, err := f.games.Play(f.ctx, "bob", g.ID, engine.Tile{Row: 0, Col: 0}); err != nil {
		t.Errorf("bob cannot move after skip: %v", err)
	}
}

// Value is conserved per game: everything ever deposited comes back out
// as payouts, refunds or fees.
func TestLedgerConservation(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	g := f.mustInit(t, "alice", 1, twoPlayerCfg())
	f.games.Join(f.ctx, "bob", g.ID)
	playOut(t, f, g.ID, []struct {
		player string
		tile   engine.Tile
	}{
		{"alice", engine.Tile{Row: 0, Col: 0}},
		{"bob", engine.Tile{Row: 1, Col: 0}},
		{"alice", engine.Tile{Row: 0, Col: 1}},
		{"bob", engine.Tile{Row: 1, Col: 1}},
		{"alice", engine.Tile{Row: 0, Col: 2}},
	})

	var minted, dr, cr int64
	for _, e := range f.mem.Entries() {
		dr += e.Dr.IntPart()
		cr += e.Cr.IntPart()
		if e.TType == models.EntryTopup {
			minted += e.Dr.IntPart()
		}
	}
	if dr-cr != minted {
		t.Errorf("ledger does not balance: dr-cr=%d, minted=%d", dr-cr, minted)
	}
}
