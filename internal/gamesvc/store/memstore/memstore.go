// Package memstore is an in-memory implementation of the service store
// contract. It serializes every transaction behind one mutex and rolls
// back on error, giving the same linearizable per-record semantics as
// the postgres store without a database. Used by the service tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/models"
	"github.com/connect-squares/connect-services/internal/gamesvc/service"
)

type Mem struct {
	mu       sync.Mutex
	games    map[string]*models.Game
	pots     map[string]*models.Pot
	metadata map[string]*models.Metadata
	entries  []models.LedgerEntry
	nextID   int64
}

func New() *Mem {
	return &Mem{
		games:    make(map[string]*models.Game),
		pots:     make(map[string]*models.Pot),
		metadata: make(map[string]*models.Metadata),
	}
}

// InTx runs fn against the live state under the lock, restoring a
// snapshot if fn fails. All-or-nothing, like the postgres transaction.
func (m *Mem) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memTx{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *Mem) GetGame(ctx context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return copyGame(g), nil
}

func (m *Mem) Balance(ctx context.Context, acct service.Account) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(acct), nil
}

// Entries returns a copy of the full ledger, for invariant checks in
// tests.
func (m *Mem) Entries() []models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

type memSnapshot struct {
	games    map[string]*models.Game
	pots     map[string]*models.Pot
	metadata map[string]*models.Metadata
	entries  []models.LedgerEntry
	nextID   int64
}

func (m *Mem) snapshot() memSnapshot {
	s := memSnapshot{
		games:    make(map[string]*models.Game, len(m.games)),
		pots:     make(map[string]*models.Pot, len(m.pots)),
		metadata: make(map[string]*models.Metadata, len(m.metadata)),
		entries:  make([]models.LedgerEntry, len(m.entries)),
		nextID:   m.nextID,
	}
	for k, v := range m.games {
		s.games[k] = copyGame(v)
	}
	for k, v := range m.pots {
		p := *v
		s.pots[k] = &p
	}
	for k, v := range m.metadata {
		md := *v
		s.metadata[k] = &md
	}
	copy(s.entries, m.entries)
	return s
}

func (m *Mem) restore(s memSnapshot) {
	m.games = s.games
	m.pots = s.pots
	m.metadata = s.metadata
	m.entries = s.entries
	m.nextID = s.nextID
}

func (m *Mem) balanceLocked(acct service.Account) int64 {
	total := decimal.Zero
	for _, e := range m.entries {
		if e.AccountType == acct.Type && e.AccountRef == acct.Ref {
			total = total.Add(e.Dr).Sub(e.Cr)
		}
	}
	return total.IntPart()
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	c.Players = append([]string(nil), g.Players...)
	return &c
}

// memTx performs the writes; the caller already holds the store lock.
type memTx struct {
	m *Mem
}

func (t *memTx) GetGame(ctx context.Context, id string) (*models.Game, error) {
	g, ok := t.m.games[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return copyGame(g), nil
}

func (t *memTx) CreateGame(ctx context.Context, game *models.Game, pot *models.Pot) error {
	if _, exists := t.m.games[game.ID]; exists {
		return service.ErrDuplicateGame
	}
	now := time.Now()
	game.CreatedAt = now
	game.UpdatedAt = now
	pot.CreatedAt = now
	t.m.games[game.ID] = copyGame(game)
	p := *pot
	t.m.pots[pot.ID] = &p
	return nil
}

func (t *memTx) UpdateGame(ctx context.Context, game *models.Game) error {
	if _, ok := t.m.games[game.ID]; !ok {
		return service.ErrNotFound
	}
	game.UpdatedAt = time.Now()
	t.m.games[game.ID] = copyGame(game)
	return nil
}

func (t *memTx) DeleteGame(ctx context.Context, gameID, potID string) error {
	if _, ok := t.m.games[gameID]; !ok {
		return service.ErrNotFound
	}
	delete(t.m.games, gameID)
	delete(t.m.pots, potID)
	return nil
}

func (t *memTx) GetMetadata(ctx context.Context, id string) (*models.Metadata, error) {
	if md, ok := t.m.metadata[id]; ok {
		c := *md
		return &c, nil
	}
	return &models.Metadata{ID: id}, nil
}

func (t *memTx) SaveMetadata(ctx context.Context, md *models.Metadata) error {
	md.UpdatedAt = time.Now()
	c := *md
	t.m.metadata[md.ID] = &c
	return nil
}

func (t *memTx) Balance(ctx context.Context, acct service.Account) (int64, error) {
	return t.m.balanceLocked(acct), nil
}

// Contributions nets each player's deposits into the pot against
// refunds already paid back out of it.
func (t *memTx) Contributions(ctx context.Context, potID string) (map[string]int64, error) {
	potDeposits := map[string]bool{}
	for _, e := range t.m.entries {
		if e.AccountType == models.AccountPot && e.AccountRef == potID {
			potDeposits[e.TRef] = true
		}
	}

	out := map[string]int64{}
	for _, e := range t.m.entries {
		if e.AccountType != models.AccountPlayer || !potDeposits[e.TRef] {
			continue
		}
		switch e.TType {
		case models.EntryDeposit:
			out[e.AccountRef] += e.Cr.IntPart()
		case models.EntryRefund:
			out[e.AccountRef] -= e.Dr.IntPart()
		}
	}
	return out, nil
}

func (t *memTx) Apply(ctx context.Context, tr service.Transfer) error {
	if tr.Amount <= 0 {
		return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "transfer amount must be positive"}
	}
	if t.m.balanceLocked(tr.From) < tr.Amount {
		return &engine.Error{Code: engine.CodeInsufficientFunds, Detail: "debit exceeds balance of " + tr.From.Ref}
	}
	amount := decimal.NewFromInt(tr.Amount)
	now := time.Now()
	t.m.nextID++
	t.m.entries = append(t.m.entries, models.LedgerEntry{
		ID: t.m.nextID, AccountType: tr.From.Type, AccountRef: tr.From.Ref,
		GameID: tr.GameID, TType: tr.TType, Cr: amount, TRef: tr.TRef, CreatedAt: now,
	})
	t.m.nextID++
	t.m.entries = append(t.m.entries, models.LedgerEntry{
		ID: t.m.nextID, AccountType: tr.To.Type, AccountRef: tr.To.Ref,
		GameID: tr.GameID, TType: tr.TType, Dr: amount, TRef: tr.TRef, CreatedAt: now,
	})
	return nil
}

func (t *memTx) Mint(ctx context.Context, to service.Account, amount int64, ttype, tref string) error {
	t.m.nextID++
	t.m.entries = append(t.m.entries, models.LedgerEntry{
		ID: t.m.nextID, AccountType: to.Type, AccountRef: to.Ref,
		TType: ttype, Dr: decimal.NewFromInt(amount), TRef: tref, CreatedAt: time.Now(),
	})
	return nil
}

var _ service.Store = (*Mem)(nil)
var _ service.Tx = (*memTx)(nil)
