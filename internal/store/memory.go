// internal/store/memory.go
//
// In-memory implementation of Store, used for tests and single-process deployments
// where durability is not required.
//
// Locking:
//   - mu (RWMutex) guards the session map, the pending slot, the token index and users.
//     Update holds it exclusively; UpdateGame and View hold it shared.
//   - each entry's mutex guards that session's ledger. UpdateGame holds it for the
//     whole unit; View takes it only while copying.
//
// Writes are journaled and applied only after fn returns nil. Reads inside a unit
// do not observe that unit's own writes.

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/boggle/internal/game"
)

type memory struct {
	mu      sync.RWMutex
	users   map[string]game.User
	games   map[string]*entry
	latest  map[string]string // token -> id of the last session the token entered
	pending string            // id of the pending session, if any
}

type entry struct {
	mu sync.Mutex
	s  *game.Session
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		users:  make(map[string]game.User),
		games:  make(map[string]*entry),
		latest: make(map[string]string),
	}
}

type txMode int

const (
	modeView txMode = iota
	modeUpdate
	modeGame
)

func (m *memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run(&memTx{m: m, mode: modeUpdate}, fn)
}

func (m *memory) UpdateGame(ctx context.Context, gameID string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("game %s: %w", gameID, game.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return m.run(&memTx{m: m, mode: modeGame, game: e}, fn)
}

func (m *memory) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{m: m, mode: modeView})
}

func (m *memory) Close() error { return nil }

// run executes fn and applies its journal on success.
func (m *memory) run(tx *memTx, fn func(Tx) error) error {
	if err := fn(tx); err != nil {
		return err
	}
	for _, apply := range tx.journal {
		apply()
	}
	return nil
}

type memTx struct {
	m       *memory
	mode    txMode
	game    *entry // held entry in modeGame
	journal []func()

	// staged uniqueness facts so two writes in one unit cannot both claim them
	stagedPending bool
	stagedUsers   map[string]bool
}

func (tx *memTx) InsertUser(u game.User) error {
	if tx.mode != modeUpdate {
		return ErrOutOfScope
	}
	if _, ok := tx.m.users[u.Token]; ok || tx.stagedUsers[u.Token] {
		return fmt.Errorf("user: duplicate token: %w", game.ErrConflict)
	}
	if tx.stagedUsers == nil {
		tx.stagedUsers = make(map[string]bool)
	}
	tx.stagedUsers[u.Token] = true
	tx.journal = append(tx.journal, func() { tx.m.users[u.Token] = u })
	return nil
}

func (tx *memTx) User(token string) (game.User, error) {
	u, ok := tx.m.users[token]
	if !ok {
		return game.User{}, fmt.Errorf("user: %w", game.ErrNotFound)
	}
	return u, nil
}

func (tx *memTx) Session(id string) (*game.Session, error) {
	if tx.mode == modeGame {
		if tx.game.s.ID != id {
			return nil, ErrOutOfScope
		}
		return tx.game.s.Clone(), nil
	}
	e, ok := tx.m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	return tx.read(e), nil
}

// read copies a session. View must take the entry lock because ledgers keep
// growing under UpdateGame while the shared lock is held.
func (tx *memTx) read(e *entry) *game.Session {
	if tx.mode == modeView {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	return e.s.Clone()
}

func (tx *memTx) PendingSession() (*game.Session, error) {
	if tx.mode == modeGame {
		return nil, ErrOutOfScope
	}
	if tx.m.pending == "" {
		return nil, nil
	}
	return tx.Session(tx.m.pending)
}

func (tx *memTx) OpenSessionFor(token string, now time.Time) (*game.Session, error) {
	if tx.mode == modeGame {
		return nil, ErrOutOfScope
	}
	id, ok := tx.m.latest[token]
	if !ok {
		return nil, nil
	}
	e, ok := tx.m.games[id]
	if !ok {
		return nil, nil
	}
	s := tx.read(e)
	if s.State(now) == game.StateCompleted {
		return nil, nil
	}
	return s, nil
}

func (tx *memTx) InsertSession(s *game.Session) error {
	if tx.mode != modeUpdate {
		return ErrOutOfScope
	}
	if _, ok := tx.m.games[s.ID]; ok {
		return fmt.Errorf("game %s: duplicate id: %w", s.ID, game.ErrConflict)
	}
	pending := s.Player2 == ""
	if pending && (tx.m.pending != "" || tx.stagedPending) {
		return fmt.Errorf("game %s: another game is pending: %w", s.ID, game.ErrConflict)
	}
	tx.stagedPending = tx.stagedPending || pending
	c := s.Clone()
	tx.journal = append(tx.journal, func() {
		tx.m.games[c.ID] = &entry{s: c}
		tx.m.latest[c.Player1] = c.ID
		if pending {
			tx.m.pending = c.ID
		} else {
			tx.m.latest[c.Player2] = c.ID
		}
	})
	return nil
}

func (tx *memTx) StartSession(s *game.Session) error {
	if tx.mode != modeUpdate {
		return ErrOutOfScope
	}
	e, ok := tx.m.games[s.ID]
	if !ok {
		return fmt.Errorf("game %s: %w", s.ID, game.ErrNotFound)
	}
	if e.s.Player2 != "" {
		return fmt.Errorf("game %s: already started: %w", s.ID, game.ErrConflict)
	}
	if s.Player2 == "" || s.Board == nil {
		return fmt.Errorf("game %s: start without second player or board: %w", s.ID, game.ErrInvalidInput)
	}
	player2, b, limit, started := s.Player2, s.Board, s.TimeLimit, s.StartedAt
	tx.journal = append(tx.journal, func() {
		e.s.Player2, e.s.Board, e.s.TimeLimit, e.s.StartedAt = player2, b, limit, started
		tx.m.latest[player2] = e.s.ID
		if tx.m.pending == e.s.ID {
			tx.m.pending = ""
		}
	})
	return nil
}

func (tx *memTx) DeleteSession(id string) error {
	if tx.mode != modeUpdate {
		return ErrOutOfScope
	}
	e, ok := tx.m.games[id]
	if !ok {
		return fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	tx.journal = append(tx.journal, func() {
		delete(tx.m.games, id)
		if tx.m.pending == id {
			tx.m.pending = ""
		}
		for _, p := range []string{e.s.Player1, e.s.Player2} {
			if tx.m.latest[p] == id {
				delete(tx.m.latest, p)
			}
		}
	})
	return nil
}

func (tx *memTx) AppendWord(w game.Word) error {
	var e *entry
	switch tx.mode {
	case modeGame:
		if tx.game.s.ID != w.GameID {
			return ErrOutOfScope
		}
		e = tx.game
	case modeUpdate:
		var ok bool
		if e, ok = tx.m.games[w.GameID]; !ok {
			return fmt.Errorf("game %s: %w", w.GameID, game.ErrNotFound)
		}
	default:
		return ErrOutOfScope
	}
	tx.journal = append(tx.journal, func() { e.s.Words = append(e.s.Words, w) })
	return nil
}
