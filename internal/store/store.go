// internal/store/store.go
//
// Persistence interface for users, sessions and word ledgers.
//
// Every read-modify-write runs inside one unit of work ("atomic apply"):
//   - Update:     registry-wide; owns the pending slot and token membership.
//   - UpdateGame: one session's ledger; different sessions do not contend.
//   - View:       consistent read-only snapshot.
//
// If fn returns an error nothing it wrote becomes visible.
// Implementations: memory (this package), SQLite, Postgres.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/boggle/internal/game"
)

// ErrOutOfScope is returned when a Tx method is not allowed in the current unit
// (a write inside View, or touching another session inside UpdateGame).
var ErrOutOfScope = errors.New("store: operation outside transaction scope")

// Store runs units of work against the backing storage.
type Store interface {
	// Update runs fn with exclusive access to registry-wide facts.
	Update(ctx context.Context, fn func(Tx) error) error

	// UpdateGame runs fn with exclusive access to the ledger of gameID.
	// Returns game.ErrNotFound if the session does not exist.
	UpdateGame(ctx context.Context, gameID string, fn func(Tx) error) error

	// View runs fn against a consistent read-only view.
	View(ctx context.Context, fn func(Tx) error) error

	// Close releases the backing resources.
	Close() error
}

// Tx is the set of operations available inside a unit of work.
// Sessions returned are copies; mutate them and write back through the Tx.
type Tx interface {
	// InsertUser registers u. A duplicate token is game.ErrConflict.
	InsertUser(u game.User) error

	// User returns the user for token or game.ErrNotFound.
	User(token string) (game.User, error)

	// Session returns the session with its ledger, or game.ErrNotFound.
	Session(id string) (*game.Session, error)

	// PendingSession returns the session waiting for a second player, or nil.
	PendingSession() (*game.Session, error)

	// OpenSessionFor returns the pending or not-yet-expired active session token
	// plays in at now, or nil.
	OpenSessionFor(token string, now time.Time) (*game.Session, error)

	// InsertSession stores a new pending session. A second pending session is game.ErrConflict.
	InsertSession(s *game.Session) error

	// StartSession persists the second player, board, combined limit and start time
	// of a session that is still pending; otherwise game.ErrConflict.
	StartSession(s *game.Session) error

	// DeleteSession removes a session and its ledger.
	DeleteSession(id string) error

	// AppendWord adds one entry to a session's ledger.
	AppendWord(w game.Word) error
}

// scope enforces the same Tx rules on the SQL backends that the memory
// backend gets from its locking.
type scope struct {
	mode   txMode
	gameID string
}

func (sc scope) write() error {
	if sc.mode != modeUpdate {
		return ErrOutOfScope
	}
	return nil
}

func (sc scope) registry() error {
	if sc.mode == modeGame {
		return ErrOutOfScope
	}
	return nil
}

func (sc scope) session(id string) error {
	if sc.mode == modeGame && id != sc.gameID {
		return ErrOutOfScope
	}
	return nil
}

func (sc scope) ledger(id string) error {
	if sc.mode == modeView || (sc.mode == modeGame && id != sc.gameID) {
		return ErrOutOfScope
	}
	return nil
}
