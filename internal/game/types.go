// internal/game/types.go
//
// Core type definitions for a two-player Boggle session.
// Defines:
//   - State: lifecycle of a session (pending -> active -> completed).
//   - Session: one game, its players, board, timing and word ledger.
//   - Word: one scored submission in a session's ledger.
//   - User: a registered player identity (opaque token + nickname).

package game

import (
	"time"

	"github.com/robalobadob/boggle/internal/board"
)

// State is the lifecycle state of a session. Values are the wire strings.
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

const (
	// MinTimeLimit and MaxTimeLimit bound the time limit a player may request, in seconds.
	MinTimeLimit = 1
	MaxTimeLimit = 120
)

// Session holds the state of a single game.
//
// A session is Pending while Player2 is empty. Start assigns the second player,
// the board and the start time exactly once; from then on the state is derived
// from the clock (see State).
type Session struct {
	ID        string       // Unique game identifier.
	Player1   string       // Token of the player who created the session.
	Player2   string       // Token of the joining player; empty while pending.
	Board     *board.Board // Nil while pending; immutable once assigned.
	TimeLimit int          // Requested limit while pending, combined limit once started (seconds).
	StartedAt time.Time    // Zero while pending.
	CreatedAt time.Time
	Words     []Word // Append-only ledger, in submission order.
}

// Word is one scored submission. Resubmissions are separate entries.
type Word struct {
	GameID string
	Player string // token
	Text   string // trimmed, upper case
	Score  int
}

// User is a registered player.
type User struct {
	Token    string
	Nickname string
}
