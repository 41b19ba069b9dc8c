// internal/game/engine.go
//
// State machine for a single session.
// Responsibilities:
//   - Create pending sessions.
//   - Start a pending session when a distinct second player joins.
//   - Derive active/completed from the clock; nothing here runs on a timer.
//   - Record scored words and total them per player.

package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/boggle/internal/board"
)

// New constructs a pending session for player1 with the time limit they requested.
func New(player1 string, timeLimit int, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Player1:   player1,
		TimeLimit: timeLimit,
		CreatedAt: now,
		Words:     []Word{},
	}
}

// ValidTimeLimit reports whether t seconds is an acceptable requested limit.
func ValidTimeLimit(t int) bool {
	return t >= MinTimeLimit && t <= MaxTimeLimit
}

// Start moves a pending session to active.
// The combined limit is the integer average of both requests.
func (s *Session) Start(player2 string, timeLimit int, b *board.Board, now time.Time) error {
	if s.Player2 != "" {
		return fmt.Errorf("start game %s: already started: %w", s.ID, ErrConflict)
	}
	if player2 == "" || player2 == s.Player1 {
		return fmt.Errorf("start game %s: second player must differ from the first: %w", s.ID, ErrConflict)
	}
	if b == nil {
		return fmt.Errorf("start game %s: no board: %w", s.ID, ErrInvalidInput)
	}
	s.Player2 = player2
	s.TimeLimit = (s.TimeLimit + timeLimit) / 2
	s.Board = b
	s.StartedAt = now
	return nil
}

// State reports the lifecycle state at now.
func (s *Session) State(now time.Time) State {
	switch {
	case s.Player2 == "":
		return StatePending
	case now.Sub(s.StartedAt) >= s.limit():
		return StateCompleted
	default:
		return StateActive
	}
}

// TimeLeft returns the whole seconds remaining, rounded up, so it is positive
// exactly while the session is active. Pending and completed sessions report 0.
func (s *Session) TimeLeft(now time.Time) int {
	if s.State(now) != StateActive {
		return 0
	}
	left := s.limit() - now.Sub(s.StartedAt)
	return int((left + time.Second - 1) / time.Second)
}

func (s *Session) limit() time.Duration {
	return time.Duration(s.TimeLimit) * time.Second
}

// HasPlayer reports whether token is one of the session's players.
func (s *Session) HasPlayer(token string) bool {
	return token != "" && (token == s.Player1 || token == s.Player2)
}

// Record appends a scored word for player to the ledger and returns the entry.
func (s *Session) Record(player, text string, score int) Word {
	w := Word{GameID: s.ID, Player: player, Text: NormalizeWord(text), Score: score}
	s.Words = append(s.Words, w)
	return w
}

// ScoreOf sums the scores of every word player has submitted, negative ones included.
func (s *Session) ScoreOf(player string) int {
	total := 0
	for _, w := range s.Words {
		if w.Player == player {
			total += w.Score
		}
	}
	return total
}

// WordsOf returns player's words in submission order.
func (s *Session) WordsOf(player string) []Word {
	out := []Word{}
	for _, w := range s.Words {
		if w.Player == player {
			out = append(out, w)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand out of a store's critical section.
// The board is shared: it is immutable.
func (s *Session) Clone() *Session {
	c := *s
	c.Words = append([]Word(nil), s.Words...)
	if c.Words == nil {
		c.Words = []Word{}
	}
	return &c
}

// NormalizeWord trims and upper-cases a submitted word.
func NormalizeWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}
