// internal/registry/registry.go
//
// Registry is the single entry point for game operations and the concurrency
// boundary of the service. All shared state lives in the Store; the Registry
// decides which unit of work each operation needs:
//   - RegisterUser, JoinOrCreate, Cancel: Store.Update (registry-wide).
//   - SubmitWord: Store.View to check, score outside any lock, Store.UpdateGame to append.
//   - Status: Store.View.
//
// Completion is never scheduled. It is derived from the clock whenever a session
// is read, and latched once observed so no caller sees Active after Completed.

package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/board"
	"github.com/robalobadob/boggle/internal/game"
	"github.com/robalobadob/boggle/internal/store"
)

// Tokens issues and verifies player tokens.
type Tokens interface {
	Issue(nickname string) (string, error)
	Verify(token string) error
}

// Boards produces a fresh board for each started session.
type Boards interface {
	Generate() *board.Board
}

// Dictionary answers whether a word is a legal English word.
type Dictionary interface {
	Contains(word string) bool
}

// Join is the outcome of JoinOrCreate.
type Join struct {
	GameID  string
	Started bool // true: joined a pending game and started it; false: created a pending game
}

// Registry coordinates users, sessions and word submissions.
type Registry struct {
	store  store.Store
	tokens Tokens
	boards Boards
	dict   Dictionary
	now    func() time.Time
	log    zerolog.Logger

	completed sync.Map // game id -> struct{}; sessions already observed as completed
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New constructs a Registry over st.
func New(st store.Store, tokens Tokens, boards Boards, dict Dictionary, opts ...Option) *Registry {
	r := &Registry{
		store:  st,
		tokens: tokens,
		boards: boards,
		dict:   dict,
		now:    time.Now,
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterUser issues a token for nickname and records the user.
func (r *Registry) RegisterUser(ctx context.Context, nickname string) (string, error) {
	token, err := r.tokens.Issue(nickname)
	if err != nil {
		return "", err
	}
	u := game.User{Token: token, Nickname: strings.TrimSpace(nickname)}
	if err := r.store.Update(ctx, func(tx store.Tx) error {
		return tx.InsertUser(u)
	}); err != nil {
		return "", err
	}
	r.log.Info().Str("nickname", u.Nickname).Msg("user registered")
	return token, nil
}

// JoinOrCreate starts the pending game if one exists, otherwise creates a new
// pending game for token. A token already in a pending or active game is a conflict.
func (r *Registry) JoinOrCreate(ctx context.Context, token string, timeLimit int) (Join, error) {
	if !game.ValidTimeLimit(timeLimit) {
		return Join{}, fmt.Errorf("time limit %d not in [%d, %d]: %w",
			timeLimit, game.MinTimeLimit, game.MaxTimeLimit, game.ErrInvalidInput)
	}
	if err := r.tokens.Verify(token); err != nil {
		return Join{}, err
	}

	now := r.now()

	var res Join
	err := r.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.User(token); err != nil {
			return err
		}
		open, err := tx.OpenSessionFor(token, now)
		if err != nil {
			return err
		}
		// A game this registry has already reported completed stays closed
		// even if the clock has since stepped back.
		if open != nil && r.state(open, now) != game.StateCompleted {
			return fmt.Errorf("already playing game %s: %w", open.ID, game.ErrConflict)
		}

		pending, err := tx.PendingSession()
		if err != nil {
			return err
		}
		if pending != nil {
			// Generated here so that creating a game, or a rejected join, costs no board.
			if err := pending.Start(token, timeLimit, r.boards.Generate(), now); err != nil {
				return err
			}
			res = Join{GameID: pending.ID, Started: true}
			return tx.StartSession(pending)
		}

		s := game.New(token, timeLimit, now)
		res = Join{GameID: s.ID}
		return tx.InsertSession(s)
	})
	if err != nil {
		return Join{}, err
	}

	if res.Started {
		r.log.Info().Str("gameId", res.GameID).Str("state", string(game.StateActive)).Msg("game started")
	} else {
		r.log.Info().Str("gameId", res.GameID).Str("state", string(game.StatePending)).Msg("game created")
	}
	return res, nil
}

// Cancel removes the pending game token created. There is nothing to cancel
// (game.ErrNotFound) once someone has joined it.
func (r *Registry) Cancel(ctx context.Context, token string) error {
	if err := r.tokens.Verify(token); err != nil {
		return err
	}
	var id string
	err := r.store.Update(ctx, func(tx store.Tx) error {
		pending, err := tx.PendingSession()
		if err != nil {
			return err
		}
		if pending == nil || pending.Player1 != token {
			return fmt.Errorf("no pending game for token: %w", game.ErrNotFound)
		}
		id = pending.ID
		return tx.DeleteSession(id)
	})
	if err != nil {
		return err
	}
	r.log.Info().Str("gameId", id).Msg("game cancelled")
	return nil
}

// SubmitWord scores word for token in gameID and appends it to the ledger.
// Invalid words are recorded too, with a score of -1.
func (r *Registry) SubmitWord(ctx context.Context, gameID, token, word string) (int, error) {
	text := game.NormalizeWord(word)
	if text == "" || gameID == "" || token == "" {
		return 0, fmt.Errorf("game id, token and word are required: %w", game.ErrInvalidInput)
	}
	if err := r.tokens.Verify(token); err != nil {
		return 0, err
	}

	var s *game.Session
	if err := r.store.View(ctx, func(tx store.Tx) (err error) {
		s, err = tx.Session(gameID)
		return err
	}); err != nil {
		return 0, err
	}
	if !s.HasPlayer(token) {
		return 0, fmt.Errorf("token is not a player of game %s: %w", gameID, game.ErrInvalidInput)
	}
	if err := r.requireActive(s, r.now()); err != nil {
		return 0, err
	}

	// The board never changes once assigned, so scoring needs no lock.
	score := -1
	if len(text) <= board.MaxWordLen {
		score = game.Score(text, s.Board.CanForm(text), r.dict.Contains(text))
	}

	err := r.store.UpdateGame(ctx, gameID, func(tx store.Tx) error {
		cur, err := tx.Session(gameID)
		if err != nil {
			return err
		}
		if err := r.requireActive(cur, r.now()); err != nil {
			return err
		}
		return tx.AppendWord(cur.Record(token, text, score))
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Str("gameId", gameID).Str("word", text).Int("score", score).Msg("word played")
	return score, nil
}

// Status builds a fresh snapshot of gameID.
func (r *Registry) Status(ctx context.Context, gameID string, brief bool) (game.Snapshot, error) {
	var (
		s            *game.Session
		nick1, nick2 string
	)
	err := r.store.View(ctx, func(tx store.Tx) (err error) {
		if s, err = tx.Session(gameID); err != nil {
			return err
		}
		if brief || s.Player2 == "" {
			return nil
		}
		if nick1, err = nickname(tx, s.Player1); err != nil {
			return err
		}
		nick2, err = nickname(tx, s.Player2)
		return err
	})
	if err != nil {
		return game.Snapshot{}, err
	}
	now := r.now()
	return game.NewSnapshot(s, r.state(s, now), now, brief, nick1, nick2), nil
}

func nickname(tx store.Tx, token string) (string, error) {
	u, err := tx.User(token)
	if err != nil {
		return "", fmt.Errorf("player of game: %w", err)
	}
	return u.Nickname, nil
}

func (r *Registry) requireActive(s *game.Session, now time.Time) error {
	if st := r.state(s, now); st != game.StateActive {
		return fmt.Errorf("game %s is %s: %w", s.ID, st, game.ErrConflict)
	}
	return nil
}

// state is s.State(now) with the completion latch applied.
func (r *Registry) state(s *game.Session, now time.Time) game.State {
	if _, ok := r.completed.Load(s.ID); ok {
		return game.StateCompleted
	}
	st := s.State(now)
	if st == game.StateCompleted {
		r.completed.Store(s.ID, struct{}{})
	}
	return st
}
