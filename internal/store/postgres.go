// internal/store/postgres.go
//
// Postgres implementation of Store on a pgx connection pool.
//
// Update runs SERIALIZABLE; a serialization failure surfaces as game.ErrConflict
// and is not retried here. UpdateGame locks the game row and runs READ COMMITTED,
// so each statement after the lock sees the previous writer's ledger.
// View runs REPEATABLE READ, READ ONLY.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robalobadob/boggle/internal/board"
	"github.com/robalobadob/boggle/internal/game"
)

// Postgres is a Store backed by a Postgres database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres applies migrations to databaseURL and connects a pool to it.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if err := migratePostgres(databaseURL); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

var (
	writeTx = pgx.TxOptions{IsoLevel: pgx.Serializable}
	gameTx  = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	readTx  = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

func (p *Postgres) Update(ctx context.Context, fn func(Tx) error) error {
	return p.withTransaction(ctx, writeTx, scope{mode: modeUpdate}, fn)
}

func (p *Postgres) UpdateGame(ctx context.Context, gameID string, fn func(Tx) error) error {
	return p.withTransaction(ctx, gameTx, scope{mode: modeGame, gameID: gameID}, func(tx Tx) error {
		// Row lock serializes writers of one ledger without touching other games.
		var one int
		err := tx.(*pgTx).tx.QueryRow(ctx, `SELECT 1 FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("game %s: %w", gameID, game.ErrNotFound)
		}
		if err != nil {
			return pgErr("lock game", err)
		}
		return fn(tx)
	})
}

func (p *Postgres) View(ctx context.Context, fn func(Tx) error) error {
	return p.withTransaction(ctx, readTx, scope{mode: modeView}, fn)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// withTransaction executes fn within a transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (p *Postgres) withTransaction(ctx context.Context, opts pgx.TxOptions, sc scope, fn func(Tx) error) (err error) {
	tx, err := p.pool.BeginTx(ctx, opts)
	if err != nil {
		return pgErr("begin", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(&pgTx{ctx: ctx, tx: tx, scope: sc}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return pgErr("commit", err)
	}
	return nil
}

// pgErr maps Postgres error codes onto the game error kinds.
func pgErr(op string, err error) error {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "40001", "40P01", "23505": // serialization_failure, deadlock_detected, unique_violation
			return fmt.Errorf("%s: %w: %w", op, game.ErrConflict, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w: %w", op, game.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
	scope
}

const pgGameCols = `id, player1, COALESCE(player2, ''), COALESCE(board, ''), time_limit, started_at, created_at`

func (t *pgTx) InsertUser(u game.User) error {
	if err := t.write(); err != nil {
		return err
	}
	_, err := t.tx.Exec(t.ctx, `INSERT INTO users (token, nickname) VALUES ($1, $2)`, u.Token, u.Nickname)
	if err != nil {
		return pgErr("insert user", err)
	}
	return nil
}

func (t *pgTx) User(token string) (game.User, error) {
	var u game.User
	err := t.tx.QueryRow(t.ctx, `SELECT token, nickname FROM users WHERE token = $1`, token).
		Scan(&u.Token, &u.Nickname)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.User{}, fmt.Errorf("user: %w", game.ErrNotFound)
	}
	if err != nil {
		return game.User{}, pgErr("select user", err)
	}
	return u, nil
}

func (t *pgTx) Session(id string) (*game.Session, error) {
	if err := t.session(id); err != nil {
		return nil, err
	}
	s, err := t.one(`SELECT `+pgGameCols+` FROM games WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	return s, nil
}

func (t *pgTx) PendingSession() (*game.Session, error) {
	if err := t.registry(); err != nil {
		return nil, err
	}
	return t.one(`SELECT ` + pgGameCols + ` FROM games WHERE player2 IS NULL LIMIT 1`)
}

func (t *pgTx) OpenSessionFor(token string, now time.Time) (*game.Session, error) {
	if err := t.registry(); err != nil {
		return nil, err
	}
	return t.one(`SELECT `+pgGameCols+` FROM games
		WHERE (player1 = $1 OR player2 = $1)
		  AND (player2 IS NULL OR started_at + make_interval(secs => time_limit) > $2)
		ORDER BY created_at DESC LIMIT 1`,
		token, now)
}

func (t *pgTx) one(query string, args ...any) (*game.Session, error) {
	var (
		s       game.Session
		b       string
		started *time.Time
	)
	err := t.tx.QueryRow(t.ctx, query, args...).
		Scan(&s.ID, &s.Player1, &s.Player2, &b, &s.TimeLimit, &started, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pgErr("select game", err)
	}
	if b != "" {
		if s.Board, err = board.Parse(b); err != nil {
			return nil, fmt.Errorf("game %s: stored board: %w", s.ID, err)
		}
	}
	if started != nil {
		s.StartedAt = *started
	}
	if s.Words, err = t.words(s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *pgTx) words(gameID string) ([]game.Word, error) {
	rows, err := t.tx.Query(t.ctx,
		`SELECT game_id, player, word, score FROM words WHERE game_id = $1 ORDER BY id`, gameID)
	if err != nil {
		return nil, pgErr("select words", err)
	}
	defer rows.Close()

	out := []game.Word{}
	for rows.Next() {
		var w game.Word
		if err := rows.Scan(&w.GameID, &w.Player, &w.Text, &w.Score); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertSession(s *game.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	var (
		player2, b *string
		started    *time.Time
	)
	if s.Player2 != "" {
		player2, started = &s.Player2, &s.StartedAt
	}
	if s.Board != nil {
		str := s.Board.String()
		b = &str
	}
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO games (id, player1, player2, board, time_limit, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Player1, player2, b, s.TimeLimit, started, s.CreatedAt)
	if err != nil {
		return pgErr("insert game", err)
	}
	return nil
}

func (t *pgTx) StartSession(s *game.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	if s.Player2 == "" || s.Board == nil {
		return fmt.Errorf("game %s: start without second player or board: %w", s.ID, game.ErrInvalidInput)
	}
	tag, err := t.tx.Exec(t.ctx, `
		UPDATE games SET player2 = $1, board = $2, time_limit = $3, started_at = $4
		WHERE id = $5 AND player2 IS NULL`,
		s.Player2, s.Board.String(), s.TimeLimit, s.StartedAt, s.ID)
	if err != nil {
		return pgErr("start game", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s: not pending: %w", s.ID, game.ErrConflict)
	}
	return nil
}

func (t *pgTx) DeleteSession(id string) error {
	if err := t.write(); err != nil {
		return err
	}
	tag, err := t.tx.Exec(t.ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return pgErr("delete game", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	return nil
}

func (t *pgTx) AppendWord(w game.Word) error {
	if err := t.ledger(w.GameID); err != nil {
		return err
	}
	_, err := t.tx.Exec(t.ctx,
		`INSERT INTO words (game_id, player, word, score) VALUES ($1, $2, $3, $4)`,
		w.GameID, w.Player, w.Text, w.Score)
	if err != nil {
		return pgErr("append word", err)
	}
	return nil
}
