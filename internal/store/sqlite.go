// internal/store/sqlite.go
//
// SQLite implementation of Store.
//
// Two connection pools share one database file:
//   - rw: a single connection with BEGIN IMMEDIATE, so writers queue in-process
//     instead of failing with SQLITE_BUSY.
//   - ro: deferred transactions for View; under WAL they read a snapshot and
//     never wait for writers.
//
// Times are stored as unix nanoseconds.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/robalobadob/boggle/internal/board"
	"github.com/robalobadob/boggle/internal/game"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	rw *sql.DB
	ro *sql.DB
}

// OpenSQLite opens (creating if missing) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	// Ensure directory exists for ./data/boggle.db, etc.
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := migrateSQLite(path); err != nil {
		return nil, err
	}

	rw, err := sql.Open("sqlite3", sqliteDSN(path, "immediate"))
	if err != nil {
		return nil, err
	}
	rw.SetMaxOpenConns(1)
	ro, err := sql.Open("sqlite3", sqliteDSN(path, "deferred"))
	if err != nil {
		_ = rw.Close()
		return nil, err
	}
	if err := rw.PingContext(ctx); err != nil {
		_ = rw.Close()
		_ = ro.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLite{rw: rw, ro: ro}, nil
}

// sqliteDSN sets busy timeout, WAL journaling and foreign keys on every connection.
func sqliteDSN(path, txlock string) string {
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=" + txlock
}

func (s *SQLite) Update(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, s.rw, scope{mode: modeUpdate}, fn)
}

// UpdateGame runs on the single rw connection like Update. SQLite allows one
// writer per database, so submissions to different games queue behind each
// other here; use the Postgres backend when that matters.
func (s *SQLite) UpdateGame(ctx context.Context, gameID string, fn func(Tx) error) error {
	return s.run(ctx, s.rw, scope{mode: modeGame, gameID: gameID}, func(tx Tx) error {
		if err := tx.(*sqliteTx).exists(gameID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (s *SQLite) View(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, s.ro, scope{mode: modeView}, fn)
}

func (s *SQLite) Close() error {
	return errors.Join(s.rw.Close(), s.ro.Close())
}

func (s *SQLite) run(ctx context.Context, db *sql.DB, sc scope, fn func(Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteErr("begin", err)
	}
	if err := fn(&sqliteTx{ctx: ctx, tx: tx, scope: sc}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return sqliteErr("commit", err)
	}
	return nil
}

// sqliteErr maps driver errors onto the game error kinds.
func sqliteErr(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%s: %w: %w", op, game.ErrConflict, err)
		case se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w: %w", op, game.ErrConflict, err)
		case se.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w: %w", op, game.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
	scope
}

const sqliteGameCols = `id, player1, COALESCE(player2, ''), COALESCE(board, ''), time_limit, started_at, created_at`

func (t *sqliteTx) exists(id string) error {
	var one int
	err := t.tx.QueryRowContext(t.ctx, `SELECT 1 FROM games WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return sqliteErr("lookup game", err)
	}
	return nil
}

func (t *sqliteTx) InsertUser(u game.User) error {
	if err := t.write(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO users (token, nickname, created_at) VALUES (?, ?, ?)`,
		u.Token, u.Nickname, time.Now().UnixNano())
	if err != nil {
		return sqliteErr("insert user", err)
	}
	return nil
}

func (t *sqliteTx) User(token string) (game.User, error) {
	var u game.User
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT token, nickname FROM users WHERE token = ?`, token).Scan(&u.Token, &u.Nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return game.User{}, fmt.Errorf("user: %w", game.ErrNotFound)
	}
	if err != nil {
		return game.User{}, sqliteErr("select user", err)
	}
	return u, nil
}

func (t *sqliteTx) Session(id string) (*game.Session, error) {
	if err := t.session(id); err != nil {
		return nil, err
	}
	s, err := t.one(`SELECT `+sqliteGameCols+` FROM games WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	return s, nil
}

func (t *sqliteTx) PendingSession() (*game.Session, error) {
	if err := t.registry(); err != nil {
		return nil, err
	}
	return t.one(`SELECT ` + sqliteGameCols + ` FROM games WHERE player2 IS NULL LIMIT 1`)
}

func (t *sqliteTx) OpenSessionFor(token string, now time.Time) (*game.Session, error) {
	if err := t.registry(); err != nil {
		return nil, err
	}
	return t.one(`SELECT `+sqliteGameCols+` FROM games
		WHERE (player1 = ? OR player2 = ?)
		  AND (player2 IS NULL OR started_at + time_limit * 1000000000 > ?)
		ORDER BY created_at DESC LIMIT 1`,
		token, token, now.UnixNano())
}

// one loads a single session with its ledger; nil when no row matches.
func (t *sqliteTx) one(query string, args ...any) (*game.Session, error) {
	var (
		s       game.Session
		b       string
		started sql.NullInt64
		created int64
	)
	err := t.tx.QueryRowContext(t.ctx, query, args...).
		Scan(&s.ID, &s.Player1, &s.Player2, &b, &s.TimeLimit, &started, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, sqliteErr("select game", err)
	}
	if b != "" {
		if s.Board, err = board.Parse(b); err != nil {
			return nil, fmt.Errorf("game %s: stored board: %w", s.ID, err)
		}
	}
	if started.Valid {
		s.StartedAt = time.Unix(0, started.Int64)
	}
	s.CreatedAt = time.Unix(0, created)
	if s.Words, err = t.words(s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *sqliteTx) words(gameID string) ([]game.Word, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT game_id, player, word, score FROM words WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, sqliteErr("select words", err)
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

func (t *sqliteTx) InsertSession(s *game.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	var (
		player2, b sql.NullString
		started    sql.NullInt64
	)
	if s.Player2 != "" {
		player2 = sql.NullString{String: s.Player2, Valid: true}
		started = sql.NullInt64{Int64: s.StartedAt.UnixNano(), Valid: true}
	}
	if s.Board != nil {
		b = sql.NullString{String: s.Board.String(), Valid: true}
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO games (id, player1, player2, board, time_limit, started_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Player1, player2, b, s.TimeLimit, started, s.CreatedAt.UnixNano())
	if err != nil {
		return sqliteErr("insert game", err)
	}
	return nil
}

func (t *sqliteTx) StartSession(s *game.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	if s.Player2 == "" || s.Board == nil {
		return fmt.Errorf("game %s: start without second player or board: %w", s.ID, game.ErrInvalidInput)
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE games SET player2 = ?, board = ?, time_limit = ?, started_at = ?
		WHERE id = ? AND player2 IS NULL`,
		s.Player2, s.Board.String(), s.TimeLimit, s.StartedAt.UnixNano(), s.ID)
	if err != nil {
		return sqliteErr("start game", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game %s: not pending: %w", s.ID, game.ErrConflict)
	}
	return nil
}

func (t *sqliteTx) DeleteSession(id string) error {
	if err := t.write(); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return sqliteErr("delete game", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	return nil
}

func (t *sqliteTx) AppendWord(w game.Word) error {
	if err := t.ledger(w.GameID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO words (game_id, player, word, score) VALUES (?, ?, ?, ?)`,
		w.GameID, w.Player, w.Text, w.Score)
	if err != nil {
		return sqliteErr("append word", err)
	}
	return nil
}
