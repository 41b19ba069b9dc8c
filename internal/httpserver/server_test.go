package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/boggle/internal/board"
	"github.com/robalobadob/boggle/internal/game"
	"github.com/robalobadob/boggle/internal/registry"
	"github.com/robalobadob/boggle/internal/store"
	"github.com/robalobadob/boggle/internal/users"
	"github.com/robalobadob/boggle/internal/words"
)

const testBoard = "CATSQXXXIXXXTXXX"

type fixedBoards struct{ b *board.Board }

func (f fixedBoards) Generate() *board.Board { return f.b }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestServer(t *testing.T) (http.Handler, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	reg := registry.New(store.NewMemoryStore(),
		users.NewIssuer("test-secret"),
		fixedBoards{board.MustParse(testBoard)},
		words.New([]string{"cat", "cats", "quit"}),
		registry.WithClock(c.Now),
		registry.WithLogger(zerolog.Nop()),
	)
	return New(reg, Options{ClientOrigin: "http://example.test", Logger: zerolog.Nop()}).Router(), c
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func registerUser(t *testing.T, h http.Handler, nick string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/users", map[string]any{"Nickname": nick})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tok, _ := decodeBody(t, rec)["UserToken"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func joinGame(t *testing.T, h http.Handler, tok string, limit int, want int) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/games", map[string]any{"UserToken": tok, "TimeLimit": limit})
	require.Equal(t, want, rec.Code, rec.Body.String())
	id, _ := decodeBody(t, rec)["GameID"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestDiagnostics(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", decodeBody(t, rec)["path"])

	rec = do(t, h, http.MethodOptions, "/games", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegister(t *testing.T) {
	h, _ := newTestServer(t)

	registerUser(t, h, "Andrew")

	for _, body := range []any{
		map[string]any{"Nickname": ""},
		map[string]any{"Nickname": "   "},
		map[string]any{"Nickname": nil},
	} {
		rec := do(t, h, http.MethodPost, "/users", body)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOversizedBody(t *testing.T) {
	h, _ := newTestServer(t)
	andrew := registerUser(t, h, "Andrew")
	gameID := joinGame(t, h, andrew, 30, http.StatusAccepted)

	huge := strings.Repeat("a", maxBodyBytes)
	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/users", map[string]any{"Nickname": huge}},
		{http.MethodPost, "/games", map[string]any{"UserToken": huge, "TimeLimit": 30}},
		{http.MethodPut, "/games", map[string]any{"UserToken": huge}},
		{http.MethodPut, "/games/" + gameID, map[string]any{"UserToken": andrew, "Word": huge}},
	} {
		rec := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"error":"body_too_large"}`, rec.Body.String())
	}

	// The pending game is untouched.
	rec := do(t, h, http.MethodGet, "/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"GameState":"pending"}`, rec.Body.String())
}

func TestJoinAndCancel(t *testing.T) {
	h, _ := newTestServer(t)
	andrew := registerUser(t, h, "Andrew")

	for _, limit := range []int{0, 121} {
		rec := do(t, h, http.MethodPost, "/games", map[string]any{"UserToken": andrew, "TimeLimit": limit})
		assert.Equal(t, http.StatusForbidden, rec.Code, "limit %d", limit)
	}
	rec := do(t, h, http.MethodPost, "/games", map[string]any{"UserToken": "thisSHOULDNTwork", "TimeLimit": 30})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	first := joinGame(t, h, andrew, 25, http.StatusAccepted)
	rec = do(t, h, http.MethodPost, "/games", map[string]any{"UserToken": andrew, "TimeLimit": 25})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/games/"+first, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"GameState":"pending"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/games", map[string]any{"UserToken": "thisSHOULDNTwork"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, http.MethodPut, "/games", map[string]any{"UserToken": andrew})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/games/"+first, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	second := joinGame(t, h, andrew, 25, http.StatusAccepted)
	assert.NotEqual(t, first, second)
}

func TestPlayGame(t *testing.T) {
	h, c := newTestServer(t)
	andrew := registerUser(t, h, "Andrew")
	sam := registerUser(t, h, "Sam")
	stranger := registerUser(t, h, "Stranger")

	id := joinGame(t, h, andrew, 5, http.StatusAccepted)

	rec := do(t, h, http.MethodPut, "/games/"+id, map[string]any{"UserToken": andrew, "Word": "cat"})
	assert.Equal(t, http.StatusConflict, rec.Code, "pending game")

	assert.Equal(t, id, joinGame(t, h, sam, 5, http.StatusCreated))

	play := func(tok, word string) *httptest.ResponseRecorder {
		return do(t, h, http.MethodPut, "/games/"+id, map[string]any{"UserToken": tok, "Word": word})
	}

	for _, tc := range []struct {
		tok, word string
		code      int
	}{
		{andrew, "", http.StatusForbidden},
		{andrew, "   ", http.StatusForbidden},
		{"", "test", http.StatusForbidden},
		{stranger, "test", http.StatusForbidden},
	} {
		assert.Equal(t, tc.code, play(tc.tok, tc.word).Code, "%q", tc.word)
	}
	rec = do(t, h, http.MethodPut, "/games/NO", map[string]any{"UserToken": andrew, "Word": "cat"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = play(andrew, "cats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Score":1}`, rec.Body.String())

	rec = play(sam, "ZZZZZZZZZ")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Score":-1}`, rec.Body.String())

	// The token may also come from the Authorization header.
	rec = do(t, h, http.MethodPut, "/games/"+id, map[string]any{"Word": "quit"}, "Authorization", "Bearer "+sam)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Score":1}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/games/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{
		"GameState": "active",
		"Board": %q,
		"TimeLimit": 5,
		"TimeLeft": 5,
		"Player1": {"Nickname": "Andrew", "Score": 1, "WordsPlayed": [{"Word": "CATS", "Score": 1}]},
		"Player2": {"Nickname": "Sam", "Score": 0, "WordsPlayed": [
			{"Word": "ZZZZZZZZZ", "Score": -1},
			{"Word": "QUIT", "Score": 1}
		]}
	}`, testBoard), rec.Body.String())

	c.Advance(2 * time.Second)
	rec = do(t, h, http.MethodGet, "/games/"+id+"?Brief=yes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"GameState": "active",
		"TimeLeft": 3,
		"Player1": {"Score": 1},
		"Player2": {"Score": 0}
	}`, rec.Body.String())

	c.Advance(3 * time.Second)
	rec = play(andrew, "cat")
	assert.Equal(t, http.StatusConflict, rec.Code, "time is up")

	rec = do(t, h, http.MethodGet, "/games/"+id+"?brief=yes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "completed", body["GameState"])
	assert.EqualValues(t, 0, body["TimeLeft"])

	rec = do(t, h, http.MethodGet, "/games/1000000000", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("x: %w", game.ErrInvalidInput), http.StatusForbidden},
		{fmt.Errorf("x: %w", game.ErrNotFound), http.StatusForbidden},
		{fmt.Errorf("x: %w", game.ErrConflict), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, statusFor(tc.err), tc.err.Error())
	}
}

func TestIsBrief(t *testing.T) {
	for q, want := range map[string]bool{
		"":            false,
		"?brief=yes":  true,
		"?Brief=yes":  true,
		"?brief=YES":  true,
		"?brief=true": true,
		"?brief=no":   false,
		"?other=yes":  false,
		"?brief=":     false,
	} {
		r := httptest.NewRequest(http.MethodGet, "/games/x"+q, nil)
		assert.Equal(t, want, isBrief(r), q)
	}
}
