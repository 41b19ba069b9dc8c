package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/boggle/internal/game"
)

// Request/response payloads. Field names are the wire names.
type (
	registerReq struct{ Nickname string }
	registerRes struct{ UserToken string }

	joinReq struct {
		UserToken string
		TimeLimit int
	}
	joinRes struct{ GameID string }

	cancelReq struct{ UserToken string }

	playReq struct {
		UserToken string
		Word      string
	}
	playRes struct{ Score int }

	errorRes struct {
		Error string `json:"error"`
		Path  string `json:"path,omitempty"`
	}
)

// statusRes is the GET /games/{id} body. Pending games carry GameState only.
type statusRes struct {
	GameState string
	Board     string `json:",omitempty"`
	TimeLimit int    `json:",omitempty"`
	TimeLeft  *int   `json:",omitempty"`
	Player1   any    `json:",omitempty"`
	Player2   any    `json:",omitempty"`
}

type briefPlayer struct {
	Score int
}

type fullPlayer struct {
	Nickname    string
	Score       int
	WordsPlayed []wordRes
}

type wordRes struct {
	Word  string
	Score int
}

// POST /users
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decode(w, r, &req) {
		return
	}
	tok, err := s.games.RegisterUser(r.Context(), req.Nickname)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerRes{UserToken: tok})
}

// POST /games: 202 when a new pending game was created, 201 when a pending game was started.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if !decode(w, r, &req) {
		return
	}
	res, err := s.games.JoinOrCreate(r.Context(), token(r, req.UserToken), req.TimeLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := http.StatusAccepted
	if res.Started {
		code = http.StatusCreated
	}
	writeJSON(w, code, joinRes{GameID: res.GameID})
}

// PUT /games
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelReq
	if !decode(w, r, &req) {
		return
	}
	if err := s.games.Cancel(r.Context(), token(r, req.UserToken)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// PUT /games/{id}
func (s *Server) handlePlayWord(w http.ResponseWriter, r *http.Request) {
	var req playReq
	if !decode(w, r, &req) {
		return
	}
	score, err := s.games.SubmitWord(r.Context(), chi.URLParam(r, "id"), token(r, req.UserToken), req.Word)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playRes{Score: score})
}

// GET /games/{id}?brief=yes
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.games.Status(r.Context(), chi.URLParam(r, "id"), isBrief(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusRes(snap))
}

func toStatusRes(snap game.Snapshot) statusRes {
	res := statusRes{GameState: string(snap.State)}
	if snap.State == game.StatePending {
		return res
	}
	left := snap.TimeLeft
	res.TimeLeft = &left
	if snap.Brief {
		res.Player1 = briefPlayer{Score: snap.Player1.Score}
		res.Player2 = briefPlayer{Score: snap.Player2.Score}
		return res
	}
	res.Board = snap.Board
	res.TimeLimit = snap.TimeLimit
	res.Player1 = toFullPlayer(snap.Player1)
	res.Player2 = toFullPlayer(snap.Player2)
	return res
}

func toFullPlayer(p game.PlayerStatus) fullPlayer {
	out := fullPlayer{Nickname: p.Nickname, Score: p.Score, WordsPlayed: make([]wordRes, 0, len(p.Words))}
	for _, ws := range p.Words {
		out.WordsPlayed = append(out.WordsPlayed, wordRes{Word: ws.Word, Score: ws.Score})
	}
	return out
}

// isBrief accepts ?brief=yes (any case of key or value); "true" works too.
func isBrief(r *http.Request) bool {
	for k, vs := range r.URL.Query() {
		if !strings.EqualFold(k, "brief") || len(vs) == 0 {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(vs[0]))
		return v == "yes" || v == "true"
	}
	return false
}

// token prefers the body's UserToken and falls back to a bearer header.
func token(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	return bearer(r)
}

// decode reads a JSON body into v, answering 400 if it is malformed.
// maxBodyBytes caps request bodies. Every payload is a token plus a short field.
const maxBodyBytes = 4 << 10

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	var tooBig *http.MaxBytesError
	switch {
	case err == nil:
		return true
	case errors.As(err, &tooBig):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorRes{Error: "body_too_large"})
	default:
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_json"})
	}
	return false
}

// statusFor maps the game error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidInput), errors.Is(err, game.ErrNotFound):
		return http.StatusForbidden
	case errors.Is(err, game.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeJSON(w, code, errorRes{Error: "internal_error"})
		return
	}
	hlog.FromRequest(r).Debug().Err(err).Int("status", code).Msg("request rejected")
	writeJSON(w, code, errorRes{Error: http.StatusText(code)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
