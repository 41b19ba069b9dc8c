// internal/httpserver/server.go
//
// HTTP server wiring for the Boggle backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health".
//   - User registration: POST /users.
//   - Game endpoints: POST /games (join or create), PUT /games (cancel),
//     PUT /games/{id} (play a word), GET /games/{id} (status).
//
// Notes:
//   - Field names on the wire are PascalCase (UserToken, GameID, ...) to stay
//     compatible with existing clients.
//   - Tokens travel in the JSON body; an Authorization: Bearer header is accepted
//     when the body omits one.

package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/boggle/internal/game"
	"github.com/robalobadob/boggle/internal/registry"
)

// Games is the game service the handlers call. *registry.Registry implements it.
type Games interface {
	RegisterUser(ctx context.Context, nickname string) (string, error)
	JoinOrCreate(ctx context.Context, token string, timeLimit int) (registry.Join, error)
	Cancel(ctx context.Context, token string) error
	SubmitWord(ctx context.Context, gameID, token, word string) (int, error)
	Status(ctx context.Context, gameID string, brief bool) (game.Snapshot, error)
}

// Options configures a Server.
type Options struct {
	ClientOrigin   string        // CORS origin; default http://localhost:5173
	RequestTimeout time.Duration // default 10s
	Logger         zerolog.Logger
}

// Server bundles the router and the game service.
type Server struct {
	r     *chi.Mux
	games Games
	http  *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(games Games, opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), games: games}
	s.http = &http.Server{
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(opts.Logger))       // per-request logger
	s.r.Use(requestIDField)                     // tag it with the request id
	s.r.Use(accessLog())                        // one line per request
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))            // single-origin CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"boggle-go","endpoints":["/health","POST /users","POST /games","PUT /games","PUT /games/{id}","GET /games/{id}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/users", s.handleRegister)
	s.r.Route("/games", func(r chi.Router) {
		r.Post("/", s.handleJoin)
		r.Put("/", s.handleCancel)
		r.Put("/{id}", s.handlePlayWord)
		r.Get("/{id}", s.handleStatus)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorRes{Error: "not_found", Path: r.URL.Path})
	})

	return s
}

// Run serves HTTP on addr until ctx is done, then stops accepting requests and
// waits up to grace for in-flight ones to finish. It returns only after the
// drain, so anything the handlers use may be released once it returns.
// If ctx is already done Run returns nil without listening.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	if ctx.Err() != nil {
		return nil
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, l, grace)
}

func (s *Server) serve(ctx context.Context, l net.Listener, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- s.http.Serve(l) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	if serveErr := <-errc; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	return err
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }
