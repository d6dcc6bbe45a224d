// Package server exposes a game over a JSON API for browser front-ends
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"go-melodycards/config"
	"go-melodycards/debug"
	"go-melodycards/game"
)

// Options for New
type Options struct {
	Origins       []string // CORS origins, "*" for any
	TimeSignature config.TimeSignature
}

type Server struct {
	game    *game.Game
	opts    Options
	router  *mux.Router
	handler http.Handler
}

func New(g *game.Game, opts Options) *Server {
	s := &Server{game: g, opts: opts}

	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/pool", s.handlePool).Methods(http.MethodGet)

	r.HandleFunc("/staff", s.handleClear).Methods(http.MethodDelete)
	r.HandleFunc("/staff/cards", s.handlePlace).Methods(http.MethodPost)
	r.HandleFunc("/staff/cards/{id:[0-9]+}", s.handleRemove).Methods(http.MethodDelete)
	r.HandleFunc("/staff/placements/{id:[0-9]+}/move", s.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/staff/placements/{id:[0-9]+}", s.handleReturn).Methods(http.MethodDelete)

	r.HandleFunc("/cards/{id:[0-9]+}/preview", s.handleHover).Methods(http.MethodPost)
	r.HandleFunc("/playback/play", s.handlePlay).Methods(http.MethodPost)
	r.HandleFunc("/playback/preview", s.handlePreview).Methods(http.MethodPost)
	r.HandleFunc("/playback/stop", s.handleStop).Methods(http.MethodPost)

	r.HandleFunc("/export.mid", s.handleExport).Methods(http.MethodGet)

	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.router = r
	s.handler = c.Handler(r)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		debug.Info("server", "listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fault.Wrap(err, fmsg.With("serve http"))
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fault.Wrap(err, fmsg.With("shut down http"))
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error("server", err, "encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps fault tags onto status codes and shows the user-facing
// message when there is one
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch ftag.Get(err) {
	case ftag.InvalidArgument:
		status = http.StatusBadRequest
	case ftag.NotFound:
		status = http.StatusNotFound
	}

	msg := fmsg.GetIssue(err)
	if msg == "" {
		if status == http.StatusInternalServerError {
			msg = "internal error"
		} else {
			msg = err.Error()
		}
	}
	if status == http.StatusInternalServerError {
		debug.Error("server", err, "request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func badRequest(msg string) error {
	return fault.New(msg, ftag.With(ftag.InvalidArgument), fmsg.WithDesc(msg, msg))
}
