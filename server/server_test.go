package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-melodycards/config"
	"go-melodycards/game"
	"go-melodycards/staff"
	"go-melodycards/synth"
)

func newTestServer(t *testing.T) (*Server, *game.Game) {
	t.Helper()
	g, err := game.New(game.Options{
		Tempo:        120,
		Staff:        staff.DefaultOptions(),
		RefillBelow:  1,
		DealSize:     3,
		PreviewDelay: time.Hour,
		ChapterDelay: time.Hour,
		Seed:         3,
	}, synth.NewSilent(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(g.Stop)
	return New(g, Options{
		Origins:       []string{"http://localhost:5173"},
		TimeSignature: config.TimeSignature{Numerator: 4, Denominator: 4},
	}), g
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestState(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	snap := decode[game.Snapshot](t, w)
	assert.Equal(t, 1, snap.Chapter)
	assert.Len(t, snap.Pool, 6)
	assert.Equal(t, "idle", snap.Playback)

	w = do(t, s, http.MethodGet, "/pool", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]game.CardView](t, w), 6)
}

func TestPlaceAndReturn(t *testing.T) {
	s, g := newTestServer(t)
	id := g.Pool()[0].ID

	w := do(t, s, http.MethodPost, "/staff/cards", fmt.Sprintf(`{"cardId": %d, "position": 1}`, id))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[resultBody](t, w)
	assert.Equal(t, "placed", res.Outcome)
	require.NotNil(t, res.Placement)
	assert.Equal(t, 1, res.Placement.Start)
	assert.Len(t, res.State.Placements, 1)

	w = do(t, s, http.MethodPost, fmt.Sprintf("/staff/placements/%d/move", res.Placement.ID), `{"position": 3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "moved", decode[resultBody](t, w).Outcome)

	w = do(t, s, http.MethodDelete, fmt.Sprintf("/staff/placements/%d", res.Placement.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[resultBody](t, w)
	assert.Equal(t, "removed", res.Outcome)
	assert.Equal(t, []int{int(id)}, toInts(res))
	assert.Empty(t, res.State.Placements)
}

func toInts(r resultBody) []int {
	out := make([]int, len(r.Displaced))
	for i, id := range r.Displaced {
		out[i] = int(id)
	}
	return out
}

func TestPlaceErrors(t *testing.T) {
	s, g := newTestServer(t)

	w := do(t, s, http.MethodPost, "/staff/cards", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).Error)

	w = do(t, s, http.MethodPost, "/staff/cards", `{"cardId": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/staff/cards", `{"cardId": 999, "position": 0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "That card is no longer available.", decode[errorBody](t, w).Error)

	// beyond the last measure
	id := g.Pool()[0].ID
	w = do(t, s, http.MethodPost, "/staff/cards", fmt.Sprintf(`{"cardId": %d, "position": 255}`, id))
	assert.Equal(t, http.StatusConflict, w.Code)
	res := decode[resultBody](t, w)
	assert.Equal(t, "rejected", res.Outcome)
	assert.NotEmpty(t, res.Reason)

	w = do(t, s, http.MethodDelete, "/staff/cards/12345", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportNeedsMelody(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/export.mid", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/export.mid?loops=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportWholeStaff(t *testing.T) {
	s, g := newTestServer(t)
	var pitch game.CardView
	for _, c := range g.Pool() {
		if c.Kind == "pitch" {
			pitch = c
			break
		}
	}
	w := do(t, s, http.MethodPost, "/staff/cards", fmt.Sprintf(`{"cardId": %d, "position": 1}`, pitch.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/export.mid?all=true&loops=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))

	mf, err := smf.ReadFrom(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, mf.Tracks, 2)
}

func TestPlaybackEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/playback/play", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode[game.Snapshot](t, w).Playback, "nothing completed")

	w = do(t, s, http.MethodPost, "/playback/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/cards/0/preview", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, s, http.MethodDelete, "/staff", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/staff/cards", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
