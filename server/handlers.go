package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"go-melodycards/card"
	"go-melodycards/game"
	"go-melodycards/midi"
	"go-melodycards/staff"
)

type placeRequest struct {
	CardID   *card.ID `json:"cardId"`
	Position *int     `json:"position"`
}

type moveRequest struct {
	Position *int `json:"position"`
}

type resultBody struct {
	Outcome   string              `json:"outcome"`
	Reason    string              `json:"reason,omitempty"`
	Placement *game.PlacementView `json:"placement,omitempty"`
	Displaced []card.ID           `json:"displaced,omitempty"`
	State     game.Snapshot       `json:"state"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Pool())
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("body must be JSON with cardId and position"))
		return
	}
	if req.CardID == nil || req.Position == nil {
		writeError(w, badRequest("cardId and position are required"))
		return
	}
	res, err := s.game.Place(*req.CardID, *req.Position)
	s.writeResult(w, res, err)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.game.Remove(card.ID(id))
	s.writeResult(w, res, err)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
		writeError(w, badRequest("body must be JSON with position"))
		return
	}
	res, err := s.game.Move(staff.PlacementID(id), *req.Position)
	s.writeResult(w, res, err)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.game.ReturnToPool(staff.PlacementID(id))
	s.writeResult(w, res, err)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.game.ClearStaff()
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.game.HoverPreview(card.ID(id))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Play(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Preview(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.game.Stop()
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

// handleExport serves the melody as a MIDI file. ?all=true includes
// unconfirmed measures, ?loops=n repeats it.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all, _ := strconv.ParseBool(q.Get("all"))
	loops := 1
	if v := q.Get("loops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 64 {
			writeError(w, badRequest("loops must be between 1 and 64"))
			return
		}
		loops = n
	}

	events, err := s.game.ExportEvents(all)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	err = midi.WriteSMF(&buf, events, midi.Export{
		Tempo:         s.game.Tempo(),
		TimeSignature: s.opts.TimeSignature,
		Loops:         loops,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="melody.mid"`)
	w.Write(buf.Bytes())
}

// writeResult answers a staff command. A rejected drop is a 409 so clients
// can snap the card back.
func (s *Server) writeResult(w http.ResponseWriter, res staff.Result, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	body := resultBody{
		Outcome: res.Outcome.String(),
		Reason:  res.Reason,
		State:   s.game.Snapshot(),
	}
	for _, c := range res.Displaced {
		body.Displaced = append(body.Displaced, c.ID)
	}
	status := http.StatusOK
	switch res.Outcome {
	case staff.Rejected:
		status = http.StatusConflict
	case staff.Removed:
	default:
		for i, p := range body.State.Placements {
			if p.ID == res.Placement.ID {
				body.Placement = &body.State.Placements[i]
			}
		}
	}
	writeJSON(w, status, body)
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, badRequest("id must be a number")
	}
	return id, nil
}
