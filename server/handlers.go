package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/RyanBlaney/sonido-score/logging"
	"github.com/RyanBlaney/sonido-score/melody"
	"github.com/RyanBlaney/sonido-score/render"
	"github.com/RyanBlaney/sonido-score/transcription"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"detail"`
}

// TranscribeRequest carries one recording's detector output plus rendering options
type TranscribeRequest struct {
	transcription.Analysis

	Strategy    string  `json:"quantize_strategy,omitempty"` // "nearest", "floor" or "ceil"
	BPMOverride float64 `json:"bpm_override,omitempty"`
	TargetKey   string  `json:"target_key,omitempty"`
	Semitones   int     `json:"semitones,omitempty"`
}

// RenderedScore is one version of the transcription as a MIDI file
type RenderedScore struct {
	MIDIBase64 string `json:"midiB64"`
}

// TranscribeResponse is the result of /api/transcribe
type TranscribeResponse struct {
	DetectedKey   string                      `json:"detectedKey"`
	TargetKey     string                      `json:"targetKey"`
	BPM           float64                     `json:"bpm"`
	TimeSignature string                      `json:"timeSignature"`
	Notes         []transcription.NoteSummary `json:"notes"`
	Events        []transcription.Event       `json:"events"`
	Original      RenderedScore               `json:"original"`
	Transposed    RenderedScore               `json:"transposed"`
}

// AnalyzeRequest is a player's pitch track and the song they attempted
type AnalyzeRequest struct {
	SongKey string `json:"song_key"`
	melody.FrameArrays
}

// SongsResponse lists the reference melodies
type SongsResponse struct {
	Songs []melody.Melody `json:"songs"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"endpoints": Endpoints,
	})
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SongsResponse{Songs: s.judge.Registry().All()})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithContext(r.Context())

	var req TranscribeRequest
	if !s.decode(w, r, &req) {
		return
	}

	assembler, err := s.newAssembler(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	base, err := assembler.Transcribe(req.Analysis, req.BPMOverride)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := render.PlanTransposition(base.Key, req.TargetKey, req.Semitones)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	transposed := plan.Apply(base)

	original, err := render.MIDIBase64(base, s.renderOptions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	shifted, err := render.MIDIBase64(transposed, s.renderOptions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	logger.Info("Recording transcribed", logging.Fields{
		"events":    len(base.Events),
		"bpm":       base.BPM,
		"key":       base.Key,
		"semitones": plan.Semitones,
	})

	writeJSON(w, http.StatusOK, TranscribeResponse{
		DetectedKey:   base.Key,
		TargetKey:     plan.KeyText,
		BPM:           base.BPM,
		TimeSignature: base.TimeSignature,
		Notes:         base.Notes(),
		Events:        base.Events,
		Original:      RenderedScore{MIDIBase64: original},
		Transposed:    RenderedScore{MIDIBase64: shifted},
	})
}

func (s *Server) handleAnalyzeSinglePlayer(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SongKey == "" {
		writeError(w, http.StatusBadRequest, "song_key is required")
		return
	}

	frames, err := req.Frames()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.judge.Judge(r.Context(), req.SongKey, frames)
	if errors.Is(err, melody.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decode reads a JSON body into v, answering 400 itself when that fails
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error(err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Error: detail})
}
