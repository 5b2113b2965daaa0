package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/melody"
	"github.com/RyanBlaney/sonido-score/transcription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s, err := New(config.DefaultConfig(), nil)
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// playerFrames holds D4, D4, F4 separated by short unvoiced gaps
func playerFrames() melody.FrameArrays {
	var fa melody.FrameArrays
	add := func(n int, f float64, voiced bool) {
		for i := 0; i < n; i++ {
			fa.Times = append(fa.Times, float64(len(fa.Times))*0.01)
			fa.F0 = append(fa.F0, f)
			fa.VoicedFlag = append(fa.VoicedFlag, voiced)
			prob := 0.05
			if voiced {
				prob = 0.9
			}
			fa.VoicedProb = append(fa.VoicedProb, prob)
		}
	}
	add(20, 293.66, true)
	add(5, 0, false)
	add(20, 293.66, true)
	add(5, 0, false)
	add(20, 349.23, true)
	return fa
}

func TestRoot(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string   `json:"status"`
		Endpoints []string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Contains(t, body.Endpoints, "/analyzeSinglePlayer")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestSongs(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/songs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body SongsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Songs, 2)
	assert.Equal(t, "happy_birthday", body.Songs[0].ID)
}

func TestAnalyzeSinglePlayer(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/analyzeSinglePlayer", AnalyzeRequest{
		SongKey:     "happy_birthday",
		FrameArrays: playerFrames(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result melody.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"D4", "D4", "F4"}, result.Notes)
	assert.Equal(t, 667, result.Score)
}

func TestAnalyzeSinglePlayerErrors(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/analyzeSinglePlayer", AnalyzeRequest{
		SongKey:     "never_heard_of_it",
		FrameArrays: playerFrames(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errBody ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Contains(t, errBody.Error, "happy_birthday")

	rec = do(t, h, http.MethodPost, "/analyzeSinglePlayer", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/analyzeSinglePlayer", AnalyzeRequest{FrameArrays: playerFrames()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ragged := playerFrames()
	ragged.F0 = ragged.F0[:3]
	rec = do(t, h, http.MethodPost, "/analyzeSinglePlayer", AnalyzeRequest{SongKey: "happy_birthday", FrameArrays: ragged})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/analyzeSinglePlayer", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func transcribeRequest() TranscribeRequest {
	return TranscribeRequest{
		Analysis: transcription.Analysis{
			Duration:      2.0,
			Onsets:        []float64{1.0},
			TempoEstimate: 120,
			Pitch: transcription.FrameTrack{
				Times:       []float64{0.1, 0.5, 1.1, 1.5},
				Frequencies: []float64{392, 392, 0, 0},
			},
			Key: "G major",
		},
	}
}

func TestTranscribe(t *testing.T) {
	h := newTestServer(t)

	req := transcribeRequest()
	req.TargetKey = "C major"
	rec := do(t, h, http.MethodPost, "/api/transcribe", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body TranscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "G major", body.DetectedKey)
	assert.Equal(t, "C major", body.TargetKey)
	assert.Equal(t, 120.0, body.BPM)
	assert.Equal(t, "4/4", body.TimeSignature)
	assert.Equal(t, []transcription.NoteSummary{{Note: "G", Octave: 4, DurationQ: 2.0}}, body.Notes)
	assert.Len(t, body.Events, 2)
	assert.NotEmpty(t, body.Original.MIDIBase64)
	assert.NotEqual(t, body.Original.MIDIBase64, body.Transposed.MIDIBase64)

	req = transcribeRequest()
	req.Semitones = 2
	req.Strategy = "floor"
	rec = do(t, h, http.MethodPost, "/api/transcribe", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "G major (+2 st)", body.TargetKey)
}

func TestTranscribeErrors(t *testing.T) {
	h := newTestServer(t)

	req := transcribeRequest()
	req.TargetKey = "Z major"
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/transcribe", req).Code)

	req = transcribeRequest()
	req.Pitch.Frequencies = req.Pitch.Frequencies[:1]
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/transcribe", req).Code)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/analyzeSinglePlayer", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}
