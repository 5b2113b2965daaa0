package melody

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-score/algorithms/tonal"
	"github.com/RyanBlaney/sonido-score/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hop = 0.01

// steady returns n confident frames at f Hz starting at t0
func steady(t0 float64, n int, f float64) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Time: t0 + float64(i)*hop, Frequency: f, Voiced: true, Probability: 0.9}
	}
	return frames
}

// silent returns n unvoiced frames starting at t0
func silent(t0 float64, n int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Time: t0 + float64(i)*hop, Frequency: math.NaN()}
	}
	return frames
}

func concat(parts ...[]Frame) []Frame {
	var out []Frame
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func newMerger(t *testing.T) *Merger {
	t.Helper()
	m, err := NewMerger(config.DefaultSegmentConfig())
	require.NoError(t, err)
	return m
}

func TestSegmentsSplitOnNoteChangeAndSilence(t *testing.T) {
	m := newMerger(t)

	frames := concat(
		steady(0.00, 20, 293.66), // D4
		steady(0.20, 20, 329.63), // E4
		silent(0.40, 10),
		steady(0.50, 20, 293.66), // D4
	)

	segments := m.Segments(frames)
	assert.Equal(t, []string{"D4", "E4", "D4"}, NoteSequence(segments))

	for _, s := range segments {
		assert.InDelta(t, s.End-s.Start, s.Duration, 1e-12)
		assert.GreaterOrEqual(t, s.Duration, 0.05)
	}
	assert.InDelta(t, 0.0, segments[0].Start, 1e-9)
	assert.InDelta(t, 0.50, segments[2].Start, 1e-9)
	assert.InDelta(t, 0.69, segments[2].End, 1e-9)
}

func TestSegmentsFixedReferenceSplitsSlowDrift(t *testing.T) {
	m := newMerger(t)

	// D4 drifting upward three cents per frame. No adjacent pair differs by more
	// than the tolerance, but the drift from the first frame eventually does.
	frames := make([]Frame, 25)
	for i := range frames {
		cents := -30 + 3*float64(i)
		frames[i] = Frame{
			Time:        float64(i) * hop,
			Frequency:   tonal.MIDIToHz(62 + cents/100),
			Voiced:      true,
			Probability: 1,
		}
	}

	segments := m.Segments(frames)
	require.Len(t, segments, 2)
	assert.Equal(t, "D4", segments[0].Note)
	assert.Equal(t, "D4", segments[1].Note)

	// The smoothed reference is -27 cents, so +15 cents (frame 15) is the first
	// frame more than 40 cents away.
	assert.InDelta(t, 0.14, segments[0].End, 1e-9)
	assert.InDelta(t, 0.15, segments[1].Start, 1e-9)
	assert.InDelta(t, 0.24, segments[1].End, 1e-9)
}

func TestSegmentsDropShortAndUnconfident(t *testing.T) {
	m := newMerger(t)

	lowConfidence := steady(0.30, 20, 440)
	for i := range lowConfidence {
		lowConfidence[i].Probability = 0.1
	}

	frames := concat(
		steady(0.00, 3, 392), // only 0.02 s long
		silent(0.03, 10),
		steady(0.13, 10, 440),
		silent(0.23, 7),
		lowConfidence,
	)

	segments := m.Segments(frames)
	require.Len(t, segments, 1)
	assert.Equal(t, "A4", segments[0].Note)
}

func TestSegmentsCorrectSubharmonics(t *testing.T) {
	m := newMerger(t)

	// A tracker locked on half of D4
	segments := m.Segments(steady(0, 20, 146.83))
	assert.Equal(t, []string{"D4"}, NoteSequence(segments))
}

func TestSegmentsSmoothIsolatedFrames(t *testing.T) {
	m := newMerger(t)

	frames := concat(silent(0, 5), steady(0.05, 1, 440), silent(0.06, 5))
	assert.Empty(t, m.Segments(frames))

	// A one-frame glitch inside a held note is filtered out
	held := steady(0, 20, 293.66)
	held[10].Frequency = 880
	assert.Equal(t, []string{"D4"}, NoteSequence(m.Segments(held)))
}

func TestSegmentsEmpty(t *testing.T) {
	m := newMerger(t)
	assert.Empty(t, m.Segments(nil))
	assert.Empty(t, m.Segments(silent(0, 50)))
}

func TestNewMergerRejectsEvenWindow(t *testing.T) {
	cfg := config.DefaultSegmentConfig()
	cfg.MedianWindow = 4
	_, err := NewMerger(cfg)
	assert.Error(t, err)
}

func TestFrameArrays(t *testing.T) {
	fa := FrameArrays{
		Times:      []float64{0, 0.01},
		F0:         []float64{440, 0},
		VoicedFlag: []bool{true, false},
		VoicedProb: []float64{0.8, 0.1},
	}
	frames, err := fa.Frames()
	require.NoError(t, err)
	assert.Equal(t, Frame{Time: 0.01, Frequency: 0, Voiced: false, Probability: 0.1}, frames[1])

	fa.VoicedProb = fa.VoicedProb[:1]
	_, err = fa.Frames()
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	reference := HappyBirthday.Notes

	tests := []struct {
		name     string
		player   []string
		accuracy float64
		score    int
	}{
		{"one wrong of three", []string{"D4", "D4", "F4"}, 2.0 / 3.0, 667},
		{"empty", nil, 0, 0},
		{"perfect prefix", []string{"D4", "D4", "E4", "D4"}, 1, 1000},
		{"octave counts", []string{"D5"}, 0, 0},
		{"no resync after a skipped note", []string{"D4", "E4", "D4", "G4"}, 0.25, 250},
		{"longer than reference", append(append([]string{}, reference...), "C5", "C5"), 1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accuracy, score := Score(tt.player, reference)
			assert.InDelta(t, tt.accuracy, accuracy, 1e-9)
			assert.Equal(t, tt.score, score)
		})
	}

	accuracy, score := Score([]string{"D4"}, nil)
	assert.Zero(t, accuracy)
	assert.Zero(t, score)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"happy_birthday", "twinkle_star"}, r.IDs())
	assert.Equal(t, 2, r.Len())

	m, err := r.Lookup("happy_birthday")
	require.NoError(t, err)
	assert.Len(t, m.Notes, 25)
	assert.Equal(t, []string{"D4", "D4", "E4"}, m.Notes[:3])

	m.Notes[0] = "C0"
	again, _ := r.Lookup("happy_birthday")
	assert.Equal(t, "D4", again.Notes[0])

	_, err = r.Lookup("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.ID)
	assert.Equal(t, []string{"happy_birthday", "twinkle_star"}, nf.Available)
	assert.Contains(t, err.Error(), "happy_birthday")
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name     string
		melodies []Melody
	}{
		{"empty id", []Melody{{ID: " ", Notes: []string{"C4"}}}},
		{"duplicate id", []Melody{{ID: "a", Notes: []string{"C4"}}, {ID: "a", Notes: []string{"D4"}}}},
		{"no notes", []Melody{{ID: "a"}}},
		{"bad note", []Melody{{ID: "a", Notes: []string{"H4"}}}},
		{"missing octave", []Melody{{ID: "a", Notes: []string{"C"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.melodies...)
			assert.ErrorIs(t, err, ErrInvalidMelody)
		})
	}
}

func TestNewRegistryNormalizesSpelling(t *testing.T) {
	r, err := NewRegistry(Melody{ID: "flat", Notes: []string{"Bb4", "E♭4", "F#4"}})
	require.NoError(t, err)

	m, err := r.Lookup("flat")
	require.NoError(t, err)
	assert.Equal(t, []string{"A#4", "D#4", "F#4"}, m.Notes)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
songs:
  - id: scale
    name: C major scale
    notes: [C4, D4, E4, F4, G4, A4, B4, C5]
`), 0o644))

	r, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"scale"}, r.IDs())
	assert.Equal(t, "C major scale", r.All()[0].Name)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"songs":[{"id":"x","notes":[]}]}`), 0o644))
	_, err = LoadRegistry(bad)
	assert.ErrorIs(t, err, ErrInvalidMelody)
}

func TestJudge(t *testing.T) {
	j, err := NewJudge(nil, config.DefaultSegmentConfig())
	require.NoError(t, err)

	frames := concat(
		steady(0.00, 20, 293.66),
		silent(0.20, 5),
		steady(0.25, 20, 293.66),
		silent(0.45, 5),
		steady(0.50, 20, 349.23), // F4 where E4 is expected
	)

	result, err := j.Judge(context.Background(), "happy_birthday", frames)
	require.NoError(t, err)
	assert.Equal(t, []string{"D4", "D4", "F4"}, result.Notes)
	assert.Equal(t, 667, result.Score)
	assert.InDelta(t, 2.0/3.0, result.Accuracy, 1e-9)

	_, err = j.Judge(context.Background(), "unknown", frames)
	assert.ErrorIs(t, err, ErrNotFound)

	result, err = j.Judge(context.Background(), "twinkle_star", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, result.Notes)
	assert.Zero(t, result.Score)
}
