package render

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-score/algorithms/tonal"
	"github.com/RyanBlaney/sonido-score/transcription"
)

// Transposition is a resolved request to move a transcription
type Transposition struct {
	Semitones int    `json:"semitones"`
	KeyText   string `json:"key"` // key reported for the transposed result
}

// ParseKey splits a key description such as "F# minor" into its tonic pitch
// class and mode. A missing mode means major.
func ParseKey(text string) (tonic int, mode string, err error) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return 0, "", fmt.Errorf("empty key")
	}

	tonic, err = tonal.ParsePitchClass(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid key %q: %w", text, err)
	}

	mode = "major"
	if len(parts) > 1 {
		mode = strings.ToLower(parts[1])
	}
	return tonic, mode, nil
}

// KeyInterval returns the semitones from the tonic of one key to the tonic of
// another, both taken in the same octave, so the result lies in [-11, 11]
func KeyInterval(from, to string) (int, error) {
	fromTonic, _, err := ParseKey(from)
	if err != nil {
		return 0, fmt.Errorf("could not compute transpose interval: %w", err)
	}
	toTonic, _, err := ParseKey(to)
	if err != nil {
		return 0, fmt.Errorf("could not compute transpose interval: %w", err)
	}
	return toTonic - fromTonic, nil
}

// PlanTransposition resolves a target key or a semitone shift against the
// detected key. A target key wins over semitones; with neither the result is
// the identity.
func PlanTransposition(detectedKey, targetKey string, semitones int) (Transposition, error) {
	if strings.TrimSpace(targetKey) != "" {
		interval, err := KeyInterval(detectedKey, targetKey)
		if err != nil {
			return Transposition{}, err
		}
		return Transposition{Semitones: interval, KeyText: targetKey}, nil
	}

	if semitones != 0 {
		sign := ""
		if semitones > 0 {
			sign = "+"
		}
		return Transposition{
			Semitones: semitones,
			KeyText:   fmt.Sprintf("%s (%s%d st)", detectedKey, sign, semitones),
		}, nil
	}

	return Transposition{KeyText: detectedKey}, nil
}

// Transpose returns a copy of t with every note moved by semitones. Rests,
// durations and measure positions are unchanged.
func Transpose(t *transcription.Transcription, semitones int) *transcription.Transcription {
	out := *t
	out.Events = make([]transcription.Event, len(t.Events))
	copy(out.Events, t.Events)

	if semitones == 0 {
		return &out
	}

	for i, e := range out.Events {
		if e.Kind != transcription.NoteEvent {
			continue
		}
		n := tonal.MIDIToNote(e.MIDI + semitones)
		out.Events[i].Note = n.Name
		out.Events[i].Octave = n.Octave
		out.Events[i].MIDI = n.MIDI
	}
	return &out
}

// Apply transposes t as planned and sets its key text
func (p Transposition) Apply(t *transcription.Transcription) *transcription.Transcription {
	out := Transpose(t, p.Semitones)
	out.Key = p.KeyText
	return out
}
