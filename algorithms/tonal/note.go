package tonal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-score/algorithms/common"
)

// ReferenceA4 is concert pitch; MIDI note 69 sounds at this frequency
const (
	ReferenceA4   = 440.0
	ReferenceMIDI = 69
)

// PitchClassNames indexes the 12-tone chromatic scale from C, using sharps
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterPitchClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// NoteInfo describes a frequency in terms of the nearest equal-tempered note
type NoteInfo struct {
	Name      string  `json:"name"`      // Pitch class, e.g. "F#"
	Octave    int     `json:"octave"`    // Scientific octave, C4 = middle C
	MIDI      int     `json:"midi"`      // Rounded MIDI note number
	MIDIExact float64 `json:"midi_exact"`
	Cents     float64 `json:"cents"`     // Deviation from MIDI, in [-50, 50]
	Frequency float64 `json:"frequency"` // Hz
}

// Label returns the note name with octave, e.g. "D4"
func (n NoteInfo) Label() string {
	return n.Name + strconv.Itoa(n.Octave)
}

// HzToMIDI returns the fractional MIDI note number of f
func HzToMIDI(f float64) float64 {
	return ReferenceMIDI + 12*math.Log2(f/ReferenceA4)
}

// MIDIToHz returns the frequency of a (possibly fractional) MIDI note number
func MIDIToHz(midi float64) float64 {
	return ReferenceA4 * math.Pow(2, (midi-ReferenceMIDI)/12)
}

// HzToNote converts a frequency into note information.
// It reports false for non-positive or non-finite input.
func HzToNote(f float64) (NoteInfo, bool) {
	if !common.IsFinite(f) || f <= 0 {
		return NoteInfo{}, false
	}

	exact := HzToMIDI(f)
	rounded := int(math.RoundToEven(exact))

	return NoteInfo{
		Name:      PitchClassNames[pitchClass(rounded)],
		Octave:    octaveOf(rounded),
		MIDI:      rounded,
		MIDIExact: exact,
		Cents:     (exact - float64(rounded)) * 100,
		Frequency: f,
	}, true
}

// MIDIToNote returns the note information for an integer MIDI number
func MIDIToNote(midi int) NoteInfo {
	return NoteInfo{
		Name:      PitchClassNames[pitchClass(midi)],
		Octave:    octaveOf(midi),
		MIDI:      midi,
		MIDIExact: float64(midi),
		Frequency: MIDIToHz(float64(midi)),
	}
}

// MIDINoteName returns the labelled name of a MIDI number, e.g. 62 -> "D4"
func MIDINoteName(midi int) string {
	return MIDIToNote(midi).Label()
}

func pitchClass(midi int) int {
	return ((midi % 12) + 12) % 12
}

// octaveOf floors the division so negative MIDI numbers land in the right octave
func octaveOf(midi int) int {
	return int(math.Floor(float64(midi)/12)) - 1
}

// SanitizeNoteName replaces Unicode accidentals with their ASCII spelling
func SanitizeNoteName(name string) string {
	if name == "" {
		return name
	}
	return strings.NewReplacer(
		"𝄪", "##",
		"𝄫", "bb",
		"♯", "#",
		"♭", "b",
	).Replace(name)
}

// ParsePitchClass parses a note name without octave ("C", "F#", "Bb", "E♭")
// into a pitch class in [0, 12)
func ParsePitchClass(name string) (int, error) {
	pc, rest, err := parseLetterAndAccidentals(SanitizeNoteName(strings.TrimSpace(name)))
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, fmt.Errorf("invalid pitch class %q", name)
	}
	return pitchClass(pc), nil
}

// ParseNote parses a note label such as "D4", "F#3" or "Bb-1" into a MIDI number
func ParseNote(name string) (int, error) {
	clean := SanitizeNoteName(strings.TrimSpace(name))

	pc, rest, err := parseLetterAndAccidentals(clean)
	if err != nil {
		return 0, err
	}
	if rest == "" {
		return 0, fmt.Errorf("note %q has no octave", name)
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("note %q has invalid octave: %w", name, err)
	}

	return (octave+1)*12 + pc, nil
}

// parseLetterAndAccidentals returns the unwrapped semitone offset from C and
// whatever follows the accidentals
func parseLetterAndAccidentals(s string) (int, string, error) {
	if s == "" {
		return 0, "", fmt.Errorf("empty note name")
	}

	pc, ok := letterPitchClass[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, "", fmt.Errorf("invalid note letter in %q", s)
	}

	i := 1
	for i < len(s) {
		switch s[i] {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			return pc, s[i:], nil
		}
		i++
	}

	return pc, "", nil
}

// ClampToFloor raises a MIDI note to floor when it falls below it
func ClampToFloor(midi, floor int) int {
	if midi < floor {
		return floor
	}
	return midi
}
