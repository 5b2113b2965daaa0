package melody

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-score/algorithms/tonal"
	"github.com/RyanBlaney/sonido-score/config"
)

var (
	// ErrNotFound is matched by every *NotFoundError
	ErrNotFound = errors.New("melody not found")

	// ErrInvalidMelody marks a malformed registry entry
	ErrInvalidMelody = errors.New("invalid melody")
)

// NotFoundError reports an unknown melody id along with the ids that exist
type NotFoundError struct {
	ID        string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown song %q (available: %s)", e.ID, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Melody is a reference note sequence a player is judged against
type Melody struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Notes []string `json:"notes" yaml:"notes"` // e.g. "D4", "F#4"
}

// Registry holds reference melodies by id. It is read-only once built.
type Registry struct {
	melodies []Melody
	byID     map[string]int
}

// NewRegistry validates the melodies and indexes them in the given order
func NewRegistry(melodies ...Melody) (*Registry, error) {
	r := &Registry{
		melodies: make([]Melody, 0, len(melodies)),
		byID:     make(map[string]int, len(melodies)),
	}

	for i, m := range melodies {
		if strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidMelody, i)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidMelody, m.ID)
		}
		if len(m.Notes) == 0 {
			return nil, fmt.Errorf("%w: %q has no notes", ErrInvalidMelody, m.ID)
		}

		notes := make([]string, len(m.Notes))
		for j, n := range m.Notes {
			midi, err := tonal.ParseNote(n)
			if err != nil {
				return nil, fmt.Errorf("%w: %q note %d: %v", ErrInvalidMelody, m.ID, j, err)
			}
			// Stored in the same spelling the segment merger produces
			notes[j] = tonal.MIDINoteName(midi)
		}

		m.Notes = notes
		r.byID[m.ID] = len(r.melodies)
		r.melodies = append(r.melodies, m)
	}

	return r, nil
}

// Lookup returns the melody with the given id or a *NotFoundError
func (r *Registry) Lookup(id string) (Melody, error) {
	i, ok := r.byID[id]
	if !ok {
		return Melody{}, &NotFoundError{ID: id, Available: r.IDs()}
	}
	m := r.melodies[i]
	m.Notes = append([]string(nil), m.Notes...)
	return m, nil
}

// IDs returns every id in registration order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.melodies))
	for i, m := range r.melodies {
		ids[i] = m.ID
	}
	return ids
}

// All returns a copy of every melody in registration order
func (r *Registry) All() []Melody {
	out := make([]Melody, len(r.melodies))
	for i, m := range r.melodies {
		m.Notes = append([]string(nil), m.Notes...)
		out[i] = m
	}
	return out
}

// Len returns the number of melodies
func (r *Registry) Len() int {
	return len(r.melodies)
}

// HappyBirthday is the violin reference line in D
var HappyBirthday = Melody{
	ID:   "happy_birthday",
	Name: "Happy Birthday",
	Notes: []string{
		"D4", "D4", "E4", "D4", "G4", "F#4",
		"D4", "D4", "E4", "D4", "A4", "G4",
		"D4", "D4", "D4", "B4", "A4", "G4", "F#4",
		"C4", "C4", "B4", "G4", "A4", "G4",
	},
}

// TwinkleStar is "Twinkle, Twinkle, Little Star" in C
var TwinkleStar = Melody{
	ID:   "twinkle_star",
	Name: "Twinkle, Twinkle, Little Star",
	Notes: []string{
		"C4", "C4", "G4", "G4", "A4", "A4", "G4",
		"F4", "F4", "E4", "E4", "D4", "D4", "C4",
		"G4", "G4", "F4", "F4", "E4", "E4", "D4",
		"G4", "G4", "F4", "F4", "E4", "E4", "D4",
		"C4", "C4", "G4", "G4", "A4", "A4", "G4",
		"F4", "F4", "E4", "E4", "D4", "D4", "C4",
	},
}

// DefaultRegistry returns the built-in melodies
func DefaultRegistry() *Registry {
	r, err := NewRegistry(HappyBirthday, TwinkleStar)
	if err != nil {
		panic(fmt.Sprintf("built-in melodies are invalid: %v", err))
	}
	return r
}

// registryFile is the on-disk layout read by LoadRegistry
type registryFile struct {
	Songs []Melody `json:"songs" yaml:"songs"`
}

// LoadRegistry reads melodies from a YAML or JSON file of the form
//
//	songs:
//	  - id: scale
//	    name: C major scale
//	    notes: [C4, D4, E4, F4, G4, A4, B4, C5]
func LoadRegistry(path string) (*Registry, error) {
	var file registryFile
	if err := config.DecodeFile(path, &file); err != nil {
		return nil, err
	}

	r, err := NewRegistry(file.Songs...)
	if err != nil {
		return nil, fmt.Errorf("songs file %s: %w", path, err)
	}
	return r, nil
}
