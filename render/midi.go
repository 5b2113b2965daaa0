// Package render turns transcriptions into Standard MIDI Files and moves them
// between keys.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"

	"github.com/RyanBlaney/sonido-score/transcription"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Options controls the MIDI rendering
type Options struct {
	TicksPerQuarter uint16 `json:"ticks_per_quarter"`
	Channel         uint8  `json:"channel"`  // 0-15
	Program         uint8  `json:"program"`  // General MIDI program
	Velocity        uint8  `json:"velocity"` // 1-127
	TrackName       string `json:"track_name"`
}

// DefaultOptions renders a single violin track at 960 ticks per quarter
func DefaultOptions() Options {
	return Options{
		TicksPerQuarter: 960,
		Channel:         0,
		Program:         40, // violin
		Velocity:        90,
		TrackName:       "Transcription",
	}
}

func (o Options) validate() error {
	if o.TicksPerQuarter == 0 {
		return fmt.Errorf("ticks per quarter must be positive")
	}
	if o.Channel > 15 {
		return fmt.Errorf("channel must be in [0, 15], got %d", o.Channel)
	}
	if o.Program > 127 {
		return fmt.Errorf("program must be in [0, 127], got %d", o.Program)
	}
	if o.Velocity == 0 || o.Velocity > 127 {
		return fmt.Errorf("velocity must be in [1, 127], got %d", o.Velocity)
	}
	return nil
}

// SMF builds a single-track MIDI file holding the tempo, a 4/4 meter and one
// note on/off pair per note event. Rests only advance time.
func SMF(t *transcription.Transcription, opts Options) (*smf.SMF, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ticks := smf.MetricTicks(opts.TicksPerQuarter)
	s := smf.New()
	s.TimeFormat = ticks

	var tr smf.Track
	if opts.TrackName != "" {
		tr.Add(0, smf.MetaTrackSequenceName(opts.TrackName))
	}
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(t.BPM))
	tr.Add(0, midi.ProgramChange(opts.Channel, opts.Program))

	var pending uint32 // ticks of rest since the last event
	for i, e := range t.Events {
		length := quarterTicks(e.QuarterLength, ticks)
		if e.Kind == transcription.RestEvent {
			pending += length
			continue
		}
		if e.MIDI < 0 || e.MIDI > 127 {
			return nil, fmt.Errorf("event %d: note %s (%d) is outside the MIDI range", i, e.Label(), e.MIDI)
		}

		key := uint8(e.MIDI)
		tr.Add(pending, midi.NoteOn(opts.Channel, key, opts.Velocity))
		tr.Add(length, midi.NoteOff(opts.Channel, key))
		pending = 0
	}
	tr.Close(pending)

	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	return s, nil
}

// WriteMIDI renders t and writes the file to w
func WriteMIDI(w io.Writer, t *transcription.Transcription, opts Options) error {
	s, err := SMF(t, opts)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write MIDI: %w", err)
	}
	return nil
}

// MIDIBase64 renders t and returns the file base64 encoded, ready for a JSON response
func MIDIBase64(t *transcription.Transcription, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := WriteMIDI(&buf, t, opts); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// quarterTicks converts a quarter length to ticks
func quarterTicks(quarterLength float64, ticks smf.MetricTicks) uint32 {
	return uint32(math.Round(quarterLength * float64(ticks.Ticks4th())))
}
