// Package transcription turns onset cuts and pitch estimates into a sequence of
// notes and rests that obeys the notation rules: 4/4 time, only whole, half,
// dotted-quarter and quarter values, and no ties across a barline.
package transcription

import (
	"fmt"

	"github.com/RyanBlaney/sonido-score/algorithms/common"
	"github.com/RyanBlaney/sonido-score/algorithms/rhythm"
	"github.com/RyanBlaney/sonido-score/algorithms/tonal"
	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/logging"
)

// TimeSignature is the only meter produced
const TimeSignature = "4/4"

// DefaultKey is reported when no key is supplied and none can be estimated
const DefaultKey = "C major"

// EventKind distinguishes notes from rests
type EventKind int

const (
	NoteEvent EventKind = iota
	RestEvent
)

func (k EventKind) String() string {
	if k == NoteEvent {
		return "note"
	}
	return "rest"
}

// MarshalText encodes the kind as "note" or "rest"
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "note" or "rest"
func (k *EventKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "note":
		*k = NoteEvent
	case "rest":
		*k = RestEvent
	default:
		return fmt.Errorf("unknown event kind %q", text)
	}
	return nil
}

// Event is one rendered note or rest
type Event struct {
	Kind          EventKind `json:"kind"`
	Note          string    `json:"note,omitempty"` // pitch class, e.g. "F#"
	Octave        int       `json:"octave,omitempty"`
	MIDI          int       `json:"midi,omitempty"`
	QuarterLength float64   `json:"duration_q"`
	MeasureFiller bool      `json:"measure_filler,omitempty"` // forced rest closing a measure
}

// Label returns "F#4" for notes and "rest" for rests
func (e Event) Label() string {
	if e.Kind == RestEvent {
		return "rest"
	}
	return fmt.Sprintf("%s%d", e.Note, e.Octave)
}

// NoteSummary is the compact note listing returned to clients (rests omitted)
type NoteSummary struct {
	Note      string  `json:"note"`
	Octave    int     `json:"octave"`
	DurationQ float64 `json:"duration_q"`
}

// Transcription is the result of assembling a recording
type Transcription struct {
	Events        []Event         `json:"events"`
	FinalPosition rhythm.Position `json:"final_position"`
	BPM           float64         `json:"bpm"`
	TimeSignature string          `json:"time_signature"`
	Key           string          `json:"key"`
}

// Notes lists the note events only, in order
func (t *Transcription) Notes() []NoteSummary {
	notes := make([]NoteSummary, 0, len(t.Events))
	for _, e := range t.Events {
		if e.Kind == NoteEvent {
			notes = append(notes, NoteSummary{Note: e.Note, Octave: e.Octave, DurationQ: e.QuarterLength})
		}
	}
	return notes
}

// TotalQuarterLength sums every event
func (t *Transcription) TotalQuarterLength() float64 {
	total := 0.0
	for _, e := range t.Events {
		total += e.QuarterLength
	}
	return total
}

// Analysis bundles what the external onset, beat, pitch and key collaborators
// report for one recording
type Analysis struct {
	Duration      float64    `json:"duration" yaml:"duration"` // seconds
	Onsets        []float64  `json:"onsets" yaml:"onsets"`
	TempoEstimate float64    `json:"tempo_estimate" yaml:"tempo_estimate"`
	Beats         []float64  `json:"beats,omitempty" yaml:"beats,omitempty"`
	Pitch         FrameTrack `json:"pitch" yaml:"pitch"`
	Key           string     `json:"key,omitempty" yaml:"key,omitempty"`
}

// Assembler drives cuts through quantization and barline splitting
type Assembler struct {
	config    config.TranscriptionConfig
	strategy  rhythm.Strategy
	floorMIDI int
	keys      *tonal.KeyEstimator
	logger    logging.Logger
}

// NewAssembler creates an assembler; it fails only on an invalid configuration
func NewAssembler(cfg config.TranscriptionConfig) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	floor, err := tonal.ParseNote(cfg.FloorNote)
	if err != nil {
		return nil, fmt.Errorf("invalid floor note: %w", err)
	}

	return &Assembler{
		config:    cfg,
		strategy:  rhythm.ParseStrategy(cfg.Strategy),
		floorMIDI: floor,
		keys:      tonal.NewKeyEstimator(tonal.KeyProfileKrumhansl),
		logger: logging.WithFields(logging.Fields{
			"component": "transcription_assembler",
		}),
	}, nil
}

// Transcribe builds cuts from the analysis, selects the tempo and assembles the events.
// overrideBPM is honoured when within [MinTempoOverride, MaxTempo]; otherwise the
// configured override, then the detected tempo, is used. A supplied key is passed
// through unchanged; without one the key is estimated from the notes.
func (a *Assembler) Transcribe(an Analysis, overrideBPM float64) (*Transcription, error) {
	if err := an.Pitch.Validate(); err != nil {
		return nil, err
	}

	cuts, err := BuildCuts(an.Onsets, an.Duration)
	if err != nil {
		return nil, err
	}

	if overrideBPM == 0 {
		overrideBPM = a.config.TempoOverride
	}
	tempo := SelectTempo(an.TempoEstimate, an.Beats, overrideBPM)

	t := a.Assemble(cuts, an.Pitch, tempo)
	if an.Key != "" {
		t.Key = an.Key
	} else {
		t.Key = a.EstimateKey(t)
	}
	return t, nil
}

// EstimateKey finds the key of the note events by duration-weighted profile
// correlation, falling back to DefaultKey when there is too little to go on
func (a *Assembler) EstimateKey(t *Transcription) string {
	var histogram tonal.PitchClassHistogram
	for _, e := range t.Events {
		if e.Kind == NoteEvent {
			histogram.Add(e.MIDI, e.QuarterLength)
		}
	}

	result, err := a.keys.EstimateKey(histogram)
	if err != nil {
		a.logger.Debug("Key estimation skipped", logging.Fields{"reason": err.Error()})
		return DefaultKey
	}
	return result.KeyName
}

// Assemble converts each cut into notes or rests at the given tempo. The measure
// position starts at zero and is threaded through every cut in turn.
func (a *Assembler) Assemble(cuts []Cut, src PitchSource, tempo float64) *Transcription {
	qSec := quarterSeconds(tempo)

	t := &Transcription{
		Events:        make([]Event, 0, len(cuts)),
		BPM:           tempo,
		TimeSignature: TimeSignature,
		Key:           DefaultKey,
	}

	var pos rhythm.Position
	for i, cut := range cuts {
		var events []Event
		events, pos = a.assembleCut(pos, cut, a.pitchOf(i, cut, src), qSec)
		t.Events = append(t.Events, events...)
	}
	t.FinalPosition = pos

	a.logger.Debug("Transcription assembled", logging.Fields{
		"cuts":           len(cuts),
		"events":         len(t.Events),
		"bpm":            tempo,
		"final_position": float64(pos),
	})

	return t
}

// voicing is the pitch decision for one cut
type voicing struct {
	voiced bool
	midi   int
}

// pitchOf decides whether a cut is silent and, if not, which note it carries
func (a *Assembler) pitchOf(index int, cut Cut, src PitchSource) voicing {
	minSamples := int(a.config.MinSegmentSeconds * float64(a.config.SampleRate))
	if cut.Samples(a.config.SampleRate) < minSamples || src == nil {
		return voicing{}
	}

	valid := common.FiniteValues(src.Estimates(index, cut))
	if len(valid) == 0 {
		return voicing{}
	}

	info, ok := tonal.HzToNote(common.Median(valid))
	if !ok {
		return voicing{}
	}
	return voicing{voiced: true, midi: tonal.ClampToFloor(info.MIDI, a.floorMIDI)}
}

// assembleCut quantizes one cut, splits it at the barline and renders the chunks.
// It returns the events and the measure position after them.
func (a *Assembler) assembleCut(pos rhythm.Position, cut Cut, v voicing, qSec float64) ([]Event, rhythm.Position) {
	qlen := rhythm.Quantize(cut.Duration()/qSec, a.strategy).QuarterLength()
	split := rhythm.SplitAtBarline(qlen, pos)

	var note tonal.NoteInfo
	if v.voiced {
		note = tonal.MIDIToNote(v.midi)
	}

	chunks := split.Chunks()
	events := make([]Event, 0, len(chunks))
	for _, chunk := range chunks {
		e := Event{Kind: RestEvent, QuarterLength: chunk.Length}
		switch {
		case chunk.Kind == rhythm.ForcedRest:
			e.MeasureFiller = true
		case v.voiced:
			e.Kind = NoteEvent
			e.Note = note.Name
			e.Octave = note.Octave
			e.MIDI = note.MIDI
		}
		events = append(events, e)
		pos = pos.Advance(chunk.Length)
	}

	return events, pos
}
