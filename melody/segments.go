package melody

import (
	"math"

	"github.com/RyanBlaney/sonido-score/algorithms/tonal"
	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/logging"
)

// Segment is a run of frames judged to be one sustained note
type Segment struct {
	Note     string  `json:"note"` // e.g. "D4"
	Start    float64 `json:"start_s"`
	End      float64 `json:"end_s"`
	Duration float64 `json:"dur_s"`
}

// Merger turns a frame-level pitch track into note segments
type Merger struct {
	config config.SegmentConfig
	logger logging.Logger
}

// NewMerger creates a merger with the given parameters
func NewMerger(cfg config.SegmentConfig) (*Merger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Merger{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "segment_merger",
		}),
	}, nil
}

// openSegment is the merge state while a note is sounding. The reference pitch is
// the segment's first frame and never moves, so slow drift eventually splits the note.
type openSegment struct {
	refMIDI  int
	refCents float64
	note     string
	start    float64
	last     float64
}

func (s *openSegment) close() Segment {
	return Segment{Note: s.note, Start: s.start, End: s.last, Duration: s.last - s.start}
}

// sameNote reports whether n continues the segment: same MIDI note and within
// tolerance cents of the segment's first frame
func (s *openSegment) sameNote(n tonal.NoteInfo, toleranceCents float64) bool {
	return n.MIDI == s.refMIDI && math.Abs(n.Cents-s.refCents) <= toleranceCents
}

// Segments masks, smooths, register-corrects and merges frames into segments,
// then drops those shorter than the configured minimum. Frames must be in time order.
func (m *Merger) Segments(frames []Frame) []Segment {
	notes := m.frameNotes(frames)
	raw := mergeFrames(frames, notes, m.config.ToleranceCents)
	segments := filterShort(raw, m.config.MinSegmentSeconds)

	m.logger.Debug("Pitch segments merged", logging.Fields{
		"frames":   len(frames),
		"merged":   len(raw),
		"retained": len(segments),
	})

	return segments
}

// frameNotes converts each smoothed frame to note info; nil marks an unusable frame
func (m *Merger) frameNotes(frames []Frame) []*tonal.NoteInfo {
	smoothed := maskAndSmooth(frames, m.config.VoicedProbThreshold, m.config.MedianWindow)

	notes := make([]*tonal.NoteInfo, len(frames))
	for i, f := range smoothed {
		if math.IsNaN(f) {
			continue
		}
		if info, ok := tonal.HzToNote(tonal.CorrectRegister(f, m.config.RegisterFloor)); ok {
			notes[i] = &info
		}
	}
	return notes
}

// mergeFrames runs the segment state machine over frames in order
func mergeFrames(frames []Frame, notes []*tonal.NoteInfo, toleranceCents float64) []Segment {
	var segments []Segment
	var open *openSegment

	for i, n := range notes {
		t := frames[i].Time

		if n == nil {
			if open != nil {
				segments = append(segments, open.close())
				open = nil
			}
			continue
		}

		if open != nil && open.sameNote(*n, toleranceCents) {
			open.last = t
			continue
		}

		if open != nil {
			segments = append(segments, open.close())
		}
		open = &openSegment{
			refMIDI:  n.MIDI,
			refCents: n.Cents,
			note:     n.Label(),
			start:    t,
			last:     t,
		}
	}

	if open != nil {
		segments = append(segments, open.close())
	}
	return segments
}

// filterShort drops segments shorter than minLength, keeping order
func filterShort(segments []Segment, minLength float64) []Segment {
	kept := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Duration >= minLength {
			kept = append(kept, s)
		}
	}
	return kept
}

// NoteSequence projects segments onto their note names
func NoteSequence(segments []Segment) []string {
	notes := make([]string, len(segments))
	for i, s := range segments {
		notes[i] = s.Note
	}
	return notes
}
