// Package melody turns a frame-level pitch track into note segments and scores
// the resulting note sequence against a reference melody.
package melody

import (
	"context"

	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/logging"
)

// ScoreResult is the outcome of judging one performance
type ScoreResult struct {
	Notes    []string `json:"notes"`
	Accuracy float64  `json:"accuracy"`
	Score    int      `json:"score"`
}

// Judge scores performances against a registry of reference melodies
type Judge struct {
	registry *Registry
	merger   *Merger
	logger   logging.Logger
}

// NewJudge creates a judge; a nil registry means DefaultRegistry
func NewJudge(registry *Registry, cfg config.SegmentConfig) (*Judge, error) {
	merger, err := NewMerger(cfg)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = DefaultRegistry()
	}

	return &Judge{
		registry: registry,
		merger:   merger,
		logger: logging.WithFields(logging.Fields{
			"component": "melody_judge",
		}),
	}, nil
}

// Registry returns the melodies this judge knows
func (j *Judge) Registry() *Registry {
	return j.registry
}

// Segments runs only the segment merger
func (j *Judge) Segments(frames []Frame) []Segment {
	return j.merger.Segments(frames)
}

// Judge resolves songID, segments the frames and scores the detected notes.
// An unknown song fails with a *NotFoundError before any frame is processed.
func (j *Judge) Judge(ctx context.Context, songID string, frames []Frame) (*ScoreResult, error) {
	logger := j.logger.WithContext(ctx)

	reference, err := j.registry.Lookup(songID)
	if err != nil {
		logger.Warn("Unknown song requested", logging.Fields{"song": songID})
		return nil, err
	}

	notes := NoteSequence(j.merger.Segments(frames))
	accuracy, score := Score(notes, reference.Notes)

	logger.Info("Performance scored", logging.Fields{
		"song":     songID,
		"detected": len(notes),
		"expected": len(reference.Notes),
		"accuracy": accuracy,
		"score":    score,
	})

	return &ScoreResult{Notes: notes, Accuracy: accuracy, Score: score}, nil
}
