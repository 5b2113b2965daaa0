package commands

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/render"
	"github.com/RyanBlaney/sonido-score/transcription"
	"github.com/spf13/cobra"
)

var transcribeOpts struct {
	inputFile  string
	outputFile string
	midiFile   string
	strategy   string
	bpm        float64
	targetKey  string
	semitones  int
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Quantize detector output into notated rhythm",
	Long: `Build a 4/4 transcription from onset, tempo, pitch and key detector output.

The input file (YAML or JSON) looks like:

  duration: 7.5              # seconds
  onsets: [0.42, 0.97, 1.61]
  tempo_estimate: 96
  beats: [0.4, 1.0, 1.6]     # optional, wins over tempo_estimate
  key: D major               # optional
  pitch:
    times: [0.00, 0.01, ...]
    frequencies: [0, 293.4, ...]   # Hz, 0 when unvoiced

The notes are printed as JSON. --target-key or --semitones transpose the
MIDI written with --midi.`,
	RunE: runTranscribe,
}

func init() {
	f := transcribeCmd.Flags()
	f.StringVarP(&transcribeOpts.inputFile, "file", "f", "", "analysis file (YAML or JSON)")
	f.StringVarP(&transcribeOpts.outputFile, "output", "o", "", "write the JSON result here instead of stdout")
	f.StringVar(&transcribeOpts.midiFile, "midi", "", "write a Standard MIDI File here")
	f.StringVar(&transcribeOpts.strategy, "strategy", "", "quantize strategy: nearest, floor or ceil (default from config)")
	f.Float64Var(&transcribeOpts.bpm, "bpm", 0, "tempo override in BPM, honoured within [30, 300]")
	f.StringVar(&transcribeOpts.targetKey, "target-key", "", `transpose to this key, e.g. "G major"`)
	f.IntVar(&transcribeOpts.semitones, "semitones", 0, "transpose by this many semitones (ignored with --target-key)")
}

// transcribeResult is the JSON printed by the transcribe command
type transcribeResult struct {
	DetectedKey   string                      `json:"detectedKey"`
	TargetKey     string                      `json:"targetKey"`
	BPM           float64                     `json:"bpm"`
	TimeSignature string                      `json:"timeSignature"`
	Notes         []transcription.NoteSummary `json:"notes"`
	Events        []transcription.Event       `json:"events"`
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if err := requireInputFile(transcribeOpts.inputFile); err != nil {
		return err
	}

	var an transcription.Analysis
	if err := config.DecodeFile(transcribeOpts.inputFile, &an); err != nil {
		return err
	}

	cfg := globalConfig.Transcription
	if transcribeOpts.strategy != "" {
		cfg.Strategy = transcribeOpts.strategy
	}
	assembler, err := transcription.NewAssembler(cfg)
	if err != nil {
		return err
	}

	base, err := assembler.Transcribe(an, transcribeOpts.bpm)
	if err != nil {
		return err
	}

	plan, err := render.PlanTransposition(base.Key, transcribeOpts.targetKey, transcribeOpts.semitones)
	if err != nil {
		return err
	}

	if transcribeOpts.midiFile != "" {
		if err := writeMIDIFile(transcribeOpts.midiFile, plan.Apply(base)); err != nil {
			return err
		}
		printInfo("MIDI written to %s", transcribeOpts.midiFile)
	}

	return outputJSON(transcribeResult{
		DetectedKey:   base.Key,
		TargetKey:     plan.KeyText,
		BPM:           base.BPM,
		TimeSignature: base.TimeSignature,
		Notes:         base.Notes(),
		Events:        base.Events,
	}, transcribeOpts.outputFile)
}

func writeMIDIFile(path string, t *transcription.Transcription) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := render.WriteMIDI(f, t, render.DefaultOptions()); err != nil {
		return err
	}
	return f.Close()
}
