package commands

import (
	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/melody"
	"github.com/spf13/cobra"
)

var scoreOpts struct {
	inputFile    string
	outputFile   string
	showSegments bool
}

var scoreCmd = &cobra.Command{
	Use:   "score <song_id>",
	Short: "Judge a pitch track against a reference melody",
	Long: `Segment a frame-level pitch track into notes and compare them, position by
position, with a reference melody. Run 'sonido-score songs' for the ids.

The input file (YAML or JSON) holds the pitch tracker's columns:

  times: [0.00, 0.01, ...]
  f0: [0, 293.4, ...]          # Hz, 0 when unvoiced
  voiced_flag: [false, true, ...]
  voiced_prob: [0.02, 0.91, ...]`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVarP(&scoreOpts.inputFile, "file", "f", "", "frame file (YAML or JSON)")
	f.StringVarP(&scoreOpts.outputFile, "output", "o", "", "write the JSON result here instead of stdout")
	f.BoolVar(&scoreOpts.showSegments, "segments", false, "include the merged note segments in the output")
}

type scoreOutput struct {
	*melody.ScoreResult
	Segments []melody.Segment `json:"segments,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	if err := requireInputFile(scoreOpts.inputFile); err != nil {
		return err
	}

	var fa melody.FrameArrays
	if err := config.DecodeFile(scoreOpts.inputFile, &fa); err != nil {
		return err
	}
	frames, err := fa.Frames()
	if err != nil {
		return err
	}

	judge, err := melody.NewJudge(registry, globalConfig.Segments)
	if err != nil {
		return err
	}

	result, err := judge.Judge(cmd.Context(), args[0], frames)
	if err != nil {
		return err
	}

	out := scoreOutput{ScoreResult: result}
	if scoreOpts.showSegments {
		out.Segments = judge.Segments(frames)
	}
	return outputJSON(out, scoreOpts.outputFile)
}
