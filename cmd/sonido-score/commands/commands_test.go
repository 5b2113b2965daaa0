package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestTranscribeCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "analysis.yaml")
	require.NoError(t, os.WriteFile(input, []byte(`
duration: 2.0
onsets: [1.0]
tempo_estimate: 120
key: G major
pitch:
  times: [0.1, 0.5, 1.1, 1.5]
  frequencies: [392, 392, 0, 0]
`), 0o644))

	output := filepath.Join(dir, "out", "result.json")
	midiFile := filepath.Join(dir, "out", "result.mid")
	require.NoError(t, run(t, "--log-level", "error", "transcribe", "-f", input, "-o", output, "--midi", midiFile, "--semitones=-2"))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var result transcribeResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "G major", result.DetectedKey)
	assert.Equal(t, "G major (-2 st)", result.TargetKey)
	require.Len(t, result.Notes, 1)
	assert.Equal(t, "G", result.Notes[0].Note)

	raw, err := os.ReadFile(midiFile)
	require.NoError(t, err)
	s, err := smf.ReadFrom(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, s.Tracks, 1)
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frames.json")

	var times, f0, prob []float64
	var voiced []bool
	for i := 0; i < 20; i++ {
		times = append(times, float64(i)*0.01)
		f0 = append(f0, 293.66)
		voiced = append(voiced, true)
		prob = append(prob, 0.9)
	}
	data, err := json.Marshal(map[string]any{"times": times, "f0": f0, "voiced_flag": voiced, "voiced_prob": prob})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(input, data, 0o644))

	output := filepath.Join(dir, "score.json")
	require.NoError(t, run(t, "--log-level", "error", "score", "happy_birthday", "-f", input, "-o", output))

	data, err = os.ReadFile(output)
	require.NoError(t, err)
	var result struct {
		Notes []string `json:"notes"`
		Score int      `json:"score"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, []string{"D4"}, result.Notes)
	assert.Equal(t, 1000, result.Score)

	assert.Error(t, run(t, "score", "no_such_song", "-f", input, "-o", output))
}

func TestScoreCommandRequiresInput(t *testing.T) {
	scoreOpts.inputFile = ""
	assert.Error(t, run(t, "score", "happy_birthday", "-f", ""))
}
