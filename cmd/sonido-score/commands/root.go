package commands

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/logging"
	"github.com/RyanBlaney/sonido-score/melody"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	songsFile string
	logLevel  string
	noColor   bool

	// Loaded before any subcommand runs
	globalConfig *config.Config
	registry     *melody.Registry
)

var rootCmd = &cobra.Command{
	Use:   "sonido-score",
	Short: "Notated transcription and melody scoring from pitch features",
	Long: `sonido-score turns the output of onset, beat, pitch and key detectors into
notated rhythm (4/4, whole/half/dotted-quarter/quarter values, no ties over the
barline) and scores played melodies against reference songs.

Inputs are YAML or JSON files; see 'sonido-score transcribe --help' and
'sonido-score score --help' for their layout.

Examples:
  sonido-score transcribe -f analysis.yaml --midi out.mid
  sonido-score score happy_birthday -f frames.json
  sonido-score serve --config sonido.yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Command returns the root command for mounting or testing
func Command() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&songsFile, "songs", "", "reference melody file, overrides songs_file from the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(songsCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads the configuration, configures logging and builds the melody registry
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if songsFile != "" {
		cfg.SongsFile = songsFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Logs go to stderr so JSON results on stdout can be piped
	logging.SetGlobalLogger(logging.NewLogger(os.Stderr, os.Stderr, !noColor && stderrIsTerminal()))
	if cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level)
	}

	reg := melody.DefaultRegistry()
	if cfg.SongsFile != "" {
		loaded, err := melody.LoadRegistry(cfg.SongsFile)
		if err != nil {
			return fmt.Errorf("failed to load songs: %w", err)
		}
		reg = loaded
	}

	globalConfig = cfg
	registry = reg
	return nil
}

func stderrIsTerminal() bool {
	if fileInfo, _ := os.Stderr.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
