package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-score/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve transcription and scoring over HTTP.

Endpoints:
  GET  /                     status and endpoint list
  GET  /songs                reference melodies
  POST /api/transcribe       detector output -> notes, MIDI, transposition
  POST /analyzeSinglePlayer  song_key + pitch frames -> score`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *globalConfig
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		srv, err := server.New(&cfg, registry)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
}
