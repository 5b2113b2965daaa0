// Package main provides the sonido-score CLI.
//
// Usage:
//
//	sonido-score [flags] <command> [args]
//
// Commands:
//
//	transcribe - quantize detector output into notated rhythm and render MIDI
//	score      - judge a pitch track against a reference melody
//	songs      - list the reference melodies
//	serve      - run the HTTP API
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-score/cmd/sonido-score/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
