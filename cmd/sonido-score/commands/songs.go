package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var songsJSON bool

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "List the reference melodies",
	RunE: func(cmd *cobra.Command, args []string) error {
		if songsJSON {
			return outputJSON(map[string]any{"songs": registry.All()}, "")
		}

		w := cmd.OutOrStdout()
		for _, m := range registry.All() {
			fmt.Fprintf(w, "%-20s %-32s %d notes\n", m.ID, m.Name, len(m.Notes))
			fmt.Fprintf(w, "  %s\n", strings.Join(m.Notes, " "))
		}
		return nil
	},
}

func init() {
	songsCmd.Flags().BoolVar(&songsJSON, "json", false, "print as JSON")
}
