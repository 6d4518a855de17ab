// Deckwatch is a now-playing monitor for Denon DJ StagelinQ hardware.
//
// It discovers devices on the local network, subscribes to their live state
// and shows which track is currently audible to the audience, taking deck
// play state, channel faders and the crossfader into account.
//
// Usage:
//
//	deckwatch [command] [flags]
//
// Running without arguments starts the watch screen.
// See 'deckwatch --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/version"
)

func main() {
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deckwatch",
	Short: "Now-playing monitor for StagelinQ DJ hardware",
	Long: `Deckwatch watches Denon DJ hardware over the network and reports the
track the audience is currently hearing.

It discovers devices via StagelinQ UDP broadcasts, subscribes to their
state and resolves the audible track from deck play state and mixer
positions.

If no command is specified, the watch screen starts.`,
	Version: version.Version,
	RunE:    runWatch,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deckwatch %s (commit: %s)\n", version.Version, version.Commit)
	},
}
