package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deckwatch/deckwatch/internal/client"
	"github.com/deckwatch/deckwatch/internal/config"
	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/emulator"
	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/mix"
	"github.com/deckwatch/deckwatch/internal/protocol"
	"github.com/deckwatch/deckwatch/internal/statemap"
	"github.com/deckwatch/deckwatch/internal/ui"
	"github.com/deckwatch/deckwatch/internal/version"
)

// Command flags
var (
	configPath    string
	deviceName    string
	scanTimeout   float64
	skipDecks     []string
	mixPreference string
	plainOutput   bool

	emulateName string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: platform user config dir)")

	watchCmd.Flags().StringVar(&deviceName, "name", "", "Device name announced on the network")
	watchCmd.Flags().Float64Var(&scanTimeout, "timeout", 0, "Discovery scan window in seconds")
	watchCmd.Flags().StringSliceVar(&skipDecks, "skip-deck", nil, "Deck numbers to never report (repeatable)")
	watchCmd.Flags().StringVar(&mixPreference, "prefer", "", "Tie-break among equally loud decks (newest, oldest)")
	watchCmd.Flags().BoolVar(&plainOutput, "plain", false, "Line output instead of the interactive screen")

	discoverCmd.Flags().Float64Var(&scanTimeout, "timeout", 0, "Discovery scan window in seconds")

	emulateCmd.Flags().StringVar(&emulateName, "name", "EMU PRIME 4", "Announced emulator device name")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(emulateCmd)
}

// loadConfig reads the config file (default location or --config) and folds
// the watch command's flag overrides in on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("name") {
		cfg.DeviceName = deviceName
	}
	if cmd.Flags().Changed("timeout") {
		cfg.DiscoveryTimeout = scanTimeout
	}
	if cmd.Flags().Changed("skip-deck") {
		cfg.SkipDecks = skipDecks
	}
	if cmd.Flags().Changed("prefer") {
		cfg.MixPreference = mixPreference
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// watchCmd monitors the network and reports the audible track
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the network and show the currently audible track",
	Long: `Discover StagelinQ devices, subscribe to their live state and show the
track the audience is currently hearing.

Lost devices are re-discovered automatically; the screen shows a waiting
indicator until a playing deck is audible again.`,
	Example: `  # Interactive now-playing screen
  deckwatch watch

  # Plain line output, e.g. for piping into OBS or a file
  deckwatch watch --plain

  # Never report deck 4 (sampler deck)
  deckwatch watch --skip-deck 4`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c := client.New(cfg)
	if err := c.Start(); err != nil {
		return err
	}
	defer c.Stop()

	if plainOutput || !ui.IsTerminal() {
		return watchPlain(c)
	}
	return ui.RunWatch(c)
}

// watchPlain prints one line per track change until interrupted. Output
// stays append-only so it can be piped or tailed.
func watchPlain(c *client.Client) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last *mix.Track
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		track := c.CurrentTrack()
		if !trackChanged(last, track) {
			continue
		}
		last = track

		if track == nil {
			fmt.Println("(nothing playing)")
		} else {
			fmt.Println(ui.FormatTrackLine(track))
		}
	}
}

// trackChanged reports whether the audible track moved to a different deck
// or different metadata since the last printed line.
func trackChanged(prev, next *mix.Track) bool {
	if prev == nil || next == nil {
		return prev != next
	}
	return prev.Deck != next.Deck || prev.Artist != next.Artist || prev.Title != next.Title
}

// discoverCmd runs one discovery scan and lists what answered
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan the network for StagelinQ devices",
	Long: `Listen for StagelinQ presence broadcasts and list every device that
announced itself during the scan window.

Deckwatch announces its own presence while scanning, so devices that only
answer known peers show up too.`,
	Example: `  # Scan with the configured window (default 5s)
  deckwatch discover

  # Quick 2-second scan
  deckwatch discover --timeout 2`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := protocol.NewToken()

	announcer := &discovery.Announcer{
		Token:           token,
		DeviceName:      cfg.DeviceName,
		SoftwareName:    "deckwatch",
		SoftwareVersion: version.Version,
	}
	announceCtx, cancelAnnounce := context.WithCancel(ctx)
	defer cancelAnnounce()
	go announcer.Run(announceCtx)

	fmt.Printf("Scanning for devices (%.0fs)...\n\n", cfg.ScanTimeout().Seconds())

	scanner := discovery.NewScanner(token)
	scanner.Timeout = cfg.ScanTimeout()
	devices, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Print(ui.RenderDeviceList(devices))
	return nil
}

// emulateCmd runs a fake device for development without hardware
var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Run a fake StagelinQ device on loopback",
	Long: `Start an emulated device that announces itself on the network and serves
a scripted state: deck 1 playing a demo track at full volume.

Useful for developing against deckwatch without hardware. Stop with Ctrl-C.`,
	RunE: runEmulate,
}

func runEmulate(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	emu := emulator.New(emulateName)
	emu.AnnounceInterval = discovery.DefaultAnnounceInterval
	if err := emu.Start(); err != nil {
		return err
	}
	defer emu.Stop()

	seedDemoState(emu)

	fmt.Printf("Emulating %q (main port %d, StateMap port %d). Ctrl-C to stop.\n",
		emulateName, emu.MainPort(), emu.StateMapPort())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

// seedDemoState scripts a playing deck so a watching client has something
// to show immediately.
func seedDemoState(emu *emulator.Device) {
	emu.SetState(statemap.DeckPlay(1), `{"state":true}`)
	emu.SetState(statemap.DeckPlayState(1), `{"state":true}`)
	emu.SetState(statemap.DeckArtist(1), `{"string":"Demo Artist"}`)
	emu.SetState(statemap.DeckTitle(1), `{"string":"Demo Track"}`)
	emu.SetState(statemap.DeckAlbum(1), `{"string":"Demo Album"}`)
	emu.SetState(statemap.DeckBPM(1), `{"value":124.0}`)
	emu.SetState(statemap.DeckGenre(1), `{"string":"House"}`)
	emu.SetState(statemap.DeckSongLoaded(1), `{"state":true}`)
	emu.SetState(statemap.FaderPosition(1), `{"value":1.0}`)
	emu.SetState(statemap.CrossfaderPath, `{"value":0.5}`)
}
