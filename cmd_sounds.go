package main

import (
	"fmt"
	"os/signal"

	"github.com/oszuidwest/waytooloud/internal/playback"
	"github.com/oszuidwest/waytooloud/internal/util"
	"github.com/spf13/cobra"
)

var soundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "Manage the alert sound library",
	Long: `List the sound library. Limits refer to sounds by their name in the
library or by an absolute path.`,
	Args: cobra.NoArgs,
	RunE: runSoundsList,
}

var soundsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Copy a sound file into the library",
	Long: `Copy an mp3, wav, ogg or flac file into the library. The file is decoded
first so a broken file is rejected before any limit can refer to it.`,
	Args: cobra.ExactArgs(1),
	RunE: runSoundsImport,
}

var soundsPlayCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a sound from the library",
	Args:  cobra.ExactArgs(1),
	RunE:  runSoundsPlay,
}

func init() {
	soundsCmd.AddCommand(soundsImportCmd)
	soundsCmd.AddCommand(soundsPlayCmd)
	RootCmd.AddCommand(soundsCmd)
}

func soundLibrary() (*playback.Library, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return playback.NewLibrary(cfg.Snapshot().SoundsDir), nil
}

func runSoundsList(cmd *cobra.Command, _ []string) error {
	lib, err := soundLibrary()
	if err != nil {
		return err
	}
	sounds, err := lib.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sounds) == 0 {
		fmt.Fprintf(out, "No sounds in %s\n", lib.Dir())
		return nil
	}
	for _, s := range sounds {
		fmt.Fprintf(out, "%-40s %8d  %s\n", s.Name, s.Size, util.FormatHumanTime(s.ModTime))
	}
	return nil
}

func runSoundsImport(cmd *cobra.Command, args []string) error {
	lib, err := soundLibrary()
	if err != nil {
		return err
	}
	name, err := lib.Import(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", name)
	return nil
}

func runSoundsPlay(cmd *cobra.Command, args []string) error {
	lib, err := soundLibrary()
	if err != nil {
		return err
	}
	path, err := lib.Resolve(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), util.ShutdownSignals()...)
	defer stop()
	return playback.NewSpeakerPlayer().Play(ctx, path)
}
