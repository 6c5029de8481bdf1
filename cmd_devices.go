package main

import (
	"fmt"
	"slices"

	"github.com/oszuidwest/waytooloud/internal/audio"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

var devicesUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the capture device",
	Long: `Store the capture device in the config file. Use "default" to go back to
the system default input. A running monitor picks up the change.`,
	Example: `  waytooloud devices use default`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDevicesUse,
}

func init() {
	devicesCmd.AddCommand(devicesUseCmd)
	RootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	devices, err := audio.Devices()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(out, "No capture devices found.")
		return nil
	}

	selected := cfg.AudioInput()
	for _, d := range devices {
		marker := " "
		if d.ID == selected || (selected == "" && d.Default) {
			marker = "*"
		}
		def := ""
		if d.Default {
			def = " (default)"
		}
		fmt.Fprintf(out, "%s %-40s %s%s\n", marker, d.ID, d.Name, def)
	}
	return nil
}

func runDevicesUse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id := args[0]
	if id == "default" {
		id = ""
	}
	if id != "" {
		devices, err := audio.Devices()
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(devices, func(d audio.Device) bool { return d.ID == id }) {
			return fmt.Errorf("unknown capture device %q (see 'waytooloud devices')", id)
		}
	}

	if err := cfg.SetAudioInput(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Capture device set to %s\n", deviceLabel(id))
	return nil
}

func deviceLabel(id string) string {
	if id == "" {
		return "system default"
	}
	return id
}
