package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sensitivityMin float64
	sensitivityMax float64

	sensitivityCmd = &cobra.Command{
		Use:   "sensitivity",
		Short: "Show or change the dB range mapped to the 0-100 level",
		Long: `Without flags, print the dB range the level scale is mapped to. A sound at
--min dB reads as 0, a sound at --max dB reads as 100. Raising --min makes
quiet rooms read lower; lowering --max makes the scale saturate sooner.`,
		Example: `  waytooloud sensitivity --min -70 --max -10`,
		Args:    cobra.NoArgs,
		RunE:    runSensitivity,
	}
)

func init() {
	sensitivityCmd.Flags().Float64Var(&sensitivityMin, "min", 0, "dB level reported as 0")
	sensitivityCmd.Flags().Float64Var(&sensitivityMax, "max", 0, "dB level reported as 100")
	RootCmd.AddCommand(sensitivityCmd)
}

func runSensitivity(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap := cfg.Snapshot()
	minChanged, maxChanged := cmd.Flags().Changed("min"), cmd.Flags().Changed("max")
	if !minChanged && !maxChanged {
		fmt.Fprintf(cmd.OutOrStdout(), "min_db=%.1f max_db=%.1f\n", snap.MinDB, snap.MaxDB)
		return nil
	}

	minDB, maxDB := snap.MinDB, snap.MaxDB
	if minChanged {
		minDB = sensitivityMin
	}
	if maxChanged {
		maxDB = sensitivityMax
	}
	if minDB >= maxDB {
		return errors.New("--min must be below --max")
	}

	if err := cfg.SetSensitivity(minDB, maxDB); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "min_db=%.1f max_db=%.1f\n", minDB, maxDB)
	return nil
}
