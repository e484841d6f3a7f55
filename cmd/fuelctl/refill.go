package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var refillCmd = &cobra.Command{
	Use:   "refill",
	Short: "Daily refill maintenance",
}

var refillSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reset daily fuel for every balance not yet refilled today (UTC)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		n, err := l.fuel.RefillStale(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int64("count", n).Str("day", l.fuel.Today()).Msg("Refill sweep finished")
		return printJSON(map[string]interface{}{"refilled": n, "day": l.fuel.Today()})
	},
}

func init() {
	refillCmd.AddCommand(refillSweepCmd)
}
