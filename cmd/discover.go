package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	discoverSave   bool
	discoverOutput string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover new debate topics not already in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "discover")
		if err != nil {
			return err
		}
		defer env.Close()

		titles, err := env.Store.Titles(ctx, 0)
		if err != nil {
			return eris.Wrap(err, "discover: load existing titles")
		}

		res := env.Pipeline.Discover(ctx, titles)
		if err := writeOutput(cmd.OutOrStdout(), discoverOutput, res); err != nil {
			return err
		}
		if !res.Success {
			return resultError("discover", res.Error, res.Detail)
		}

		if discoverSave {
			saved, err := env.Store.SaveCandidates(ctx, res.Data)
			if err != nil {
				return eris.Wrap(err, "discover: save candidates")
			}
			zap.L().Info("candidates saved", zap.Int("count", len(saved)))
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "persist discovered records")
	discoverCmd.Flags().StringVarP(&discoverOutput, "output", "o", "json", "output format (json|yaml)")
	rootCmd.AddCommand(discoverCmd)
}

// resultError turns a failed pipeline result into a command error.
func resultError(op, kind, detail string) error {
	if detail == "" {
		return eris.Errorf("%s: %s", op, kind)
	}
	return eris.Errorf("%s: %s: %s", op, kind, detail)
}
