package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/versus-cli/internal/pipeline"
	"github.com/sells-group/versus-cli/internal/store"
)

var (
	enrichID       string
	enrichTitle    string
	enrichQuestion string
	enrichA        string
	enrichB        string
	enrichSave     bool
	enrichOutput   string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate cited arguments for one entry",
	Long:  "Generates enrichment for a stored entry (--id) or an ad-hoc topic (--title, --question, --a, --b).",
	RunE: func(cmd *cobra.Command, args []string) error {
		if enrichSave && enrichID == "" {
			return eris.New("enrich: --save requires --id")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := enrichInput(ctx, env.Store)
		if err != nil {
			return err
		}

		res := env.Pipeline.GenerateEnrichment(ctx, in)
		if err := writeOutput(cmd.OutOrStdout(), enrichOutput, res); err != nil {
			return err
		}
		if !res.Success {
			return resultError("enrich", res.Error, res.Detail)
		}

		if enrichSave {
			if err := env.Store.SaveEnrichment(ctx, enrichID, res.Data); err != nil {
				return eris.Wrap(err, "enrich: save enrichment")
			}
			zap.L().Info("enrichment saved", zap.String("entry_id", enrichID))
		}
		return nil
	},
}

func init() {
	f := enrichCmd.Flags()
	f.StringVar(&enrichID, "id", "", "stored entry ID")
	f.StringVar(&enrichTitle, "title", "", "topic title")
	f.StringVar(&enrichQuestion, "question", "", "debate question")
	f.StringVar(&enrichA, "a", "", "side A")
	f.StringVar(&enrichB, "b", "", "side B")
	f.BoolVar(&enrichSave, "save", false, "persist enrichment onto the entry (requires --id)")
	f.StringVarP(&enrichOutput, "output", "o", "json", "output format (json|yaml)")
	enrichCmd.MarkFlagsMutuallyExclusive("id", "title")
	rootCmd.AddCommand(enrichCmd)
}

// enrichInput resolves the generation input from --id or the ad-hoc flags.
func enrichInput(ctx context.Context, st store.Store) (pipeline.EntryInput, error) {
	if enrichID != "" {
		entry, err := st.GetEntry(ctx, enrichID)
		if err != nil {
			return pipeline.EntryInput{}, eris.Wrapf(err, "enrich: load entry %s", enrichID)
		}
		return pipeline.EntryInputFrom(entry.CandidateRecord), nil
	}
	return adHocInput(enrichTitle, enrichQuestion, enrichA, enrichB)
}

func adHocInput(title, question, a, b string) (pipeline.EntryInput, error) {
	in := pipeline.EntryInput{
		Title:    strings.TrimSpace(title),
		Question: strings.TrimSpace(question),
		VariantA: strings.TrimSpace(a),
		VariantB: strings.TrimSpace(b),
	}
	if in.Title == "" || in.VariantA == "" || in.VariantB == "" {
		return pipeline.EntryInput{}, eris.New("enrich: either --id or all of --title, --a and --b are required")
	}
	return in, nil
}
