package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/store"
)

var (
	entriesCategory string
	entriesMissing  bool
	entriesLimit    int
	entriesOffset   int
	entriesOutput   string

	voteID   string
	voteSide string
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List catalog entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		filter, err := entryFilter(entriesCategory, entriesMissing, entriesLimit, entriesOffset)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListEntries(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "entries: list")
		}
		return writeOutput(cmd.OutOrStdout(), entriesOutput, entries)
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Record a vote for one side of an entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		side, err := parseSide(voteSide)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tally, err := st.RecordVote(ctx, voteID, side)
		if err != nil {
			return eris.Wrapf(err, "vote: entry %s", voteID)
		}
		return writeOutput(cmd.OutOrStdout(), "json", tally)
	},
}

func init() {
	entriesCmd.Flags().StringVar(&entriesCategory, "category", "", "filter by category")
	entriesCmd.Flags().BoolVar(&entriesMissing, "missing-enrichment", false, "only entries without enrichment")
	entriesCmd.Flags().IntVar(&entriesLimit, "limit", 100, "max entries to list")
	entriesCmd.Flags().IntVar(&entriesOffset, "offset", 0, "entries to skip")
	entriesCmd.Flags().StringVarP(&entriesOutput, "output", "o", "json", "output format (json|yaml)")

	voteCmd.Flags().StringVar(&voteID, "id", "", "entry ID")
	voteCmd.Flags().StringVar(&voteSide, "side", "", "side to vote for (a|b)")
	_ = voteCmd.MarkFlagRequired("id")
	_ = voteCmd.MarkFlagRequired("side")

	rootCmd.AddCommand(entriesCmd, voteCmd)
}

// entryFilter builds a list filter, rejecting categories outside the set.
func entryFilter(category string, missing bool, limit, offset int) (store.EntryFilter, error) {
	filter := store.EntryFilter{
		MissingEnrichment: missing,
		Limit:             limit,
		Offset:            offset,
	}
	if category = strings.TrimSpace(category); category != "" {
		c := model.ParseCategory(category)
		if string(c) != strings.ToLower(category) {
			return store.EntryFilter{}, eris.Errorf("unknown category %q", category)
		}
		filter.Category = c
	}
	if offset < 0 {
		return store.EntryFilter{}, eris.New("offset must be >= 0")
	}
	return filter, nil
}

func parseSide(raw string) (model.VoteSide, error) {
	switch model.VoteSide(strings.ToLower(strings.TrimSpace(raw))) {
	case model.VoteA:
		return model.VoteA, nil
	case model.VoteB:
		return model.VoteB, nil
	default:
		return "", eris.Errorf("invalid side %q (want a or b)", raw)
	}
}
