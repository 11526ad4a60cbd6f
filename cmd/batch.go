package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/pipeline"
	"github.com/sells-group/versus-cli/internal/store"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch-enrich",
	Short: "Enrich stored entries that have no enrichment yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := env.Store.ListEntries(ctx, store.EntryFilter{
			MissingEnrichment: true,
			Limit:             batchLimit,
		})
		if err != nil {
			return eris.Wrap(err, "batch: list entries")
		}

		sum, err := processBatch(ctx, entries, cfg.Batch.MaxConcurrent, env.Pipeline.GenerateEnrichment, env.Store.SaveEnrichment)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), "json", sum)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of entries to enrich")
	rootCmd.AddCommand(batchCmd)
}

// enrichFunc runs enrichment for one entry.
type enrichFunc func(ctx context.Context, in pipeline.EntryInput) model.PipelineResult[model.EnrichmentRecord]

// saveFunc persists a generated enrichment.
type saveFunc func(ctx context.Context, id string, rec model.EnrichmentRecord) error

// batchSummary reports a batch run.
type batchSummary struct {
	Total     int     `json:"total"`
	Succeeded int64   `json:"succeeded"`
	Failed    int64   `json:"failed"`
	CostUSD   float64 `json:"costUsd"`
}

// processBatch enriches entries concurrently. Each entry is an independent
// pipeline run; a failed entry is logged and counted, never aborting the batch.
func processBatch(ctx context.Context, entries []model.Entry, concurrency int, enrich enrichFunc, save saveFunc) (batchSummary, error) {
	sum := batchSummary{Total: len(entries)}
	if len(entries) == 0 {
		zap.L().Info("no entries missing enrichment")
		return sum, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("entries", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	costs := make([]float64, len(entries))

	for i, entry := range entries {
		g.Go(func() error {
			log := zap.L().With(zap.String("entry_id", entry.ID), zap.String("title", entry.Title))

			res := enrich(gctx, pipeline.EntryInputFrom(entry.CandidateRecord))
			costs[i] = res.CostUSD
			if !res.Success {
				failed.Add(1)
				log.Error("enrichment failed",
					zap.String("error", res.Error),
					zap.String("detail", res.Detail),
				)
				return nil
			}

			if err := save(gctx, entry.ID, res.Data); err != nil {
				failed.Add(1)
				log.Error("save enrichment failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Info("enrichment complete",
				zap.String("provider", res.ProviderUsed),
				zap.Float64("cost_usd", res.CostUSD),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return sum, eris.Wrap(err, "batch processing")
	}

	sum.Succeeded = succeeded.Load()
	sum.Failed = failed.Load()
	for _, c := range costs {
		sum.CostUSD += c
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", sum.Succeeded),
		zap.Int64("failed", sum.Failed),
		zap.Float64("cost_usd", sum.CostUSD),
	)
	return sum, nil
}
