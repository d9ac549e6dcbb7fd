package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"actigraph-sleep/internal/ema"
	"actigraph-sleep/internal/pipeline"
	"actigraph-sleep/internal/storage"
	"actigraph-sleep/internal/workbook"
)

// Score processes every participant file in the input directory. A failing
// participant is logged and skipped; the others are still scored.
func (a *App) Score(ctx context.Context, opts ScoreOptions) error {
	if opts.InputDir == "" {
		opts.InputDir = a.Config.Input.Dir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = a.Config.Output.Dir
	}
	if opts.EMAPath == "" {
		opts.EMAPath = a.Config.Input.EMAPath
	}
	if opts.AssessmentPoint == "" {
		opts.AssessmentPoint = a.Config.Input.AssessmentPoint
	}
	opts.Charts = opts.Charts || a.Config.Output.Charts
	workers := a.Config.ResolveWorkers(opts.Workers)

	files, err := a.participantFiles(opts.InputDir)
	if err != nil {
		return fmt.Errorf("list participant files: %w", err)
	}
	if len(files) == 0 {
		a.Logger.Warn().Str("dir", opts.InputDir).Msg("no participant files found")
		return nil
	}

	var prompts []ema.Prompt
	if opts.EMAPath != "" {
		prompts, err = workbook.ReadEMA(opts.EMAPath)
		if err != nil {
			return err
		}
		a.Logger.Info().Int("prompts", len(prompts)).Str("path", opts.EMAPath).Msg("loaded EMA prompts")
	}

	var store storage.DailyStatsStore
	if opts.WriteDB {
		s, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.New("database.dsn not configured; cannot write daily stats")
		}
		defer closeStore()
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
		store = s
	}

	proc := pipeline.New(a.Logger)
	results := make([]*pipeline.Result, len(files))
	var processed, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.scoreFile(ctx, proc, path, prompts, opts, store)
			if err != nil {
				failed.Add(1)
				a.Logger.Error().Err(err).Str("file", path).Msg("participant failed")
				return nil
			}
			results[i] = res
			processed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	scored := make([]*pipeline.Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			scored = append(scored, res)
		}
	}

	if a.Config.Output.Workbooks && len(scored) > 0 {
		summary := filepath.Join(opts.OutputDir, fmt.Sprintf("participants_%s.xlsx", opts.AssessmentPoint))
		if err := workbook.WriteParticipant(summary, scored); err != nil {
			return err
		}
		if len(prompts) > 0 {
			emaPath := filepath.Join(opts.OutputDir, fmt.Sprintf("ema_%s.xlsx", opts.AssessmentPoint))
			if err := workbook.WriteEMA(emaPath, scored); err != nil {
				return err
			}
		}
	}

	a.Logger.Info().Int64("processed", processed.Load()).Int64("failed", failed.Load()).Msg("scoring complete")
	if failed.Load() > 0 {
		return fmt.Errorf("%d of %d participants failed, check the log", failed.Load(), len(files))
	}
	return nil
}

func (a *App) scoreFile(ctx context.Context, proc *pipeline.Pipeline, path string, prompts []ema.Prompt, opts ScoreOptions, store storage.DailyStatsStore) (*pipeline.Result, error) {
	participant := workbook.ParticipantName(path)
	logger := a.Logger.With().Str("participant", participant).Logger()

	epochs, err := workbook.ReadEpochs(path, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("epochs", len(epochs)).Str("file", path).Msg("parsed participant file")

	res, err := proc.Process(pipeline.Input{
		Participant:     participant,
		AssessmentPoint: opts.AssessmentPoint,
		Epochs:          epochs,
		Prompts:         ema.ForParticipant(prompts, participant),
	})
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_%s", participant, opts.AssessmentPoint)
	if a.Config.Output.Workbooks {
		if err := workbook.WriteThresholds(filepath.Join(opts.OutputDir, base+".xlsx"), res); err != nil {
			return nil, err
		}
	}
	if opts.Charts {
		png := filepath.Join(opts.OutputDir, base+".png")
		if err := writeActogramPNG(png, res.Epochs, a.Config.Output.ChartWidth, a.Config.Output.ChartHeight); err != nil {
			return nil, fmt.Errorf("render chart: %w", err)
		}
	}
	if store != nil {
		if err := store.UpsertDailyStats(ctx, storage.RowsFromResult(res)); err != nil {
			return nil, err
		}
	}

	logger.Info().Int("periods", len(res.Periods)).Int("days", len(res.Days)).Msg("participant scored")
	return res, nil
}
