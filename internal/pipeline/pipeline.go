// Package pipeline runs the scoring stages for a single participant.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"actigraph-sleep/internal/ema"
	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/locate"
	"actigraph-sleep/internal/sadeh"
	"actigraph-sleep/internal/segment"
	"actigraph-sleep/internal/stats"
)

// Input is everything the pipeline needs for one participant.
type Input struct {
	Participant     string
	AssessmentPoint string
	Epochs          []epoch.Epoch
	Prompts         []ema.Prompt
}

// Result is the scored output for one participant.
type Result struct {
	Participant     string
	AssessmentPoint string
	Epochs          []epoch.Epoch
	Periods         []segment.Period
	Days            map[string]stats.DailyStats
	EMA             []ema.Result
	SkippedPrompts  []ema.Skipped
}

// Dates returns the keys of Days in ascending order.
func (r *Result) Dates() []string {
	keys := make([]string, 0, len(r.Days))
	for k := range r.Days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pipeline sequences validation, classification, segmentation, onset/offset
// resolution and aggregation.
type Pipeline struct {
	classifier *sadeh.Classifier
	logger     zerolog.Logger
}

// New constructs a Pipeline.
func New(logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		classifier: sadeh.NewClassifier(logger),
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Process scores one participant. The input slice is not modified.
func (p *Pipeline) Process(in Input) (*Result, error) {
	raw := make([]epoch.Epoch, len(in.Epochs))
	copy(raw, in.Epochs)
	epoch.Sort(raw)

	if err := epoch.Validate(raw); err != nil {
		return nil, fmt.Errorf("participant %s: validate epochs: %w", in.Participant, err)
	}

	classified, err := p.classifier.ClassifyAll(in.Participant, raw)
	if err != nil {
		return nil, fmt.Errorf("participant %s: classify epochs: %w", in.Participant, err)
	}

	periods, err := segment.Segment(classified)
	if err != nil {
		return nil, fmt.Errorf("participant %s: segment sleep periods: %w", in.Participant, err)
	}

	res := &Result{
		Participant:     in.Participant,
		AssessmentPoint: in.AssessmentPoint,
		Epochs:          classified,
		Periods:         periods,
		Days:            make(map[string]stats.DailyStats),
	}

	for _, date := range epoch.Dates(classified) {
		onset, offset := locate.Night(date, periods)
		res.Days[epoch.DateKey(date)] = stats.Compute(date, classified, onset, offset)
	}

	if len(in.Prompts) > 0 {
		res.EMA, res.SkippedPrompts = ema.Correlate(in.Prompts, classified)
		for _, s := range res.SkippedPrompts {
			p.logger.Warn().
				Str("participant", in.Participant).
				Time("prompt", s.Prompt.Time).
				Int("epochs", s.Found).
				Msg("not enough epochs before EMA prompt")
		}
	}

	p.logger.Debug().
		Str("participant", in.Participant).
		Int("epochs", len(classified)).
		Int("periods", len(periods)).
		Int("days", len(res.Days)).
		Int("ema_results", len(res.EMA)).
		Msg("participant scored")

	return res, nil
}
