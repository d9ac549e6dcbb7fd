package sadeh

import (
	"github.com/rs/zerolog"

	"actigraph-sleep/internal/epoch"
)

// Classifier scores whole participant sequences.
type Classifier struct {
	logger zerolog.Logger
}

// NewClassifier constructs a Classifier. Per-epoch windows are logged at trace level.
func NewClassifier(logger zerolog.Logger) *Classifier {
	return &Classifier{logger: logger.With().Str("component", "sadeh").Logger()}
}

// ClassifyAll returns an enriched copy of a sorted, validated sequence with the
// asleep, daytime and activity level fields populated. Every epoch is scored
// against the raw input so earlier results never feed later windows.
func (c *Classifier) ClassifyAll(participant string, epochs []epoch.Epoch) ([]epoch.Epoch, error) {
	out := make([]epoch.Epoch, len(epochs))
	for i := range epochs {
		comp := Score(epochs, i)

		e := epochs[i]
		if e.Participant == "" {
			e.Participant = participant
		}
		e.Asleep = comp.State() == Asleep
		e.Daytime = IsDaytime(e.Time)

		level, err := Threshold(e)
		if err != nil {
			return nil, err
		}
		e.Level = level
		out[i] = e

		if c.logger.GetLevel() <= zerolog.TraceLevel {
			c.logger.Trace().
				Str("participant", participant).
				Time("epoch", e.Time).
				Ints("window", comp.Window[:]).
				Float64("avg", comp.AVG).
				Int("nats", comp.NATS).
				Float64("sd", comp.SD).
				Float64("lg", comp.LG).
				Float64("score", comp.Score).
				Stringer("state", comp.State()).
				Msg("scored epoch")
		}
	}
	return out, nil
}
