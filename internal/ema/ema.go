// Package ema correlates Ecological Momentary Assessment prompts with the
// actigraph sleep classification in the minutes leading up to each prompt.
package ema

import (
	"fmt"
	"time"

	"actigraph-sleep/internal/epoch"
)

// WindowEpochs is the number of epochs, ending at the prompt, compared against a response.
const WindowEpochs = 10

// Prompt is one survey message sent to a caregiver.
type Prompt struct {
	Participant string
	Time        time.Time
	Responded   bool
	Asleep      bool
}

func (p Prompt) String() string {
	if !p.Responded {
		return fmt.Sprintf("participant %s, date: %s, did not respond", p.Participant, p.Time.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("participant %s, date: %s, asleep: %t", p.Participant, p.Time.Format("2006-01-02 15:04"), p.Asleep)
}

// Result pairs a responded prompt with the epochs in its window.
type Result struct {
	Prompt           Prompt
	Epochs           []epoch.Epoch
	ProportionAsleep float64
}

// Skipped records a responded prompt that lacked a full window of epochs.
type Skipped struct {
	Prompt Prompt
	Found  int
}

// Correlate compares every responded prompt with the classified epochs in
// [prompt-9m, prompt]. Prompts with fewer than WindowEpochs epochs are skipped.
func Correlate(prompts []Prompt, epochs []epoch.Epoch) ([]Result, []Skipped) {
	var results []Result
	var skipped []Skipped

	for _, p := range prompts {
		if !p.Responded {
			continue
		}

		from := p.Time.Add(-time.Duration(WindowEpochs-1) * time.Minute)
		var window []epoch.Epoch
		for _, e := range epochs {
			if !e.Time.Before(from) && !e.Time.After(p.Time) {
				window = append(window, e)
			}
		}

		if len(window) < WindowEpochs {
			skipped = append(skipped, Skipped{Prompt: p, Found: len(window)})
			continue
		}

		asleep := 0
		for _, e := range window {
			if e.Asleep {
				asleep++
			}
		}
		results = append(results, Result{
			Prompt:           p,
			Epochs:           window,
			ProportionAsleep: float64(asleep) / float64(len(window)),
		})
	}
	return results, skipped
}

// ForParticipant filters prompts belonging to participant.
func ForParticipant(prompts []Prompt, participant string) []Prompt {
	var out []Prompt
	for _, p := range prompts {
		if p.Participant == participant {
			out = append(out, p)
		}
	}
	return out
}
