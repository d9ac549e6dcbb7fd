package ema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actigraph-sleep/internal/epoch"
)

var from = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// classified returns 30 epochs from 10:00, asleep until 10:14.
func classified() []epoch.Epoch {
	out := make([]epoch.Epoch, 30)
	for i := range out {
		out[i] = epoch.Epoch{Participant: "101", Time: from.Add(time.Duration(i) * time.Minute), Asleep: i < 15}
	}
	return out
}

func TestCorrelate(t *testing.T) {
	prompts := []Prompt{
		{Participant: "101", Time: from.Add(20 * time.Minute), Responded: true, Asleep: true},
		{Participant: "101", Time: from.Add(12 * time.Minute), Responded: true},
		{Participant: "101", Time: from.Add(25 * time.Minute)},
		{Participant: "101", Time: from.Add(5 * time.Minute), Responded: true},
	}

	results, skipped := Correlate(prompts, classified())

	require.Len(t, results, 2)
	assert.Equal(t, prompts[0], results[0].Prompt)
	require.Len(t, results[0].Epochs, WindowEpochs)
	assert.Equal(t, from.Add(11*time.Minute), results[0].Epochs[0].Time)
	assert.Equal(t, prompts[0].Time, results[0].Epochs[WindowEpochs-1].Time)
	assert.InDelta(t, 0.4, results[0].ProportionAsleep, 1e-9)

	assert.InDelta(t, 1.0, results[1].ProportionAsleep, 1e-9)

	require.Len(t, skipped, 1)
	assert.Equal(t, prompts[3], skipped[0].Prompt)
	assert.Equal(t, 6, skipped[0].Found)
}

func TestCorrelateWithoutEpochs(t *testing.T) {
	prompts := []Prompt{{Participant: "101", Time: from, Responded: true}}

	results, skipped := Correlate(prompts, nil)

	assert.Empty(t, results)
	require.Len(t, skipped, 1)
	assert.Zero(t, skipped[0].Found)
}

func TestForParticipant(t *testing.T) {
	prompts := []Prompt{
		{Participant: "101", Time: from},
		{Participant: "102", Time: from},
		{Participant: "101", Time: from.Add(time.Hour)},
	}

	got := ForParticipant(prompts, "101")
	require.Len(t, got, 2)
	assert.Equal(t, from.Add(time.Hour), got[1].Time)
	assert.Empty(t, ForParticipant(prompts, "999"))
}

func TestPromptString(t *testing.T) {
	p := Prompt{Participant: "101", Time: from}
	assert.Equal(t, "participant 101, date: 2024-03-04 10:00, did not respond", p.String())

	p.Responded, p.Asleep = true, true
	assert.Equal(t, "participant 101, date: 2024-03-04 10:00, asleep: true", p.String())
}
