package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"marketpulse/internal/domain"
	"marketpulse/internal/source"
	"marketpulse/internal/store"
)

// Outcome is what one processing run amounted to. The worker decides
// how to log it; the terminal status has already been persisted.
type Outcome struct {
	Status  domain.TaskStatus
	Records int
	Skipped bool
	Err     error
}

// HoldWindows are the deliberate delays that keep the pending and
// in_progress states observable to polling clients. They model
// upstream acceptance and processing latency.
type HoldWindows struct {
	PendingMin  time.Duration
	PendingMax  time.Duration
	ProgressMin time.Duration
	ProgressMax time.Duration
}

func DefaultHoldWindows() HoldWindows {
	return HoldWindows{
		PendingMin:  3 * time.Second,
		PendingMax:  4 * time.Second,
		ProgressMin: 4 * time.Second,
		ProgressMax: 6 * time.Second,
	}
}

// Processor drives a single task through
// pending -> in_progress -> completed|failed.
type Processor struct {
	store   store.Store
	sources map[string]source.Generator
	holds   HoldWindows
	rng     *rand.Rand
}

func NewProcessor(st store.Store, sources map[string]source.Generator, holds HoldWindows, rng *rand.Rand) *Processor {
	return &Processor{store: st, sources: sources, holds: holds, rng: rng}
}

// Process runs one task to a terminal state. A missing task yields a
// skipped outcome; any fault marks the task failed (best-effort) and is
// reported in the outcome rather than propagated.
func (p *Processor) Process(ctx context.Context, taskID string) Outcome {
	t, err := p.store.GetTask(ctx, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{Skipped: true}
	}
	if err != nil {
		return p.fail(ctx, taskID, fmt.Errorf("load task: %w", err))
	}

	// Task is already pending from creation; hold before picking it up.
	log.Info().Str("task_id", t.ID).Msg("task pending")
	p.hold(p.holds.PendingMin, p.holds.PendingMax)

	if err := p.store.UpdateStatus(ctx, t.ID, domain.StatusInProgress); err != nil {
		return p.fail(ctx, t.ID, fmt.Errorf("mark in_progress: %w", err))
	}
	log.Info().Str("task_id", t.ID).Msg("task in progress")
	p.hold(p.holds.ProgressMin, p.holds.ProgressMax)

	var records []domain.DataRecord
	for _, tag := range t.FilterParams.ActiveSources() {
		gen, ok := p.sources[tag]
		if !ok {
			log.Warn().Str("task_id", t.ID).Str("source", tag).Msg("unknown data source, skipping")
			continue
		}
		records = append(records, gen.Fetch(t.FilterParams)...)
	}

	if err := p.store.AppendRecords(ctx, t.ID, records); err != nil {
		return p.fail(ctx, t.ID, fmt.Errorf("persist records: %w", err))
	}
	if err := p.store.UpdateStatus(ctx, t.ID, domain.StatusCompleted); err != nil {
		return p.fail(ctx, t.ID, fmt.Errorf("mark completed: %w", err))
	}
	return Outcome{Status: domain.StatusCompleted, Records: len(records)}
}

func (p *Processor) fail(ctx context.Context, taskID string, cause error) Outcome {
	if err := p.store.UpdateStatus(ctx, taskID, domain.StatusFailed); err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("could not mark task failed")
	}
	return Outcome{Status: domain.StatusFailed, Err: cause}
}

func (p *Processor) hold(min, max time.Duration) {
	d := min
	if max > min {
		d += time.Duration(p.rng.Int63n(int64(max - min)))
	}
	time.Sleep(d)
}
