package search

import (
	"fmt"
	"log/slog"
	"time"
)

// Controller state names, reported through Progress.State.
const (
	StateDone = "DONE"
)

// searchState names the fan-out state of a tier, e.g. "P1_SEARCH".
func searchState(t Tier) string {
	return fmt.Sprintf("%s_SEARCH", t)
}

// evaluateState names the evaluation state of a tier, e.g. "P1_EVALUATE".
func evaluateState(t Tier) string {
	return fmt.Sprintf("%s_EVALUATE", t)
}

// awaitState names the checkpoint before escalating into a tier,
// e.g. "AWAIT_CONTINUE_P2".
func awaitState(t Tier) string {
	return fmt.Sprintf("AWAIT_CONTINUE_%s", t)
}

// reporter delivers Progress snapshots to the caller's sink.
// Fire-and-forget: a panicking sink is recovered and logged, never
// propagated into the pipeline.
type reporter struct {
	sink  ProgressSink
	log   *slog.Logger
	runID string
	start time.Time
}

func (r *reporter) emit(state string, tier Tier, found, target int, perSource map[string]int) {
	if r.sink == nil {
		return
	}

	// Snapshot the per-source counts; the controller keeps mutating its map.
	counts := make(map[string]int, len(perSource))
	for k, v := range perSource {
		counts[k] = v
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("progress sink panicked", "state", state, "panic", rec)
		}
	}()

	r.sink(Progress{
		RunID:     r.runID,
		State:     state,
		Tier:      tier,
		Found:     found,
		Target:    target,
		PerSource: counts,
		Elapsed:   time.Since(r.start),
	})
}
