package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLoad reads and declares type libraries and decodes recipes.
	StageLoad Stage = "load"
	// StageApply applies a recipe to its type model.
	StageApply Stage = "apply"
	// StageEmit walks the finished model through a backend.
	StageEmit Stage = "emit"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a recipe (or for the overall pipeline when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration

	// TypeName is empty until the recipe is decoded; Applied and Failed
	// count its mutations once StageApply finishes.
	TypeName string
	Applied  int
	Failed   int
}

// ProgressSink consumes progress events. Sessions run concurrently, so
// implementations must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// Mode selects what happens to a finished model.
type Mode string

const (
	// ModeCheck validates recipes and discards the models.
	ModeCheck Mode = "check"
	// ModePlan renders each model to Request.Output.
	ModePlan Mode = "plan"
	// ModeBuild writes one plan file per model to Request.OutputDir.
	ModeBuild Mode = "build"
)

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
