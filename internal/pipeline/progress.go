package pipeline

import (
	"time"
)

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}

// emitStage reports a pipeline-wide stage change.
func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// emitSession reports a recipe's progress together with what its session
// knows so far: the type name once decoded, mutation counts once applied.
func emitSession(sink ProgressSink, j *job, stage Stage, status Status, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{
		File:     j.display,
		TypeName: j.session.TypeName,
		Stage:    stage,
		Status:   status,
		Err:      j.session.Err,
		Elapsed:  elapsed,
		Applied:  j.session.Applied,
		Failed:   j.session.Failed,
	})
}
