package main

import (
	"fmt"
	"io"
	"time"

	"typeweave/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) {
	if out == nil {
		return
	}
	stages := []struct {
		stage pipeline.Stage
		label string
	}{
		{pipeline.StageLoad, "loaded"},
		{pipeline.StageApply, "applied"},
		{pipeline.StageEmit, "emitted"},
	}
	for _, s := range stages {
		if !timings.Has(s.stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", s.label, toMillis(timings.Duration(s.stage))); err != nil {
			panic(err)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
