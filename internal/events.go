package internal

import (
	"github.com/chrisconley/trackline/internal/infra"
	"github.com/chrisconley/trackline/specs"
)

// BatchPredictedEvent is published after the predictor answered one batch.
type BatchPredictedEvent struct {
	Batch int
	Rows  int
	Stats PredictStats
}

func (e BatchPredictedEvent) EventType() infra.EventType {
	return infra.BatchPredicted
}

// BatchValidatedEvent is published after the harness accepted one batch.
type BatchValidatedEvent struct {
	RunID string
	Batch int
	Rows  int
}

func (e BatchValidatedEvent) EventType() infra.EventType {
	return infra.BatchValidated
}

// BatchRejectedEvent is published when a batch ends the run.
type BatchRejectedEvent struct {
	RunID string
	Batch int
	Err   error
}

func (e BatchRejectedEvent) EventType() infra.EventType {
	return infra.BatchRejected
}

// RunFinishedEvent is published once per validation run, success or not.
type RunFinishedEvent struct {
	Summary specs.BatchSummarySpec
}

func (e RunFinishedEvent) EventType() infra.EventType {
	return infra.RunFinished
}
