// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of a ConversionJob.
type JobState string

const (
	JobReceived   JobState = "received"
	JobConverting JobState = "converting"
	JobExtracting JobState = "extracting"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Stage names the pipeline step a failure came from.
type Stage string

const (
	StageConversion Stage = "conversion"
	StageExtraction Stage = "extraction"
)

// jobTransitions lists the allowed successor states of each state.
var jobTransitions = map[JobState][]JobState{
	JobReceived:   {JobConverting},
	JobConverting: {JobExtracting, JobFailed},
	JobExtracting: {JobCompleted, JobFailed},
}

// ConversionJob tracks one end-to-end run of the pipeline. It lives only
// for the duration of a single request and is never persisted.
type ConversionJob struct {
	ID         string    `json:"id" yaml:"id"`
	InputPath  string    `json:"input_path" yaml:"input_path"`
	OutputPath string    `json:"output_path" yaml:"output_path"`
	State      JobState  `json:"state" yaml:"state"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewConversionJob returns a job in the received state.
func NewConversionJob(inputPath, outputPath string) *ConversionJob {
	now := time.Now().UTC()
	return &ConversionJob{
		ID:         uuid.NewString(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		State:      JobReceived,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Transition moves the job to the next state. Moves the lifecycle does
// not allow return an error and leave the job unchanged.
func (j *ConversionJob) Transition(to JobState) error {
	for _, next := range jobTransitions[j.State] {
		if next == to {
			j.State = to
			j.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("job %s: invalid transition %s -> %s", j.ID, j.State, to)
}

// Done reports whether the job reached a terminal state.
func (j *ConversionJob) Done() bool {
	return j.State == JobCompleted || j.State == JobFailed
}
