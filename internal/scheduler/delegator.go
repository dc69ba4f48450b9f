// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/beaconapp/beacon/internal/platform/validate"
	"github.com/beaconapp/beacon/pkg/uuidv7"
)

// # Delegation Registry

// DelegateFunc is the callback a job dispatch is handed to.
//
// The scheduler does not interpret a delegate's tools. It hands the fired
// job and the delegation record to the callback and moves on. A panic or
// long-running delegate must be handled inside the callback itself.
type DelegateFunc func(context context.Context, job Job, delegation Delegation)

// Delegator records delegates against jobs and dispatches to them when the
// scheduler reports a job has fired.
//
// # Concurrency
//
// The in-memory registry is guarded by a read/write mutex: Register takes
// the write lock, Dispatch only the read lock, so job fires never block
// behind registrations.
type Delegator struct {
	jobRepository JobRepository
	logger        *slog.Logger
	callback      DelegateFunc

	mu          sync.RWMutex
	delegations map[string][]Delegation
}

// NewDelegator constructs a [Delegator] with an empty registry.
func NewDelegator(jobRepo JobRepository, logger *slog.Logger, callback DelegateFunc) *Delegator {
	return &Delegator{
		jobRepository: jobRepo,
		logger:        logger,
		callback:      callback,
		delegations:   make(map[string][]Delegation),
	}
}

// RegisterInput holds the data required to record a delegate against a job.
type RegisterInput struct {
	JobID        string
	Name         string
	Tools        []string
	ScheduleType ScheduleType
}

/*
Register validates and persists a delegate registration, then adds it to the
in-memory dispatch registry.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Delegation: The persisted registration
  - error: Validation or persistence failures
*/
func (delegator *Delegator) Register(context context.Context, input RegisterInput) (*Delegation, error) {
	validator := &validate.Validator{}
	validator.
		Required(FieldJobID, input.JobID).
		UUID(FieldJobID, input.JobID).
		Required(FieldName, input.Name).
		Custom(FieldScheduleType, !input.ScheduleType.Valid(), "Unknown schedule type").
		Custom(FieldTools, len(input.Tools) == 0, "At least one tool is required")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// The job must exist before anything can delegate against it.
	if _, err := delegator.jobRepository.FindJobByID(context, input.JobID); err != nil {
		return nil, err
	}

	delegation := &Delegation{
		ID:           uuidv7.New(),
		JobID:        input.JobID,
		Name:         input.Name,
		Tools:        input.Tools,
		ScheduleType: input.ScheduleType,
	}

	if err := delegator.jobRepository.CreateDelegation(context, delegation); err != nil {
		return nil, err
	}

	delegator.mu.Lock()
	delegator.delegations[delegation.JobID] = append(delegator.delegations[delegation.JobID], *delegation)
	delegator.mu.Unlock()

	delegator.logger.Info("delegate_registered",
		slog.String("job_id", delegation.JobID),
		slog.String("delegate", delegation.Name),
		slog.Int("tools", len(delegation.Tools)),
	)

	return delegation, nil
}

/*
Hydrate loads every persisted delegation for the given jobs into the
in-memory registry. Called once at startup, before the scheduler starts.

Parameters:
  - context: context.Context
  - jobs: []Job

Returns:
  - error: Storage failures
*/
func (delegator *Delegator) Hydrate(context context.Context, jobs []Job) error {
	delegator.mu.Lock()
	defer delegator.mu.Unlock()

	for _, job := range jobs {
		delegations, err := delegator.jobRepository.ListDelegationsForJob(context, job.ID)
		if err != nil {
			return fmt.Errorf("delegator_hydrate_failed: %w", err)
		}
		delegator.delegations[job.ID] = delegations
	}

	return nil
}

// Dispatch hands a fired job to every delegate registered against it.
//
// A job with no delegates is logged and skipped, not treated as an error.
func (delegator *Delegator) Dispatch(context context.Context, job Job) {
	delegator.mu.RLock()
	delegations := delegator.delegations[job.ID]
	delegator.mu.RUnlock()

	if len(delegations) == 0 {
		delegator.logger.Warn("job_fired_without_delegates",
			slog.String("job_id", job.ID),
			slog.String("job", job.Name),
		)
		return
	}

	for _, delegation := range delegations {
		delegator.logger.Info("job_dispatched",
			slog.String("job_id", job.ID),
			slog.String("job", job.Name),
			slog.String("delegate", delegation.Name),
		)
		delegator.callback(context, job, delegation)
	}
}
