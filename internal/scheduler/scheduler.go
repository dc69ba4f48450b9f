// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/beaconapp/beacon/internal/platform/validate"
	"github.com/beaconapp/beacon/pkg/uuidv7"
)

// Scheduler persists job definitions and arms the cron engine so each job
// fires on its schedule, inside its active window only.
//
// # Lifecycle
//
// The scheduler is explicitly constructed and owned by the composition
// root: Start arms persisted jobs and starts the engine, Stop drains it.
// There is no global instance.
type Scheduler struct {
	jobRepository JobRepository
	delegator     *Delegator
	logger        *slog.Logger
	engine        *cron.Cron

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	started bool
	baseCtx context.Context
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
}

// NewScheduler constructs a [Scheduler] around a fresh cron engine.
func NewScheduler(jobRepo JobRepository, delegator *Delegator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		jobRepository: jobRepo,
		delegator:     delegator,
		logger:        logger,
		engine:        cron.New(),
		now:           time.Now,
		entries:       make(map[string]cron.EntryID),
		timers:        make(map[string]*time.Timer),
	}
}

// ScheduleInput holds the data required to schedule a job.
type ScheduleInput struct {
	JobID     string
	Name      string
	Type      ScheduleType
	StartDate time.Time
	EndDate   time.Time
}

/*
Schedule validates the job window, persists the definition, and arms the
engine so the job fires on its schedule.

Description: Recurring jobs get a cron entry whose tick is skipped outside
[StartDate, EndDate]. One-shot jobs get a single timer at StartDate.

Parameters:
  - context: context.Context
  - input: ScheduleInput (JobID may be empty; a UUIDv7 is minted)

Returns:
  - *Job: The persisted, armed job
  - error: Validation, persistence, or engine failures
*/
func (scheduler *Scheduler) Schedule(context context.Context, input ScheduleInput) (*Job, error) {
	if input.JobID == "" {
		input.JobID = uuidv7.New()
	}

	validator := &validate.Validator{}
	validator.
		UUID(FieldJobID, input.JobID).
		Required(FieldName, input.Name).
		Custom(FieldType, !input.Type.Valid(), "Unknown schedule type").
		Custom(FieldStartDate, input.StartDate.IsZero(), "This field is required").
		Custom(FieldEndDate, input.EndDate.IsZero(), "This field is required")
	if !validator.HasErrors() {
		validator.
			Custom(FieldEndDate, !input.EndDate.After(input.StartDate), "Must be after startDate").
			Custom(FieldEndDate, input.EndDate.Before(scheduler.now()), "Window is entirely in the past")
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	job := &Job{
		ID:        input.JobID,
		Name:      input.Name,
		Type:      input.Type,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}

	if err := scheduler.jobRepository.CreateJob(context, job); err != nil {
		return nil, err
	}

	if err := scheduler.arm(job); err != nil {
		return nil, err
	}

	scheduler.logger.Info("job_scheduled",
		slog.String("job_id", job.ID),
		slog.String("job", job.Name),
		slog.String("type", string(job.Type)),
		slog.Time("start_date", job.StartDate),
		slog.Time("end_date", job.EndDate),
	)

	return job, nil
}

/*
Start re-arms every persisted job, hydrates the delegator registry, and
starts the cron engine.

Parameters:
  - context: context.Context (base context handed to dispatched delegates)

Returns:
  - error: Storage or engine failures
*/
func (scheduler *Scheduler) Start(context context.Context) error {
	scheduler.mu.Lock()
	scheduler.baseCtx = context
	scheduler.started = true
	scheduler.mu.Unlock()

	jobs, err := scheduler.jobRepository.ListJobs(context)
	if err != nil {
		return fmt.Errorf("scheduler_start_list_failed: %w", err)
	}

	if err := scheduler.delegator.Hydrate(context, jobs); err != nil {
		return fmt.Errorf("scheduler_start_hydrate_failed: %w", err)
	}

	armed := 0
	for index := range jobs {
		job := jobs[index]

		// Jobs whose window has fully passed stay persisted for audit but
		// are never re-armed.
		if job.EndDate.Before(scheduler.now()) {
			continue
		}
		if err := scheduler.arm(&job); err != nil {
			return err
		}
		armed++
	}

	scheduler.engine.Start()
	scheduler.logger.Info("scheduler_started", slog.Int("jobs_armed", armed))
	return nil
}

// Stop halts the cron engine, cancels pending one-shot timers, and waits
// for any running dispatch to finish.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	scheduler.started = false
	for jobID, timer := range scheduler.timers {
		timer.Stop()
		delete(scheduler.timers, jobID)
	}
	scheduler.mu.Unlock()

	// cron.Stop returns a context that is done once running entries finish.
	<-scheduler.engine.Stop().Done()
	scheduler.logger.Info("scheduler_stopped")
}

// arm wires a job into the engine: a cron entry for recurring types, a
// single timer at StartDate for one-shot jobs.
func (scheduler *Scheduler) arm(job *Job) error {
	if job.Type == ScheduleOnce {
		scheduler.armOnce(*job)
		return nil
	}

	spec, ok := cronSpecs[job.Type]
	if !ok {
		return fmt.Errorf("scheduler_arm_failed: unknown schedule type %q", job.Type)
	}

	fired := *job
	entryID, err := scheduler.engine.AddFunc(spec, func() {
		scheduler.fire(fired)
	})
	if err != nil {
		return fmt.Errorf("scheduler_arm_failed: %w", err)
	}

	scheduler.mu.Lock()
	scheduler.entries[job.ID] = entryID
	scheduler.mu.Unlock()
	return nil
}

// armOnce sets a single timer that fires the job at its start date. A start
// date already reached fires immediately.
func (scheduler *Scheduler) armOnce(job Job) {
	delay := time.Until(job.StartDate)
	if delay < 0 {
		delay = 0
	}

	scheduler.mu.Lock()
	scheduler.timers[job.ID] = time.AfterFunc(delay, func() {
		scheduler.mu.Lock()
		delete(scheduler.timers, job.ID)
		scheduler.mu.Unlock()
		scheduler.fire(job)
	})
	scheduler.mu.Unlock()
}

// fire dispatches a job tick, skipping ticks outside the job's window.
func (scheduler *Scheduler) fire(job Job) {
	scheduler.mu.Lock()
	baseCtx := scheduler.baseCtx
	started := scheduler.started
	scheduler.mu.Unlock()

	if !started {
		return
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	if !job.InWindow(scheduler.now()) {
		scheduler.logger.Debug("job_tick_outside_window",
			slog.String("job_id", job.ID),
			slog.String("job", job.Name),
		)
		return
	}

	scheduler.delegator.Dispatch(baseCtx, job)
}
