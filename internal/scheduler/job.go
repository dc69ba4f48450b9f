// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

/*
Package scheduler implements recurring background job orchestration.

It pairs two cooperating services:

  - Scheduler: Persists job definitions and arms the underlying cron engine
    so each job fires on its schedule, but only inside its active window.
  - Delegator: A registry of delegates (named tool bundles) that receive
    the dispatch when a job fires.

Both services are explicitly constructed and owned by the composition root,
with Start/Stop lifecycle hooks for graceful shutdown.
*/
package scheduler

import "time"

// # Schedule Taxonomy

// ScheduleType identifies how often a job fires.
type ScheduleType string

const (
	// ScheduleOnce fires exactly one time, at the job's start date.
	ScheduleOnce ScheduleType = "once"

	// ScheduleDaily fires at midnight every day inside the job window.
	ScheduleDaily ScheduleType = "daily"

	// ScheduleWeekly fires at midnight every Sunday inside the job window.
	ScheduleWeekly ScheduleType = "weekly"

	// ScheduleMonthly fires at midnight on the first of every month inside
	// the job window.
	ScheduleMonthly ScheduleType = "monthly"
)

// cronSpecs maps each recurring schedule type to its cron engine descriptor.
var cronSpecs = map[ScheduleType]string{
	ScheduleDaily:   "@daily",
	ScheduleWeekly:  "@weekly",
	ScheduleMonthly: "@monthly",
}

// Valid reports whether the schedule type is a known member of the taxonomy.
func (s ScheduleType) Valid() bool {
	if s == ScheduleOnce {
		return true
	}
	_, ok := cronSpecs[s]
	return ok
}

// # Entities

// Job is a persisted unit of scheduled work.
//
// A job only fires while the current time lies inside [StartDate, EndDate].
// Recurring jobs that tick outside the window are silently skipped.
type Job struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      ScheduleType `json:"type"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	CreatedAt time.Time    `json:"createdAt"`
}

// InWindow reports whether the job is active at the given instant.
func (job *Job) InWindow(at time.Time) bool {
	return !at.Before(job.StartDate) && !at.After(job.EndDate)
}

// Delegation binds a named delegate and its tool set to a job.
type Delegation struct {
	ID           string       `json:"id"`
	JobID        string       `json:"jobId"`
	Name         string       `json:"name"`
	Tools        []string     `json:"tools"`
	ScheduleType ScheduleType `json:"scheduleType"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// # Field Identifiers

const (
	FieldJobID        = "jobId"
	FieldName         = "name"
	FieldType         = "type"
	FieldStartDate    = "startDate"
	FieldEndDate      = "endDate"
	FieldScheduleType = "scheduleType"
	FieldTools        = "tools"
)
