// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package scheduler

import "context"

// # Job Data Access

// JobRepository defines the data access contract for jobs and delegations.
//
// # Error Contract
//
// Lookups return [apperr.NotFound] when no row matches and a wrapped storage
// error otherwise. CreateJob surfaces a duplicate id as [apperr.Conflict].
type JobRepository interface {

	/*
		CreateJob persists a new job definition.

		Parameters:
		  - context: context.Context
		  - job: *Job

		Returns:
		  - error: apperr.Conflict on duplicate id, or persistence failures
	*/
	CreateJob(context context.Context, job *Job) error

	/*
		FindJobByID returns the job with the given id.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Job: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindJobByID(context context.Context, id string) (*Job, error)

	/*
		ListJobs returns every persisted job, newest first.

		Parameters:
		  - context: context.Context

		Returns:
		  - []Job: May be empty, never nil on success
		  - error: Storage failures
	*/
	ListJobs(context context.Context) ([]Job, error)

	/*
		CreateDelegation persists a delegate registration for a job.

		Parameters:
		  - context: context.Context
		  - delegation: *Delegation

		Returns:
		  - error: Persistence failures
	*/
	CreateDelegation(context context.Context, delegation *Delegation) error

	/*
		ListDelegationsForJob returns the delegates registered against a job.

		Parameters:
		  - context: context.Context
		  - jobID: string

		Returns:
		  - []Delegation: May be empty, never nil on success
		  - error: Storage failures
	*/
	ListDelegationsForJob(context context.Context, jobID string) ([]Delegation, error)
}
