// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

// PostgreSQL implementation of the scheduler storage contracts.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/postgres"
)

// PostgresJobRepository implements the JobRepository interface using pgx.
type PostgresJobRepository struct {
	pool   postgres.PgxPool
	logger *slog.Logger
}

// NewJobRepository creates a new PostgreSQL implementation of the JobRepository.
func NewJobRepository(pool postgres.PgxPool, logger *slog.Logger) *PostgresJobRepository {
	return &PostgresJobRepository{pool: pool, logger: logger}
}

/*
CreateJob persists a new job definition into the jobs.job table.

Parameters:
  - context: context.Context
  - job: *Job (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate id, or connectivity errors
*/
func (repository *PostgresJobRepository) CreateJob(context context.Context, job *Job) error {
	const query = `
		INSERT INTO jobs.job (id, name, schedule_type, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		job.ID,
		job.Name,
		string(job.Type),
		job.StartDate,
		job.EndDate,
		job.CreatedAt,
	)

	if err != nil {
		repository.logger.Error("job_repo_create_failed",
			slog.String("collection", "jobs.job"),
			slog.String("operation", "insert"),
			slog.Any("error", err),
		)
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("Job id is already scheduled")
		}
		return fmt.Errorf("postgres_job_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindJobByID retrieves a job definition by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Job: Hydrated job entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresJobRepository) FindJobByID(context context.Context, id string) (*Job, error) {
	const query = `
		SELECT id, name, schedule_type, start_date, end_date, created_at
		FROM jobs.job
		WHERE id = $1`

	job := &Job{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&job.ID,
		&job.Name,
		&job.Type,
		&job.StartDate,
		&job.EndDate,
		&job.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Job")
		}
		repository.logger.Error("job_repo_lookup_failed",
			slog.String("collection", "jobs.job"),
			slog.String("operation", "find_by_id"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("postgres_job_repo_find_by_id_failed: %w", err)
	}

	return job, nil
}

/*
ListJobs retrieves every persisted job definition, newest first.

Parameters:
  - context: context.Context

Returns:
  - []Job: May be empty, never nil on success
  - error: Execution errors
*/
func (repository *PostgresJobRepository) ListJobs(context context.Context) ([]Job, error) {
	const query = `
		SELECT id, name, schedule_type, start_date, end_date, created_at
		FROM jobs.job
		ORDER BY created_at DESC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		repository.logger.Error("job_repo_list_failed",
			slog.String("collection", "jobs.job"),
			slog.String("operation", "select"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("postgres_job_repo_list_failed: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Name, &job.Type, &job.StartDate, &job.EndDate, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_job_repo_scan_failed: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_job_repo_rows_failed: %w", err)
	}

	return jobs, nil
}

/*
CreateDelegation persists a delegate registration into jobs.delegation.

Parameters:
  - context: context.Context
  - delegation: *Delegation (Entity to persist)

Returns:
  - error: Execution errors
*/
func (repository *PostgresJobRepository) CreateDelegation(context context.Context, delegation *Delegation) error {
	const query = `
		INSERT INTO jobs.delegation (id, job_id, name, tools, schedule_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if delegation.CreatedAt.IsZero() {
		delegation.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		delegation.ID,
		delegation.JobID,
		delegation.Name,
		delegation.Tools,
		string(delegation.ScheduleType),
		delegation.CreatedAt,
	)

	if err != nil {
		repository.logger.Error("job_repo_create_delegation_failed",
			slog.String("collection", "jobs.delegation"),
			slog.String("operation", "insert"),
			slog.Any("error", err),
		)
		return fmt.Errorf("postgres_job_repo_create_delegation_failed: %w", err)
	}

	return nil
}

/*
ListDelegationsForJob retrieves the delegates registered against a job.

Parameters:
  - context: context.Context
  - jobID: string

Returns:
  - []Delegation: May be empty, never nil on success
  - error: Execution errors
*/
func (repository *PostgresJobRepository) ListDelegationsForJob(context context.Context, jobID string) ([]Delegation, error) {
	const query = `
		SELECT id, job_id, name, tools, schedule_type, created_at
		FROM jobs.delegation
		WHERE job_id = $1
		ORDER BY created_at ASC`

	rows, err := repository.pool.Query(context, query, jobID)
	if err != nil {
		repository.logger.Error("job_repo_list_delegations_failed",
			slog.String("collection", "jobs.delegation"),
			slog.String("operation", "select"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("postgres_job_repo_list_delegations_failed: %w", err)
	}
	defer rows.Close()

	delegations := []Delegation{}
	for rows.Next() {
		var delegation Delegation
		if err := rows.Scan(
			&delegation.ID,
			&delegation.JobID,
			&delegation.Name,
			&delegation.Tools,
			&delegation.ScheduleType,
			&delegation.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_job_repo_delegation_scan_failed: %w", err)
		}
		delegations = append(delegations, delegation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_job_repo_delegation_rows_failed: %w", err)
	}

	return delegations, nil
}
