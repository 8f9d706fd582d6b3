package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/spendscan/internal/jobs"
	"github.com/dvloznov/spendscan/internal/logger"
)

// DefaultRetention is how long finished jobs are kept by the janitor.
const DefaultRetention = 24 * time.Hour

// Store is an in-memory implementation of JobStore.
// It is safe for concurrent use. Jobs go in and come out as copies, so a
// worker updating its job never races a reader of the same record.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.AnalyzeStatementJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.AnalyzeStatementJob),
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.AnalyzeStatementJob) error {
	if job == nil || job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	s.jobs[job.JobID] = clone(job)
	s.mu.Unlock()
	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.AnalyzeStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: %w: %s", jobs.ErrJobNotFound, jobID)
	}
	return clone(job), nil
}

// ListJobs implements the JobStore interface. Jobs are ordered newest first,
// ties broken by ID so pages are stable.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.AnalyzeStatementJob, error) {
	s.mu.RLock()
	matched := make([]*jobs.AnalyzeStatementJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if matches(filter, job) {
			matched = append(matched, clone(job))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.JobID < b.JobID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return page(matched, filter.Offset, filter.Limit), nil
}

// UpdateJobStatus implements the JobStore interface. An empty errorMsg keeps
// the previous error text.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: %w: %s", jobs.ErrJobNotFound, jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

// Prune removes completed and failed jobs that finished before cutoff and
// returns how many were removed. Pending, running and retrying jobs are kept.
func (s *Store) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if !finished(job.Status) || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes finished jobs older than retention every interval until
// ctx is cancelled.
func (s *Store) RunJanitor(ctx context.Context, interval, retention time.Duration) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Prune(now.Add(-retention)); n > 0 {
				log.Debug().Int("removed", n).Msg("Pruned finished jobs")
			}
		}
	}
}

func finished(status jobs.JobStatus) bool {
	return status == jobs.JobStatusCompleted || status == jobs.JobStatusFailed
}

func matches(f jobs.JobFilter, job *jobs.AnalyzeStatementJob) bool {
	if f.GCSURI != "" && job.GCSURI != f.GCSURI {
		return false
	}
	if f.Status != "" && job.Status != f.Status {
		return false
	}
	return true
}

func page(list []*jobs.AnalyzeStatementJob, offset, limit int) []*jobs.AnalyzeStatementJob {
	if offset >= len(list) {
		return []*jobs.AnalyzeStatementJob{}
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// clone copies the job including its timestamp pointers. Result is shared:
// it is written once when the job completes and never modified after.
func clone(job *jobs.AnalyzeStatementJob) *jobs.AnalyzeStatementJob {
	c := *job
	if job.StartedAt != nil {
		t := *job.StartedAt
		c.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

var _ jobs.JobStore = (*Store)(nil)
