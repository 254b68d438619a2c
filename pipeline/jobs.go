package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/boardstream/minuted/logger"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job tracks one enqueued meeting run. Callers hold the handle and poll
// Status or block on Wait; the queue never loses a failure silently.
type Job struct {
	ID        uuid.UUID
	MeetingID uuid.UUID

	mu     sync.Mutex
	status JobStatus
	err    error
	done   chan struct{}
}

func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the run's error once the job has finished.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Wait blocks until the job finishes.
func (j *Job) Wait() {
	<-j.done
}

func (j *Job) set(status JobStatus, err error) {
	j.mu.Lock()
	j.status = status
	j.err = err
	j.mu.Unlock()
	if status == JobSucceeded || status == JobFailed {
		close(j.done)
	}
}

// Queue runs meetings through a bounded worker pool. One meeting's
// failure is recorded on its job handle and does not cancel the others.
type Queue struct {
	proc    *Processor
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *logger.Logger
	group   errgroup.Group
}

func NewQueue(proc *Processor, concurrency int, timeout time.Duration, log *logger.Logger) *Queue {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Queue{
		proc:    proc,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		log:     log,
	}
}

// Enqueue schedules the meeting and returns its job handle immediately.
// The run starts once a worker slot frees up and is bounded by the
// queue's per-meeting timeout.
func (q *Queue) Enqueue(ctx context.Context, meetingID uuid.UUID) *Job {
	job := &Job{
		ID:        uuid.New(),
		MeetingID: meetingID,
		status:    JobQueued,
		done:      make(chan struct{}),
	}

	q.group.Go(func() error {
		if err := q.sem.Acquire(ctx, 1); err != nil {
			job.set(JobFailed, err)
			return nil
		}
		defer q.sem.Release(1)

		runCtx := ctx
		if q.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, q.timeout)
			defer cancel()
		}

		job.set(JobRunning, nil)
		q.log.Info("job started", "job", job.ID, "meeting", meetingID)
		if err := q.proc.ProcessMeeting(runCtx, meetingID); err != nil {
			job.set(JobFailed, err)
			return nil
		}
		job.set(JobSucceeded, nil)
		return nil
	})
	return job
}

// Wait blocks until every enqueued job has finished.
func (q *Queue) Wait() {
	_ = q.group.Wait()
}
