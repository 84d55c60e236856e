package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job interface that all scheduled jobs must implement
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Scheduler manages and runs the background jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.Mutex
	jobs      map[string]Job
	handles   map[string]gocron.Job
	running   bool
}

// NewScheduler creates a new job scheduler
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: scheduler,
		jobs:      make(map[string]Job),
		handles:   make(map[string]gocron.Job),
	}, nil
}

// Register adds a job to the scheduler
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, err := s.scheduler.NewJob(
		gocron.DurationJob(job.Interval()),
		gocron.NewTask(func() {
			s.runJob(job)
		}),
		gocron.WithName(job.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.jobs[job.Name()] = job
	s.handles[job.Name()] = handle
	log.Printf("✅ [SCHEDULER] Registered job '%s' every %v", job.Name(), job.Interval())
	return nil
}

// Start begins running all registered jobs on their intervals
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.scheduler.Start()
	log.Printf("🚀 [SCHEDULER] Started with %d jobs", len(s.jobs))
}

// runJob executes a job with logging; the interval bounds each run
func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), job.Interval())
	defer cancel()

	startTime := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", job.Name(), err)
		return
	}
	log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", job.Name(), time.Since(startTime))
}

// RunNow immediately runs a specific job, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		log.Printf("⚠️ [SCHEDULER] Job '%s' not found", name)
		return nil
	}
	return job.Run(ctx)
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [SCHEDULER] Shutdown error: %v", err)
		return
	}
	log.Println("🛑 [SCHEDULER] Stopped")
}

// JobStatus represents the status of a job
type JobStatus struct {
	Name        string    `json:"name"`
	Interval    string    `json:"interval"`
	NextRunTime time.Time `json:"next_run_time"`
}

// Status returns the status of all registered jobs
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := make([]JobStatus, 0, len(s.jobs))
	for name, job := range s.jobs {
		entry := JobStatus{Name: name, Interval: job.Interval().String()}
		if handle, ok := s.handles[name]; ok {
			if next, err := handle.NextRun(); err == nil {
				entry.NextRunTime = next
			}
		}
		status = append(status, entry)
	}
	return status
}
