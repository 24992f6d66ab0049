package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-co-op/gocron"
)

type Schedule int

const (
	Hourly Schedule = iota
	Daily           // 03:00 UTC
)

func (s Schedule) String() string {
	switch s {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	default:
		return fmt.Sprintf("schedule(%d)", int(s))
	}
}

// Job is a unit of periodic maintenance run by the scheduler.
type Job interface {
	Name() string
	Execute(ctx context.Context) error
	Schedule() Schedule
}

type SchedulerService struct {
	scheduler *gocron.Scheduler
	jobs      map[string]Job
	log       logger.Logger
	started   bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSchedulerService() *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	return &SchedulerService{
		scheduler: scheduler,
		jobs:      make(map[string]Job),
		log:       logger.New("SchedulerService"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *SchedulerService) run(ctx context.Context, job Job) error {
	log := s.log.Function("run")

	started := time.Now()
	log.Info("Running job", "job", job.Name())
	if err := job.Execute(ctx); err != nil {
		return log.Err("Job failed", err, "job", job.Name(), "duration", time.Since(started))
	}

	log.Info("Job finished", "job", job.Name(), "duration", time.Since(started))
	return nil
}

func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	if _, exists := s.jobs[job.Name()]; exists {
		return log.Error("job already registered", "job", job.Name())
	}

	var every *gocron.Scheduler
	switch job.Schedule() {
	case Hourly:
		every = s.scheduler.Every(1).Hour()
	case Daily:
		every = s.scheduler.Every(1).Day().At("03:00")
	default:
		return log.Error("unsupported job schedule", "job", job.Name(), "schedule", job.Schedule())
	}

	if _, err := every.Tag(job.Name()).Do(func() {
		_ = s.run(s.ctx, job)
	}); err != nil {
		return log.Err("failed to register job", err, "job", job.Name())
	}

	s.jobs[job.Name()] = job
	log.Info("Job registered", "job", job.Name(), "schedule", job.Schedule().String())
	return nil
}

func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Start")

	if s.started {
		return nil
	}

	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler not started")
		return nil
	}

	s.scheduler.StartAsync()
	s.started = true

	for _, job := range s.scheduler.Jobs() {
		log.Info("Job scheduled", "tags", job.Tags(), "nextRun", job.NextRun())
	}

	return nil
}

func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.cancel()
	s.scheduler.Stop()
	s.started = false

	s.log.Function("Stop").Info("Scheduler stopped")
	return nil
}

func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *SchedulerService) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *SchedulerService) RunNow(ctx context.Context, jobName string) error {
	s.mu.Lock()
	job, ok := s.jobs[jobName]
	s.mu.Unlock()

	if !ok {
		return s.log.Function("RunNow").Error("job not found", "job", jobName)
	}

	return s.run(ctx, job)
}
