package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Schedules holds the cron spec of each job; an empty spec disables the job.
type Schedules struct {
	Escrow   string
	Payments string
	Cleanup  string
}

type Scheduler struct {
	cron      *cron.Cron
	jobs      *Jobs
	logger    *slog.Logger
	schedules Schedules
}

func NewScheduler(jobs *Jobs, logger *slog.Logger, schedules Schedules) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))
	return &Scheduler{cron: c, jobs: jobs, logger: logger, schedules: schedules}
}

// Start registers the jobs and starts the cron loop. It returns the number of jobs scheduled.
func (s *Scheduler) Start() int {
	n := 0
	for _, j := range []struct {
		name, spec string
		fn         func()
	}{
		{"escrow auto-release", s.schedules.Escrow, s.jobs.ReleaseEscrow},
		{"payment abandon", s.schedules.Payments, s.jobs.AbandonPayments},
		{"secret purge", s.schedules.Cleanup, s.jobs.PurgeSecrets},
	} {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			s.logger.Error("failed to schedule job", "job", j.name, "schedule", j.spec, "error", err)
			continue
		}
		s.logger.Info("scheduled job", "job", j.name, "schedule", j.spec)
		n++
	}
	s.cron.Start()
	return n
}

// Stop stops scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
