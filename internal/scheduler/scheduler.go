package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler runs a check immediately and then every interval, measured from
// the previous trigger. A trigger that fires while a check is still running
// waits for it instead of overlapping. Panics are recovered and logged.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	interval time.Duration
	job      cron.Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(interval time.Duration, runner Runner) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(logger)),
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.job = cron.NewChain(
		cron.Recover(logger),
		cron.DelayIfStillRunning(logger),
	).Then(cron.FuncJob(s.run))
	return s
}

func (s *Scheduler) Start() error {
	log.Printf("Ticket check frequency set to %s", s.interval)
	s.cron.Schedule(cron.Every(s.interval), s.job)
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
	return nil
}

// Stop cancels the running check, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) run() {
	if s.ctx.Err() != nil {
		return
	}
	log.Printf("scheduled check triggered")
	if err := s.runner.Run(s.ctx); err != nil {
		log.Printf("scheduled check failed: %v", err)
	}
}
