package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ticketwatch/internal/model"
	"ticketwatch/internal/queue"
	"ticketwatch/internal/repositories"
)

var ErrCycleRunning = errors.New("check already running")

type Service struct {
	repo     repositories.KnownSetRepository
	notifier Notifier
	poller   *Poller
	detector *queue.Detector
	sources  []string

	// cycleMu serializes cycles so load/diff/save never interleave.
	cycleMu    sync.Mutex
	background sync.WaitGroup

	// base is cancelled on Shutdown and bounds cycles begun with Start.
	base       context.Context
	cancelBase context.CancelFunc

	statsMu sync.RWMutex
	last    CycleStats
}

func NewService(repo repositories.KnownSetRepository, notifier Notifier, poller *Poller, detector *queue.Detector, sources []string) *Service {
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:       repo,
		notifier:   notifier,
		poller:     poller,
		detector:   detector,
		sources:    sources,
		base:       base,
		cancelBase: cancel,
	}
}

// Run performs one cycle, waiting for a cycle already in progress to finish
// first. Errors are logged and returned.
func (s *Service) Run(ctx context.Context) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return s.runLocked(ctx)
}

// Start begins a cycle in the background unless one is already running,
// in which case it returns ErrCycleRunning. The cycle ends early if ctx is
// cancelled or the service is shut down.
func (s *Service) Start(ctx context.Context) error {
	if !s.cycleMu.TryLock() {
		return ErrCycleRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.base, cancel)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer s.cycleMu.Unlock()
		defer stop()
		defer cancel()
		_ = s.runLocked(runCtx)
	}()
	return nil
}

// Wait blocks until cycles begun with Start have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// Shutdown cancels cycles begun with Start and waits for them to return,
// giving up when ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancelBase()

	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) LastCycle() CycleStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.last.clone()
}

func (s *Service) runLocked(ctx context.Context) (err error) {
	stats := CycleStats{StartedAt: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during check: %v", r)
		}
		stats.FinishedAt = time.Now()
		if err != nil {
			stats.Error = err.Error()
			log.Printf("check error: %v", err)
		}
		s.statsMu.Lock()
		s.last = stats
		s.statsMu.Unlock()
	}()

	return s.check(ctx, &stats)
}

func (s *Service) check(ctx context.Context, stats *CycleStats) error {
	log.Printf("Checking %d sources", len(s.sources))

	known, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load known set: %w", err)
	}

	results := s.pollAll(ctx)

	var candidates []model.Listing
	for _, res := range results {
		stats.Sources = append(stats.Sources, newSourceStats(res))
		if res.Queued || res.Err != nil {
			continue
		}
		candidates = append(candidates, res.Listings...)
	}

	newItems := model.DiffNew(candidates, known)
	stats.NewListings = len(newItems)
	if len(newItems) == 0 {
		log.Printf("No new tickets. Checked at %s", time.Now().Format(time.DateTime))
		return nil
	}

	known.Merge(newItems)
	if err := s.repo.Save(ctx, known); err != nil {
		return fmt.Errorf("save known set: %w", err)
	}
	stats.Saved = true

	for _, item := range newItems {
		if err := s.notifier.NotifyNewListing(ctx, item); err != nil {
			stats.NotifyFailures++
			log.Printf("[%s] notify failed for listing %s: %v", item.Source, item.ID, err)
		}
	}

	log.Printf("New tickets detected: %d (known set now %d)", len(newItems), known.Len())
	return nil
}

// pollAll polls every source concurrently. Results keep source order.
// Queue alerts are dispatched as soon as a source reports, independent of
// the listing diff.
func (s *Service) pollAll(ctx context.Context) []PollResult {
	results := make([]PollResult, len(s.sources))
	group, gctx := errgroup.WithContext(ctx)

	for i, source := range s.sources {
		i, source := i, source
		group.Go(func() error {
			res := s.poller.Poll(gctx, source)
			results[i] = res
			s.observeQueue(gctx, res)
			return nil
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("poll group error: %v", err)
	}
	return results
}

// A failed poll says nothing about the waiting room, so it leaves the
// detector untouched.
func (s *Service) observeQueue(ctx context.Context, res PollResult) {
	if res.Err != nil {
		return
	}
	if !s.detector.Observe(res.Source, res.Queued) {
		if res.Queued {
			st := s.detector.State(res.Source)
			log.Printf("[%s] queue counter at %d", res.Source, st.ConsecutiveDetections)
		}
		return
	}

	log.Printf("[%s] sending queue alert after %d consecutive detections", res.Source, queue.AlertThreshold)
	if err := s.notifier.NotifyQueueDetected(ctx, res.Source); err != nil {
		log.Printf("[%s] queue alert failed: %v", res.Source, err)
	}
}
