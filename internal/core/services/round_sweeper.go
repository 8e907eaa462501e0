package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RoundSweeper periodically closes rounds whose deadline passed, so idle
// purses still move on and their lapsed rounds land in history.
type RoundSweeper struct {
	purses   *PurseService
	metrics  *Metrics
	schedule string
	timeout  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewRoundSweeper creates a sweeper for schedule (standard cron spec or @every)
func NewRoundSweeper(purses *PurseService, metrics *Metrics, schedule string, timeout time.Duration) *RoundSweeper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RoundSweeper{
		purses:   purses,
		metrics:  metrics,
		schedule: schedule,
		timeout:  timeout,
	}
}

// Start schedules the sweep
func (s *RoundSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	log.Printf("🚀 RoundSweeper started [%s]", s.schedule)
	return nil
}

// Stop unschedules the sweep and waits for a running one to finish
func (s *RoundSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	log.Println("🛑 RoundSweeper stopped")
}

// Sweep advances every live purse once and returns the rounds closed
func (s *RoundSweeper) Sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	closed, err := s.purses.AdvanceAll(ctx)
	s.metrics.sweepFinished(time.Since(started).Seconds(), closed)

	if err != nil {
		log.Printf("❌ Round sweep error: %v", err)
	}
	if closed > 0 {
		log.Printf("⏰ Closed %d lapsed rounds", closed)
	}
	return closed
}
