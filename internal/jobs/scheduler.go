package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

type Schedule struct {
	OverdueEvery time.Duration
	// Hours maps a daily job name to the local hour it runs at.
	Hours map[string]int
}

// Scheduler runs the jobs in background goroutines until Close.
type Scheduler struct {
	Jobs     *Jobs
	Schedule Schedule

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewScheduler(j *Jobs, s Schedule) *Scheduler {
	return &Scheduler{Jobs: j, Schedule: s}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.stop != nil {
		close(s.stop)
		s.wg.Wait()
	}
	s.stop = make(chan struct{})
	if s.Schedule.OverdueEvery > 0 {
		s.wg.Add(1)
		go s.every(ctx, s.Schedule.OverdueEvery, Overdue)
	}
	for name, hour := range s.Schedule.Hours {
		s.wg.Add(1)
		go s.daily(ctx, hour, name)
	}
}

func (s *Scheduler) Close() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.stop = nil
}

func (s *Scheduler) every(ctx context.Context, d time.Duration, name string) {
	defer s.wg.Done()
	s.run(ctx, name)
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, name)
		}
	}
}

func (s *Scheduler) daily(ctx context.Context, hour int, name string) {
	defer s.wg.Done()
	for {
		timer := time.NewTimer(untilHour(s.Jobs.Now().In(s.Jobs.Loc), hour))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.run(ctx, name)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, name string) {
	if _, err := s.Jobs.Run(ctx, name); err != nil {
		log.Printf("ERROR job %s: %v", name, err)
	}
}

// untilHour is the wait from now to the next occurrence of hour:00.
func untilHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
