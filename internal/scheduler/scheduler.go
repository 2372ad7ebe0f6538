package scheduler

import (
	"context"
	"sync"
	"time"

	"clan-hub/internal/config"
	"clan-hub/internal/logger"
	"clan-hub/internal/model"
)

// Lifecycle is the part of the Siege War service the timers drive.
type Lifecycle interface {
	OpenNewPeriod(ctx context.Context, now time.Time) (*model.SiegeWar, error)
	CloseExpiredPeriods(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler opens a period once a week and sweeps expired periods on a fixed
// interval. A failed tick is logged and dropped; the next tick retries.
type Scheduler struct {
	lc       Lifecycle
	schedule config.SiegeWarSchedule
	now      func() time.Time
	timeout  time.Duration

	mu         sync.Mutex
	closed     bool
	openTimer  *time.Timer
	closeTimer *time.Timer
	wg         sync.WaitGroup
}

func New(lc Lifecycle, schedule config.SiegeWarSchedule) *Scheduler {
	if schedule.Location == nil {
		schedule.Location = time.UTC
	}
	if schedule.CloseInterval <= 0 {
		schedule.CloseInterval = 10 * time.Minute
	}
	return &Scheduler{lc: lc, schedule: schedule, now: time.Now, timeout: time.Minute}
}

// NextOpen returns the first open instant strictly after now.
func NextOpen(now time.Time, day time.Weekday, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	ahead := (int(day) - int(local.Weekday()) + 7) % 7
	d := local.AddDate(0, 0, ahead)
	next := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Start runs one close sweep immediately and arms both timers.
func (s *Scheduler) Start() {
	s.SweepNow()
	s.scheduleOpen()
	s.scheduleClose()
	logger.Info("scheduler.started",
		"next_open", NextOpen(s.now(), s.schedule.OpenDay, s.schedule.OpenHour, s.schedule.Location),
		"close_interval", s.schedule.CloseInterval.String())
}

// Stop disarms the timers and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	if s.openTimer != nil {
		s.openTimer.Stop()
	}
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) scheduleOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.openTimer != nil {
		s.openTimer.Stop()
	}
	wait := time.Until(NextOpen(s.now(), s.schedule.OpenDay, s.schedule.OpenHour, s.schedule.Location))
	s.openTimer = time.AfterFunc(wait, func() {
		defer s.scheduleOpen()
		s.OpenNow()
	})
}

func (s *Scheduler) scheduleClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.closeTimer = time.AfterFunc(s.schedule.CloseInterval, func() {
		defer s.scheduleClose()
		s.SweepNow()
	})
}

// OpenNow runs the weekly open tick.
func (s *Scheduler) OpenNow() {
	if !s.begin() {
		return
	}
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	war, err := s.lc.OpenNewPeriod(ctx, s.now())
	if err != nil {
		logger.Error("scheduler.open_failed", "err", err)
		return
	}
	logger.Info("scheduler.opened", "id", war.ID)
}

// SweepNow runs the close tick.
func (s *Scheduler) SweepNow() {
	if !s.begin() {
		return
	}
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.lc.CloseExpiredPeriods(ctx, s.now())
	if err != nil {
		logger.Error("scheduler.sweep_failed", "err", err)
		return
	}
	if n > 0 {
		logger.Info("scheduler.swept", "closed", n)
	}
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}
