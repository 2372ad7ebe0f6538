package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clan-hub/internal/config"
	"clan-hub/internal/model"

	"github.com/stretchr/testify/assert"
)

type fakeLifecycle struct {
	mu      sync.Mutex
	opens   []time.Time
	sweeps  int
	openErr error
}

func (f *fakeLifecycle) OpenNewPeriod(_ context.Context, now time.Time) (*model.SiegeWar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens = append(f.opens, now)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &model.SiegeWar{ID: len(f.opens), IsActive: true}, nil
}

func (f *fakeLifecycle) CloseExpiredPeriods(context.Context, time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 1, nil
}

func (f *fakeLifecycle) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opens), f.sweeps
}

func TestNextOpen(t *testing.T) {
	loc := time.UTC
	// 2026-10-15 is a Thursday.
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 10, 14, 12, 0, 0, 0, loc), time.Date(2026, 10, 15, 0, 0, 0, 0, loc)},
		{time.Date(2026, 10, 15, 0, 0, 0, 0, loc), time.Date(2026, 10, 22, 0, 0, 0, 0, loc)},
		{time.Date(2026, 10, 15, 9, 30, 0, 0, loc), time.Date(2026, 10, 22, 0, 0, 0, 0, loc)},
		{time.Date(2026, 10, 18, 23, 0, 0, 0, loc), time.Date(2026, 10, 22, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextOpen(tc.now, time.Thursday, 0, loc), tc.now.String())
	}
}

func TestNextOpenHonoursLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// Wednesday 16:00 UTC is Thursday 01:00 in Seoul, past the 00:00 slot.
	now := time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC)
	got := NextOpen(now, time.Thursday, 0, seoul)
	assert.Equal(t, time.Date(2026, 10, 22, 0, 0, 0, 0, seoul), got)
}

func TestTickErrorsAreSwallowed(t *testing.T) {
	lc := &fakeLifecycle{openErr: errors.New("db down")}
	s := New(lc, config.SiegeWarSchedule{OpenDay: time.Thursday})

	s.OpenNow()
	s.OpenNow()
	opens, _ := lc.counts()
	assert.Equal(t, 2, opens)
}

func TestStartSweepsPeriodicallyUntilStopped(t *testing.T) {
	lc := &fakeLifecycle{}
	s := New(lc, config.SiegeWarSchedule{
		OpenDay:       time.Thursday,
		CloseInterval: 5 * time.Millisecond,
	})
	s.Start()

	assert.Eventually(t, func() bool {
		_, sweeps := lc.counts()
		return sweeps >= 3
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	_, stopped := lc.counts()
	time.Sleep(30 * time.Millisecond)
	_, after := lc.counts()
	assert.Equal(t, stopped, after)

	s.SweepNow()
	_, after = lc.counts()
	assert.Equal(t, stopped, after)
}
