package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clan-hub/internal/logger"
	"clan-hub/internal/model"

	"gorm.io/gorm"
)

const siegeWarTitle = "Siege War"

type SiegeWarService struct {
	db       *gorm.DB
	notifier Notifier
	metrics  *Metrics
	eventDay time.Weekday
	loc      *time.Location
	now      func() time.Time
}

func NewSiegeWarService(db *gorm.DB, notifier Notifier, metrics *Metrics, eventDay time.Weekday, loc *time.Location) *SiegeWarService {
	if loc == nil {
		loc = time.UTC
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &SiegeWarService{
		db:       db,
		notifier: notifier,
		metrics:  metrics,
		eventDay: eventDay,
		loc:      loc,
		now:      time.Now,
	}
}

// WindowClose returns 23:59:59 (in loc) of the next eventDay on or after now.
// Opening on the event day itself targets that same day.
func WindowClose(now time.Time, eventDay time.Weekday, loc *time.Location) time.Time {
	local := now.In(loc)
	ahead := (int(eventDay) - int(local.Weekday()) + 7) % 7
	d := local.AddDate(0, 0, ahead)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
}

// OpenNewPeriod deactivates every active period and opens a new one. The
// broadcast happens after commit and cannot fail the call.
func (s *SiegeWarService) OpenNewPeriod(ctx context.Context, now time.Time) (*model.SiegeWar, error) {
	closes := WindowClose(now, s.eventDay, s.loc)
	war := model.SiegeWar{
		WindowOpensAt:  now.UTC(),
		WindowClosesAt: closes.UTC(),
		IsActive:       true,
	}

	var closed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SiegeWar{}).Where("is_active = ?", true).Update("is_active", false)
		if res.Error != nil {
			return fmt.Errorf("deactivate siege wars: %w", res.Error)
		}
		closed = res.RowsAffected
		if err := tx.Create(&war).Error; err != nil {
			return fmt.Errorf("insert siege war: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.WarsOpened.Inc()
	s.metrics.WarsClosed.Add(float64(closed))
	logger.Info("siegewar.opened", "id", war.ID, "closes_at", war.WindowClosesAt, "deactivated", closed)

	s.announce(ctx, fmt.Sprintf("Siege War on %s. Submit your response before the window closes.",
		closes.Format("Mon, Jan 2")))
	return &war, nil
}

func (s *SiegeWarService) announce(ctx context.Context, body string) {
	if s.notifier == nil {
		return
	}
	tokens, err := RosterTokens(ctx, s.db)
	if err != nil {
		logger.Warn("siegewar.announce_skipped", "err", err)
		return
	}
	s.notifier.SendBulk(ctx, tokens, siegeWarTitle, body)
}

// CloseExpiredPeriods deactivates active periods whose window closed before now.
func (s *SiegeWarService) CloseExpiredPeriods(ctx context.Context, now time.Time) (int64, error) {
	var active []model.SiegeWar
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&active).Error; err != nil {
		return 0, fmt.Errorf("query active siege wars: %w", err)
	}
	var ids []int
	for _, w := range active {
		if w.WindowClosesAt.Before(now) {
			ids = append(ids, w.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Model(&model.SiegeWar{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("close siege wars: %w", res.Error)
	}
	s.metrics.WarsClosed.Add(float64(res.RowsAffected))
	logger.Info("siegewar.expired", "ids", ids, "closed", res.RowsAffected)
	return res.RowsAffected, nil
}

// GetActivePeriod returns nil, nil when no period is active. A period whose
// window has passed counts as inactive even before the sweep flips it, so
// callers never see a period SubmitResponse would refuse.
func (s *SiegeWarService) GetActivePeriod(ctx context.Context) (*model.SiegeWar, error) {
	var war model.SiegeWar
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id DESC").First(&war).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active siege war: %w", err)
	}
	if s.now().After(war.WindowClosesAt) {
		return nil, nil
	}
	return &war, nil
}

func (s *SiegeWarService) ManualOpen(ctx context.Context) (*model.SiegeWar, error) {
	return s.OpenNewPeriod(ctx, s.now())
}

// ManualClose deactivates one period; closing an inactive period is a no-op.
func (s *SiegeWarService) ManualClose(ctx context.Context, id int) (*model.SiegeWar, error) {
	var war model.SiegeWar
	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findWar(tx, id, &war); err != nil {
			return err
		}
		if !war.IsActive {
			return nil
		}
		if err := tx.Model(&war).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("close siege war: %w", err)
		}
		war.IsActive = false
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.WarsClosed.Inc()
		logger.Info("siegewar.closed", "id", war.ID)
	}
	return &war, nil
}

func (s *SiegeWarService) History(ctx context.Context) ([]model.SiegeWar, error) {
	var wars []model.SiegeWar
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&wars).Error; err != nil {
		return nil, fmt.Errorf("list siege wars: %w", err)
	}
	return wars, nil
}

func findWar(tx *gorm.DB, id int, war *model.SiegeWar) error {
	err := tx.First(war, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: siege war %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("query siege war: %w", err)
	}
	return nil
}
