package service

import (
	"context"
	"errors"
	"fmt"

	"clan-hub/internal/model"

	"gorm.io/gorm"
)

// Report reads responses, roster gaps, open shares and counts of one period
// inside a single transaction.
func (s *SiegeWarService) Report(ctx context.Context, warID int) (*model.Report, error) {
	var report model.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var war model.SiegeWar
		if err := findWar(tx, warID, &war); err != nil {
			return err
		}
		if err := tx.Preload("Member").Where("siege_war_id = ?", warID).Order("id").Find(&report.Responses).Error; err != nil {
			return fmt.Errorf("list responses: %w", err)
		}
		summary, err := summarize(tx, warID)
		if err != nil {
			return err
		}
		report.Summary = *summary
		report.NotResponded = summary.NotResponded
		report.AvailableShares, err = availableShares(tx, warID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if report.Responses == nil {
		report.Responses = []model.SiegeWarResponse{}
	}
	return &report, nil
}

func (s *SiegeWarService) Summary(ctx context.Context, warID int) (*model.Summary, error) {
	var summary *model.Summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var war model.SiegeWar
		if err := findWar(tx, warID, &war); err != nil {
			return err
		}
		var err error
		summary, err = summarize(tx, warID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *SiegeWarService) AvailableShares(ctx context.Context, warID int) ([]model.AvailableShare, error) {
	var shares []model.AvailableShare
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var war model.SiegeWar
		if err := findWar(tx, warID, &war); err != nil {
			return err
		}
		var err error
		shares, err = availableShares(tx, warID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// Current returns the active period and the member's response to it; either
// may be nil.
func (s *SiegeWarService) Current(ctx context.Context, memberID int) (*model.SiegeWar, *model.SiegeWarResponse, error) {
	war, err := s.GetActivePeriod(ctx)
	if err != nil || war == nil {
		return nil, nil, err
	}
	var resp model.SiegeWarResponse
	err = s.db.WithContext(ctx).Where("siege_war_id = ? AND member_id = ?", war.ID, memberID).First(&resp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return war, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query response: %w", err)
	}
	return war, &resp, nil
}

func summarize(tx *gorm.DB, warID int) (*model.Summary, error) {
	var sum model.Summary
	if err := tx.Model(&model.Member{}).Where("status = ?", model.StatusApproved).Count(&sum.Total).Error; err != nil {
		return nil, fmt.Errorf("count roster: %w", err)
	}
	if err := tx.Model(&model.SiegeWarResponse{}).Where("siege_war_id = ?", warID).
		Distinct("member_id").Count(&sum.Responded).Error; err != nil {
		return nil, fmt.Errorf("count responded: %w", err)
	}

	var rows []struct {
		ResponseType model.ResponseType
		N            int64
	}
	if err := tx.Model(&model.SiegeWarResponse{}).Select("response_type, COUNT(*) AS n").
		Where("siege_war_id = ?", warID).Group("response_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	for _, r := range rows {
		switch r.ResponseType {
		case model.ResponseConfirmed:
			sum.Confirmed = r.N
		case model.ResponseShared:
			sum.Shared = r.N
		case model.ResponsePilot:
			sum.Pilots = r.N
		case model.ResponseAbsent:
			sum.Absent = r.N
		}
	}

	var missing []model.Member
	responded := tx.Model(&model.SiegeWarResponse{}).Select("member_id").Where("siege_war_id = ?", warID)
	if err := tx.Where("status = ?", model.StatusApproved).Where("id NOT IN (?)", responded).
		Order("id").Find(&missing).Error; err != nil {
		return nil, fmt.Errorf("list not responded: %w", err)
	}
	sum.NotResponded = make([]model.RosterEntry, 0, len(missing))
	for _, m := range missing {
		sum.NotResponded = append(sum.NotResponded, model.RosterEntry{ID: m.ID, Nick: m.Nick, GameClass: m.GameClass})
	}
	return &sum, nil
}

// availableShares lists unclaimed SHARED responses in creation order.
func availableShares(tx *gorm.DB, warID int) ([]model.AvailableShare, error) {
	claimed := tx.Model(&model.SiegeWarResponse{}).Select("piloting_for_id").
		Where("siege_war_id = ? AND response_type = ? AND piloting_for_id IS NOT NULL", warID, model.ResponsePilot)

	var shared []model.SiegeWarResponse
	if err := tx.Preload("Member").
		Where("siege_war_id = ? AND response_type = ?", warID, model.ResponseShared).
		Where("member_id NOT IN (?)", claimed).
		Order("id").Find(&shared).Error; err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	out := make([]model.AvailableShare, 0, len(shared))
	for _, r := range shared {
		share := model.AvailableShare{
			ResponseID:  r.ID,
			MemberID:    r.MemberID,
			SharedClass: r.SharedClass,
			Tag:         r.Tag,
		}
		if r.Member != nil {
			share.Nick = r.Member.Nick
			share.GameClass = r.Member.GameClass
		}
		out = append(out, share)
	}
	return out, nil
}
