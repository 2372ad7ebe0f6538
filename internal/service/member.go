package service

import (
	"context"
	"errors"
	"fmt"

	"clan-hub/internal/model"

	"gorm.io/gorm"
)

type MemberService struct{ db *gorm.DB }

func NewMemberService(db *gorm.DB) *MemberService { return &MemberService{db: db} }

func (s *MemberService) Roster(ctx context.Context) ([]model.Member, error) {
	return s.listByStatus(ctx, model.StatusApproved)
}

func (s *MemberService) Pending(ctx context.Context) ([]model.Member, error) {
	return s.listByStatus(ctx, model.StatusPending)
}

func (s *MemberService) listByStatus(ctx context.Context, status string) ([]model.Member, error) {
	var members []model.Member
	if err := s.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list %s members: %w", status, err)
	}
	return members, nil
}

func (s *MemberService) Approve(ctx context.Context, id int) (*model.Member, error) {
	return s.decide(ctx, id, model.StatusApproved)
}

func (s *MemberService) Reject(ctx context.Context, id int) (*model.Member, error) {
	return s.decide(ctx, id, model.StatusRejected)
}

// decide only moves PENDING applications; approved members are never demoted here.
func (s *MemberService) decide(ctx context.Context, id int, status string) (*model.Member, error) {
	var m model.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: member %d", ErrNotFound, id)
			}
			return fmt.Errorf("query member: %w", err)
		}
		if m.Status == status {
			return nil
		}
		if m.Status != model.StatusPending {
			return fmt.Errorf("%w: member %d is %s", ErrConflict, id, m.Status)
		}
		m.Status = status
		return tx.Model(&m).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemberService) SetPushToken(ctx context.Context, memberID int, token string) error {
	err := s.db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", memberID).Update("push_token", token).Error
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	return nil
}

// RosterTokens returns the push tokens of every approved member that has one.
func RosterTokens(ctx context.Context, db *gorm.DB) ([]string, error) {
	var tokens []string
	err := db.WithContext(ctx).Model(&model.Member{}).
		Where("status = ? AND push_token <> ''", model.StatusApproved).
		Order("id").Pluck("push_token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("query push tokens: %w", err)
	}
	return tokens, nil
}
