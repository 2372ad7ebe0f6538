package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clan-hub/internal/logger"
	"clan-hub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitResponse validates and stores the member's response, replacing any
// previous one for the same period. The pilot claim check and the write run
// in one transaction; uk_war_pilot_target rejects whatever still races past it.
func (s *SiegeWarService) SubmitResponse(ctx context.Context, warID, memberID int, req model.RespondRequest) (*model.SiegeWarResponse, error) {
	resp, err := buildResponse(warID, memberID, req)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var stored model.SiegeWarResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var war model.SiegeWar
		if err := findWar(tx, warID, &war); err != nil {
			return err
		}
		if !war.IsActive || now.After(war.WindowClosesAt) {
			return fmt.Errorf("%w: siege war %d is not active", ErrNotFound, warID)
		}

		// Locking reads: an owner leaving SHARED and a pilot claiming that owner
		// both lock the owner's row.
		var existing model.SiegeWarResponse
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("siege_war_id = ? AND member_id = ?", warID, memberID).First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("query response: %w", err)
		}

		if resp.ResponseType == model.ResponsePilot {
			if err := checkPilotTarget(tx, warID, memberID, *resp.PilotingForID); err != nil {
				return err
			}
		}

		if !found {
			if err := tx.Create(resp).Error; err != nil {
				return err
			}
		} else {
			if existing.ResponseType == model.ResponseShared && resp.ResponseType != model.ResponseShared {
				if n, err := countPilotsFor(tx, warID, memberID, 0); err != nil {
					return err
				} else if n > 0 {
					return fmt.Errorf("%w: your shared account is already piloted", ErrConflict)
				}
			}
			resp.ID = existing.ID
			if err := tx.Model(resp).Select("*").Omit("id", "created_at").Updates(resp).Error; err != nil {
				return err
			}
		}
		return tx.First(&stored, resp.ID).Error
	})
	if isDuplicate(err) {
		if resp.ResponseType == model.ResponsePilot {
			return nil, fmt.Errorf("%w: already piloted by someone else", ErrConflict)
		}
		return nil, fmt.Errorf("%w: response changed concurrently, retry", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Responses.WithLabelValues(string(stored.ResponseType)).Inc()
	logger.Info("siegewar.responded", "war", warID, "member", memberID, "type", stored.ResponseType)
	return &stored, nil
}

// buildResponse validates the payload and keeps only the fields that mean
// something for its response type.
func buildResponse(warID, memberID int, req model.RespondRequest) (*model.SiegeWarResponse, error) {
	if !req.ResponseType.Valid() {
		return nil, fmt.Errorf("%w: unknown response type %q", ErrInvalidInput, req.ResponseType)
	}
	if !req.Tag.Valid() {
		return nil, fmt.Errorf("%w: unknown tag %q", ErrInvalidInput, req.Tag)
	}
	if !req.PreferredClass.Valid() {
		return nil, fmt.Errorf("%w: unknown class %q", ErrInvalidInput, req.PreferredClass)
	}

	resp := &model.SiegeWarResponse{
		SiegeWarID:     warID,
		MemberID:       memberID,
		ResponseType:   req.ResponseType,
		Tag:            req.Tag,
		PreferredClass: req.PreferredClass,
	}
	switch req.ResponseType {
	case model.ResponseShared:
		if !req.SharedClass.Valid() {
			return nil, fmt.Errorf("%w: unknown shared class %q", ErrInvalidInput, req.SharedClass)
		}
		resp.GameID = req.GameID
		resp.Password = req.Password
		resp.SharedClass = req.SharedClass
	case model.ResponsePilot:
		if req.PilotingForID == nil {
			return nil, fmt.Errorf("%w: pilotingForId is required", ErrInvalidInput)
		}
		if *req.PilotingForID == memberID {
			return nil, fmt.Errorf("%w: cannot pilot your own account", ErrInvalidInput)
		}
		target := *req.PilotingForID
		resp.PilotingForID = &target
	}
	return resp, nil
}

func checkPilotTarget(tx *gorm.DB, warID, memberID, target int) error {
	var shared model.SiegeWarResponse
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("siege_war_id = ? AND member_id = ?", warID, target).First(&shared).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && shared.ResponseType != model.ResponseShared) {
		return fmt.Errorf("%w: no such shared account", ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("query shared account: %w", err)
	}

	n, err := countPilotsFor(tx, warID, target, memberID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: already piloted by someone else", ErrConflict)
	}
	return nil
}

// countPilotsFor counts PILOT responses claiming target, ignoring exceptMember.
// It is a locking read so it sees claims committed after the transaction began.
func countPilotsFor(tx *gorm.DB, warID, target, exceptMember int) (int64, error) {
	var n int64
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Model(&model.SiegeWarResponse{}).
		Where("siege_war_id = ? AND piloting_for_id = ? AND member_id <> ?", warID, target, exceptMember).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("query pilots: %w", err)
	}
	return n, nil
}

// isDuplicate also matches raw driver messages in case the dialect does not
// translate them.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}
