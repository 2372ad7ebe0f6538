package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clan-hub/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Member, error) {
	var m model.Member
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query member: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if m.Status != model.StatusApproved {
		return nil, ErrNotApproved
	}
	return &m, nil
}

// Register files a membership application; a leader has to approve it
// before the account can log in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Member, error) {
	if !req.GameClass.Valid() {
		return nil, fmt.Errorf("%w: unknown game class %q", ErrInvalidInput, req.GameClass)
	}
	m, err := NewMember(req.Username, req.Password, req.Nick, model.RoleMember, model.StatusPending)
	if err != nil {
		return nil, err
	}
	m.GameClass = string(req.GameClass)
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, req.Username)
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return m, nil
}

// NewMember builds a member row with a hashed password.
func NewMember(username, password, nick, role, status string) (*model.Member, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if nick == "" {
		nick = username
	}
	return &model.Member{
		Username: username,
		Password: string(hash),
		Nick:     nick,
		Role:     role,
		Status:   status,
	}, nil
}
