package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockpilot/internal/messaging"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/jwt"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// SessionIdleTimeout ends a session that has not sent a heartbeat for this long
const SessionIdleTimeout = 5 * time.Minute

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	Heartbeat(ctx context.Context, actor model.Actor) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	users  repository.UserRepository
	tokens *jwt.Manager
	events messaging.Publisher
	clock  Clock
	log    logger.Logger
}

func NewAuthService(users repository.UserRepository, tokens *jwt.Manager, events messaging.Publisher, clock Clock, log logger.Logger) AuthService {
	if clock == nil {
		clock = time.Now
	}
	return &authService{users: users, tokens: tokens, events: events, clock: clock, log: log.Named("auth")}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// a fresh token version invalidates every token issued before this login
	version := uuid.New().String()
	now := s.clock()
	if err := s.users.UpdateSession(ctx, user.ID, version, now); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.PrivilegeCodes(), version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.Info("user logged in", zap.String("email", user.Email))

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// rotating the version logs out every open session
	user.TokenVersion = uuid.New().String()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	// a missing last-seen stamp is treated as idle so the user logs in again
	if user.LastSeenAt == nil || s.clock().Sub(*user.LastSeenAt) > SessionIdleTimeout {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

// Heartbeat refreshes the idle timer and tells dashboards the user is online
func (s *authService) Heartbeat(ctx context.Context, actor model.Actor) error {
	id, err := uuid.Parse(actor.ID)
	if err != nil {
		return ErrUserNotFound
	}
	now := s.clock()
	if err := s.users.UpdateLastSeen(ctx, id, now); err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	publish(ctx, s.events, s.log, newEvent(now, model.EventUserStatus, actor.ID, "", actor, map[string]interface{}{
		"user_id":      actor.ID,
		"status":       "online",
		"last_seen_at": now,
	}))
	return nil
}
