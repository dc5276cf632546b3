package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"algotutor/internal/common"
	"algotutor/internal/common/security"
	"algotutor/internal/domain/model"
)

const maxUsernameLength = 64

type SessionService struct {
	ttl time.Duration
}

func NewSessionService(ttl time.Duration) *SessionService {
	return &SessionService{ttl: ttl}
}

type SessionRequest struct {
	Username string `json:"username"`
}

func (s *SessionService) CreateSession(_ context.Context, req SessionRequest) (*model.Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || len(username) > maxUsernameLength {
		return nil, common.ErrBadRequest
	}

	token, expiresAt, err := security.GenerateToken(username, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.Session{Username: username, Token: token, ExpiresAt: expiresAt}, nil
}
