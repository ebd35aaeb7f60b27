package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/internal/remote"
)

// SessionService holds the platform credentials for this device. It is an
// injected object with an explicit login/logout lifecycle, never ambient
// package state. An empty token is a valid session: anonymous submission
// works for public surveys.
type SessionService interface {
	Login(ctx context.Context, username, password string) error
	Logout()
	Refresh(ctx context.Context) error
	AccessToken() string
	Authenticated() bool
}

type sessionService struct {
	client *remote.Client

	mu      sync.Mutex
	access  string
	refresh string
}

func NewSessionService(client *remote.Client) SessionService {
	return &sessionService{client: client}
}

func (s *sessionService) Login(ctx context.Context, username, password string) error {
	pair, err := s.client.ObtainToken(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Login failed")
		return fmt.Errorf("login failed: %w", err)
	}
	s.mu.Lock()
	s.access = pair.Access
	s.refresh = pair.Refresh
	s.mu.Unlock()
	log.Info().Str("username", username).Msg("Session established")
	return nil
}

func (s *sessionService) Logout() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()
	log.Info().Msg("Session cleared")
}

func (s *sessionService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refresh
	s.mu.Unlock()
	if refresh == "" {
		return fmt.Errorf("no refresh token held")
	}
	pair, err := s.client.RefreshToken(ctx, refresh)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	s.mu.Lock()
	s.access = pair.Access
	s.refresh = pair.Refresh
	s.mu.Unlock()
	return nil
}

func (s *sessionService) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *sessionService) Authenticated() bool {
	return s.AccessToken() != ""
}
