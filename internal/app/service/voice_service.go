package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"algotutor/internal/common"
)

// VoiceService relays token requests to the external voice token issuer.
type VoiceService struct {
	tokenURL string
	client   *http.Client
}

func NewVoiceService(tokenURL string, client *http.Client) *VoiceService {
	return &VoiceService{tokenURL: tokenURL, client: client}
}

func (s *VoiceService) FetchToken(ctx context.Context, name, room string) (string, error) {
	if name == "" || room == "" {
		return "", fmt.Errorf("missing name or room: %w", common.ErrBadRequest)
	}

	u, err := url.Parse(s.tokenURL)
	if err != nil {
		return "", fmt.Errorf("parse token url: %w", err)
	}
	q := u.Query()
	q.Set("name", name)
	q.Set("room", room)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", common.NewUpstreamError(resp.StatusCode)
	}
	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(token), nil
}
