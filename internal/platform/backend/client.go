// Package backend is a typed HTTP client for the judging backend's
// question and submission API. It works against the backend directly or
// through the gateway, which exposes the same paths.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"algotutor/internal/common"
	"algotutor/internal/domain/model"
)

const (
	DefaultAPIPrefix = "/api"
	placeholderToken = "test"

	rateLimitedMessage = "Rate limited, please try again"
	rateLimitBackoff   = time.Second
	unexpectedMessage  = "An unexpected error occurred"
)

var ErrUnexpected = errors.New("unexpected response from backend")

// APIError is a failed call with a message fit for display.
type APIError struct {
	Message    string
	Status     int           // 0 when no response was received
	RetryAfter time.Duration // non-zero when the caller should back off before retrying
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	hc        *http.Client
	baseURL   string
	apiPrefix string
	token     string
}

type Option func(*Client)

// WithToken sets the bearer token. Without one the placeholder token is sent.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func NewClient(baseURL, apiPrefix string, timeout time.Duration, opts ...Option) *Client {
	if apiPrefix == "" {
		apiPrefix = DefaultAPIPrefix
	}
	c := &Client{
		hc:        &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiPrefix: "/" + strings.Trim(apiPrefix, "/"),
		token:     placeholderToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListQuestions(ctx context.Context) ([]model.Question, error) {
	raw, err := c.do(ctx, http.MethodGet, c.apiPrefix+"/v1/question/", nil, nil)
	if err != nil {
		return nil, err
	}
	questions := []model.Question{}
	if err := json.Unmarshal(common.NormalizeList(raw), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return questions, nil
}

func (c *Client) GetQuestion(ctx context.Context, slug string) (*model.Question, error) {
	var q model.Question
	if err := c.doJSON(ctx, http.MethodGet, c.apiPrefix+"/v1/question/by-slug/"+url.PathEscape(slug), nil, nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) Submit(ctx context.Context, req model.SubmitRequest) (*model.SubmissionStatus, error) {
	var st model.SubmissionStatus
	if err := c.doJSON(ctx, http.MethodPost, c.apiPrefix+"/v1/code/submit", nil, req, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Status(ctx context.Context, submissionID string) (*model.SubmissionStatus, error) {
	var st model.SubmissionStatus
	path := c.apiPrefix + "/v1/code/status/" + url.PathEscape(submissionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// VoiceToken asks the gateway for a voice-room access token.
func (c *Client) VoiceToken(ctx context.Context, name, room string) (string, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("room", room)
	raw, err := c.do(ctx, http.MethodGet, c.apiPrefix+"/token", q, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// CreateSession asks the gateway for a signed session token.
func (c *Client) CreateSession(ctx context.Context, username string) (*model.Session, error) {
	var s model.Session
	body := map[string]string{"username": username}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/session", nil, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	raw, err := c.do(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Message: err.Error(), Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiErrorFrom(resp.StatusCode, raw)
	}
	return raw, nil
}

func apiErrorFrom(status int, raw []byte) *APIError {
	if status == http.StatusInternalServerError {
		return &APIError{Message: rateLimitedMessage, Status: status, RetryAfter: rateLimitBackoff}
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return &APIError{Message: payload.Message, Status: status}
		}
		if payload.Error != "" {
			return &APIError{Message: payload.Error, Status: status}
		}
	}
	return &APIError{Message: fmt.Sprintf("Request failed with status code %d", status), Status: status}
}

// Message renders any error from this package the way it is shown to users.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return unexpectedMessage
}
