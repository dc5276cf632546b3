package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"algotutor/internal/common"
	"algotutor/internal/domain/model"
)

const (
	backendAPIRoot   = "/api/"
	questionListPath = "/api/v1/question"
	submitPath       = "/api/v1/code/submit"
	statusPathPrefix = "/api/v1/code/status/"
)

// StatusCache stores terminal submission snapshots keyed by submission id.
type StatusCache interface {
	Get(ctx context.Context, submissionID string) ([]byte, bool, error)
	Put(ctx context.Context, submissionID string, body []byte) error
}

// ForwardObserver is told about every successfully forwarded call.
// Observers must not fail the request; they log their own errors.
type ForwardObserver interface {
	ObserveForward(ctx context.Context, env *Envelope, body []byte)
}

// Envelope is one inbound call on its way to the backend. Paths are kept
// percent-encoded so that escaped separators stay inside their segment.
type Envelope struct {
	InboundPath   string
	BackendPath   string
	Method        string
	Authorization string
	RawQuery      string
	Body          []byte
}

type ForwardResult struct {
	Body       []byte
	Normalized bool
	Cached     bool
}

type ProxyService struct {
	backendURL       *url.URL
	client           *http.Client
	placeholderToken string
	cache            StatusCache
	observers        []ForwardObserver
}

// NewProxyService builds the forwarding service. cache may be nil.
func NewProxyService(backendURL *url.URL, client *http.Client, placeholderToken string, cache StatusCache, observers ...ForwardObserver) *ProxyService {
	return &ProxyService{
		backendURL:       backendURL,
		client:           client,
		placeholderToken: placeholderToken,
		cache:            cache,
		observers:        observers,
	}
}

// RewritePath drops the first segment of an inbound path and re-roots the
// rest under /api/. A trailing slash survives; an empty rest yields /api/.
func RewritePath(inbound string) string {
	parts := strings.FieldsFunc(inbound, func(r rune) bool { return r == '/' })
	if len(parts) > 0 {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return backendAPIRoot
	}
	rewritten := backendAPIRoot + strings.Join(parts, "/")
	if strings.HasSuffix(inbound, "/") {
		rewritten += "/"
	}
	return rewritten
}

// SubmissionIDFromStatusPath extracts the unescaped {id} from an escaped
// /api/v1/code/status/{id}.
func SubmissionIDFromStatusPath(backendPath string) (string, bool) {
	if !strings.HasPrefix(backendPath, statusPathPrefix) {
		return "", false
	}
	segment := strings.Trim(strings.TrimPrefix(backendPath, statusPathPrefix), "/")
	if segment == "" || strings.Contains(segment, "/") {
		return "", false
	}
	id, err := url.PathUnescape(segment)
	if err != nil {
		return "", false
	}
	return id, true
}

func isQuestionList(backendPath string) bool {
	return strings.TrimSuffix(backendPath, "/") == questionListPath
}

func (s *ProxyService) Forward(ctx context.Context, env *Envelope) (*ForwardResult, error) {
	if env.Method != http.MethodGet && env.Method != http.MethodPost {
		return nil, fmt.Errorf("%s %s: %w", env.Method, env.InboundPath, common.ErrMethodNotAllowed)
	}
	if env.BackendPath == "" {
		env.BackendPath = RewritePath(env.InboundPath)
	}

	statusID, isStatus := SubmissionIDFromStatusPath(env.BackendPath)
	isStatus = isStatus && env.Method == http.MethodGet
	if isStatus && s.cache != nil {
		body, ok, err := s.cache.Get(ctx, statusID)
		if err != nil {
			slog.Warn("status cache lookup failed", "submission_id", statusID, "error", err)
		} else if ok {
			return &ForwardResult{Body: body, Cached: true}, nil
		}
	}

	unescaped, err := url.PathUnescape(env.BackendPath)
	if err != nil {
		return nil, fmt.Errorf("path %q: %w", env.InboundPath, common.ErrBadRequest)
	}
	target := *s.backendURL
	target.Path = unescaped
	target.RawPath = env.BackendPath
	target.RawQuery = ""
	var reqBody io.Reader
	if env.Method == http.MethodGet {
		target.RawQuery = env.RawQuery
	} else {
		reqBody = bytes.NewReader(env.Body)
	}

	slog.Debug("forwarding to backend", "method", env.Method, "url", target.String())

	req, err := http.NewRequestWithContext(ctx, env.Method, target.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	auth := env.Authorization
	if auth == "" {
		auth = "Bearer " + s.placeholderToken
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.NewUpstreamError(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s: %w", env.BackendPath, common.ErrMalformedBody)
	}

	result := &ForwardResult{Body: bytes.TrimSpace(raw)}
	if env.Method == http.MethodGet && isQuestionList(env.BackendPath) {
		result.Body = common.NormalizeList(raw)
		result.Normalized = true
	}

	if isStatus && s.cache != nil {
		s.cacheIfTerminal(ctx, statusID, result.Body)
	}
	for _, o := range s.observers {
		o.ObserveForward(ctx, env, result.Body)
	}
	return result, nil
}

func (s *ProxyService) cacheIfTerminal(ctx context.Context, submissionID string, body []byte) {
	var st struct {
		Status model.StatusTag `json:"status"`
	}
	if err := json.Unmarshal(body, &st); err != nil || st.Status == "" || !st.Status.IsTerminal() {
		return
	}
	if err := s.cache.Put(ctx, submissionID, body); err != nil {
		slog.Warn("status cache store failed", "submission_id", submissionID, "error", err)
	}
}
