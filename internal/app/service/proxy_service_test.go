package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"algotutor/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStatusCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStatusCache() *memoryStatusCache {
	return &memoryStatusCache{data: map[string][]byte{}}
}

func (c *memoryStatusCache) Get(_ context.Context, id string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[id]
	return b, ok, nil
}

func (c *memoryStatusCache) Put(_ context.Context, id string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = body
	return nil
}

type recordingObserver struct {
	envs   []*Envelope
	bodies []string
}

func (o *recordingObserver) ObserveForward(_ context.Context, env *Envelope, body []byte) {
	o.envs = append(o.envs, env)
	o.bodies = append(o.bodies, string(body))
}

func newTestProxy(t *testing.T, h http.HandlerFunc, cache StatusCache, observers ...ForwardObserver) *ProxyService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewProxyService(u, srv.Client(), "test", cache, observers...)
}

func TestRewritePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/proxy/v1/question/", "/api/v1/question/"},
		{"/proxy/v1/question", "/api/v1/question"},
		{"/api/v1/code/status/abc", "/api/v1/code/status/abc"},
		{"/proxy", "/api/"},
		{"/proxy/", "/api/"},
		{"", "/api/"},
		{"/proxy//v1///question/", "/api/v1/question/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RewritePath(tt.in))
		})
	}
}

func TestSubmissionIDFromStatusPath(t *testing.T) {
	id, ok := SubmissionIDFromStatusPath("/api/v1/code/status/abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = SubmissionIDFromStatusPath("/api/v1/code/status/abc/")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = SubmissionIDFromStatusPath("/api/v1/code/status/")
	assert.False(t, ok)
	_, ok = SubmissionIDFromStatusPath("/api/v1/code/submit")
	assert.False(t, ok)

	id, ok = SubmissionIDFromStatusPath("/api/v1/code/status/a%2Fb")
	assert.True(t, ok)
	assert.Equal(t, "a/b", id)
	_, ok = SubmissionIDFromStatusPath("/api/v1/code/status/a/b")
	assert.False(t, ok)
	_, ok = SubmissionIDFromStatusPath("/api/v1/code/status/%zz")
	assert.False(t, ok)
}

func TestForwardGetPreservesQueryAndDefaultsAuth(t *testing.T) {
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/question/by-slug/two-sum", r.URL.Path)
		assert.Equal(t, "a=1&b=2", r.URL.RawQuery)
		assert.Equal(t, "Bearer test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"title":"Two Sum"}`))
	}, nil)

	res, err := p.Forward(context.Background(), &Envelope{
		InboundPath: "/api/v1/question/by-slug/two-sum",
		Method:      http.MethodGet,
		RawQuery:    "a=1&b=2",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Two Sum"}`, string(res.Body))
	assert.False(t, res.Normalized)
}

func TestForwardPostSendsRawBodyAndInboundAuth(t *testing.T) {
	raw := `{"question_id":"q1",  "code":"print(1)","language":"python"}`
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "Bearer real", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, raw, string(b))
		w.Write([]byte(`{"submission_id":"abc","status":"queued"}`))
	}, nil)

	_, err := p.Forward(context.Background(), &Envelope{
		InboundPath:   "/api/v1/code/submit",
		Method:        http.MethodPost,
		Authorization: "Bearer real",
		RawQuery:      "ignored=1",
		Body:          []byte(raw),
	})
	require.NoError(t, err)
}

func TestForwardNon2xxBecomesUpstreamError(t *testing.T) {
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"nope"}`))
	}, nil)

	_, err := p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/question/by-slug/x", Method: http.MethodGet})
	var upstreamErr *common.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "Backend returned 404", upstreamErr.Message)
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))
}

func TestForwardNormalizesQuestionList(t *testing.T) {
	tests := []struct {
		name, path, upstream, want string
	}{
		{"bare array", "/api/v1/question/", `[{"title":"A"}]`, `[{"title":"A"}]`},
		{"data wrapper", "/api/v1/question/", `{"data":[{"title":"A"}]}`, `[{"title":"A"}]`},
		{"neither", "/api/v1/question", `{"count":0}`, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.upstream))
			}, nil)
			res, err := p.Forward(context.Background(), &Envelope{InboundPath: tt.path, Method: http.MethodGet})
			require.NoError(t, err)
			assert.True(t, res.Normalized)
			assert.JSONEq(t, tt.want, string(res.Body))
		})
	}
}

func TestForwardRejectsOtherMethodsAndBadJSON(t *testing.T) {
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}, nil)

	_, err := p.Forward(context.Background(), &Envelope{InboundPath: "/api/x", Method: http.MethodDelete})
	assert.ErrorIs(t, err, common.ErrMethodNotAllowed)

	_, err = p.Forward(context.Background(), &Envelope{InboundPath: "/api/x", Method: http.MethodGet})
	assert.ErrorIs(t, err, common.ErrMalformedBody)
	assert.Equal(t, http.StatusInternalServerError, common.HTTPStatusFromError(err))
}

func TestForwardCachesTerminalStatus(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Value
	status.Store(`{"submission_id":"abc","status":"processing"}`)
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(status.Load().(string)))
	}, newMemoryStatusCache())
	get := func() *ForwardResult {
		res, err := p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/code/status/abc", Method: http.MethodGet})
		require.NoError(t, err)
		return res
	}

	assert.False(t, get().Cached)
	assert.False(t, get().Cached)
	assert.EqualValues(t, 2, hits.Load())

	status.Store(`{"submission_id":"abc","status":"completed","total_passed":3,"total_tests":3}`)
	first := get()
	assert.False(t, first.Cached)
	second := get()
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)
	assert.EqualValues(t, 3, hits.Load())
}

func TestForwardNotifiesObservers(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}, nil, obs)

	_, err := p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/ok", Method: http.MethodGet})
	require.NoError(t, err)
	_, err = p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/broken", Method: http.MethodGet})
	require.Error(t, err)

	require.Len(t, obs.envs, 1)
	assert.Equal(t, "/api/v1/ok", obs.envs[0].BackendPath)
	assert.JSONEq(t, `{"ok":true}`, obs.bodies[0])
}

func TestForwardKeepsEscapedSegments(t *testing.T) {
	cache := newMemoryStatusCache()
	p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/code/status/a%2Fb", r.URL.EscapedPath())
		assert.Equal(t, "/api/v1/code/status/a/b", r.URL.Path)
		w.Write([]byte(`{"submission_id":"a/b","status":"completed","total_passed":1,"total_tests":1}`))
	}, cache)

	res, err := p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/code/status/a%2Fb", Method: http.MethodGet})
	require.NoError(t, err)
	assert.False(t, res.Cached)

	_, ok, _ := cache.Get(context.Background(), "a/b")
	assert.True(t, ok)

	res, err = p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/code/status/a%2Fb", Method: http.MethodGet})
	require.NoError(t, err)
	assert.True(t, res.Cached)

	_, err = p.Forward(context.Background(), &Envelope{InboundPath: "/api/v1/bad%zz", Method: http.MethodGet})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
