package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTagClassification(t *testing.T) {
	for _, tag := range []StatusTag{StatusQueued, StatusPending, StatusProcessing, StatusRunning} {
		assert.True(t, tag.InProgress(), tag)
		assert.False(t, tag.IsTerminal(), tag)
	}
	for _, tag := range []StatusTag{StatusCompleted, StatusError, "cancelled"} {
		assert.True(t, tag.IsTerminal(), tag)
	}
}

func TestSubmissionStatusErrorPayload(t *testing.T) {
	tests := []struct {
		raw     string
		hasErr  bool
		errText string
	}{
		{`{"status":"completed"}`, false, ""},
		{`{"status":"completed","error":null}`, false, ""},
		{`{"status":"completed","error":false}`, false, ""},
		{`{"status":"error","error":true}`, true, "true"},
		{`{"status":"error","error":"SyntaxError: invalid syntax"}`, true, "SyntaxError: invalid syntax"},
	}
	for _, tt := range tests {
		var st SubmissionStatus
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &st))
		assert.Equal(t, tt.hasErr, st.HasError(), tt.raw)
		assert.Equal(t, tt.errText, st.ErrorText(), tt.raw)
	}
}

func TestQuestionSnippet(t *testing.T) {
	q := Question{CodeSnippets: []CodeSnippet{{Lang: "Python3", LangSlug: "python3", Code: "class Solution:"}}}
	s, ok := q.Snippet("python3")
	assert.True(t, ok)
	assert.Equal(t, "class Solution:", s.Code)
	_, ok = q.Snippet("go")
	assert.False(t, ok)
}
