package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisionClientValidation(t *testing.T) {
	_, err := NewVisionClient(Config{Model: "m"})
	assert.Error(t, err, "missing API key should fail")

	_, err = NewVisionClient(Config{APIKey: "k"})
	assert.Error(t, err, "missing model should fail")

	c, err := NewVisionClient(Config{APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, defaultEndpoint, c.cfg.Endpoint)
}

func TestParseRecognition(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Output
		wantErr bool
	}{
		{
			name:    "plain lines",
			content: `{"lines":[{"text":"hello","confidence":0.95,"box":[2,3,40,12]},{"text":"world","confidence":0.9,"box":[2,18,44,12]}]}`,
			want: Output{Lines: []Line{
				{Text: "hello", Confidence: 0.95, Box: Box{X: 2, Y: 3, Width: 40, Height: 12}},
				{Text: "world", Confidence: 0.9, Box: Box{X: 2, Y: 18, Width: 44, Height: 12}},
			}},
		},
		{
			name:    "markdown fenced",
			content: "```json\n{\"lines\":[{\"text\":\"openai\",\"confidence\":0.99,\"box\":[0,0,60,14]}]}\n```",
			want:    Output{Lines: []Line{{Text: "openai", Confidence: 0.99, Box: Box{Width: 60, Height: 14}}}},
		},
		{
			name:    "non-text region",
			content: `{"non_text":true}`,
			want:    Output{NonText: true},
		},
		{
			name:    "empty lines",
			content: `{"lines":[]}`,
			want:    Output{},
		},
		{
			name:    "blank lines are dropped",
			content: `{"lines":[{"text":"  ","confidence":0.9},{"text":"kept","confidence":0.8}]}`,
			want:    Output{Lines: []Line{{Text: "kept", Confidence: 0.8}}},
		},
		{
			name:    "missing box tolerated",
			content: `{"lines":[{"text":"x","confidence":0.5}]}`,
			want:    Output{Lines: []Line{{Text: "x", Confidence: 0.5}}},
		},
		{
			name:    "garbage",
			content: "I could not read the image, sorry!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecognition(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func chatReply(t *testing.T, content string) string {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	require.NoError(t, err)
	return string(body)
}

func TestRecognizeAgainstServer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		w.Write([]byte(chatReply(t, `{"lines":[{"text":"hello","confidence":0.95,"box":[0,0,50,12]}]}`)))
	}))
	defer srv.Close()

	c, err := NewVisionClient(Config{APIKey: "test-key", Model: "test-model", Endpoint: srv.URL})
	require.NoError(t, err)

	out, err := c.Recognize(context.Background(), []byte{0x89, 0x50, 0x4E, 0x47})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "hello", out.Lines[0].Text)
	assert.InDelta(t, 0.95, out.Lines[0].Confidence, 1e-9)
}

func TestRecognizeRetriesOnAPIError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error","code":503}}`))
			return
		}
		w.Write([]byte(chatReply(t, `{"non_text":true}`)))
	}))
	defer srv.Close()

	c, err := NewVisionClient(Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	require.NoError(t, err)

	out, err := c.Recognize(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.True(t, out.NonText)
	assert.Equal(t, 2, calls)
}

func TestRecognizeHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"nope","type":"server_error","code":500}}`))
	}))
	defer srv.Close()

	c, err := NewVisionClient(Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Recognize(ctx, []byte{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(t, "pong")))
	}))
	defer srv.Close()

	c, err := NewVisionClient(Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, c.Ping(context.Background()))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"auth","code":401}}`))
	}))
	defer bad.Close()

	c2, err := NewVisionClient(Config{APIKey: "wrong", Model: "m", Endpoint: bad.URL})
	require.NoError(t, err)
	assert.Error(t, c2.Ping(context.Background()))
}
