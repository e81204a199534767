package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buddy/internal/domain"
	"buddy/internal/infra/ollama"
)

func testTable() domain.CapabilityTable {
	return domain.NewCapabilityTable(
		map[string]string{"resume": "/home/u/docs/resume.pdf"},
		map[string]string{"chrome": "google-chrome"},
		[]string{"volume_mute", "volume_set"},
	)
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		require.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": content},
		})
	}))
}

func newTestClient(endpoint string) *ollama.Client {
	return ollama.NewClient(endpoint, "test-model", 2*time.Second, 1, 10*time.Millisecond)
}

func requireRejection(t *testing.T, err error, kind domain.RejectionKind) {
	t.Helper()
	var rej *domain.Rejection
	require.ErrorAs(t, err, &rej)
	require.Equal(t, kind, rej.Kind)
}

func TestResolveIntentSuccess(t *testing.T) {
	server := chatServer(t, `{"action":"open_file","target":"resume","response":null,"confidence":0.95}`)
	defer server.Close()

	raw, err := newTestClient(server.URL).ResolveIntent(context.Background(), "open my resume", testTable())
	require.NoError(t, err)
	require.Equal(t, domain.ActionOpenFile, raw.Action)
	require.Equal(t, "resume", raw.Target)
	require.InDelta(t, 0.95, raw.Confidence, 1e-9)
}

func TestResolveIntentProseWrappedReply(t *testing.T) {
	server := chatServer(t, `Sure! {"action":"system","target":"volume_mute","confidence":0.85} Let me know if that helps.`)
	defer server.Close()

	raw, err := newTestClient(server.URL).ResolveIntent(context.Background(), "mute the volume", testTable())
	require.NoError(t, err)
	require.Equal(t, domain.ActionSystem, raw.Action)
	require.Equal(t, "volume_mute", raw.Target)
}

func TestResolveIntentPromptListsCapabilities(t *testing.T) {
	var prompt atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt.Store(req.Messages[0].Content)
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": `{"action":"unknown","confidence":0.0}`},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ResolveIntent(context.Background(), "hmm", testTable())
	require.NoError(t, err)

	text := prompt.Load().(string)
	require.Contains(t, text, "resume")
	require.Contains(t, text, "chrome")
	require.Contains(t, text, "volume_mute, volume_set")
	require.Contains(t, text, `"hmm"`)
}

func TestResolveIntentMalformedReplies(t *testing.T) {
	cases := map[string]string{
		"no json":            "I think you want the resume.",
		"two objects":        `{"action":"open_file","target":"resume","confidence":0.9} {"action":"open_app","target":"chrome","confidence":0.1}`,
		"bad action":         `{"action":"open_browser","target":"chrome","confidence":0.9}`,
		"missing action":     `{"target":"resume","confidence":0.9}`,
		"missing confidence": `{"action":"open_file","target":"resume"}`,
		"string confidence":  `{"action":"open_file","target":"resume","confidence":"high"}`,
		"confidence above 1": `{"action":"open_file","target":"resume","confidence":1.5}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			server := chatServer(t, content)
			defer server.Close()

			_, err := newTestClient(server.URL).ResolveIntent(context.Background(), "open my resume", testTable())
			requireRejection(t, err, domain.RejectMalformedReply)
		})
	}
}

func TestResolveIntentTimeout(t *testing.T) {
	var attempts atomic.Int32
	wrapped := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer wrapped.Close()

	client := ollama.NewClient(wrapped.URL, "test-model", 50*time.Millisecond, 1, time.Millisecond)
	_, err := client.ResolveIntent(context.Background(), "open my resume", testTable())

	requireRejection(t, err, domain.RejectTimeout)
	// Timeouts are never retried.
	require.Equal(t, int32(1), attempts.Load())
}

func TestResolveIntentUpstreamUnavailable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := "http://" + listener.Addr().String() + "/api/chat"
	require.NoError(t, listener.Close())

	_, err = newTestClient(endpoint).ResolveIntent(context.Background(), "open my resume", testTable())
	requireRejection(t, err, domain.RejectUpstreamUnavailable)
}

func TestResolveIntentRetriesOnceOnUnavailable(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// The runtime is still starting up.
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": `{"action":"open_app","target":"chrome","confidence":0.9}`},
		})
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL).ResolveIntent(context.Background(), "start chrome", testTable())
	require.NoError(t, err)
	require.Equal(t, domain.ActionOpenApp, raw.Action)
	require.Equal(t, int32(2), attempts.Load())
}

func TestResolveIntentGivesUpAfterOneRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "loading model", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ResolveIntent(context.Background(), "start chrome", testTable())
	requireRejection(t, err, domain.RejectUpstreamUnavailable)
	require.Equal(t, int32(2), attempts.Load())
}

func TestResolveIntentCancellationIsNotARejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(server.URL).ResolveIntent(ctx, "open my resume", testTable())
	require.Error(t, err)
	var rej *domain.Rejection
	require.False(t, errors.As(err, &rej))
	require.ErrorIs(t, err, context.Canceled)
}

func TestTagsEndpoint(t *testing.T) {
	require.Equal(t, "http://localhost:11434/api/tags",
		ollama.TagsEndpoint("http://localhost:11434/api/chat"))
	require.Equal(t, "http://localhost:9999/custom",
		ollama.TagsEndpoint("http://localhost:9999/custom"))
}

func TestReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := ollama.NewClient(server.URL, "test-model", time.Second, 0, 0)
	require.NoError(t, client.Ready(context.Background()))
}
