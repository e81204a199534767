package openaichat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buddy/internal/domain"
	"buddy/internal/infra/openaichat"
)

func testTable() domain.CapabilityTable {
	return domain.NewCapabilityTable(
		map[string]string{"resume": "/home/u/docs/resume.pdf"},
		nil,
		nil,
	)
}

func TestResolveIntentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "local-model", req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"action":"open_file","target":"resume","confidence":0.92}`}},
			},
		})
	}))
	defer server.Close()

	client := openaichat.NewClient(server.URL, "local-model", time.Second, 0, 0)
	raw, err := client.ResolveIntent(context.Background(), "open my resume", testTable())
	require.NoError(t, err)
	require.Equal(t, domain.ActionOpenFile, raw.Action)
	require.Equal(t, "resume", raw.Target)
}

func TestResolveIntentNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := openaichat.NewClient(server.URL, "local-model", time.Second, 0, 0)
	_, err := client.ResolveIntent(context.Background(), "open my resume", testTable())

	var rej *domain.Rejection
	require.ErrorAs(t, err, &rej)
	require.Equal(t, domain.RejectMalformedReply, rej.Kind)
}
