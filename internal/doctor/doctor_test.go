package doctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportOK(t *testing.T) {
	require.True(t, Report{Checks: []Check{
		{Name: "a", Pass: true},
		{Name: "b", Pass: true},
	}}.OK())

	require.False(t, Report{Checks: []Check{
		{Name: "a", Pass: true},
		{Name: "b", Pass: false},
	}}.OK())
}

func TestReportString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "capabilities", Pass: true, Message: "3 files, 2 apps, 4 system actions"},
		{Name: "chat_endpoint", Pass: false, Message: "unreachable: connection refused"},
	}}

	out := report.String()
	require.Contains(t, out, "[OK] capabilities: 3 files, 2 apps, 4 system actions")
	require.Contains(t, out, "[FAIL] chat_endpoint: unreachable: connection refused")
}

func TestCheckEndpointRequireOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	check := checkEndpoint(context.Background(), "chat_endpoint", server.URL, true)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "200")
}

func TestCheckEndpointNonOKFailsWhenRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	check := checkEndpoint(context.Background(), "chat_endpoint", server.URL, true)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "404")
}

func TestCheckEndpointAnyResponseCounts(t *testing.T) {
	// The transcription server rejects GETs but still answers them.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	check := checkEndpoint(context.Background(), "transcription_endpoint", server.URL, false)
	require.True(t, check.Pass)
}

func TestCheckEndpointUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	check := checkEndpoint(context.Background(), "chat_endpoint", url, true)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "unreachable")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary-9f2c", "file opener")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}
