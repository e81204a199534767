// Package doctor runs readiness diagnostics for the config, the local
// model endpoints, and the executor binaries.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	osexec "os/exec"
	"runtime"
	"strings"
	"time"

	"buddy/config"
	"buddy/internal/infra/ollama"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes the checks against a loaded config.
func Run(ctx context.Context, cfg *config.Config) Report {
	table := cfg.CapabilityTable()

	checks := []Check{
		{
			Name: "capabilities",
			Pass: !table.Empty(),
			Message: fmt.Sprintf("%d files, %d apps, %d system actions",
				len(table.FileKeys()), len(table.AppKeys()), len(table.SystemActions())),
		},
		checkEndpoint(ctx, "chat_endpoint", ollama.TagsEndpoint(cfg.Chat.Endpoint), true),
		checkEndpoint(ctx, "transcription_endpoint", cfg.Transcription.Endpoint, false),
		checkBinary(openerBinary(), "file opener"),
	}

	if argv := cfg.Feedback.TTSCommand; len(argv) > 0 {
		checks = append(checks, checkBinary(argv[0], "tts command"))
	} else {
		checks = append(checks, checkBinary(defaultTTSBinary(), "tts command"))
	}

	if len(table.SystemActions()) > 0 {
		checks = append(checks, checkBinary(systemBinary(), "system actions"))
	}

	return Report{Checks: checks}
}

// checkEndpoint probes a local HTTP endpoint. When requireOK is false,
// any HTTP response counts as reachable (the transcription server
// rejects GETs but still answers them).
func checkEndpoint(ctx context.Context, name, url string, requireOK bool) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("bad URL %q: %v", url, err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if requireOK && resp.StatusCode != http.StatusOK {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("returned %d", resp.StatusCode)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("reachable (%d)", resp.StatusCode)}
}

func checkBinary(name, purpose string) Check {
	if _, err := osexec.LookPath(name); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("binary not found (%s)", purpose)}
	}
	return Check{Name: name, Pass: true, Message: purpose}
}

func openerBinary() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "cmd"
	default:
		return "xdg-open"
	}
}

func defaultTTSBinary() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak"
}

func systemBinary() string {
	if runtime.GOOS == "darwin" {
		return "osascript"
	}
	return "pactl"
}
