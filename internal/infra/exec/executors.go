package exec

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Opener opens a configured path with the desktop's default handler.
type Opener struct {
	runner Runner
	goos   string
}

func NewOpener(runner Runner) *Opener {
	return &Opener{runner: runner, goos: runtime.GOOS}
}

func (o *Opener) OpenPath(ctx context.Context, path string) error {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving path %q: %w", path, err)
		}
		path = abs
	}

	switch o.goos {
	case "darwin":
		return o.runner.Run(ctx, "open", path)
	case "windows":
		return o.runner.Run(ctx, "cmd", "/c", "start", "", path)
	default:
		return o.runner.Run(ctx, "xdg-open", path)
	}
}

// Launcher starts a configured application command. The command string
// is split on whitespace; it comes from the user's own config, not from
// the model.
type Launcher struct {
	runner Runner
}

func NewLauncher(runner Runner) *Launcher {
	return &Launcher{runner: runner}
}

func (l *Launcher) Launch(_ context.Context, command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("empty launch command")
	}
	return l.runner.Launch(fields[0], fields[1:]...)
}

// TTSSpeaker speaks text through a local TTS command (espeak, say).
type TTSSpeaker struct {
	runner Runner
	argv   []string
}

// NewTTSSpeaker uses argv as the speech command; the text is appended
// as the final argument. Empty argv picks a per-OS default.
func NewTTSSpeaker(runner Runner, argv []string) *TTSSpeaker {
	if len(argv) == 0 {
		if runtime.GOOS == "darwin" {
			argv = []string{"say"}
		} else {
			argv = []string{"espeak"}
		}
	}
	return &TTSSpeaker{runner: runner, argv: argv}
}

func (s *TTSSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, s.argv[1:]...), text)
	return s.runner.Run(ctx, s.argv[0], args...)
}
