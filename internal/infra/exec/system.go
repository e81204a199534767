package exec

import (
	"context"
	"fmt"
	"runtime"
)

// SystemRunner executes named system actions through OS command-line
// utilities.
type SystemRunner struct {
	runner Runner
	goos   string
}

func NewSystemRunner(runner Runner) *SystemRunner {
	return &SystemRunner{runner: runner, goos: runtime.GOOS}
}

func (s *SystemRunner) RunAction(ctx context.Context, action string, level *int) error {
	argv, err := s.argv(action, level)
	if err != nil {
		return err
	}
	return s.runner.Run(ctx, argv[0], argv[1:]...)
}

func (s *SystemRunner) argv(action string, level *int) ([]string, error) {
	if s.goos == "darwin" {
		return darwinArgv(action, level)
	}
	return linuxArgv(action, level)
}

func linuxArgv(action string, level *int) ([]string, error) {
	switch action {
	case "volume_mute":
		return []string{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"}, nil
	case "volume_up":
		return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+5%"}, nil
	case "volume_down":
		return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-5%"}, nil
	case "volume_set":
		if level == nil {
			return nil, fmt.Errorf("volume_set requires a level")
		}
		return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", *level)}, nil
	case "sleep":
		return []string{"systemctl", "suspend"}, nil
	case "shutdown":
		return []string{"systemctl", "poweroff"}, nil
	case "restart":
		return []string{"systemctl", "reboot"}, nil
	case "lock":
		return []string{"loginctl", "lock-session"}, nil
	}
	return nil, fmt.Errorf("unsupported system action %q", action)
}

func darwinArgv(action string, level *int) ([]string, error) {
	switch action {
	case "volume_mute":
		return []string{"osascript", "-e", "set volume output muted not (output muted of (get volume settings))"}, nil
	case "volume_up":
		return []string{"osascript", "-e", "set volume output volume ((output volume of (get volume settings)) + 6)"}, nil
	case "volume_down":
		return []string{"osascript", "-e", "set volume output volume ((output volume of (get volume settings)) - 6)"}, nil
	case "volume_set":
		if level == nil {
			return nil, fmt.Errorf("volume_set requires a level")
		}
		return []string{"osascript", "-e", fmt.Sprintf("set volume output volume %d", *level)}, nil
	case "sleep":
		return []string{"pmset", "sleepnow"}, nil
	case "shutdown":
		return []string{"osascript", "-e", `tell app "System Events" to shut down`}, nil
	case "restart":
		return []string{"osascript", "-e", `tell app "System Events" to restart`}, nil
	case "lock":
		return []string{"pmset", "displaysleepnow"}, nil
	}
	return nil, fmt.Errorf("unsupported system action %q", action)
}
