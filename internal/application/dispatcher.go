package application

import (
	"context"
	"fmt"

	"buddy/internal/domain"
)

// Dispatcher maps a validated action onto exactly one executor call.
// Effects are never retried here: re-running an OS side effect (a
// second app launch, a second volume change) is not safe to automate.
type Dispatcher struct {
	files   FileOpener
	apps    AppLauncher
	system  SystemController
	speaker Speaker
}

func NewDispatcher(files FileOpener, apps AppLauncher, system SystemController, speaker Speaker) *Dispatcher {
	return &Dispatcher{
		files:   files,
		apps:    apps,
		system:  system,
		speaker: speaker,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, action domain.ResolvedAction) domain.Outcome {
	var err error

	switch action.Kind {
	case domain.ResolvedOpenFile:
		err = d.files.OpenPath(ctx, action.Path)
	case domain.ResolvedOpenApp:
		err = d.apps.Launch(ctx, action.Command)
	case domain.ResolvedRunSystem:
		err = d.system.RunAction(ctx, action.SystemAction, action.Level)
	case domain.ResolvedSpeak:
		err = d.speaker.Speak(ctx, action.Response)
	default:
		err = fmt.Errorf("no executor for action kind %q", action.Kind)
	}

	if err != nil {
		err = &domain.ExecutorError{Action: action.Kind, Cause: err}
	}

	return domain.Outcome{Resolved: action, Err: err}
}
