package application

import (
	"context"
	"fmt"

	"buddy/internal/domain"
)

// IntentResolver turns a transcript into a raw, untrusted intent via a
// local language model.
type IntentResolver interface {
	ResolveIntent(ctx context.Context, transcript string, table domain.CapabilityTable) (domain.RawIntent, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// CommandSource delivers one payload per triggered voice command:
// either WAV audio or text carrying domain.TextCommandPrefix.
type CommandSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}

type FileOpener interface {
	OpenPath(ctx context.Context, path string) error
}

type AppLauncher interface {
	Launch(ctx context.Context, command string) error
}

type SystemController interface {
	RunAction(ctx context.Context, action string, level *int) error
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Announcer interface {
	Announce(ctx context.Context, signal domain.FeedbackSignal) error
}

// NoopTranscriber rejects audio payloads for text-only sources.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return "", fmt.Errorf("transcription not configured: set transcription.endpoint to handle audio payloads")
}

type NoopAnnouncer struct{}

func (NoopAnnouncer) Announce(_ context.Context, _ domain.FeedbackSignal) error {
	return nil
}
