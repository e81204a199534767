package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"buddy/internal/domain"
)

// Assistant owns the listen loop: pull one command payload from the
// source, transcribe it if it is audio, run the pipeline, announce the
// outcome. Commands are processed strictly one at a time.
type Assistant struct {
	source    CommandSource
	stt       Transcriber
	pipeline  *Pipeline
	announcer Announcer
	logger    *slog.Logger
}

func NewAssistant(
	source CommandSource,
	stt Transcriber,
	pipeline *Pipeline,
	announcer Announcer,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		source:    source,
		stt:       stt,
		pipeline:  pipeline,
		announcer: announcer,
		logger:    logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting command source", "source", a.source.Name())
	if err := a.source.Start(ctx); err != nil {
		return fmt.Errorf("starting source: %w", err)
	}
	defer a.source.Stop()

	a.logger.Info("ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	payload, err := a.source.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting command: %w", err)
	}

	if len(payload) == 0 {
		return nil
	}

	var transcript string

	if text, isText := textCommand(payload); isText {
		a.logger.Info("received text command", "text", text)
		transcript = text
	} else {
		a.logger.Info("received audio", "bytes", len(payload))

		transcript, err = a.stt.Transcribe(ctx, payload)
		if err != nil {
			a.announce(ctx, domain.FailedSignal(err))
			return fmt.Errorf("transcribing: %w", err)
		}

		a.logger.Info("transcribed", "text", transcript)
	}

	signal := a.pipeline.Process(ctx, transcript)

	a.logger.Info("command finished",
		"status", signal.Status,
		"message", signal.Message,
	)

	a.announce(ctx, signal)
	return nil
}

func (a *Assistant) announce(ctx context.Context, signal domain.FeedbackSignal) {
	if err := a.announcer.Announce(ctx, signal); err != nil {
		a.logger.Error("announcing result", "error", err)
	}
}

func textCommand(payload []byte) (string, bool) {
	s := string(payload)
	if strings.HasPrefix(s, domain.TextCommandPrefix) {
		return strings.TrimPrefix(s, domain.TextCommandPrefix), true
	}
	return "", false
}
