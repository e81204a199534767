// Package feedback renders terminal pipeline signals for the user.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buddy/internal/application"
	"buddy/internal/domain"
)

const (
	ModeTTS  = "tts"
	ModeLog  = "log"
	ModeBoth = "both"
)

// Player speaks or logs a feedback signal. Speaking is bounded by its
// own deadline so a wedged TTS process cannot stall the listen loop.
type Player struct {
	mode    string
	speaker application.Speaker
	logger  *slog.Logger
}

func NewPlayer(mode string, speaker application.Speaker, logger *slog.Logger) *Player {
	return &Player{mode: mode, speaker: speaker, logger: logger}
}

func (p *Player) Announce(ctx context.Context, signal domain.FeedbackSignal) error {
	phrase := Phrase(signal)

	p.logger.Info("feedback", "status", signal.Status, "phrase", phrase)

	if p.mode == ModeLog {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.speaker.Speak(ctx, phrase); err != nil {
		return fmt.Errorf("speaking feedback: %w", err)
	}
	return nil
}

// Phrase maps a signal to the spoken line. Answers are spoken verbatim;
// everything else gets a short fixed phrase.
func Phrase(signal domain.FeedbackSignal) string {
	switch signal.Status {
	case domain.StatusSuccess:
		return signal.Message
	case domain.StatusFailed:
		return "Command failed"
	}

	if signal.Rejection == nil {
		return "Hold on, still working on the last one"
	}

	switch signal.Rejection.Kind {
	case domain.RejectLowConfidence:
		return "I don't know how to do that"
	case domain.RejectUnknownTarget:
		return "I don't know that one"
	case domain.RejectMalformedReply:
		return "I didn't catch that"
	case domain.RejectTimeout:
		return "The model took too long"
	case domain.RejectUpstreamUnavailable:
		return "The model is not running"
	}
	return "Something went wrong"
}
