package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"buddy/internal/domain"
)

// Pipeline runs one voice command from transcript to feedback signal.
// The capability table is an immutable snapshot shared by every pass;
// the resolver call is the only suspend point. Invocations are
// single-slot: a command arriving while one is in flight is refused
// with feedback rather than queued, so two dispatches can never race on
// the same system action.
type Pipeline struct {
	resolver      IntentResolver
	dispatcher    *Dispatcher
	table         domain.CapabilityTable
	minConfidence float64
	logger        *slog.Logger

	busy atomic.Bool
}

func NewPipeline(
	resolver IntentResolver,
	dispatcher *Dispatcher,
	table domain.CapabilityTable,
	minConfidence float64,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		resolver:      resolver,
		dispatcher:    dispatcher,
		table:         table,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Process executes one pass. It always returns a terminal signal and
// never panics on executor failure. Before Dispatching nothing
// irreversible has happened, so every rejection is safe to surface as
// "nothing happened, try again".
func (p *Pipeline) Process(ctx context.Context, transcript string) domain.FeedbackSignal {
	if !p.busy.CompareAndSwap(false, true) {
		return domain.FeedbackSignal{
			Status:  domain.StatusRejected,
			Message: "still handling the previous command",
		}
	}
	defer p.busy.Store(false)

	state := StateIdle

	state = p.step(state, StateBuilding)
	if strings.TrimSpace(transcript) == "" {
		return p.done(state, domain.RejectedSignal(
			domain.Rejectf(domain.RejectMalformedReply, "empty transcript")))
	}

	state = p.step(state, StateAwaitingIntent)
	raw, err := p.resolver.ResolveIntent(ctx, transcript, p.table)
	if err != nil {
		return p.done(state, signalForError(err))
	}

	p.logger.Info("intent resolved",
		"action", raw.Action,
		"target", raw.Target,
		"confidence", raw.Confidence,
	)

	state = p.step(state, StateValidating)
	action, err := Validate(raw, p.table, p.minConfidence)
	if err != nil {
		return p.done(state, signalForError(err))
	}

	// Cancellation aborts here; nothing has been dispatched yet.
	if ctx.Err() != nil {
		return p.done(state, domain.FailedSignal(ctx.Err()))
	}

	state = p.step(state, StateDispatching)
	outcome := p.dispatcher.Dispatch(ctx, action)
	if outcome.Err != nil {
		p.logger.Error("dispatch failed", "kind", action.Kind, "error", outcome.Err)
		return p.done(state, domain.FailedSignal(outcome.Err))
	}

	return p.done(state, domain.SuccessSignal(successMessage(action)))
}

func (p *Pipeline) step(current, next State) State {
	state, err := Transition(current, next)
	if err != nil {
		// Unreachable unless the pass order above is edited wrongly.
		p.logger.Error("pipeline state error", "error", err)
		return next
	}
	p.logger.Debug("pipeline state", "state", state)
	return state
}

func (p *Pipeline) done(current State, signal domain.FeedbackSignal) domain.FeedbackSignal {
	p.step(current, StateDone)
	return signal
}

func signalForError(err error) domain.FeedbackSignal {
	var rej *domain.Rejection
	if errors.As(err, &rej) {
		return domain.RejectedSignal(rej)
	}
	return domain.FailedSignal(err)
}

func successMessage(action domain.ResolvedAction) string {
	switch action.Kind {
	case domain.ResolvedOpenFile:
		return fmt.Sprintf("Opened %s", action.Target)
	case domain.ResolvedOpenApp:
		return fmt.Sprintf("Launched %s", action.Target)
	case domain.ResolvedRunSystem:
		return fmt.Sprintf("Executed %s", action.Target)
	case domain.ResolvedSpeak:
		return action.Response
	}
	return "Done"
}
