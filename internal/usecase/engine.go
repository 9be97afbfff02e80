package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"furnish/internal/domain"
	"furnish/internal/metrics"
)

// EngineOptions bounds a single request.
type EngineOptions struct {
	RequestTimeout time.Duration
	HistoryWindow  int
}

// Engine answers one conversational turn. It holds no per-session state;
// everything it remembers arrives in the SessionContext.
type Engine struct {
	classifier     *IntentClassifier
	contextualizer *Contextualizer
	retriever      *RetrieveUseCase
	synthesizer    *Synthesizer
	opts           EngineOptions
}

// NewEngine creates a new engine.
func NewEngine(
	classifier *IntentClassifier,
	contextualizer *Contextualizer,
	retriever *RetrieveUseCase,
	synthesizer *Synthesizer,
	opts EngineOptions,
) *Engine {
	return &Engine{
		classifier:     classifier,
		contextualizer: contextualizer,
		retriever:      retriever,
		synthesizer:    synthesizer,
		opts:           opts,
	}
}

// Reply handles utterance against session. On error no envelope is
// returned: validation failures wrap domain.ErrValidation, unreachable
// dependencies wrap domain.ErrUpstreamTimeout, and a cancelled or expired
// ctx returns the context error.
func (e *Engine) Reply(ctx context.Context, utterance string, session domain.SessionContext) (domain.Reply, error) {
	k := e.retriever.TopK()
	prepared, err := PrepareSession(utterance, session, e.opts.HistoryWindow, k)
	if err != nil {
		metrics.IncFailure(failureReason(err))
		return domain.Reply{}, err
	}

	if e.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RequestTimeout)
		defer cancel()
	}

	logger := zerolog.Ctx(ctx)
	started := time.Now()

	cls := e.classifier.Classify(utterance, prepared)
	logger.Debug().Str("intent", string(cls.Intent)).Msg("classified")

	next := prepared.Clone()
	var env domain.Envelope

	switch cls.Intent {
	case domain.IntentGreeting:
		env = e.synthesizer.Greeting()
		next.LastShown = nil

	case domain.IntentFollowUp:
		env = e.synthesizer.Answer(cls, prepared.LastShown)
		if env.Answer.Clarifying {
			logger.Debug().Err(domain.ErrUnresolvedReference).Ints("candidates", cls.Reference.Candidates).Msg("asking to clarify")
		}

	default:
		env, next.LastShown, err = e.search(ctx, utterance, cls.Intent, prepared)
		if err != nil {
			logger.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("request failed")
			metrics.IncFailure(failureReason(err))
			return domain.Reply{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		metrics.IncFailure(failureReason(err))
		return domain.Reply{}, err
	}

	next.History = AppendTurns(prepared.History, utterance, env.Text(), e.opts.HistoryWindow)
	logger.Info().
		Str("intent", string(cls.Intent)).
		Str("type", string(env.Kind)).
		Int("items", len(env.Items())).
		Dur("elapsed", time.Since(started)).
		Msg("replied")
	metrics.ObserveReply(string(cls.Intent), string(env.Kind))

	return domain.Reply{Envelope: env, Session: next, Intent: cls.Intent}, nil
}

func (e *Engine) search(ctx context.Context, utterance string, intent domain.Intent, session domain.SessionContext) (domain.Envelope, []domain.Item, error) {
	logger := zerolog.Ctx(ctx)

	q := e.contextualizer.Contextualize(utterance, session)
	if q.OutOfDomain != "" {
		logger.Debug().Str("category", q.OutOfDomain).Msg("not a furniture request")
		return e.synthesizer.OutOfDomain(), nil, nil
	}
	logger.Debug().Str("resolved", q.Resolved).Interface("filters", q.Filters).Msg("contextualized")

	var exclude []domain.Item
	if intent == domain.IntentShowMore {
		exclude = session.LastShown
	}

	items, err := e.retriever.Retrieve(ctx, q, intent, exclude)
	if err != nil {
		return domain.Envelope{}, nil, fmt.Errorf("failed to retrieve items: %w", err)
	}
	if len(items) == 0 {
		return e.synthesizer.NoResults(q, intent), nil, nil
	}

	env, err := e.synthesizer.Products(ctx, items, intent)
	if err != nil {
		return domain.Envelope{}, nil, fmt.Errorf("failed to synthesize products: %w", err)
	}
	return env, NextLastShown(session.LastShown, env.Items(), intent, e.retriever.TopK()), nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "upstream"
	case errors.Is(err, domain.ErrDimensionMismatch):
		return "dimension"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	}
	return "internal"
}
