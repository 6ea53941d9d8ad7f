package compose

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/retrieve"
)

// DefaultTimeout is the per-call deadline for the language-model request.
const DefaultTimeout = 60 * time.Second

// NoContextAnswer is returned without calling the language model when
// retrieval produced nothing above the similarity threshold.
const NoContextAnswer = "I could not find any specific insights related to your query. Please try rephrasing your question."

// Answer is the composed response for one query.
type Answer struct {
	Query   string
	Text    string
	Context *retrieve.QueryContext
}

// Composer turns a retrieval context into a natural-language answer by
// prompting a language model with the retrieved insights and the question.
type Composer struct {
	generator ai.Generator
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer) error

// WithTimeout sets the language-model call deadline.
// Default is DefaultTimeout. Expiry surfaces as ErrUpstreamUnavailable.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Composer) error {
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.timeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewComposer creates a new composer.
func NewComposer(generator ai.Generator, opts ...Option) (*Composer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	c := &Composer{
		generator: generator,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Compose builds a grounded prompt from the retrieval context and asks the
// language model for an answer. An empty context short-circuits with
// NoContextAnswer and no model call.
//
// Any model failure, including deadline expiry, returns an *UpstreamError
// carrying the original query unchanged; the query is never silently lost.
func (c *Composer) Compose(ctx context.Context, qc *retrieve.QueryContext) (*Answer, error) {
	if qc.Empty() {
		c.logger.Debug("no retrieval context, skipping model call", "query", qc.Query)
		return &Answer{Query: qc.Query, Text: NoContextAnswer, Context: qc}, nil
	}

	prompt := buildPrompt(qc)
	c.logger.Debug("composing answer", "query", qc.Query, "insights", len(qc.Results), "promptLength", len(prompt))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.generator.GenerateAnswer(callCtx, prompt)
	if err != nil {
		c.logger.Error("language model call failed", "query", qc.Query, "err", err)
		return nil, &UpstreamError{Query: qc.Query, Err: err}
	}
	if text == "" {
		return nil, &UpstreamError{Query: qc.Query, Err: errors.New("model returned empty answer")}
	}

	return &Answer{Query: qc.Query, Text: text, Context: qc}, nil
}
