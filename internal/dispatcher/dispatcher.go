// Package dispatcher routes a question to the grounded generator or the
// contract agent and turns every outcome into user-facing text.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/agent"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/ashutoshrp06/sow-assistant/internal/validator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User-facing replies for failed requests.
const (
	RetrievalFailedAnswer  = "I don't know. I could not search the documents right now, please try again later."
	GenerationFailedAnswer = "Sorry, I could not generate an answer right now. Please try again later."
	TimeoutAnswer          = "Sorry, the request took too long and was cancelled."
	CanceledAnswer         = "The request was cancelled."
	InternalErrorAnswer    = "Sorry, something went wrong while answering your question."
)

// Answerer produces a single grounded answer.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Runner runs the tool-calling agent.
type Runner interface {
	RunWithObserver(ctx context.Context, question string, observe agent.Observer) (*agent.Result, error)
}

// Dispatcher is stateless across calls and safe for concurrent use.
type Dispatcher struct {
	answerer  Answerer
	runner    Runner
	validator *validator.InputValidator
	timeout   time.Duration
	logger    *zap.Logger
}

// Config holds dispatcher configuration.
type Config struct {
	// RequestTimeout bounds a whole request. Zero disables it.
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// New creates a dispatcher over the two answering paths.
func New(answerer Answerer, runner Runner, cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Dispatcher{
		answerer:  answerer,
		runner:    runner,
		validator: validator.NewInputValidator(),
		timeout:   cfg.RequestTimeout,
		logger:    cfg.Logger,
	}
}

// Handle answers question in the given mode. The returned text is always
// suitable for display; err carries the underlying failure, if any.
func (d *Dispatcher) Handle(ctx context.Context, question string, mode types.Mode) (string, error) {
	return d.HandleWithObserver(ctx, question, mode, nil)
}

// HandleWithObserver is Handle with agent transitions reported to observe.
// observe is ignored in SIMPLE_RAG mode.
func (d *Dispatcher) HandleWithObserver(ctx context.Context, question string, mode types.Mode, observe agent.Observer) (string, error) {
	requestID := uuid.NewString()
	logger := d.logger.With(
		zap.String("request_id", requestID),
		zap.String("mode", mode.String()))

	question, err := d.validator.Clean(question)
	if err != nil {
		logger.Info("Rejected question", zap.Error(err))
		return err.Error(), err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	var answer string
	switch mode {
	case types.ModeSimpleRAG:
		answer, err = d.answerer.Answer(ctx, question)
	case types.ModeAgent:
		var res *agent.Result
		res, err = d.runner.RunWithObserver(ctx, question, observe)
		if err == nil {
			answer = res.Answer
		}
	default:
		err = errors.New("unknown mode: " + mode.String())
	}

	if err != nil {
		logger.Error("Request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return userMessage(err), err
	}

	logger.Info("Request completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("answer_len", len(answer)))
	return answer, nil
}

// userMessage maps a failure to the text shown in place of an answer.
func userMessage(err error) string {
	var (
		retErr *types.RetrievalError
		genErr *types.GenerationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TimeoutAnswer
	case errors.Is(err, context.Canceled):
		return CanceledAnswer
	case errors.As(err, &retErr):
		return RetrievalFailedAnswer
	case errors.As(err, &genErr):
		return GenerationFailedAnswer
	default:
		return InternalErrorAnswer
	}
}

// ResponseMsg carries a finished request back to the UI.
type ResponseMsg struct {
	Mode   types.Mode
	Answer string
	Err    error
}

// ProcessCmd returns a Bubble Tea command that handles a question.
func (d *Dispatcher) ProcessCmd(question string, mode types.Mode, observe agent.Observer) tea.Cmd {
	return func() tea.Msg {
		answer, err := d.HandleWithObserver(context.Background(), question, mode, observe)
		return ResponseMsg{Mode: mode, Answer: answer, Err: err}
	}
}
