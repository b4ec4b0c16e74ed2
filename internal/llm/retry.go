package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/openai/openai-go/v2"
	"go.uber.org/zap"
)

const initialBackoff = 200 * time.Millisecond

type retryModel struct {
	next       ChatModel
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// WithRetry retries transient model failures (rate limits, 5xx, network
// errors) with exponential backoff. Context cancellation is never retried.
func WithRetry(next ChatModel, maxRetries int, logger *zap.Logger) ChatModel {
	if maxRetries <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryModel{
		next:       next,
		maxRetries: maxRetries,
		backoff:    initialBackoff,
		logger:     logger,
	}
}

func (r *retryModel) Generate(ctx context.Context, req Request) (*types.Message, error) {
	backoff := r.backoff
	for attempt := 0; ; attempt++ {
		msg, err := r.next.Generate(ctx, req)
		if err == nil || attempt >= r.maxRetries || !isTransient(err) || ctx.Err() != nil {
			return msg, err
		}

		r.logger.Warn("Model call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, &types.GenerationError{Op: "retry", Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
