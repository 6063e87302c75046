package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout marks a turn that ran out of its wall-clock budget.
var ErrTimeout = errors.New("agent turn exceeded time budget")

// ErrTooManyRounds marks a turn whose function-call loop hit the round cap
// without the model producing a final text answer.
var ErrTooManyRounds = errors.New("agent exceeded maximum tool-call rounds")

// QuotaError wraps a provider failure caused by rate-limit or quota
// exhaustion, rewritten into an actionable message for the caller.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return "API quota exceeded. The provider's rate limit has been reached. " +
		"Please wait for the quota to reset or upgrade your API plan."
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// classifyProviderError maps a raw provider failure onto the turn failure
// kinds: context expiry becomes ErrTimeout, rate-limit markers in the failure
// text become QuotaError, everything else passes through wrapped.
func classifyProviderError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if isQuotaExhausted(err) {
		return &QuotaError{Err: err}
	}
	return fmt.Errorf("model invocation failed: %w", err)
}

func isQuotaExhausted(err error) bool {
	text := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "resourceexhausted", "resource_exhausted", "rate limit"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
