package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/observability"
)

// ErrorPrefix tags the display form of a failed generation.
const ErrorPrefix = "[LLM ERROR]"

var errNoProvider = errors.New("no text provider configured")

// ProviderError carries the provider-level cause of a soft failure.
// It matches errs.ErrGenerationSoft under errors.Is.
type ProviderError struct {
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%v: %v", errs.ErrGenerationSoft, e.Cause)
}

func (e *ProviderError) Unwrap() []error {
	return []error{errs.ErrGenerationSoft, e.Cause}
}

// Result is the outcome of one generation call: either Text or Err.
// Empty Text with a nil Err is a legitimate empty completion.
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool { return r.Err == nil }

// String renders the text, or "[LLM ERROR] <cause>" for a failed call.
func (r Result) String() string {
	if r.Err == nil {
		return r.Text
	}
	var pe *ProviderError
	if errors.As(r.Err, &pe) {
		return fmt.Sprintf("%s %v", ErrorPrefix, pe.Cause)
	}
	return fmt.Sprintf("%s %v", ErrorPrefix, r.Err)
}

func failed(cause error) Result {
	return Result{Err: &ProviderError{Cause: cause}}
}

// Temp returns a sampling temperature for Params.
func Temp(v float32) *float32 { return &v }

type Client struct {
	provider Provider
	timeout  time.Duration
	defaults Params
}

// NewClient wraps provider. A nil provider yields a client whose calls all
// fail softly, which keeps the workflow usable without credentials.
func NewClient(provider Provider, timeout time.Duration, defaults Params) *Client {
	if defaults.Temperature == nil {
		defaults.Temperature = Temp(0.2)
	}
	if defaults.MaxTokens == 0 {
		defaults.MaxTokens = 300
	}
	return &Client{provider: provider, timeout: timeout, defaults: defaults}
}

// Defaults returns the configured generation parameters.
func (c *Client) Defaults() Params {
	return c.defaults
}

// Generate sends prompt to the provider. It never returns a Go error and
// never panics: every provider failure is reported on Result.Err.
func (c *Client) Generate(ctx context.Context, operation, prompt string, p Params) (res Result) {
	if c == nil || c.provider == nil {
		observability.GenerationFailures.WithLabelValues(operation).Inc()
		return failed(errNoProvider)
	}
	if p.Temperature == nil {
		p.Temperature = c.defaults.Temperature
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = c.defaults.MaxTokens
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failed(fmt.Errorf("provider panic: %v", r))
		}
		observability.GenerationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if res.Err != nil {
			observability.GenerationFailures.WithLabelValues(operation).Inc()
			slog.Warn("text generation failed", "operation", operation, "error", res.Err)
		}
	}()

	text, err := c.provider.Generate(ctx, prompt, p)
	if err != nil {
		return failed(err)
	}
	return Result{Text: text}
}
