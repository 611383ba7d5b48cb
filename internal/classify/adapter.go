package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// State tracks one classification call through its lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateSent      State = "sent"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// RetryPolicy controls how many attempts the adapter makes per crop. The
// default is a single attempt; retries beyond that belong to the external
// service contract, but callers may supply their own policy.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// SingleAttempt is the default retry policy: one try, no backoff.
func SingleAttempt() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Request is one crop to classify.
type Request struct {
	ImageBytes []byte
	Prompt     string
}

// Adapter mediates between the pipeline and the external classification
// service: timeout per call, bounded concurrency, retry policy, and
// normalization of every outcome into a Classification.
type Adapter struct {
	svc     Service
	timeout time.Duration
	retry   RetryPolicy
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

// NewAdapter creates an adapter. maxInFlight bounds concurrent calls to the
// service; values below 1 are raised to 1. A nil logger discards logs.
func NewAdapter(svc Service, timeout time.Duration, retry RetryPolicy, maxInFlight int64, logger *slog.Logger) *Adapter {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{
		svc:     svc,
		timeout: timeout,
		retry:   retry,
		sem:     semaphore.NewWeighted(maxInFlight),
		logger:  logger,
	}
}

// ClassifyCrop classifies one crop and never returns an error: every
// failure mode is folded into a Classification with Success=false.
//
// The supplied context gates whether the call is issued at all. Once a call
// is SENT it runs against a detached per-call timeout so cancelling the
// caller lets in-flight work complete or time out normally instead of being
// forcibly killed mid-request.
func (a *Adapter) ClassifyCrop(ctx context.Context, req Request) Classification {
	c, state := a.classify(ctx, req)
	a.logger.DebugContext(ctx, "classification call finished",
		"state", string(state),
		"graphic_type", c.GraphicType,
		"success", c.Success,
	)
	return c
}

// classify runs the PENDING -> SENT -> (SUCCEEDED | FAILED) state machine
// for one crop and reports the final state alongside the normalized result.
func (a *Adapter) classify(ctx context.Context, req Request) (Classification, State) {
	// PENDING: cancellation before send means the call is never issued.
	if err := ctx.Err(); err != nil {
		return Failed(fmt.Sprintf("cancelled before send: %v", err)), StateFailed
	}

	var lastErr error
	for attempt := 1; attempt <= a.retry.MaxAttempts; attempt++ {
		// SENT: detached from the caller's context on purpose; see
		// ClassifyCrop.
		callCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		raw, err := a.svc.Classify(callCtx, req.ImageBytes, req.Prompt)
		cancel()

		if err == nil {
			return Parse(raw), StateSucceeded
		}
		lastErr = err

		if attempt < a.retry.MaxAttempts {
			a.logger.WarnContext(ctx, "classification attempt failed, retrying",
				"attempt", attempt,
				"error", err,
			)
			select {
			case <-time.After(a.retry.Backoff):
			case <-ctx.Done():
				return Failed(fmt.Sprintf("cancelled during retry: %v", ctx.Err())), StateFailed
			}
		}
	}

	return Failed(lastErr.Error()), StateFailed
}

// ClassifyAll classifies every request with bounded concurrency and returns
// exactly one Classification per request, in request order.
//
// Cancellation stops new calls from being issued; requests not yet sent are
// fabricated as failures, while in-flight calls finish against their own
// timeouts. The output length always equals the input length.
func (a *Adapter) ClassifyAll(ctx context.Context, reqs []Request) []Classification {
	results := make([]Classification, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		if err := ctx.Err(); err != nil {
			results[i] = Failed(fmt.Sprintf("cancelled before send: %v", err))
			continue
		}
		if err := a.sem.Acquire(ctx, 1); err != nil {
			results[i] = Failed(fmt.Sprintf("cancelled before send: %v", err))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.sem.Release(1)
			results[i] = a.ClassifyCrop(ctx, req)
		}()
	}
	wg.Wait()

	return results
}
