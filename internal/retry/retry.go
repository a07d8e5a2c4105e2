// Package retry wraps calls to a text-generation collaborator with a
// predicate-driven retry loop.
//
// A call is retried when the collaborator fails or when its content does not
// pass the validator. The delay between attempts is fixed. Recoverable
// content is never discarded: if every attempt produced invalid content the
// last response is still returned.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scenekit/internal/llm"
)

// ErrNoContent wraps the last transport error when no attempt produced any
// content at all.
var ErrNoContent = errors.New("no content received")

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// Attempt describes a failed attempt, passed to OnRetry.
type Attempt struct {
	// Number is 1-based.
	Number int
	// Err is set when the collaborator failed.
	Err error
	// Content is set when the collaborator answered but the validator
	// rejected the answer.
	Content string
}

// Policy configures Do.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// Delay is slept between attempts (not after the last one).
	Delay time.Duration
	// Validator accepts usable content. Nil accepts anything.
	Validator Validator
	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(Attempt)
}

// DefaultPolicy returns a policy with the default bounds and validator.
func DefaultPolicy(v Validator) Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay, Validator: v}
}

// Result is the outcome of Do.
type Result struct {
	Response llm.Response
	// Attempts is the number of collaborator calls made.
	Attempts int
	// Valid reports whether Response passed the validator. False means the
	// attempts were exhausted and Response is the last content received.
	Valid bool
}

// Do calls gen until a response passes the validator or MaxAttempts is
// reached.
//
// Outcomes:
//   - first valid response: returned immediately (Valid=true)
//   - exhausted, some content received: last received response, nil error
//   - exhausted, every attempt failed: last error wrapped in ErrNoContent
//   - ctx cancelled while waiting between attempts: ctx.Err(), unless
//     content was already received, in which case that content is returned
func Do(ctx context.Context, gen llm.Generator, req llm.Request, p Policy) (Result, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		last     llm.Response
		received bool
		lastErr  error
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := gen.Generate(ctx, req)
		failed := Attempt{Number: attempt}
		if err != nil {
			lastErr = err
			failed.Err = err
		} else {
			last, received = resp, true
			if p.Validator == nil || p.Validator(resp.Content) {
				return Result{Response: resp, Attempts: attempt, Valid: true}, nil
			}
			failed.Content = resp.Content
		}

		if attempt == maxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(failed)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			if received {
				return Result{Response: last, Attempts: attempt}, nil
			}
			return Result{Attempts: attempt}, err
		}
	}

	if received {
		return Result{Response: last, Attempts: maxAttempts}, nil
	}
	return Result{Attempts: maxAttempts}, fmt.Errorf("%w after %d attempts: %w", ErrNoContent, maxAttempts, lastErr)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
