// Package ytapi wraps the YouTube Data API v3 with a resilient call
// executor: every remote call is classified on failure into retryable,
// quota-exhausted, skippable, or fatal, with exponential backoff for
// the retryable class and a process-wide latch for quota exhaustion.
package ytapi

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

const (
	initialDelay = 1 * time.Second
	maxDelay     = 30 * time.Second

	// HTTP errors get the full attempt budget; transport-level errors
	// (no HTTP status to classify) get a fixed smaller one.
	defaultMaxAttempts = 5
	nonHTTPAttempts    = 3
)

// Executor classifies remote failures and decides retry vs. abandon
// vs. skip. The sleep function is injectable so tests can observe the
// backoff schedule without waiting it out.
type Executor struct {
	latch       *QuotaLatch
	sleep       func(time.Duration)
	maxAttempts int
}

func NewExecutor(latch *QuotaLatch) *Executor {
	return &Executor{
		latch:       latch,
		sleep:       time.Sleep,
		maxAttempts: defaultMaxAttempts,
	}
}

// Latch exposes the executor's quota latch for callers that need to
// check whether partial results should be drained another way.
func (ex *Executor) Latch() *QuotaLatch {
	return ex.latch
}

// Execute runs call, classifying failures per the quota-metered API's
// error taxonomy. The label identifies the call site in logs and also
// drives classification: per-item listing calls are always skippable.
//
// A (zero, nil) return means "no data, proceed": the call was
// abandoned for quota exhaustion or skipped as not-found. A non-nil
// error is fatal for the call path.
func Execute[T any](ex *Executor, label string, call func() (T, error)) (T, error) {
	var zero T

	if ex.latch.Tripped() {
		slog.Debug("Skipping call, quota exhausted", "call", label)
		return zero, nil
	}

	delay := initialDelay
	httpAttempts := 0
	otherAttempts := 0

	for {
		resp, err := call()
		if err == nil {
			return resp, nil
		}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			status := apiErr.Code
			reason := errorReason(apiErr)

			if status == 403 && reason == "quotaExceeded" {
				ex.latch.Trip()
				slog.Error("API quota exhausted, abandoning further calls; videos already retrieved will still be processed",
					"call", label)
				return zero, nil
			}

			if isSkippable(status, reason, label) {
				slog.Warn("Skipping call", "call", label, "status", status, "reason", reason)
				return zero, nil
			}

			if !shouldRetry(status, reason) {
				slog.Error("Call failed", "call", label, "status", status, "reason", reason)
				return zero, err
			}

			httpAttempts++
			if httpAttempts >= ex.maxAttempts {
				slog.Error("Call failed after retries", "call", label, "attempts", httpAttempts, "error", err)
				return zero, err
			}
			slog.Warn("Retrying call", "call", label, "status", status, "reason", reason,
				"attempt", httpAttempts, "max_attempts", ex.maxAttempts, "sleep", delay)
		} else {
			otherAttempts++
			if otherAttempts >= nonHTTPAttempts {
				slog.Error("Call failed", "call", label, "error", err)
				return zero, err
			}
			slog.Warn("Retrying call", "call", label, "error", err,
				"attempt", otherAttempts, "max_attempts", nonHTTPAttempts, "sleep", delay)
		}

		ex.sleep(delay)
		delay = min(delay*2, maxDelay)
	}
}

func errorReason(err *googleapi.Error) string {
	if len(err.Errors) > 0 {
		return err.Errors[0].Reason
	}
	return ""
}

func shouldRetry(status int, reason string) bool {
	switch status {
	case 500, 502, 503, 504, 429:
		return true
	case 403:
		return reason == "rateLimitExceeded" || reason == "userRateLimitExceeded"
	}
	return false
}

// isSkippable reports whether the failure should skip this one
// item/source and continue with the rest. Listing a single playlist's
// items is always skippable: one closed channel must not abort the
// whole scan.
func isSkippable(status int, reason, label string) bool {
	if strings.HasPrefix(label, "playlistItems.list:") {
		if status == 403 || status == 404 {
			return true
		}
	}
	if status != 403 && status != 404 {
		return false
	}
	switch reason {
	case "playlistNotFound", "playlistItemsNotAccessible", "forbidden",
		"channelClosed", "channelSuspended", "channelDisabled":
		return true
	}
	return false
}
