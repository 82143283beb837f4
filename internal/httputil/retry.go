// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited HTTP fetch client shared by the
// provider packages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for linear backoff on transient
// provider errors. The wait grows linearly with the attempt number: base
// after the first failure, twice that after the second. Tests override this
// to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// maxAttempts is the total number of tries per request, including the first.
const maxAttempts = 3

// Politeness delays inserted by callers between independent provider calls.
// NCBI allows 3 requests/second anonymously and 10 with an API key.
const (
	PolitenessDelay        = 334 * time.Millisecond
	PolitenessDelayWithKey = 100 * time.Millisecond
)

// Politeness returns the delay a batch loop must sleep between provider
// round trips. Pacing is a caller responsibility: it differs per pipeline,
// so it is not built into Fetch.
func Politeness(hasKey bool) time.Duration {
	if hasKey {
		return PolitenessDelayWithKey
	}
	return PolitenessDelay
}

// FetchError is a terminal fetch failure carrying the last HTTP status.
// Transient reports whether the failure came from exhausting retries on a
// retryable status (429 or 5xx) rather than failing fast on a permanent one.
type FetchError struct {
	URL       string
	Status    int
	Transient bool
}

func (e *FetchError) Error() string {
	if e.Transient {
		return fmt.Sprintf("fetch %s: HTTP %d after %d attempts", e.URL, e.Status, maxAttempts)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
}

// outcome classifies one attempt so the retry policy is an explicit loop,
// testable apart from I/O.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeFatal
)

// classify maps an HTTP status to a retry outcome. Only 429 and 5xx are
// transient; any other non-2xx fails immediately without retry.
func classify(status int) outcome {
	switch {
	case status >= 200 && status < 300:
		return outcomeSuccess
	case status == http.StatusTooManyRequests || status >= 500:
		return outcomeRetryable
	default:
		return outcomeFatal
	}
}

// Fetch performs a GET with bounded retry and returns the response body.
// Retryable statuses are retried up to maxAttempts total tries with linear
// backoff (RetryBaseDelay × attempt); any other non-2xx status returns a
// *FetchError immediately. Network errors are not retried here; the batch
// layer decides whether to retry the whole entity. If the context is
// cancelled during a backoff wait the context error is returned.
func Fetch(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}

		switch classify(resp.StatusCode) {
		case outcomeSuccess:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", url, err)
			}
			return body, nil

		case outcomeFatal:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &FetchError{URL: url, Status: resp.StatusCode}

		default: // retryable
			io.Copy(io.Discard, resp.Body)
			status := resp.StatusCode
			resp.Body.Close()

			if attempt >= maxAttempts {
				return nil, &FetchError{URL: url, Status: status, Transient: true}
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * RetryBaseDelay):
			}
		}
	}
}
