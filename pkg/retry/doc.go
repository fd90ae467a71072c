// Package retry re-runs idempotent hub requests that failed with a transient
// error (network failure, HTTP 429 or 5xx).
//
//	err := retry.Do(ctx, func() error {
//		return client.postJSON(ctx, url, body, &out)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.NewErrorTypeBackoff(),
//		Logger:      log,
//	})
//
// Authentication, permission, not-found and conflict errors are returned
// immediately. Rate limit errors back off longer than network errors.
package retry
