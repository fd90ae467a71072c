// Package ratelimit paces requests to the hosted hub.
//
// The hub client takes a Limiter and calls Wait before every request;
// PerMinute(n) builds a token bucket that refills n tokens each minute and
// returns nil for n <= 0, which disables pacing.
package ratelimit
