// Package runner drives complete user turns: it serializes turns per
// session, enforces the wall-clock turn budget, hands the request to the
// coordinator and commits the resulting turns to the session store with
// optimistic concurrency retries.
package runner
