// Package classify drives the bounded, fault-tolerant interaction with an
// external vision-classification service and normalizes its possibly
// malformed responses.
//
// # Call Lifecycle
//
// Every crop moves through a small state machine:
//
//	PENDING -> SENT -> (SUCCEEDED | FAILED)
//
// SENT enforces one timeout per call. Timeouts, transport errors, and
// non-2xx responses transition to FAILED and fabricate a Classification with
// Success=false rather than raising: classification failures never abort the
// pipeline, and every crop sent in produces exactly one Classification out.
//
// # Response Parsing
//
// The external service returns text that should be JSON-shaped per the
// documented schema but may not be; models routinely wrap the payload in
// prose or a fenced markdown code block. Parsing is isolated behind a single
// parse-or-degrade step: direct JSON first, then a fenced-block extraction,
// then schema validation. When structured parsing fails entirely the call
// still SUCCEEDS with GraphicType "unknown" and the raw text preserved in
// ContentDescription, because partial information is better than dropping
// the candidate.
//
// # Concurrency and Cancellation
//
// Calls are I/O-bound and issued with bounded concurrency (a weighted
// semaphore) to respect external rate limits. Cancelling the caller's
// context stops new calls from being issued, but calls already in flight run
// against a detached per-call timeout context so they complete or time out
// normally instead of being forcibly killed.
package classify
