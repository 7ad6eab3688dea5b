// Package streams implements a protocol adapter for the subscriber side of
// push-based, backpressure-aware streams: subscribe, bounded request, bounded
// delivery and exactly one terminal event. The adapter enforces the
// protocol's safety rules (single subscription, validated demand, contained
// hook failures, exactly-once termination) while users override only the
// semantic hooks for values, completion, errors and cancellation.
package streams
