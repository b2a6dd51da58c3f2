// Package alert contains the dispatcher-side domain: the target snapshot,
// the immutable envelope sent to every responder and the aggregated
// dispatch result, together with the error taxonomy callers branch on.
package alert
