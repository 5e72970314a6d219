// Package classify adapts a local inference endpoint into a label oracle
// for decoded mailbox messages.
//
// The adapter issues one blocking chat request per message and expects a
// single label token back. Transport failures and non-success statuses are
// recoverable by contract: they yield a Result with no label and an error
// marker instead of an error, so callers degrade to "no action" rather
// than aborting a batch. Retries, if any, belong to the caller.
package classify
