// Package triage orchestrates one classification pass over the currently
// unread messages of a mailbox.
//
// For each unread message the pipeline fetches the raw bytes, decodes them,
// marks the message read, asks the classification oracle for a label, and
// applies the label when one resolves. Messages advance through the states
// fetched, decoded, classified, labeled, and may exit at any of them without
// affecting the rest of the batch: per-message failures are converted into
// recorded outcomes or silent skips, never into a batch abort.
//
// Processing is strictly sequential by design. Mailbox mutations for one
// account must not race against themselves, and oracle latency dominates the
// run, so interleaving would buy throughput the system does not need at the
// cost of ordering guarantees it does.
package triage
