// Package backoff classifies broker faults and retries transient ones.
//
// Every network-facing operation in this module runs under a Policy. A
// Policy declares two fault classes: expected faults are transient
// transport conditions worth retrying with a capped backoff, and noisy
// faults are benign outcomes of normal operation (such as "already
// exists" during idempotent provisioning) that are suppressed and
// treated as success. Anything else propagates to the caller unchanged.
package backoff
