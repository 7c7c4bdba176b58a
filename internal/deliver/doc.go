// Package deliver routes finished artifacts to their destination. The mode is
// fixed at construction, never probed from the environment per request: a
// cloud router uploads and issues a presigned retrieval link, a local router
// copies into the requested directory. Exactly one durable write happens per
// successful delivery and failures are surfaced without retry.
package deliver
