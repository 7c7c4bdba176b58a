// Package events consumes bucket upload notifications from Kafka and runs
// each one through the request handler. The consumer is the daemon-side
// replacement for a storage-trigger invocation: the notification payload is
// handed to the handler unchanged.
package events
