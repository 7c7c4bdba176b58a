// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the processing milestones so the
// handler can emit consistent messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; callers depend only
// on the simple Service interface.
package notifications
