// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. Event
// categories (queue, renders, crashes, errors) can be toggled individually so
// operators only receive the pushes they care about.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
