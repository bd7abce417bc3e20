// Package progress provides the workflow.Notifier implementations used by
// agentmesh: a colored console renderer for the interactive chat, a
// structured-log notifier and a NATS publisher that streams turn events to
// other processes (the HTTP server relays them as server-sent events).
//
// Notifiers never fail a turn. Delivery problems are logged and dropped.
package progress
