// Package notify fans out store change events to in-process subscribers,
// keyed by channel id with a wildcard topic for firehose consumers.
package notify
