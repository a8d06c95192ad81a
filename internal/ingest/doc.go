// Package ingest applies observed chat traffic to the store, dropping
// duplicate deliveries and publishing change events for accepted ones.
package ingest
