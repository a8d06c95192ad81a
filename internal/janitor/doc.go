// Package janitor runs the periodic expiry sweep over the message store.
package janitor
