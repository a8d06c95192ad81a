// Package dedupe provides a time-based seen-key cache so repeated deliveries
// of the same message or thread are processed at most once per window.
package dedupe
