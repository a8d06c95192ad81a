// Package preview turns markdown message bodies into plain text for
// single-line previews and notifications.
package preview
