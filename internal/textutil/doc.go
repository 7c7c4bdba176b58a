// Package textutil normalizes request-supplied text. SanitizeFileName
// strips filesystem-unsafe characters before delivery joins user filenames
// into output paths; DisplayTitle turns an input reference into a
// human-readable score title for notifications and CLI views.
package textutil
