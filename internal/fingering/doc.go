// Package fingering orchestrates score annotation. A Generator parses the
// staged input, extracts one note sequence per hand by part index, runs the
// engine for both hands concurrently, merges the returned finger numbers back
// into the score, scrubs converter metadata, and writes the annotated
// document. Hands target disjoint parts, so the merge never conflicts.
package fingering
