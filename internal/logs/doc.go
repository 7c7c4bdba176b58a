// Package logs tails the daemon log file with bounded memory.
//
// A negative offset requests the last N lines, a non-negative offset resumes
// from that byte position, and follow mode polls for new content under a
// caller-supplied context so `fingersatz show --follow` exits cleanly on
// interrupt.
package logs
