// Package pianoplayer wraps the pianoplayer fingering engine CLI. The engine
// receives one hand's note sequence as JSON on stdin and answers with a finger
// number per note on stdout. A package-level command constructor keeps the
// subprocess boundary swappable in tests.
package pianoplayer
