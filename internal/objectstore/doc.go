// Package objectstore wraps the S3-compatible client used for score upload
// staging and result delivery. Transfers are file based because the pipeline
// always works through tracked staging artifacts. The Store interface keeps
// handlers testable without a live endpoint; presigning is pure computation
// and needs no server at all.
package objectstore
