// Package handler is the boundary both invocation surfaces share. It
// normalizes bucket-notification events and direct requests into one
// canonical request, stages input into tracked temporary files, runs the
// annotation pipeline, routes delivery, and maps every outcome onto the
// response envelope contract.
package handler
