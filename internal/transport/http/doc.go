// Package http exposes the insights core over a JSON API consumed by the
// reporting surface. Handlers translate absence of data into explicit
// "no data available" signals rather than server errors, and all failures
// are rendered as RFC 7807 problem documents.
package http
