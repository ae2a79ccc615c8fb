// Package dataset provides tolerant loading of optional tabular artifacts
// (CSV and Excel) into immutable in-memory datasets, plus a process-wide
// cache keyed by path and modification time.
//
// Artifacts are optional by design: a missing or unparsable file is reported
// as absence (a nil dataset), never as a hard failure. The distinction
// between a missing and a malformed artifact is preserved in structured logs
// so operators can tell the two apart.
package dataset
