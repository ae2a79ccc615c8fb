// Package services composes the insights core - artifact loading, schema
// resolution, aggregation, forecast reconciliation and filtering - into the
// operations the reporting surface calls. Absent data is reported through
// sentinel errors, never as transport-level failures.
package services
