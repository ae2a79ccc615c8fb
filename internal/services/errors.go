package services

import "errors"

// Insights service errors.
var (
	// ErrNoDataAvailable means the artifacts backing an operation are
	// absent or unusable; the rendering layer shows an empty state.
	ErrNoDataAvailable = errors.New("no data available")

	// ErrArtifactNotFound means a named artifact is not part of the
	// configured set, or its file is missing on disk.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidHorizon means the requested forecast horizon is outside
	// the allowed range.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
)
