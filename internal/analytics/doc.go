// Package analytics derives canonical monthly series and dimension rollups
// from loaded artifacts. A precomputed aggregate always wins over derivation
// from raw transactional records, and inability to produce a result is
// communicated as absence (a nil slice), never as an error.
package analytics
