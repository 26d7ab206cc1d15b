// Package resultformservice implements the result-form workflow of the
// results-processing context.
//
// The module owns the life of a paper tally sheet from barcode intake through
// double-blind data entry, corrections, quality control, quarantine checks,
// clearance and audit disputes, to archive. It also serves reference-data
// administration and the aggregate reports built from archived results.
// Business rules stay in the domain and application layers; storage, policy,
// telemetry and transport sit behind ports and adapters.
package resultformservice
