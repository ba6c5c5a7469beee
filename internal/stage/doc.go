// Package stage defines the shared vocabulary of the pipeline stages: stage
// names, per-file results, progress observers and health records.
//
// Stage components report through the Observer attached to their context,
// so the driver can record a run ledger and the CLI can draw progress bars
// without the components knowing about either.
package stage
