// Package pipeline drives the four stages over the data directory layout.
//
// A Runner executes extract, transcribe, translate and compose in that order
// with a hard barrier between stages: every file finishes a stage before any
// file enters the next one, and the first failure stops the run. Each run
// holds an exclusive lock on the data root, carries a UUID correlation id in
// its context, and records per-file outcomes in the run ledger through a
// stage.Observer. Single-stage commands reuse the same machinery.
//
// Pairing videos with their translated subtitles is explicit: PairByStem
// matches on file stems and reports leftovers, while PairSorted reproduces the
// historical zip-by-sorted-name behaviour for layouts that depend on it.
package pipeline
