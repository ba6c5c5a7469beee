// Package watch re-runs the pipeline when videos land in the input
// directory. Bursts of filesystem events are debounced so a file copied in
// many writes, or many files dropped at once, trigger a single run.
package watch
