// Package stageexec runs a single pipeline stage with consistent lifecycle
// logging. Callers supply the handler and the work; Run attaches the stage
// name to the context, hands the handler a stage scoped logger, and reports
// the outcome.
package stageexec
